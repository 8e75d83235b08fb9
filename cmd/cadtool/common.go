package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/Faultbox/midgard-cad/internal/assets"
	"github.com/Faultbox/midgard-cad/internal/config"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/scene"
	"github.com/Faultbox/midgard-cad/internal/worker"
)

// env is the state shared by the layout commands.
type env struct {
	cfg    *config.Config
	assets *assets.Manager
	pool   *worker.Pool
}

// parse registers the common flags on fs, parses args and loads the config
// and logger. It returns the asset path argument.
func parse(fs *flag.FlagSet, args []string) (*env, string, error) {
	var flags config.Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if fs.NArg() < 1 {
		return nil, "", fmt.Errorf("usage: cadtool %s [flags] <file.zcad>", fs.Name())
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return nil, "", fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, "", fmt.Errorf("logger: %w", err)
	}

	return &env{
		cfg:    cfg,
		assets: assets.NewManager(),
		pool:   worker.NewPool(cfg.Worker.Concurrency),
	}, fs.Arg(0), nil
}

func (e *env) Close() {
	e.pool.Close()
	e.assets.Close()
	logger.Sync()
}

// open loads path and places every library body once.
func (e *env) open(path string) (*scene.Asset, error) {
	a, err := e.assets.Load(path)
	if err != nil {
		return nil, err
	}
	as, err := scene.NewAsset(a, e.pool, scene.OptionsFrom(e.cfg, 1))
	if err != nil {
		return nil, err
	}
	as.PlaceAllBodies()
	return as, nil
}

func (e *env) layout(ctx context.Context, path string) (*scene.Asset, *layout.Result, error) {
	as, err := e.open(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := as.Relayout(ctx)
	if err != nil {
		return nil, nil, err
	}
	return as, res, nil
}

func printLayout(w io.Writer, res *layout.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tolerance:\t%g\n", res.ErrorTolerance)
	fmt.Fprintf(tw, "Elapsed:\t%s\n", res.Stats.Elapsed)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Library\tTotal\tPacked\tCulled\tFailed\tAtlas\tUtilization")
	row := func(name string, s layout.LibraryStats, a *layout.AtlasLayout) {
		atlas := "-"
		util := "-"
		if a != nil {
			atlas = fmt.Sprintf("%dx%d", a.Width, a.Height)
			util = fmt.Sprintf("%.1f%%", a.Utilization*100)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n", name, s.Total, s.Packed, s.Culled, s.Failed, atlas, util)
	}
	row("curves", res.Stats.Curves, &res.Curves.AtlasLayout)
	row("surfaces", res.Stats.Surfaces, &res.Surfaces.AtlasLayout)
	row("trim sets", res.Stats.TrimSets, &res.TrimSets.AtlasLayout)
	row("bodies", res.Stats.Bodies, nil)
	tw.Flush()

	fmt.Fprintf(w, "\nSurfaces by category: simple=%d compound=%d nurbs=%d (detail clamped: %d, non-finite: %d)\n",
		res.Stats.SurfacesByCategory[0], res.Stats.SurfacesByCategory[1],
		res.Stats.SurfacesByCategory[2], res.Stats.DetailClamped, res.Stats.DetailNonFinite)

	keys := make([]layout.DrawSetKey, 0, len(res.SurfaceDrawSets))
	for k := range res.SurfaceDrawSets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Shader != b.Shader {
			return a.Shader < b.Shader
		}
		if a.Shape != b.Shape {
			return a.Shape.U < b.Shape.U || (a.Shape.U == b.Shape.U && a.Shape.V < b.Shape.V)
		}
		return !a.Highlighted && b.Highlighted
	})
	fmt.Fprintf(w, "\nSurface draw sets: %d (%d instances), curve draw sets: %d (%d instances)\n",
		len(res.SurfaceDrawSets), res.SurfaceDrawSets.Len(), len(res.CurveDrawSets), res.CurveDrawSets.Len())
	for _, k := range keys {
		fmt.Fprintf(w, "  shader %d  %3dx%-3d  highlighted=%-5t  %d instances\n",
			k.Shader, k.Shape.U, k.Shape.V, k.Highlighted, len(res.SurfaceDrawSets[k].Instances))
	}

	if len(res.Errors) > 0 {
		fmt.Fprintf(w, "\nSkipped records: %d\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  %v\n", e)
		}
	}
}

var stdout io.Writer = os.Stdout
