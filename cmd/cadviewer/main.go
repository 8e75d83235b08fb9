// Package main is the entry point for the GL evaluator: it runs the GPU
// pipeline on an asset and reports atlas statistics, optionally checking
// the result against the host backend. With -show it draws the
// tessellated draw sets in an orbit view.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/assets"
	"github.com/Faultbox/midgard-cad/internal/config"
	"github.com/Faultbox/midgard-cad/internal/engine/debug"
	"github.com/Faultbox/midgard-cad/internal/engine/gpu"
	"github.com/Faultbox/midgard-cad/internal/engine/window"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/pipeline"
	"github.com/Faultbox/midgard-cad/internal/scene"
	"github.com/Faultbox/midgard-cad/internal/worker"
)

func main() {
	var flags config.Flags
	fs := flag.NewFlagSet("cadviewer", flag.ExitOnError)
	flags.Register(fs)
	runs := fs.Int("runs", 1, "Number of pipeline runs to time")
	compare := fs.Bool("compare", false, "Compare against the host backend")
	show := fs.Bool("show", false, "Show the window until it is closed")
	shots := fs.String("screenshots", "screenshots", "Directory for F12 screenshots")
	fs.Parse(os.Args[1:])
	path := fs.Arg(0)
	if path == "" {
		var err error
		if path, err = chooseAsset(); err != nil {
			fmt.Fprintln(os.Stderr, "Usage: cadviewer [flags] [file.zcad]")
			if !errors.Is(err, dialog.ErrCancelled) {
				fmt.Fprintf(os.Stderr, "File dialog error: %v\n", err)
			}
			os.Exit(1)
		}
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard CAD viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg, path, *runs, *compare, *show, *shots); err != nil {
		logger.Error("viewer failed", zap.Error(err))
		os.Exit(1)
	}
}

// chooseAsset asks for an asset with the native file dialog.
func chooseAsset() (string, error) {
	return dialog.File().
		Filter("CAD Assets", "zcad").
		Filter("All Files", "*").
		Title("Open CAD Asset").
		Load()
}

func run(cfg *config.Config, path string, runs int, compare, show bool, shots string) error {
	pool := worker.NewPool(cfg.Worker.Concurrency)
	defer pool.Close()
	mgr := assets.NewManager()
	defer mgr.Close()

	a, err := mgr.Load(path)
	if err != nil {
		return err
	}
	opts := scene.OptionsFrom(cfg, 1)
	if show {
		// Highlight changes must reach the renderer on the GL thread.
		opts.HighlightDebounce = 0
	}
	as, err := scene.NewAsset(a, pool, opts)
	if err != nil {
		return err
	}
	as.PlaceAllBodies()

	ctx := context.Background()
	res, err := as.Relayout(ctx)
	if err != nil {
		return err
	}

	win, err := window.New(window.Config{
		Title:  "Midgard CAD - " + as.Name,
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
		Hidden: !show,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	backend, err := gpu.New(as.Libraries(), cfg.Layout.StripWidth)
	if err != nil {
		return err
	}
	defer backend.Destroy()

	p := pipeline.New(backend, pipeline.Options{SeparatePasses: cfg.Render.SeparatePasses})
	var atlases *pipeline.Atlases
	var total time.Duration
	for i := 0; i < max(runs, 1); i++ {
		start := time.Now()
		var timings []pipeline.Timing
		atlases, timings, err = p.Run(ctx, res)
		if err != nil {
			return err
		}
		total += time.Since(start)
		for _, t := range timings {
			logger.Debug("stage", zap.Int("run", i), zap.String("stage", string(t.Stage)), zap.Duration("duration", t.Duration))
		}
	}

	fmt.Printf("Asset:     %s\n", as.Name)
	fmt.Printf("Curves:    %d packed, atlas %dx%d\n", res.Stats.Curves.Packed, res.Curves.Width, res.Curves.Height)
	fmt.Printf("Surfaces:  %d packed, atlas %dx%d\n", res.Stats.Surfaces.Packed, res.Surfaces.Width, res.Surfaces.Height)
	fmt.Printf("Trim sets: %d packed, atlas %dx%d\n", res.Stats.TrimSets.Packed, res.TrimSets.Width, res.TrimSets.Height)
	fmt.Printf("Pipeline:  %s average over %d runs\n", total/time.Duration(max(runs, 1)), max(runs, 1))

	if compare {
		cpu := pipeline.NewCPUBackend(as.Libraries(), cfg.Worker.Concurrency, cfg.Layout.StripWidth)
		ref, _, err := pipeline.New(cpu, pipeline.Options{}).Run(ctx, res)
		if err != nil {
			return err
		}
		for _, d := range compareAtlases(atlases, ref) {
			fmt.Printf("  %-18s max |gl-cpu| = %.5f over %d texels\n", d.Name, d.Max, d.Texels)
		}
	}

	if show {
		win.SetTitle(fmt.Sprintf("Midgard CAD - %s (%d surfaces)", as.Name, res.Stats.Surfaces.Packed))
		return view(win, as, res, backend, debug.NewScreenshots(shots, "cadviewer"))
	}
	return nil
}
