package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: cadtool info <file.zcad>")
	}
	a, err := cadfmt.ParseAssetFile(args[0])
	if err != nil {
		return err
	}
	libs, err := a.Open()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Asset:\t%s\n", a.Name)
	fmt.Fprintf(tw, "Version:\t%s\n", a.Version)
	fmt.Fprintf(tw, "Curves:\t%d\t(raster %dx%d)\n", libs.Curves.Count(), libs.Curves.TextureWidth(), libs.Curves.TextureWidth())
	fmt.Fprintf(tw, "Surfaces:\t%d\t(raster %dx%d, area %.4g)\n",
		libs.Surfaces.Count(), libs.Surfaces.TextureWidth(), libs.Surfaces.TextureWidth(), libs.Surfaces.TotalArea())
	if libs.TrimSets != nil {
		fmt.Fprintf(tw, "Trim sets:\t%d\t(raster %dx%d)\n", libs.TrimSets.Count(), libs.TrimSets.TextureWidth(), libs.TrimSets.TextureWidth())
	} else {
		fmt.Fprintf(tw, "Trim sets:\t0\n")
	}
	fmt.Fprintf(tw, "Bodies:\t%d\n", libs.Bodies.Count())
	tw.Flush()

	types := make(map[cadfmt.SurfaceType]int)
	for id := 0; id < libs.Surfaces.Count(); id++ {
		dims, err := libs.Surfaces.SurfaceDims(id)
		if err != nil {
			fmt.Fprintf(stdout, "  surface %d: %v\n", id, err)
			continue
		}
		types[dims.Type]++
	}
	fmt.Fprintln(stdout, "\nSurfaces by type:")
	for t := cadfmt.SurfaceType(0); t <= cadfmt.SurfaceTypeNurbsSurface; t++ {
		if n := types[t]; n > 0 {
			fmt.Fprintf(stdout, "  %-28s %d\n", t, n)
		}
	}
	return nil
}

func cmdLayout(args []string) error {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	e, path, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer e.Close()

	_, res, err := e.layout(context.Background(), path)
	if err != nil {
		return err
	}
	printLayout(stdout, res)
	return nil
}

func cmdSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	version := fs.String("version", cadfmt.CurrentVersion.String(), "Format version to write")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: cadtool sample [-version v] <out.zcad>")
	}
	v, err := cadfmt.ParseVersion(*version)
	if err != nil {
		return err
	}
	a := sampleAsset("sample").Build(v)
	if err := a.WriteFile(fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s (format %s)\n", fs.Arg(0), v)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
