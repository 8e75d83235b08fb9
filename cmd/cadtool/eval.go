package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/midgard-cad/internal/engine/gpu"
	"github.com/Faultbox/midgard-cad/internal/engine/texture"
	"github.com/Faultbox/midgard-cad/internal/engine/window"
	"github.com/Faultbox/midgard-cad/internal/eval"
	"github.com/Faultbox/midgard-cad/internal/pipeline"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

func cmdEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	imageDir := fs.String("images", "", "Write atlas images to this directory")
	format := fs.String("format", "png", "Atlas image format: png, bmp or tiff")
	point := fs.String("point", "", "Also evaluate one surface on the host: id,u,v")
	e, path, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	as, res, err := e.layout(ctx, path)
	if err != nil {
		return err
	}
	libs := as.Libraries()

	backend, closeBackend, err := newBackend(e, libs)
	if err != nil {
		return err
	}
	defer closeBackend()

	p := pipeline.New(backend, pipeline.Options{SeparatePasses: e.cfg.Render.SeparatePasses})
	atlases, timings, err := p.Run(ctx, res)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Backend: %s\n", backend.Name())
	for _, t := range timings {
		fmt.Fprintf(stdout, "  %-18s %s\n", t.Stage, t.Duration)
	}
	if s := atlases.Surfaces; s != nil {
		fmt.Fprintf(stdout, "Surface atlas: %dx%d, fallbacks: %d, skipped: %d\n",
			res.Surfaces.Width, res.Surfaces.Height, s.Fallbacks, s.Skipped)
	}
	if m := atlases.Trims; m != nil {
		inside := 0
		for _, v := range m.Pix {
			if v >= 0.5 {
				inside++
			}
		}
		fmt.Fprintf(stdout, "Trim mask: %dx%d, %d texels inside\n", m.Width, m.Height, inside)
	}

	if *point != "" {
		if err := printPoint(libs, e.cfg.Worker.Concurrency, *point); err != nil {
			return err
		}
	}
	if *imageDir != "" {
		enc, ok := imageEncoders[*format]
		if !ok {
			return fmt.Errorf("unknown image format %q", *format)
		}
		return writeAtlases(*imageDir, *format, enc, atlases)
	}
	return nil
}

// newBackend creates the configured evaluation backend. The GL backend
// owns a hidden window for its context.
func newBackend(e *env, libs *cadfmt.Libraries) (pipeline.Backend, func(), error) {
	switch e.cfg.Render.Backend {
	case "gl":
		win, err := window.New(window.Config{
			Title:  "cadtool",
			Width:  e.cfg.Render.Width,
			Height: e.cfg.Render.Height,
			Hidden: true,
		})
		if err != nil {
			return nil, nil, err
		}
		b, err := gpu.New(libs, e.cfg.Layout.StripWidth)
		if err != nil {
			win.Close()
			return nil, nil, err
		}
		return b, func() {
			b.Destroy()
			win.Close()
		}, nil
	default:
		return pipeline.NewCPUBackend(libs, e.cfg.Worker.Concurrency, e.cfg.Layout.StripWidth), func() {}, nil
	}
}

func printPoint(libs *cadfmt.Libraries, concurrency int, arg string) error {
	var id int
	var u, v float32
	if _, err := fmt.Sscanf(arg, "%d,%g,%g", &id, &u, &v); err != nil {
		return fmt.Errorf("parsing -point %q: %w", arg, err)
	}
	s, err := eval.NewEvaluator(libs, concurrency).SurfacePoint(id, math.Vec2{X: u, Y: v})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Surface %d at (%g, %g): position %v normal %v\n", id, u, v, s.Position, s.Normal)
	return nil
}

// imageEncoders maps -format values to encoders.
var imageEncoders = map[string]func(io.Writer, image.Image) error{
	"png": png.Encode,
	"bmp": bmp.Encode,
	"tiff": func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	},
}

func writeAtlases(dir, ext string, enc func(io.Writer, image.Image) error, a *pipeline.Atlases) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	images := map[string]image.Image{}
	if a.Curves != nil {
		images["curve_positions"] = floatImage(a.Curves.Positions, texture.RemapBounds)
		images["curve_tangents"] = floatImage(a.Curves.Tangents, texture.RemapBounds)
	}
	if a.Surfaces != nil {
		if a.Surfaces.Positions != nil {
			images["surface_positions"] = floatImage(a.Surfaces.Positions, texture.RemapBounds)
		}
		if a.Surfaces.Normals != nil {
			images["surface_normals"] = floatImage(a.Surfaces.Normals, texture.RemapSigned)
		}
	}
	if a.Trims != nil && a.Trims.Width > 0 {
		images["trim_mask"] = texture.GrayToImage(a.Trims.Pix, a.Trims.Width, a.Trims.Height)
	}

	for name, img := range images {
		if img.Bounds().Empty() {
			continue
		}
		path := filepath.Join(dir, name+"."+ext)
		if err := writeImage(path, img, enc); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
	}
	return nil
}

func floatImage(m *eval.Image, remap texture.Remap) image.Image {
	return texture.FloatToRGBA(m.Pix, m.Width, m.Height, remap)
}

func writeImage(path string, img image.Image, enc func(io.Writer, image.Image) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
