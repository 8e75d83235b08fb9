package main

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/engine/camera"
	"github.com/Faultbox/midgard-cad/internal/engine/debug"
	"github.com/Faultbox/midgard-cad/internal/engine/gpu"
	"github.com/Faultbox/midgard-cad/internal/engine/input"
	"github.com/Faultbox/midgard-cad/internal/engine/picking"
	"github.com/Faultbox/midgard-cad/internal/engine/renderer"
	"github.com/Faultbox/midgard-cad/internal/engine/window"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/scene"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// sceneBounds is the union of the bounding boxes of the placed bodies.
func sceneBounds(boxes []math.Box3) math.Box3 {
	box := math.EmptyBox3()
	for _, b := range boxes {
		box = box.Union(b)
	}
	return box
}

// clickSlop is how far in pixels the mouse may move between press and
// release for the release to count as a click.
const clickSlop = 4

// nextSelection cycles through n bodies; -1 selects nothing.
func nextSelection(cur, n int) int {
	if n == 0 || cur+1 >= n {
		return -1
	}
	return cur + 1
}

// view draws the asset until the window is closed. Dragging orbits, the
// wheel zooms, clicking picks the highlighted body and Tab cycles it. F12
// saves a screenshot after the frame is drawn.
func view(win *window.Window, as *scene.Asset, res *layout.Result, backend *gpu.Backend, shots *debug.Screenshots) error {
	w, h := win.GetSize()
	r, err := renderer.New(renderer.Config{Width: w, Height: h}, scene.NewMeshCache())
	if err != nil {
		return err
	}
	defer r.Close()
	r.SetResult(as.Libraries(), res)

	boxes := as.Bounds()
	cam := camera.NewOrbitCamera()
	cam.FitToBox(sceneBounds(boxes))

	// The asset flushes highlight changes synchronously, so the callback
	// runs on this thread.
	dirty := false
	as.OnDrawSetsChanged(func(keys []layout.DrawSetKey) {
		logger.Debug("draw sets changed", zap.Int("keys", len(keys)))
		dirty = true
	})

	selected := -1
	sel := func(i int) {
		if i == selected {
			return
		}
		if selected >= 0 {
			as.SetHighlighted(selected, false)
		}
		selected = i
		if selected >= 0 {
			as.SetHighlighted(selected, true)
		}
		win.SetTitle(fmt.Sprintf("Midgard CAD - %s (body %d)", as.Name, selected))
	}

	in := input.New()
	var downX, downY int
	for !in.Update() {
		for _, e := range in.Events() {
			switch {
			case e.Type == input.EventWindowResize:
				r.Resize(e.Width, e.Height)
			case e.Dragging():
				cam.HandleDrag(e.DeltaX, e.DeltaY)
			case e.Type == input.EventMouseWheel:
				cam.HandleZoom(e.DeltaY)
			case e.Type == input.EventMouseDown && e.Button == sdl.BUTTON_LEFT:
				downX, downY = e.MouseX, e.MouseY
			case e.Type == input.EventMouseUp && e.Button == sdl.BUTTON_LEFT:
				if abs(e.MouseX-downX) <= clickSlop && abs(e.MouseY-downY) <= clickSlop {
					sel(pick(cam, r, e.MouseX, e.MouseY, boxes))
				}
			}
		}
		if in.IsKeyPressed(sdl.SCANCODE_TAB) {
			sel(nextSelection(selected, len(res.Bodies)))
		}

		if dirty {
			r.SetResult(as.Libraries(), as.Result())
			dirty = false
		}

		r.Draw(cam.ViewMatrix(), cam.ProjectionMatrix(r.Aspect()), backend.Targets())
		if in.IsKeyPressed(sdl.SCANCODE_F12) {
			screenshot(r, shots)
		}
		win.SwapBuffers()
		time.Sleep(16 * time.Millisecond)
	}
	return nil
}

func screenshot(r *renderer.Renderer, shots *debug.Screenshots) {
	w, h := r.Size()
	img, err := debug.FromPixels(r.ReadPixels(), w, h)
	if err == nil {
		var name string
		if name, err = shots.Save(img); err == nil {
			logger.Info("screenshot saved", zap.String("path", name))
			return
		}
	}
	logger.Warn("screenshot failed", zap.Error(err))
}

// pick returns the placed body under pixel (x, y), or -1.
func pick(cam *camera.OrbitCamera, r *renderer.Renderer, x, y int, boxes []math.Box3) int {
	inv, ok := cam.ProjectionMatrix(r.Aspect()).Mul(cam.ViewMatrix()).Inverse()
	if !ok {
		return -1
	}
	w, h := r.Size()
	ray := picking.ScreenToRay(float32(x)+0.5, float32(y)+0.5, float32(w), float32(h), inv)
	return ray.Pick(boxes)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
