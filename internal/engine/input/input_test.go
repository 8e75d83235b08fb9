package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  Event
		ok    bool
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, Event{Type: EventQuit}, true},
		{"resize", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 640, Data2: 480},
			Event{Type: EventWindowResize, Width: 640, Height: 480}, true},
		{"window moved", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED}, Event{}, false},
		{"key down", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_H}},
			Event{Type: EventKeyDown, Key: sdl.SCANCODE_H}, true},
		{"drag", &sdl.MouseMotionEvent{X: 10, Y: 20, XRel: 3, YRel: -2, State: sdl.ButtonLMask()},
			Event{Type: EventMouseMove, MouseX: 10, MouseY: 20, DeltaX: 3, DeltaY: -2, Buttons: sdl.ButtonLMask()}, true},
		{"button up", &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_LEFT, X: 1, Y: 2},
			Event{Type: EventMouseUp, MouseX: 1, MouseY: 2, Button: sdl.BUTTON_LEFT}, true},
		{"wheel", &sdl.MouseWheelEvent{Y: 2}, Event{Type: EventMouseWheel, DeltaY: 2}, true},
		{"flipped wheel", &sdl.MouseWheelEvent{Y: 2, Direction: sdl.MOUSEWHEEL_FLIPPED},
			Event{Type: EventMouseWheel, DeltaY: -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convert(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDragging(t *testing.T) {
	assert.True(t, Event{Type: EventMouseMove, Buttons: sdl.ButtonLMask()}.Dragging())
	assert.False(t, Event{Type: EventMouseMove}.Dragging())
	assert.False(t, Event{Type: EventMouseWheel, Buttons: sdl.ButtonLMask()}.Dragging())
}

func TestIsKeyPressed(t *testing.T) {
	in := New()
	in.events = append(in.events, Event{Type: EventKeyDown, Key: sdl.SCANCODE_H})
	assert.True(t, in.IsKeyPressed(sdl.SCANCODE_H))
	assert.False(t, in.IsKeyPressed(sdl.SCANCODE_F))
}
