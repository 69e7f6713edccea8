// Package viewer implements the modal image inspector: a small state
// machine over a single image URL with pan and zoom geometry.
//
// Preloading happens out of band. Open returns a load function the TUI
// runs as a command; the result carries a generation number and is
// discarded if the viewer was closed or reopened in the meantime, so a
// late-resolving fetch can never mutate a viewer it no longer belongs to.
package viewer

import (
	"bytes"
	"context"
	"image"
	"math"
	"time"

	// Registered decoders for attachment preloading.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/intraworks/workbench/internal/errors"
)

// State is the viewer lifecycle state.
type State int

// Viewer states
const (
	// StateClosed means no image is open
	StateClosed State = iota
	// StateLoading means the image is being preloaded
	StateLoading
	// StateReady means the image loaded and can be inspected
	StateReady
	// StateError means the preload failed
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher fetches raw image bytes. *api.Client satisfies it.
type Fetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// LoadResult is the outcome of a preload, tagged with the generation of
// the Open call that started it.
type LoadResult struct {
	Gen    int
	Width  int
	Height int
	Err    error
}

// LoadFunc performs the preload. Run it off the update loop and feed the
// result back through Deliver.
type LoadFunc func() LoadResult

const (
	zoomStep      = 1.25
	wheelThrottle = 20 * time.Millisecond
)

// Viewer is the modal image inspector. Not safe for concurrent use; it
// lives on the TUI update loop, which is single-threaded.
type Viewer struct {
	fetcher Fetcher

	state State
	url   string
	alt   string
	err   error

	// gen invalidates in-flight preloads from earlier Opens
	gen    int
	cancel context.CancelFunc

	imgW, imgH int

	containerW, containerH int

	scale    float64
	minScale float64
	maxScale float64
	offsetX  float64
	offsetY  float64

	dragging  bool
	dragX     float64
	dragY     float64
	lastWheel time.Time
	nowFunc   func() time.Time
}

// New creates a closed viewer.
func New(fetcher Fetcher) *Viewer {
	return &Viewer{
		fetcher: fetcher,
		state:   StateClosed,
		scale:   1,
		nowFunc: time.Now,
	}
}

// State returns the current lifecycle state.
func (v *Viewer) State() State { return v.state }

// URL returns the open image URL, empty when closed.
func (v *Viewer) URL() string { return v.url }

// Alt returns the open image's alt text.
func (v *Viewer) Alt() string { return v.alt }

// Err returns the preload error while in StateError.
func (v *Viewer) Err() error { return v.err }

// Scale returns the current zoom scale.
func (v *Viewer) Scale() float64 { return v.scale }

// Offset returns the current pan offset relative to the centered image.
func (v *Viewer) Offset() (x, y float64) { return v.offsetX, v.offsetY }

// ImageSize returns the loaded image dimensions.
func (v *Viewer) ImageSize() (w, h int) { return v.imgW, v.imgH }

// SetContainerSize records the available viewport and recomputes the
// scale bounds. Safe to call in any state.
func (v *Viewer) SetContainerSize(w, h int) {
	v.containerW, v.containerH = w, h
	if v.state == StateReady {
		v.recomputeBounds()
		v.clampScale()
		v.clampOffset()
	}
}

// Open starts loading url, superseding any image already open. The
// returned LoadFunc performs the fetch and decode; its result must be
// handed to Deliver.
func (v *Viewer) Open(url, alt string) LoadFunc {
	// Cancel the previous preload before its result can race this one.
	if v.cancel != nil {
		v.cancel()
	}

	v.gen++
	v.state = StateLoading
	v.url = url
	v.alt = alt
	v.err = nil
	v.imgW, v.imgH = 0, 0

	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	gen := v.gen
	fetcher := v.fetcher
	return func() LoadResult {
		data, err := fetcher.FetchImage(ctx, url)
		if err != nil {
			return LoadResult{Gen: gen, Err: err}
		}

		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return LoadResult{Gen: gen, Err: errors.Wrap(errors.ErrCodeViewerDecode, "cannot decode image", err)}
		}

		return LoadResult{Gen: gen, Width: cfg.Width, Height: cfg.Height}
	}
}

// Deliver applies a preload result. Results from a superseded or closed
// viewer generation are discarded.
func (v *Viewer) Deliver(res LoadResult) {
	if res.Gen != v.gen || v.state != StateLoading {
		return
	}

	if res.Err != nil {
		v.state = StateError
		v.err = res.Err
		return
	}

	v.state = StateReady
	v.imgW, v.imgH = res.Width, res.Height
	v.recomputeBounds()
	v.Reset()
}

// Close cancels any in-flight preload and returns the viewer to closed.
func (v *Viewer) Close() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
	v.state = StateClosed
	v.url = ""
	v.alt = ""
	v.err = nil
	v.dragging = false
}

// Reset restores the fit-to-container scale with the image centered.
func (v *Viewer) Reset() {
	v.scale = v.minScale
	v.offsetX, v.offsetY = 0, 0
}

// recomputeBounds derives the scale clamp from the container-to-image fit.
func (v *Viewer) recomputeBounds() {
	if v.imgW <= 0 || v.imgH <= 0 || v.containerW <= 0 || v.containerH <= 0 {
		v.minScale, v.maxScale = 1, 5
		return
	}

	fit := math.Min(
		float64(v.containerW)/float64(v.imgW),
		float64(v.containerH)/float64(v.imgH),
	)
	// Never scale small images up just to fill the container.
	v.minScale = math.Min(fit, 1)
	v.maxScale = math.Max(5, fit*8)
}

// ZoomIn zooms one step anchored at the container center.
func (v *Viewer) ZoomIn() { v.ZoomAt(0, 0, zoomStep) }

// ZoomOut zooms out one step anchored at the container center.
func (v *Viewer) ZoomOut() { v.ZoomAt(0, 0, 1/zoomStep) }

// ZoomAt multiplies the scale by factor, keeping the focal point (given
// relative to the container center) fixed on screen.
func (v *Viewer) ZoomAt(focalX, focalY, factor float64) {
	if v.state != StateReady {
		return
	}

	oldScale := v.scale
	v.scale *= factor
	v.clampScale()
	if v.scale == oldScale {
		return
	}

	ratio := v.scale / oldScale
	v.offsetX = focalX - (focalX-v.offsetX)*ratio
	v.offsetY = focalY - (focalY-v.offsetY)*ratio
	v.clampOffset()
}

// Wheel applies a throttled wheel zoom anchored at the cursor position.
// Returns false when the event was swallowed by the throttle window.
func (v *Viewer) Wheel(in bool, focalX, focalY float64) bool {
	now := v.nowFunc()
	if now.Sub(v.lastWheel) < wheelThrottle {
		return false
	}
	v.lastWheel = now

	factor := zoomStep
	if !in {
		factor = 1 / zoomStep
	}
	v.ZoomAt(focalX, focalY, factor)
	return true
}

// ToggleZoom implements the double-click behavior: zoom in on the point
// when at fit scale, otherwise reset to fit.
func (v *Viewer) ToggleZoom(focalX, focalY float64) {
	if v.state != StateReady {
		return
	}

	if v.scale > v.minScale {
		v.Reset()
		return
	}
	v.ZoomAt(focalX, focalY, math.Min(2, v.maxScale/v.minScale))
}

// StartDrag begins a pointer pan from the given position.
func (v *Viewer) StartDrag(x, y float64) {
	if v.state != StateReady {
		return
	}
	v.dragging = true
	v.dragX, v.dragY = x, y
}

// Drag continues a pointer pan.
func (v *Viewer) Drag(x, y float64) {
	if !v.dragging {
		return
	}
	v.Pan(x-v.dragX, y-v.dragY)
	v.dragX, v.dragY = x, y
}

// EndDrag finishes a pointer pan.
func (v *Viewer) EndDrag() { v.dragging = false }

// Pan shifts the image by (dx, dy), clamped so it cannot be pushed fully
// out of view.
func (v *Viewer) Pan(dx, dy float64) {
	if v.state != StateReady {
		return
	}
	v.offsetX += dx
	v.offsetY += dy
	v.clampOffset()
}

// Zoomed reports whether the image is zoomed past its fit scale.
func (v *Viewer) Zoomed() bool {
	return v.state == StateReady && v.scale > v.minScale
}

// HandleKey applies a keyboard shortcut. Returns true when the key was
// consumed. Escape closes; +/-/0 zoom; arrows pan while zoomed.
func (v *Viewer) HandleKey(key string) bool {
	if v.state == StateClosed {
		return false
	}

	const panStep = 24

	switch key {
	case "esc":
		v.Close()
		return true
	case "+", "=":
		v.ZoomIn()
		return true
	case "-":
		v.ZoomOut()
		return true
	case "0":
		v.Reset()
		return true
	case "up", "down", "left", "right":
		if !v.Zoomed() {
			return false
		}
		switch key {
		case "up":
			v.Pan(0, panStep)
		case "down":
			v.Pan(0, -panStep)
		case "left":
			v.Pan(panStep, 0)
		case "right":
			v.Pan(-panStep, 0)
		}
		return true
	}

	return false
}

func (v *Viewer) clampScale() {
	v.scale = math.Max(v.minScale, math.Min(v.maxScale, v.scale))
}

// clampOffset keeps the image inside the viewport: axes where the scaled
// image fits stay centered, the rest clamp to the overhang.
func (v *Viewer) clampOffset() {
	scaledW := float64(v.imgW) * v.scale
	scaledH := float64(v.imgH) * v.scale

	v.offsetX = clampAxis(v.offsetX, scaledW, float64(v.containerW))
	v.offsetY = clampAxis(v.offsetY, scaledH, float64(v.containerH))
}

func clampAxis(offset, scaled, container float64) float64 {
	if scaled <= container {
		return 0
	}
	limit := (scaled - container) / 2
	return math.Max(-limit, math.Min(limit, offset))
}
