package viewer

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intraworks/workbench/internal/errors"
)

type fakeFetcher struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// openReady opens url and completes the preload synchronously.
func openReady(t *testing.T, v *Viewer, url string) {
	t.Helper()
	load := v.Open(url, "")
	v.Deliver(load())
	require.Equal(t, StateReady, v.State())
}

func TestViewerLifecycle(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)

	assert.Equal(t, StateClosed, v.State())

	load := v.Open("/files/chart.png", "chart")
	assert.Equal(t, StateLoading, v.State())
	assert.Equal(t, "/files/chart.png", v.URL())
	assert.Equal(t, "chart", v.Alt())

	v.Deliver(load())
	assert.Equal(t, StateReady, v.State())
	imgW, imgH := v.ImageSize()
	assert.Equal(t, 200, imgW)
	assert.Equal(t, 100, imgH)

	// Fit scale: min(100/200, 100/100) = 0.5, image centered.
	assert.InDelta(t, 0.5, v.Scale(), 1e-9)
	offX, offY := v.Offset()
	assert.Zero(t, offX)
	assert.Zero(t, offY)

	v.Close()
	assert.Equal(t, StateClosed, v.State())
	assert.Empty(t, v.URL())
}

func TestViewerSmallImageNotUpscaled(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 20, 20)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)

	openReady(t, v, "/files/icon.png")

	// Fit would be 5x but small images render at natural size.
	assert.InDelta(t, 1.0, v.Scale(), 1e-9)
	assert.False(t, v.Zoomed())
}

func TestViewerFetchErrorEntersErrorState(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New(errors.ErrCodeViewerFetch, "image not found")}
	v := New(fetcher)
	v.SetContainerSize(100, 100)

	load := v.Open("/files/missing.png", "")
	v.Deliver(load())

	assert.Equal(t, StateError, v.State())
	assert.True(t, errors.HasCode(v.Err(), errors.ErrCodeViewerFetch))
}

func TestViewerUndecodableImage(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("not an image")}
	v := New(fetcher)
	v.SetContainerSize(100, 100)

	load := v.Open("/files/broken.png", "")
	v.Deliver(load())

	assert.Equal(t, StateError, v.State())
	assert.True(t, errors.HasCode(v.Err(), errors.ErrCodeViewerDecode))
}

func TestViewerStaleResultDiscarded(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)

	first := v.Open("/files/a.png", "")
	firstRes := first()

	second := v.Open("/files/b.png", "")

	// The superseded preload must not complete the new viewer.
	v.Deliver(firstRes)
	assert.Equal(t, StateLoading, v.State())
	assert.Equal(t, "/files/b.png", v.URL())

	v.Deliver(second())
	assert.Equal(t, StateReady, v.State())
}

func TestViewerCloseCancelsPreload(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)

	load := v.Open("/files/slow.png", "")
	v.Close()

	res := load()
	require.Error(t, res.Err)

	v.Deliver(res)
	assert.Equal(t, StateClosed, v.State())
}

func TestViewerAnchoredZoom(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)
	openReady(t, v, "/files/chart.png")

	// Zoom anchored at x=10 relative to center: the focal point stays put.
	v.ZoomAt(10, 0, 1.25)
	assert.InDelta(t, 0.625, v.Scale(), 1e-9)
	offX, offY := v.Offset()
	assert.InDelta(t, -2.5, offX, 1e-9)
	assert.Zero(t, offY)
	assert.True(t, v.Zoomed())

	v.Reset()
	assert.InDelta(t, 0.5, v.Scale(), 1e-9)
	offX, offY = v.Offset()
	assert.Zero(t, offX)
	assert.Zero(t, offY)
}

func TestViewerScaleClamps(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)
	openReady(t, v, "/files/chart.png")

	for i := 0; i < 50; i++ {
		v.ZoomIn()
	}
	assert.InDelta(t, 5.0, v.Scale(), 1e-9)

	for i := 0; i < 50; i++ {
		v.ZoomOut()
	}
	assert.InDelta(t, 0.5, v.Scale(), 1e-9)
}

func TestViewerPanClamping(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)
	openReady(t, v, "/files/chart.png")

	// At fit scale the image cannot be dragged off center.
	v.Pan(50, 50)
	offX, offY := v.Offset()
	assert.Zero(t, offX)
	assert.Zero(t, offY)

	// Zoomed to 0.625 the scaled width is 125, so 12.5 overhangs each side.
	v.ZoomIn()
	v.Pan(100, 100)
	offX, offY = v.Offset()
	assert.InDelta(t, 12.5, offX, 1e-9)
	assert.Zero(t, offY)

	v.Pan(-200, 0)
	offX, _ = v.Offset()
	assert.InDelta(t, -12.5, offX, 1e-9)
}

func TestViewerDrag(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)
	openReady(t, v, "/files/chart.png")
	v.ZoomIn()

	v.StartDrag(40, 40)
	v.Drag(30, 40)
	offX, offY := v.Offset()
	assert.InDelta(t, -10, offX, 1e-9)
	assert.Zero(t, offY)

	v.EndDrag()
	v.Drag(0, 0)
	offX, _ = v.Offset()
	assert.InDelta(t, -10, offX, 1e-9)
}

func TestViewerToggleZoom(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)
	openReady(t, v, "/files/chart.png")

	v.ToggleZoom(0, 0)
	assert.InDelta(t, 1.0, v.Scale(), 1e-9)

	v.ToggleZoom(0, 0)
	assert.InDelta(t, 0.5, v.Scale(), 1e-9)
}

func TestViewerWheelThrottle(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v.nowFunc = func() time.Time { return now }

	openReady(t, v, "/files/chart.png")

	assert.True(t, v.Wheel(true, 0, 0))
	assert.InDelta(t, 0.625, v.Scale(), 1e-9)

	// A second wheel inside the throttle window is swallowed.
	now = now.Add(5 * time.Millisecond)
	assert.False(t, v.Wheel(true, 0, 0))
	assert.InDelta(t, 0.625, v.Scale(), 1e-9)

	now = now.Add(wheelThrottle)
	assert.True(t, v.Wheel(false, 0, 0))
	assert.InDelta(t, 0.5, v.Scale(), 1e-9)
}

func TestViewerHandleKey(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 200)}
	v := New(fetcher)
	v.SetContainerSize(100, 100)
	openReady(t, v, "/files/photo.png")

	// Arrows do nothing at fit scale.
	assert.False(t, v.HandleKey("left"))

	assert.True(t, v.HandleKey("+"))
	assert.InDelta(t, 0.625, v.Scale(), 1e-9)

	assert.True(t, v.HandleKey("up"))
	_, offY := v.Offset()
	assert.InDelta(t, 12.5, offY, 1e-9)

	assert.True(t, v.HandleKey("0"))
	assert.InDelta(t, 0.5, v.Scale(), 1e-9)

	assert.True(t, v.HandleKey("esc"))
	assert.Equal(t, StateClosed, v.State())
	assert.False(t, v.HandleKey("+"))
}
