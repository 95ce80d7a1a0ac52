package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 230, G: 230, B: 230, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 60}))
	return buf.Bytes()
}

func encodeSignature(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 120, 60))
	for x := 10; x < 110; x++ {
		img.Set(x, 30, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPlaceStaysInsidePage(t *testing.T) {
	pageW, pageH := PageSize(1024, 1448)

	tests := []struct {
		name string
		pos  *Position
	}{
		{name: "origin", pos: &Position{X: 0, Y: 0}},
		{name: "far corner", pos: &Position{X: 1, Y: 1}},
		{name: "bottom right", pos: &Position{X: 0.9, Y: 0.95}},
		{name: "center", pos: &Position{X: 0.5, Y: 0.5}},
		{name: "outside range", pos: &Position{X: -3, Y: 7}},
		{name: "not a number", pos: &Position{X: math.NaN(), Y: 0.5}},
		{name: "infinite", pos: &Position{X: 0.5, Y: math.Inf(1)}},
		{name: "default", pos: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Place(pageW, pageH, tt.pos)
			assert.GreaterOrEqual(t, r.X, 0.0)
			assert.GreaterOrEqual(t, r.Y, 0.0)
			assert.LessOrEqual(t, r.X, pageW-SignatureW)
			assert.LessOrEqual(t, r.Y, pageH-SignatureH)
			assert.Equal(t, SignatureW, r.W)
			assert.Equal(t, SignatureH, r.H)
		})
	}
}

func TestPlaceCentersOnPoint(t *testing.T) {
	r := Place(210, 297, &Position{X: 0.5, Y: 0.5})
	assert.InDelta(t, 105-30, r.X, 1e-9)
	assert.InDelta(t, 148.5-15, r.Y, 1e-9)
}

func TestPlaceClampsBottomRight(t *testing.T) {
	r := Place(210, 297, &Position{X: 0.9, Y: 0.95})
	assert.InDelta(t, 150, r.X, 1e-9)
	assert.InDelta(t, 267, r.Y, 1e-9)
}

func TestPlaceDefault(t *testing.T) {
	r := Place(210, 297, nil)
	assert.InDelta(t, 140, r.X, 1e-9)
	assert.InDelta(t, 257, r.Y, 1e-9)

	tall := Place(210, 600, nil)
	assert.InDelta(t, MaxDefaultY, tall.Y, 1e-9)
}

func TestPageSizeKeepsAspect(t *testing.T) {
	w, h := PageSize(1000, 2000)
	assert.Equal(t, 210.0, w)
	assert.InDelta(t, 420.0, h, 1e-9)
}

func TestComposeWithoutOverlay(t *testing.T) {
	c := NewCompositor()
	out, err := c.Compose(encodeJPEG(t, 200, 280), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestComposeWithSignature(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	c := NewCompositor(WithClock(func() time.Time { return fixed }))

	out, err := c.Compose(encodeJPEG(t, 200, 280), &Overlay{
		Image:    encodeSignature(t),
		Position: &Position{X: 0.9, Y: 0.95},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "Firmado: 05/03/2024", Caption(fixed))
}

func TestComposeAcceptsPNGPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 40, 60))))

	out, err := NewCompositor().Compose(buf.Bytes(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestComposeErrors(t *testing.T) {
	c := NewCompositor()

	_, err := c.Compose(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPage)

	_, err = c.Compose([]byte("garbage"), nil)
	assert.Error(t, err)

	_, err = c.Compose(encodeJPEG(t, 20, 20), &Overlay{Image: []byte("nope")})
	assert.ErrorIs(t, err, ErrInvalidOverlay)
}
