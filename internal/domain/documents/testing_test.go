package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sitedocs/internal/platform/blob"
	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/pdf"
)

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

type stubClassifier struct {
	result Classification
	calls  []string
}

func (s *stubClassifier) Classify(_ context.Context, payload string) Classification {
	s.calls = append(s.calls, payload)
	return s.result
}

type failingCompositor struct{}

func (failingCompositor) Compose([]byte, *pdf.Overlay) ([]byte, error) {
	return nil, errors.New("renderer exploded")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func photo(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 255), B: uint8(y % 255), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

func signatureImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 90, 40))
	for x := 5; x < 85; x++ {
		img.Set(x, 20, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestPipeline(classifier Classifier, compositor Compositor) (*Pipeline, *blob.Store) {
	store := blob.NewStore(nil)
	if compositor == nil {
		compositor = pdf.NewCompositor(pdf.WithClock(func() time.Time { return fixedNow }))
	}
	p := NewPipeline(imaging.NewNormalizer(), classifier, compositor, store,
		WithClock(func() time.Time { return fixedNow }),
		WithIDs(sequentialIDs()),
	)
	return p, store
}

func strPtr(s string) *string { return &s }
