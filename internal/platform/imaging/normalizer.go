package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrUnsupportedImage = errors.New("unsupported or unreadable image")
	ErrInvalidPreset    = errors.New("invalid normalization preset")
)

const MIMEJPEG = "image/jpeg"

// DefaultMaxPixels bounds the decoded bitmap so a small, highly compressed
// file cannot expand into gigabytes.
const DefaultMaxPixels = 40_000_000

// Preset bounds the output width and sets the JPEG quality factor in (0,1].
type Preset struct {
	MaxWidth int
	Quality  float64
}

var (
	ArchivalPreset  = Preset{MaxWidth: 1024, Quality: 0.6}
	ThumbnailPreset = Preset{MaxWidth: 150, Quality: 0.5}
)

func (p Preset) Validate() error {
	if p.MaxWidth <= 0 {
		return fmt.Errorf("%w: max width %d", ErrInvalidPreset, p.MaxWidth)
	}
	if !(p.Quality > 0 && p.Quality <= 1) {
		return fmt.Errorf("%w: quality %v", ErrInvalidPreset, p.Quality)
	}
	return nil
}

// Bitmap is one re-encoded rendition of a captured image.
type Bitmap struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

func (b Bitmap) DataURI() string {
	return EncodeDataURI(b.MIMEType, b.Data)
}

// Payload is the base64 body without the data URI prefix.
func (b Bitmap) Payload() string {
	return base64.StdEncoding.EncodeToString(b.Data)
}

type Normalizer struct {
	maxPixels int
}

type Option func(*Normalizer)

// WithMaxPixels caps width*height of accepted images. Values <= 0 keep the
// default.
func WithMaxPixels(n int) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.maxPixels = n
		}
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes raw and re-encodes it as JPEG no wider than the preset.
// Narrower images keep their dimensions.
func (n *Normalizer) Normalize(raw []byte, preset Preset) (Bitmap, error) {
	if err := preset.Validate(); err != nil {
		return Bitmap{}, err
	}
	img, err := n.Decode(raw)
	if err != nil {
		return Bitmap{}, err
	}
	return n.Render(img, preset)
}

// Decode applies the normalizer's pixel limit before decoding.
func (n *Normalizer) Decode(raw []byte) (image.Image, error) {
	return DecodeLimit(raw, n.maxPixels)
}

// Render resamples an already decoded image, so several presets can share
// one decode.
func (n *Normalizer) Render(img image.Image, preset Preset) (Bitmap, error) {
	if err := preset.Validate(); err != nil {
		return Bitmap{}, err
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return Bitmap{}, fmt.Errorf("%w: empty dimensions", ErrUnsupportedImage)
	}

	targetW, targetH := FitWidth(width, height, preset.MaxWidth)
	canvas := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	stddraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, stddraw.Src)
	if targetW == width && targetH == height {
		stddraw.Draw(canvas, canvas.Bounds(), img, bounds.Min, stddraw.Over)
	} else {
		xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), img, bounds, xdraw.Over, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: jpegQuality(preset.Quality)}); err != nil {
		return Bitmap{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Bitmap{Data: out.Bytes(), MIMEType: MIMEJPEG, Width: targetW, Height: targetH}, nil
}

// Decode reads any registered stdlib format and falls back to WebP, rejecting
// images above DefaultMaxPixels.
func Decode(raw []byte) (image.Image, error) {
	return DecodeLimit(raw, DefaultMaxPixels)
}

// DecodeLimit checks the header dimensions against maxPixels before the
// bitmap is allocated.
func DecodeLimit(raw []byte, maxPixels int) (image.Image, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedImage)
	}
	cfg, err := decodeConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty dimensions", ErrUnsupportedImage)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err == nil {
		return img, nil
	}
	if decoded, webpErr := webp.Decode(bytes.NewReader(raw)); webpErr == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
}

func decodeConfig(raw []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err == nil {
		return cfg, nil
	}
	if webpCfg, webpErr := webp.DecodeConfig(bytes.NewReader(raw)); webpErr == nil {
		return webpCfg, nil
	}
	return image.Config{}, err
}

// FitWidth clamps width to maxWidth and scales height to keep the aspect ratio.
func FitWidth(width, height, maxWidth int) (int, int) {
	if width <= maxWidth {
		return width, height
	}
	h := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	if h < 1 {
		h = 1
	}
	return maxWidth, h
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
