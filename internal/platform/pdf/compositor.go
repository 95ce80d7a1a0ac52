package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"

	"sitedocs/internal/platform/imaging"
)

var (
	ErrEmptyPage      = errors.New("page bitmap is empty")
	ErrInvalidOverlay = errors.New("signature bitmap is unreadable")
)

const (
	PageWidthMM   = 210.0
	SignatureW    = 60.0
	SignatureH    = 30.0
	Margin        = 10.0
	MaxDefaultY   = 280.0
	CaptionOffset = 5.0
	captionLayout = "02/01/2006"
)

// Position is a point on the page as a fraction of its width and height.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Overlay is a signature bitmap and where to center it. A nil Position uses
// the bottom-right default.
type Overlay struct {
	Image    []byte
	Position *Position
}

// Rect is a placement on the page in millimetres.
type Rect struct {
	X, Y, W, H float64
}

type Compositor struct {
	now func() time.Time
}

type Option func(*Compositor)

func WithClock(now func() time.Time) Option {
	return func(c *Compositor) { c.now = now }
}

func NewCompositor(opts ...Option) *Compositor {
	c := &Compositor{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageSize returns the page dimensions for a bitmap of the given pixel size.
func PageSize(pixelW, pixelH int) (float64, float64) {
	return PageWidthMM, float64(pixelH) * PageWidthMM / float64(pixelW)
}

// Place computes where the signature lands on a page. The result always lies
// inside the page when the page is at least as large as the signature.
func Place(pageW, pageH float64, pos *Position) Rect {
	var x, y float64
	if pos != nil && finite(pos.X) && finite(pos.Y) {
		x = pos.X*pageW - SignatureW/2
		y = pos.Y*pageH - SignatureH/2
	} else {
		x = pageW - SignatureW - Margin
		y = math.Min(pageH-SignatureH-Margin, MaxDefaultY)
	}
	return Rect{
		X: clamp(x, 0, pageW-SignatureW),
		Y: clamp(y, 0, pageH-SignatureH),
		W: SignatureW,
		H: SignatureH,
	}
}

// Compose renders page as a single-page PDF, optionally stamping a signature
// and a dated caption beneath it.
func (c *Compositor) Compose(page []byte, overlay *Overlay) ([]byte, error) {
	if len(page) == 0 {
		return nil, ErrEmptyPage
	}
	pageJPEG, pixelW, pixelH, err := asJPEG(page)
	if err != nil {
		return nil, err
	}
	pageW, pageH := PageSize(pixelW, pixelH)

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	pageOpts := gofpdf.ImageOptions{ImageType: "JPG"}
	doc.RegisterImageOptionsReader("page", pageOpts, bytes.NewReader(pageJPEG))
	doc.ImageOptions("page", 0, 0, pageW, pageH, false, pageOpts, 0, "")

	if overlay != nil {
		sigPNG, err := asPNG(overlay.Image)
		if err != nil {
			return nil, err
		}
		rect := Place(pageW, pageH, overlay.Position)
		sigOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader("signature", sigOpts, bytes.NewReader(sigPNG))
		doc.ImageOptions("signature", rect.X, rect.Y, rect.W, rect.H, false, sigOpts, 0, "")

		doc.SetFont("Helvetica", "", 10)
		doc.SetTextColor(100, 100, 100)
		doc.Text(rect.X, rect.Y+rect.H+CaptionOffset, Caption(c.now()))
	}

	if doc.Err() {
		return nil, fmt.Errorf("render pdf: %w", doc.Error())
	}
	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}

func Caption(at time.Time) string {
	return "Firmado: " + at.Format(captionLayout)
}

func asJPEG(raw []byte) ([]byte, int, int, error) {
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil && format == "jpeg" {
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return nil, 0, 0, ErrEmptyPage
		}
		return raw, cfg.Width, cfg.Height, nil
	}
	img, err := imaging.Decode(raw)
	if err != nil {
		return nil, 0, 0, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, 0, 0, ErrEmptyPage
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode page: %w", err)
	}
	return out.Bytes(), b.Dx(), b.Dy(), nil
}

// asPNG re-encodes the signature as 8-bit NRGBA so transparency survives.
func asPNG(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidOverlay
	}
	img, err := imaging.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOverlay, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidOverlay
	}
	flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Src)
	var out bytes.Buffer
	if err := png.Encode(&out, flat); err != nil {
		return nil, fmt.Errorf("encode signature: %w", err)
	}
	return out.Bytes(), nil
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
