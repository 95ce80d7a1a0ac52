package documents

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitedocs/internal/platform/blob"
	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/pdf"
)

// Normalizer decodes an upload once and renders it at each preset.
type Normalizer interface {
	Decode(raw []byte) (image.Image, error)
	Render(img image.Image, preset imaging.Preset) (imaging.Bitmap, error)
}

type Compositor interface {
	Compose(page []byte, overlay *pdf.Overlay) ([]byte, error)
}

type BlobStore interface {
	Put(data []byte) (blob.Handle, error)
	Get(h blob.Handle) ([]byte, error)
}

// Pipeline runs intake stages for one upload at a time.
type Pipeline struct {
	normalizer Normalizer
	classifier Classifier
	compositor Compositor
	blobs      BlobStore
	archival   imaging.Preset
	thumbnail  imaging.Preset
	now        func() time.Time
	newID      func() string
}

type PipelineOption func(*Pipeline)

func WithPresets(archival, thumbnail imaging.Preset) PipelineOption {
	return func(p *Pipeline) {
		p.archival = archival
		p.thumbnail = thumbnail
	}
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func WithIDs(newID func() string) PipelineOption {
	return func(p *Pipeline) { p.newID = newID }
}

func NewPipeline(normalizer Normalizer, classifier Classifier, compositor Compositor, blobs BlobStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		normalizer: normalizer,
		classifier: classifier,
		compositor: compositor,
		blobs:      blobs,
		archival:   imaging.ArchivalPreset,
		thumbnail:  imaging.ThumbnailPreset,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Captured holds both renditions of an upload.
type Captured struct {
	Upload    Upload
	Archival  imaging.Bitmap
	Thumbnail imaging.Bitmap
}

type Classified struct {
	Captured
	Classification Classification
}

type Composed struct {
	Classified
	PDF []byte
}

func (p *Pipeline) Capture(u Upload) (Captured, error) {
	img, err := p.normalizer.Decode(u.Data)
	if err != nil {
		return Captured{}, fmt.Errorf("%w: %s: %w", ErrDecode, u.Name, err)
	}
	archival, err := p.normalizer.Render(img, p.archival)
	if err != nil {
		return Captured{}, fmt.Errorf("%w: %s: %w", ErrDecode, u.Name, err)
	}
	thumbnail, err := p.normalizer.Render(img, p.thumbnail)
	if err != nil {
		return Captured{}, fmt.Errorf("%w: %s: %w", ErrDecode, u.Name, err)
	}
	return Captured{Upload: u, Archival: archival, Thumbnail: thumbnail}, nil
}

func (p *Pipeline) Classify(ctx context.Context, c Captured) Classified {
	result := FallbackClassification()
	if p.classifier != nil {
		result = p.classifier.Classify(ctx, c.Archival.Payload())
	}
	return Classified{Captured: c, Classification: result}
}

func (p *Pipeline) Compose(c Classified) (Composed, error) {
	out, err := p.compositor.Compose(c.Archival.Data, nil)
	if err != nil {
		return Composed{}, fmt.Errorf("%w: %s: %v", ErrCompose, c.Upload.Name, err)
	}
	return Composed{Classified: c, PDF: out}, nil
}

// Run takes an upload through capture, classification and composition.
func (p *Pipeline) Run(ctx context.Context, u Upload) (Composed, error) {
	captured, err := p.Capture(u)
	if err != nil {
		return Composed{}, err
	}
	return p.Compose(p.Classify(ctx, captured))
}

// Review is the human-editable part of a draft. Blank name, worker or period
// keep the proposed value. Summary is shown for reference only; a filed
// document always carries the classifier's summary.
type Review struct {
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	WorkerName string   `json:"workerName"`
	ExpiryDate string   `json:"expiryDate"`
	Period     string   `json:"quincena"`
	Summary    string   `json:"summary"`
}

// Draft is an intake awaiting confirmation. It is never part of a Collection.
type Draft struct {
	ID             string
	OriginalName   string
	ArchivalURI    string
	ThumbnailURI   string
	PDF            []byte
	Classification Classification
	Proposed       Review
	CreatedAt      time.Time
}

// Propose builds the review a human starts from.
func Propose(c Classification, target Target, originalName string) Review {
	worker := strings.TrimSpace(target.WorkerName)
	if worker == "" {
		worker = c.Worker()
	}
	return Review{
		Name:       BaseName(originalName),
		Category:   ResolveCategory(target.Category, c),
		WorkerName: worker,
		ExpiryDate: c.Expiry(),
		Period:     target.Period,
		Summary:    c.Summary,
	}
}

func (p *Pipeline) NewDraft(composed Composed, target Target) *Draft {
	return &Draft{
		ID:             p.newID(),
		OriginalName:   composed.Upload.Name,
		ArchivalURI:    composed.Archival.DataURI(),
		ThumbnailURI:   composed.Thumbnail.DataURI(),
		PDF:            composed.PDF,
		Classification: composed.Classification,
		Proposed:       Propose(composed.Classification, target, composed.Upload.Name),
		CreatedAt:      p.now(),
	}
}

// Confirm files a draft with the reviewed fields. The PDF is stored only after
// the review validates, so a rejected review leaves nothing behind.
func (p *Pipeline) Confirm(d *Draft, r Review) (FileDocument, error) {
	category, ok := ParseCategory(string(r.Category))
	if !ok {
		return FileDocument{}, ErrInvalidCategory
	}
	expiry, err := ParseDate(r.ExpiryDate)
	if err != nil {
		return FileDocument{}, err
	}
	name := orProposed(r.Name, d.Proposed.Name)
	handle, err := p.blobs.Put(d.PDF)
	if err != nil {
		return FileDocument{}, fmt.Errorf("store pdf: %w", err)
	}
	return FileDocument{
		Metadata: Metadata{
			ID:         p.newID(),
			Name:       PDFName(name),
			Category:   category,
			UploadedAt: p.now(),
			ExpiryDate: expiry,
			Summary:    d.Classification.Summary,
			WorkerName: orProposed(r.WorkerName, d.Proposed.WorkerName),
			Period:     orProposed(r.Period, d.Proposed.Period),
			Valid:      d.Classification.IsValid,
		},
		Archival:  d.ArchivalURI,
		Thumbnail: d.ThumbnailURI,
		PDF:       handle,
	}, nil
}

func orProposed(value, proposed string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return strings.TrimSpace(proposed)
}

// AutoFile runs an upload straight through to a filed document.
func (p *Pipeline) AutoFile(ctx context.Context, u Upload, target Target) (FileDocument, error) {
	composed, err := p.Run(ctx, u)
	if err != nil {
		return FileDocument{}, err
	}
	draft := p.NewDraft(composed, target)
	return p.Confirm(draft, draft.Proposed)
}

// IntakeBulk files uploads one after another. emit is called after each file
// is filed; the first fatal error stops the batch and is returned with the
// documents filed so far.
func (p *Pipeline) IntakeBulk(ctx context.Context, uploads []Upload, target Target, emit func(i int, doc FileDocument)) ([]FileDocument, error) {
	if len(uploads) == 0 {
		return nil, ErrNoUploads
	}
	filed := make([]FileDocument, 0, len(uploads))
	for i, u := range uploads {
		if err := ctx.Err(); err != nil {
			return filed, err
		}
		doc, err := p.AutoFile(ctx, u, target)
		if err != nil {
			slog.Warn("bulk intake stopped", "file", u.Name, "index", i, "total", len(uploads), "err", err)
			return filed, err
		}
		filed = append(filed, doc)
		if emit != nil {
			emit(i, doc)
		}
	}
	return filed, nil
}

// BaseName strips directory and extension from an uploaded file name.
func BaseName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return "documento"
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return "documento"
	}
	return base
}

// PDFName appends the .pdf extension unless already present.
func PDFName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), PDFExtension) {
		return name
	}
	return name + PDFExtension
}
