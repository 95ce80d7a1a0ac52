package documents

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/pdf"
)

type SignScope string

const (
	ScopeCurrent SignScope = "current"
	ScopeAll     SignScope = "all"
	ScopeCustom  SignScope = "custom"
)

// SignRequest carries a flattened signature bitmap. Scope and Pages are
// accepted, but documents are single page so only that page is stamped.
type SignRequest struct {
	Signature       []byte
	Position        *pdf.Position
	Scope           SignScope
	Pages           []int
	ReplaceOriginal bool
}

// CanSign reports whether r may be signed.
func CanSign(r Record) error {
	doc, ok := r.(FileDocument)
	if !ok || !doc.Category.Signable() {
		return ErrNotSignable
	}
	if doc.Signed {
		return ErrAlreadySigned
	}
	return nil
}

// Sign stamps the signature onto the archival bitmap and returns a new record
// that supersedes doc. doc itself is not modified.
func (p *Pipeline) Sign(r Record, req SignRequest) (FileDocument, error) {
	if err := CanSign(r); err != nil {
		return FileDocument{}, err
	}
	doc := r.(FileDocument)
	if len(req.Signature) == 0 {
		return FileDocument{}, ErrEmptySignature
	}
	page, _, err := imaging.ParseDataURI(doc.Archival)
	if err != nil {
		return FileDocument{}, fmt.Errorf("%w: archival bitmap: %v", ErrDecode, err)
	}
	out, err := p.compositor.Compose(page, &pdf.Overlay{Image: req.Signature, Position: req.Position})
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidOverlay) || errors.Is(err, imaging.ErrUnsupportedImage) {
			return FileDocument{}, fmt.Errorf("%w: signature: %v", ErrDecode, err)
		}
		return FileDocument{}, fmt.Errorf("%w: %v", ErrCompose, err)
	}
	handle, err := p.blobs.Put(out)
	if err != nil {
		return FileDocument{}, fmt.Errorf("store pdf: %w", err)
	}

	signed := doc
	signed.ID = p.newID()
	signed.Name = SignedName(doc.Name)
	signed.PDF = handle
	signed.Signature = imaging.EncodeDataURI(http.DetectContentType(req.Signature), req.Signature)
	signed.Signed = true
	return signed, nil
}

// SignedName turns "contrato.pdf" into "contrato_FIRMADO.pdf".
func SignedName(name string) string {
	base := name
	if strings.HasSuffix(strings.ToLower(base), PDFExtension) {
		base = base[:len(base)-len(PDFExtension)]
	}
	return base + SignedSuffix + PDFExtension
}
