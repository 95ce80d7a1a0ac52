package documents

import "errors"

var (
	ErrDecode          = errors.New("image could not be decoded")
	ErrCompose         = errors.New("pdf could not be composed")
	ErrNotFound        = errors.New("document not found")
	ErrDraftNotFound   = errors.New("draft not found")
	ErrNotSignable     = errors.New("document cannot be signed")
	ErrAlreadySigned   = errors.New("document is already signed")
	ErrEmptySignature  = errors.New("signature bitmap is required")
	ErrNoUploads       = errors.New("no files uploaded")
	ErrInvalidCategory = errors.New("unknown document category")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidName     = errors.New("name is required")
)
