package shared

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/project"
	"sitedocs/internal/platform/blob"
	"sitedocs/internal/platform/jobs"
	"sitedocs/internal/requestctx"
	"sitedocs/internal/transport/http/api"
)

type failure struct {
	target  error
	status  int
	code    string
	message string
}

var failures = []failure{
	{documents.ErrNotFound, http.StatusNotFound, "not_found", "document not found"},
	{documents.ErrDraftNotFound, http.StatusNotFound, "not_found", "draft not found"},
	{project.ErrWorkerNotFound, http.StatusNotFound, "not_found", "worker not found"},
	{blob.ErrNotFound, http.StatusNotFound, "not_found", "file not found"},
	{documents.ErrDecode, http.StatusUnprocessableEntity, "decode_failed", "image could not be decoded"},
	{documents.ErrCompose, http.StatusInternalServerError, "compose_failed", "pdf could not be generated"},
	{documents.ErrNotSignable, http.StatusConflict, "not_signable", "document cannot be signed"},
	{documents.ErrAlreadySigned, http.StatusConflict, "already_signed", "document is already signed"},
	{documents.ErrEmptySignature, http.StatusBadRequest, "validation_error", "signature is empty"},
	{documents.ErrNoUploads, http.StatusBadRequest, "validation_error", "no files uploaded"},
	{documents.ErrInvalidCategory, http.StatusBadRequest, "validation_error", "unknown category"},
	{documents.ErrInvalidDate, http.StatusBadRequest, "validation_error", "dates must use YYYY-MM-DD"},
	{documents.ErrInvalidName, http.StatusBadRequest, "validation_error", "name is required"},
	{project.ErrInvalidWorker, http.StatusBadRequest, "validation_error", "first name, last name and dni are required"},
	{project.ErrInvalidAppointment, http.StatusBadRequest, "validation_error", "worker name and date are required"},
	{project.ErrUnknownRequirement, http.StatusBadRequest, "validation_error", "unknown checklist requirement"},
	{jobs.ErrQueueFull, http.StatusServiceUnavailable, "queue_full", "too many bulk uploads in progress"},
	{ErrBadJSON, http.StatusBadRequest, "invalid_json", "invalid json payload"},
	{context.Canceled, http.StatusRequestTimeout, "canceled", "request canceled"},
}

// FailError answers with the envelope matching err. Unknown errors are logged
// and reported as internal.
func FailError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestctx.GetRequestID(r.Context())
	for _, f := range failures {
		if errors.Is(err, f.target) {
			if f.status >= http.StatusInternalServerError {
				slog.Error("request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
			}
			api.Fail(w, f.status, f.code, f.message, requestID)
			return
		}
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
	api.Fail(w, http.StatusInternalServerError, "internal", "internal error", requestID)
}
