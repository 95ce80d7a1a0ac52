package documentshandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sitedocs/internal/domain/audit"
	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/periods"
	"sitedocs/internal/domain/project"
	"sitedocs/internal/platform/imaging"
	"sitedocs/internal/platform/jobs"
	"sitedocs/internal/platform/metrics"
	"sitedocs/internal/platform/pdf"
	"sitedocs/internal/transport/http/api"
	"sitedocs/internal/transport/http/middleware"
	"sitedocs/internal/transport/http/shared"
)

const (
	uploadField      = "files"
	multipartMemory  = 8 << 20
	defaultListLimit = 200
	maxListLimit     = 1000
)

// selectablePeriods covers the previous month through the current one.
const selectablePeriods = 4

// Handler serves the document routes. Bulk uploads run on Jobs, outside the
// request, so they keep going after the 202.
type Handler struct {
	Project *project.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Audit   *audit.Log
}

func NewHandler(svc *project.Service, jobsSvc *jobs.Service, collector *metrics.Collector, log *audit.Log) *Handler {
	return &Handler{Project: svc, Jobs: jobsSvc, Metrics: collector, Audit: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/project", h.handleProject)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/uploads", h.handleUpload)
		r.Post("/appointments", h.handleAddAppointment)
		r.Route("/{documentID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handleEdit)
			r.Delete("/", h.handleDelete)
			r.Get("/pdf", h.handlePDF)
			r.Get("/thumbnail", h.handleThumbnail)
			r.Post("/signatures", h.handleSign)
		})
	})
	r.Route("/drafts/{draftID}", func(r chi.Router) {
		r.Get("/", h.handleGetDraft)
		r.Put("/", h.handleConfirmDraft)
		r.Delete("/", h.handleCancelDraft)
	})
	r.Get("/jobs/{jobID}", h.handleGetJob)
}

func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request) {
	info := h.Project.Info()
	categories := make([]map[string]any, 0, len(documents.Categories))
	for _, c := range documents.Categories {
		categories = append(categories, map[string]any{"name": c, "signable": c.Signable()})
	}
	today := h.Project.Today()
	api.Success(w, map[string]any{
		"project":         info,
		"categories":      categories,
		"currentQuincena": periods.Label(today),
		"quincenas":       periods.Sequence(today.AddDate(0, -1, 0), selectablePeriods),
		"documents":       h.Project.Collection().Len(),
		"workers":         len(h.Project.Workers()),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := shared.NewValidator()
	category := v.Category("category", q.Get("category"))
	v.Enum("type", q.Get("type"), []string{string(documents.RecordTypeFile), string(documents.RecordTypeAppointment)}, "must be file or appointment")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	records := h.Project.Documents(documents.Filter{
		Category: category,
		Period:   strings.TrimSpace(q.Get("period")),
		Type:     documents.RecordType(strings.ToLower(strings.TrimSpace(q.Get("type")))),
	})
	today := h.Project.Today()
	views := make([]documents.View, 0, len(records))
	for _, rec := range records {
		views = append(views, documentView(rec, today))
	}
	page := shared.ParsePagination(r, defaultListLimit, maxListLimit)
	api.Success(w, map[string]any{
		"items": shared.Page(views, page),
		"total": len(views),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Project.Document(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, documentView(rec, h.Project.Today()), middleware.GetRequestID(r.Context()))
}

// handleUpload files one upload as a draft for review, or queues several as a
// bulk job that files them without review.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_form", "multipart form expected", requestID)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	v := shared.NewValidator()
	target := documents.Target{
		Category:   v.Category("category", r.FormValue("category")),
		WorkerName: strings.TrimSpace(r.FormValue("workerName")),
		Period:     strings.TrimSpace(r.FormValue("quincena")),
	}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		v.Add(uploadField, "at least one file is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	uploads, err := readUploads(headers)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}

	if len(uploads) == 1 {
		draft, err := h.Project.UploadSingle(r.Context(), uploads[0], target)
		if err != nil {
			shared.FailError(w, r, err)
			return
		}
		api.Created(w, newDraftView(draft), requestID)
		return
	}

	// The job outlives the request; keep its id and client address for the log.
	auditCtx := context.WithoutCancel(r.Context())
	status, err := h.Jobs.Enqueue(jobs.JobBulkIntake, len(uploads), func(ctx context.Context, progress jobs.Progress) (any, error) {
		filed, err := h.Project.UploadBulk(ctx, uploads, target, progress)
		ids := make([]string, 0, len(filed))
		for _, doc := range filed {
			ids = append(ids, doc.ID)
			h.Audit.Record(auditCtx, audit.ActionDocumentFiled, audit.EntityDocument, doc.ID, doc.Name)
		}
		return map[string]any{"filed": len(filed), "documentIds": ids}, err
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordBulkQueued()
	}
	h.Audit.Record(r.Context(), audit.ActionBulkQueued, audit.EntityJob, status.ID, fmt.Sprintf("%d files", len(uploads)))
	slog.Info("bulk intake queued", "jobId", status.ID, "files", len(uploads), "requestId", requestID)
	api.Accepted(w, status, requestID)
}

func readUploads(headers []*multipart.FileHeader) ([]documents.Upload, error) {
	uploads := make([]documents.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, documents.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.Project.Draft(chi.URLParam(r, "draftID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, newDraftView(draft), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleConfirmDraft(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var review documents.Review
	if err := shared.DecodeJSON(r, &review); err != nil {
		shared.FailError(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("category", string(review.Category), "is required")
	review.Category = v.Category("category", string(review.Category))
	review.ExpiryDate = v.Date("expiryDate", review.ExpiryDate)
	if v.Reject(w, requestID) {
		return
	}

	doc, err := h.Project.ConfirmDraft(chi.URLParam(r, "draftID"), review)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionDocumentFiled, audit.EntityDocument, doc.ID, doc.Name)
	api.Created(w, documentView(doc, h.Project.Today()), requestID)
}

func (h *Handler) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "draftID")
	if err := h.Project.CancelDraft(id); err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionDraftDiscarded, audit.EntityDraft, id, "")
	api.Success(w, map[string]any{"id": id, "discarded": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddAppointment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var form documents.AppointmentForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.FailError(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("workerName", form.WorkerName, "is required")
	v.Required("date", form.Date, "is required")
	form.Date = v.Date("date", form.Date)
	v.Enum("category", string(form.Category), []string{string(documents.CategoryTraining), string(documents.CategoryMedical)}, "appointments are filed under training or medical")
	v.Required("category", string(form.Category), "is required")
	if v.Reject(w, requestID) {
		return
	}

	appt, ok := h.Project.AddAppointment(form)
	if !ok {
		shared.FailError(w, r, project.ErrInvalidAppointment)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionAppointmentAdded, audit.EntityDocument, appt.ID, appt.Name)
	api.Created(w, documentView(appt, h.Project.Today()), requestID)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var edit documents.Edit
	if err := shared.DecodeJSON(r, &edit); err != nil {
		shared.FailError(w, r, err)
		return
	}
	rec, err := h.Project.EditDocument(chi.URLParam(r, "documentID"), edit)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionDocumentEdited, audit.EntityDocument, rec.Meta().ID, rec.Meta().Name)
	api.Success(w, documentView(rec, h.Project.Today()), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	if err := h.Project.DeleteDocument(id); err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionDocumentDeleted, audit.EntityDocument, id, "")
	api.Success(w, map[string]any{"id": id, "deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.fileDocument(w, r)
	if !ok {
		return
	}
	data, err := h.Project.PDF(doc.PDF)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", documents.MIMEPDF)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Name))
	http.ServeContent(w, r, doc.Name, doc.UploadedAt, bytes.NewReader(data))
}

func (h *Handler) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.fileDocument(w, r)
	if !ok {
		return
	}
	data, mimeType, err := imaging.ParseDataURI(doc.Thumbnail)
	if err != nil {
		shared.FailError(w, r, fmt.Errorf("%w: thumbnail: %v", documents.ErrDecode, err))
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type signPayload struct {
	Signature       string        `json:"signature"`
	Position        *pdf.Position `json:"position"`
	Scope           string        `json:"scope"`
	Pages           []int         `json:"pages"`
	ReplaceOriginal bool          `json:"replaceOriginal"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload signPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailError(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("signature", payload.Signature, "is required")
	v.Enum("scope", payload.Scope, []string{string(documents.ScopeCurrent), string(documents.ScopeAll), string(documents.ScopeCustom)}, "must be current, all or custom")
	if strings.EqualFold(payload.Scope, string(documents.ScopeCustom)) && len(payload.Pages) == 0 {
		v.Add("pages", "custom scope needs at least one page")
	}
	if v.Reject(w, requestID) {
		return
	}
	signature, _, err := imaging.ParseDataURI(payload.Signature)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "signature", Reason: "must be a base64 image data uri"}})
		return
	}

	signed, err := h.Project.SignDocument(r.Context(), chi.URLParam(r, "documentID"), documents.SignRequest{
		Signature:       signature,
		Position:        payload.Position,
		Scope:           documents.SignScope(strings.ToLower(payload.Scope)),
		Pages:           payload.Pages,
		ReplaceOriginal: payload.ReplaceOriginal,
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionDocumentSigned, audit.EntityDocument, signed.ID, signed.Name)
	api.Created(w, documentView(signed, h.Project.Today()), requestID)
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	status, ok := h.Jobs.Get(chi.URLParam(r, "jobID"))
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "job not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fileDocument(w http.ResponseWriter, r *http.Request) (documents.FileDocument, bool) {
	rec, err := h.Project.Document(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.FailError(w, r, err)
		return documents.FileDocument{}, false
	}
	doc, ok := rec.(documents.FileDocument)
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "appointments have no file", middleware.GetRequestID(r.Context()))
		return documents.FileDocument{}, false
	}
	return doc, true
}

// documentView points file payloads at their API routes instead of inlining
// blob handles and bitmaps.
func documentView(rec documents.Record, today time.Time) documents.View {
	view := documents.NewView(rec, today)
	if view.RecordType == documents.RecordTypeFile {
		base := "/api/v1/documents/" + view.ID
		view.PDF = base + "/pdf"
		view.Thumbnail = base + "/thumbnail"
	}
	return view
}

type draftView struct {
	ID             string                   `json:"id"`
	OriginalName   string                   `json:"originalName"`
	ImageURL       string                   `json:"imageUrl"`
	ThumbnailURL   string                   `json:"thumbnailUrl"`
	Classification documents.Classification `json:"classification"`
	Proposed       documents.Review         `json:"proposed"`
	CreatedAt      time.Time                `json:"createdAt"`
}

func newDraftView(d *documents.Draft) draftView {
	return draftView{
		ID:             d.ID,
		OriginalName:   d.OriginalName,
		ImageURL:       d.ArchivalURI,
		ThumbnailURL:   d.ThumbnailURI,
		Classification: d.Classification,
		Proposed:       d.Proposed,
		CreatedAt:      d.CreatedAt,
	}
}
