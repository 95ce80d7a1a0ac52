package workershandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitedocs/internal/domain/audit"
	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/project"
	"sitedocs/internal/domain/workers"
	"sitedocs/internal/transport/http/api"
	"sitedocs/internal/transport/http/middleware"
	"sitedocs/internal/transport/http/shared"
)

type Handler struct {
	Project *project.Service
	Audit   *audit.Log
}

func NewHandler(svc *project.Service, log *audit.Log) *Handler {
	return &Handler{Project: svc, Audit: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workers", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/pending", h.handlePending)
		r.Delete("/{workerID}", h.handleDelete)
	})
	r.Get("/reminders", h.handleReminders)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Project.Workers(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var form workers.Form
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.FailError(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("firstName", form.FirstName, "is required")
	v.Required("lastName", form.LastName, "is required")
	v.Required("dni", form.NationalID, "is required")
	if form.PRLAppointment != nil {
		form.PRLAppointment.Date = v.Date("prlAppointment.date", form.PRLAppointment.Date)
	}
	if form.MedicalAppointment != nil {
		form.MedicalAppointment.Date = v.Date("medicalAppointment.date", form.MedicalAppointment.Date)
	}
	if form.ShoeSize < 0 {
		v.Add("shoeSize", "must be positive")
	}
	if v.Reject(w, requestID) {
		return
	}

	worker, appointments, err := h.Project.AddWorker(form)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	today := h.Project.Today()
	views := make([]documents.View, 0, len(appointments))
	for _, a := range appointments {
		views = append(views, documents.NewView(a, today))
	}
	h.Audit.Record(r.Context(), audit.ActionWorkerCreated, audit.EntityWorker, worker.ID, worker.FullName())
	for _, a := range appointments {
		h.Audit.Record(r.Context(), audit.ActionAppointmentAdded, audit.EntityDocument, a.ID, a.Name)
	}
	api.Created(w, map[string]any{
		"worker":       worker,
		"appointments": views,
	}, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workerID")
	if err := h.Project.DeleteWorker(id); err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionWorkerDeleted, audit.EntityWorker, id, "")
	api.Success(w, map[string]any{"id": id, "deleted": true}, middleware.GetRequestID(r.Context()))
}

// handlePending lists workers still owing training or a medical exam.
func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	raw := r.URL.Query().Get("category")
	v.Required("category", raw, "is required")
	category := v.Category("category", raw)
	if category != "" && category != documents.CategoryTraining && category != documents.CategoryMedical {
		v.Add("category", "pending workers are tracked for training or medical only")
	}
	if v.Reject(w, requestID) {
		return
	}
	pending := h.Project.PendingWorkers(category)
	if pending == nil {
		pending = []workers.Worker{}
	}
	api.Success(w, pending, requestID)
}

func (h *Handler) handleReminders(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Project.Reminders(), middleware.GetRequestID(r.Context()))
}
