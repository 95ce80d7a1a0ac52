package checklisthandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sitedocs/internal/domain/audit"
	"sitedocs/internal/domain/project"
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
	r.Route("/checklist", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/toggle", h.handleToggle)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Project.Checklist(), middleware.GetRequestID(r.Context()))
}

type togglePayload struct {
	Label string `json:"label"`
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	var payload togglePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailError(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("label", payload.Label, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	label := strings.TrimSpace(payload.Label)
	result, err := h.Project.ToggleRequirement(label)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionChecklistToggled, audit.EntityRequirement, label, "")
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}
