package audithandler

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sitedocs/internal/domain/audit"
	"sitedocs/internal/transport/http/api"
	"sitedocs/internal/transport/http/middleware"
	"sitedocs/internal/transport/http/shared"
)

type Handler struct {
	Log *audit.Log
}

func NewHandler(log *audit.Log) *Handler {
	return &Handler{Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/activity", func(r chi.Router) {
		r.Get("/", h.handleListEvents)
		r.Get("/export", h.handleExportEvents)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
	}
	total := h.Log.Count(filter)
	events := h.Log.List(filter, page.Limit, page.Offset)

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	events := h.Log.Export()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=activity.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "action", "entity_type", "entity_id", "label", "request_id", "ip", "created_at"}); err != nil {
		slog.Warn("activity export header failed", "err", err)
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.Action, evt.EntityType, evt.EntityID, evt.Label, evt.RequestID, evt.IP, evt.CreatedAt.Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			slog.Warn("activity export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("activity export flush failed", "err", err)
	}
}
