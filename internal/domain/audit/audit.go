package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitedocs/internal/requestctx"
)

const (
	ActionDocumentFiled    = "document.filed"
	ActionDocumentEdited   = "document.edited"
	ActionDocumentDeleted  = "document.deleted"
	ActionDocumentSigned   = "document.signed"
	ActionDraftDiscarded   = "draft.discarded"
	ActionBulkQueued       = "bulk.queued"
	ActionAppointmentAdded = "appointment.created"
	ActionWorkerCreated    = "worker.created"
	ActionWorkerDeleted    = "worker.deleted"
	ActionChecklistToggled = "checklist.toggled"
)

const (
	EntityDocument    = "document"
	EntityDraft       = "draft"
	EntityJob         = "job"
	EntityWorker      = "worker"
	EntityRequirement = "requirement"
)

const DefaultCapacity = 1000

type Event struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Label      string    `json:"label,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	IP         string    `json:"ip,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Filter struct {
	Action     string
	EntityType string
}

func (f Filter) match(e Event) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return f.EntityType == "" || e.EntityType == f.EntityType
}

// Log keeps the most recent session events in memory. The oldest event is
// dropped once capacity is reached.
type Log struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	now      func() time.Time
}

type Option func(*Log)

func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

func New(capacity int, opts ...Option) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{capacity: capacity, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends an event, taking request id and client address from ctx.
// A nil Log discards it.
func (l *Log) Record(ctx context.Context, action, entityType, entityID, label string) {
	if l == nil {
		return
	}
	evt := Event{
		ID:         uuid.NewString(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Label:      label,
		RequestID:  requestctx.GetRequestID(ctx),
		IP:         requestctx.GetClientIP(ctx),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	evt.CreatedAt = l.now()
	if len(l.events) == l.capacity {
		copy(l.events, l.events[1:])
		l.events = l.events[:len(l.events)-1]
	}
	l.events = append(l.events, evt)
}

func (l *Log) Count(filter Filter) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, e := range l.events {
		if filter.match(e) {
			total++
		}
	}
	return total
}

// List returns matching events newest first.
func (l *Log) List(filter Filter, limit, offset int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0)
	skipped := 0
	for i := len(l.events) - 1; i >= 0; i-- {
		e := l.events[i]
		if !filter.match(e) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out
}

// Export returns every event newest first.
func (l *Log) Export() []Event {
	return l.List(Filter{}, 0, 0)
}
