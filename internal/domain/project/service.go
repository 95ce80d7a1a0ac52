package project

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitedocs/internal/domain/checklist"
	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/workers"
	"sitedocs/internal/platform/blob"
)

var (
	ErrWorkerNotFound     = errors.New("worker not found")
	ErrInvalidWorker      = errors.New("first name, last name and dni are required")
	ErrInvalidAppointment = errors.New("worker name and date are required for training or medical appointments")
	ErrUnknownRequirement = errors.New("unknown checklist requirement")
)

type Info struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Recorder receives pipeline outcomes for metrics.
type Recorder interface {
	RecordIntake(ok bool)
	RecordSigned()
	DraftsChanged(delta int)
}

type noopRecorder struct{}

func (noopRecorder) RecordIntake(bool) {}
func (noopRecorder) RecordSigned()     {}
func (noopRecorder) DraftsChanged(int) {}

// Service owns the canonical document and worker lists of one project. Every
// mutation builds a new list under mu and swaps it in; image work runs outside
// the lock.
type Service struct {
	info         Info
	pipeline     *documents.Pipeline
	blobs        documents.BlobStore
	requirements []string
	now          func() time.Time
	newID        func() string
	onUpdate     func(documents.Collection)
	recorder     Recorder

	mu      sync.Mutex
	docs    documents.Collection
	workers []workers.Worker
	drafts  map[string]*documents.Draft
	toggles checklist.Toggles
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// OnUpdate is called with the new document list after every mutation, while
// the service lock is held.
func OnUpdate(fn func(documents.Collection)) Option {
	return func(s *Service) { s.onUpdate = fn }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithRequirements(labels []string) Option {
	return func(s *Service) { s.requirements = append([]string(nil), labels...) }
}

// WithInitial seeds the service with existing records and workers.
func WithInitial(records []documents.Record, list []workers.Worker) Option {
	return func(s *Service) {
		s.docs = documents.NewCollection(records...)
		s.workers = append([]workers.Worker(nil), list...)
	}
}

func New(info Info, pipeline *documents.Pipeline, blobs documents.BlobStore, opts ...Option) *Service {
	s := &Service{
		info:         info,
		pipeline:     pipeline,
		blobs:        blobs,
		requirements: checklist.DefaultRequirements,
		now:          time.Now,
		newID:        uuid.NewString,
		recorder:     noopRecorder{},
		drafts:       make(map[string]*documents.Draft),
		toggles:      checklist.Toggles{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Info() Info {
	return s.info
}

// UploadSingle captures one file and holds it as a draft for review.
func (s *Service) UploadSingle(ctx context.Context, u documents.Upload, target documents.Target) (*documents.Draft, error) {
	composed, err := s.pipeline.Run(ctx, u)
	if err != nil {
		s.recorder.RecordIntake(false)
		return nil, err
	}
	draft := s.pipeline.NewDraft(composed, target)

	s.mu.Lock()
	s.drafts[draft.ID] = draft
	s.mu.Unlock()
	s.recorder.DraftsChanged(1)

	out := *draft
	return &out, nil
}

func (s *Service) Draft(id string) (*documents.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return nil, documents.ErrDraftNotFound
	}
	out := *draft
	return &out, nil
}

// ConfirmDraft files the draft with the reviewed fields. A rejected review
// keeps the draft open.
func (s *Service) ConfirmDraft(id string, review documents.Review) (documents.FileDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return documents.FileDocument{}, documents.ErrDraftNotFound
	}
	doc, err := s.pipeline.Confirm(draft, review)
	if err != nil {
		return documents.FileDocument{}, err
	}
	delete(s.drafts, id)
	s.recorder.DraftsChanged(-1)
	s.recorder.RecordIntake(true)
	s.commit(s.docs.Add(doc))
	return doc, nil
}

func (s *Service) CancelDraft(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return documents.ErrDraftNotFound
	}
	delete(s.drafts, id)
	s.recorder.DraftsChanged(-1)
	return nil
}

// UploadBulk files every upload in order without review. Each document is
// committed as soon as it is filed; the first fatal error stops the batch.
func (s *Service) UploadBulk(ctx context.Context, uploads []documents.Upload, target documents.Target, progress func(done, total int)) ([]documents.FileDocument, error) {
	filed, err := s.pipeline.IntakeBulk(ctx, uploads, target, func(i int, doc documents.FileDocument) {
		s.mu.Lock()
		s.commit(s.docs.Add(doc))
		s.mu.Unlock()
		s.recorder.RecordIntake(true)
		if progress != nil {
			progress(i+1, len(uploads))
		}
	})
	if err != nil && !errors.Is(err, documents.ErrNoUploads) {
		s.recorder.RecordIntake(false)
	}
	return filed, err
}

// AddAppointment files a manual appointment. It returns false and changes
// nothing when the form is incomplete.
func (s *Service) AddAppointment(form documents.AppointmentForm) (documents.AppointmentDocument, bool) {
	appt, ok := documents.NewAppointment(form, s.newID(), s.now())
	if !ok {
		return documents.AppointmentDocument{}, false
	}
	s.mu.Lock()
	s.commit(s.docs.Add(appt))
	s.mu.Unlock()
	return appt, true
}

func (s *Service) Document(id string) (documents.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.docs.Find(id)
	if !ok {
		return nil, documents.ErrNotFound
	}
	return r, nil
}

func (s *Service) EditDocument(id string, edit documents.Edit) (documents.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.docs.Find(id)
	if !ok {
		return nil, documents.ErrNotFound
	}
	edited, err := documents.ApplyEdit(r, edit)
	if err != nil {
		return nil, err
	}
	next, _ := s.docs.Replace(edited)
	s.commit(next)
	return edited, nil
}

// DeleteDocument removes a record. Its PDF handle stays resolvable.
func (s *Service) DeleteDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.docs.Remove(id)
	if !ok {
		return documents.ErrNotFound
	}
	s.commit(next)
	return nil
}

// SignDocument files a signed copy of a contract document. The original stays
// in place unless req.ReplaceOriginal is set, in which case the signed copy
// takes its position.
func (s *Service) SignDocument(ctx context.Context, id string, req documents.SignRequest) (documents.FileDocument, error) {
	original, err := s.Document(id)
	if err != nil {
		return documents.FileDocument{}, err
	}
	if err := ctx.Err(); err != nil {
		return documents.FileDocument{}, err
	}
	signed, err := s.pipeline.Sign(original, req)
	if err != nil {
		return documents.FileDocument{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.docs.Add(signed)
	if req.ReplaceOriginal {
		if swapped, ok := s.docs.Swap(id, signed); ok {
			next = swapped
		}
	}
	s.commit(next)
	s.recorder.RecordSigned()
	slog.Info("document signed", "documentId", id, "signedId", signed.ID, "replaced", req.ReplaceOriginal)
	return signed, nil
}

func (s *Service) Documents(filter documents.Filter) []documents.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs.Filter(filter)
}

// Collection returns the current document list.
func (s *Service) Collection() documents.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs
}

// AddWorker registers a worker and files the appointments it is scheduled for.
func (s *Service) AddWorker(form workers.Form) (workers.Worker, []documents.AppointmentDocument, error) {
	w, ok := workers.New(form, s.newID())
	if !ok {
		return workers.Worker{}, nil, ErrInvalidWorker
	}
	appts := workers.ScheduledAppointments(w, s.newID, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(append([]workers.Worker(nil), s.workers...), w)
	if len(appts) > 0 {
		records := make([]documents.Record, 0, len(appts))
		for _, a := range appts {
			records = append(records, a)
		}
		s.commit(s.docs.Add(records...))
	}
	return w, appts, nil
}

// DeleteWorker removes the worker but keeps their documents.
func (s *Service) DeleteWorker(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.workers {
		if w.ID != id {
			continue
		}
		next := make([]workers.Worker, 0, len(s.workers)-1)
		next = append(next, s.workers[:i]...)
		next = append(next, s.workers[i+1:]...)
		s.workers = next
		return nil
	}
	return ErrWorkerNotFound
}

func (s *Service) Workers() []workers.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workers.Worker(nil), s.workers...)
}

func (s *Service) PendingWorkers(category documents.Category) []workers.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return workers.Pending(s.workers, category, s.docs.All())
}

func (s *Service) Reminders() []workers.Reminder {
	return workers.Reminders(s.Workers(), s.now())
}

func (s *Service) Checklist() checklist.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return checklist.Evaluate(s.requirements, s.docs.All(), s.toggles)
}

// ToggleRequirement flips the manual mark on a requirement.
func (s *Service) ToggleRequirement(label string) (checklist.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := false
	for _, r := range s.requirements {
		if r == label {
			known = true
			break
		}
	}
	if !known {
		return checklist.Result{}, ErrUnknownRequirement
	}
	s.toggles = s.toggles.Toggle(label)
	return checklist.Evaluate(s.requirements, s.docs.All(), s.toggles), nil
}

// PDF resolves a document's rendered PDF.
func (s *Service) PDF(h blob.Handle) ([]byte, error) {
	return s.blobs.Get(h)
}

// Today is the service clock's current time.
func (s *Service) Today() time.Time {
	return s.now()
}

func (s *Service) commit(next documents.Collection) {
	s.docs = next
	if s.onUpdate != nil {
		s.onUpdate(next)
	}
}
