package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	JobBulkIntake = "bulk_intake"
)

const (
	StateQueued    = "queued"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

var ErrQueueFull = errors.New("job queue full")

// Progress reports how many of total units a job has finished.
type Progress func(current, total int)

type RunFunc func(ctx context.Context, progress Progress) (any, error)

type Status struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	State      string     `json:"state"`
	Current    int        `json:"current"`
	Total      int        `json:"total"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Service runs jobs one at a time on a single worker and keeps their status
// in memory.
type Service struct {
	queue chan job
	mu    sync.RWMutex
	runs  map[string]*Status
	now   func() time.Time
}

type job struct {
	ID  string
	Run RunFunc
}

func New(queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Service{
		queue: make(chan job, queueSize),
		runs:  make(map[string]*Status),
		now:   time.Now,
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue schedules run and returns its queued status.
func (s *Service) Enqueue(jobType string, total int, run RunFunc) (Status, error) {
	st := s.register(jobType, total)
	select {
	case s.queue <- job{ID: st.ID, Run: run}:
		return st, nil
	default:
		slog.Warn("job queue full", "jobType", jobType, "jobId", st.ID)
		s.mu.Lock()
		delete(s.runs, st.ID)
		s.mu.Unlock()
		return Status{}, ErrQueueFull
	}
}

// RunNow executes run on the calling goroutine.
func (s *Service) RunNow(ctx context.Context, jobType string, total int, run RunFunc) (Status, error) {
	st := s.register(jobType, total)
	err := s.runJob(ctx, job{ID: st.ID, Run: run})
	final, _ := s.Get(st.ID)
	return final, err
}

func (s *Service) Get(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.runs[id]
	if !ok {
		return Status{}, false
	}
	return *st, true
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobId", j.ID, "err", err)
			}
		}
	}
}

func (s *Service) register(jobType string, total int) Status {
	st := &Status{
		ID:        uuid.NewString(),
		Type:      jobType,
		State:     StateQueued,
		Total:     total,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.runs[st.ID] = st
	s.mu.Unlock()
	return *st
}

func (s *Service) runJob(ctx context.Context, j job) error {
	s.update(j.ID, func(st *Status) {
		started := s.now()
		st.State = StateRunning
		st.StartedAt = &started
	})

	result, err := j.Run(ctx, func(current, total int) {
		s.update(j.ID, func(st *Status) {
			st.Current = current
			st.Total = total
		})
	})

	s.update(j.ID, func(st *Status) {
		finished := s.now()
		st.FinishedAt = &finished
		st.Result = result
		st.State = StateCompleted
		if err != nil {
			st.State = StateFailed
			st.Error = err.Error()
		}
	})
	return err
}

func (s *Service) update(id string, fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.runs[id]; ok {
		fn(st)
	}
}
