package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	intakesFiled   uint64
	intakesFailed  uint64
	fallbacks      uint64
	signed         uint64
	draftsPending  int64
	bulkJobsQueued uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordIntake counts one finished intake, filed or failed.
func (c *Collector) RecordIntake(ok bool) {
	if ok {
		atomic.AddUint64(&c.intakesFiled, 1)
		return
	}
	atomic.AddUint64(&c.intakesFailed, 1)
}

func (c *Collector) RecordFallback() {
	atomic.AddUint64(&c.fallbacks, 1)
}

func (c *Collector) RecordSigned() {
	atomic.AddUint64(&c.signed, 1)
}

func (c *Collector) RecordBulkQueued() {
	atomic.AddUint64(&c.bulkJobsQueued, 1)
}

// DraftsChanged adjusts the number of drafts awaiting review.
func (c *Collector) DraftsChanged(delta int) {
	atomic.AddInt64(&c.draftsPending, int64(delta))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"rateLimitedTotal":     limited,
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
		"intakesFiledTotal":    atomic.LoadUint64(&c.intakesFiled),
		"intakesFailedTotal":   atomic.LoadUint64(&c.intakesFailed),
		"classifierFallbacks":  atomic.LoadUint64(&c.fallbacks),
		"documentsSignedTotal": atomic.LoadUint64(&c.signed),
		"draftsPending":        atomic.LoadInt64(&c.draftsPending),
		"bulkJobsQueuedTotal":  atomic.LoadUint64(&c.bulkJobsQueued),
	}
}
