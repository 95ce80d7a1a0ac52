package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 2*time.Millisecond)
	c.RecordIntake(true)
	c.RecordIntake(true)
	c.RecordIntake(false)
	c.RecordFallback()
	c.RecordSigned()
	c.DraftsChanged(2)
	c.DraftsChanged(-1)
	c.RecordBulkQueued()

	snap := c.Snapshot()
	assert.Equal(t, uint64(3), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, uint64(1), snap["rateLimitedTotal"])
	assert.InDelta(t, 14.0, snap["avgDurationMs"], 0.001)
	assert.Equal(t, uint64(2), snap["intakesFiledTotal"])
	assert.Equal(t, uint64(1), snap["intakesFailedTotal"])
	assert.Equal(t, uint64(1), snap["classifierFallbacks"])
	assert.Equal(t, uint64(1), snap["documentsSignedTotal"])
	assert.Equal(t, int64(1), snap["draftsPending"])
	assert.Equal(t, uint64(1), snap["bulkJobsQueuedTotal"])
}
