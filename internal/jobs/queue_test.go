package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PriorityOrdering(t *testing.T) {
	q := NewQueue()

	q.Enqueue(JobTypeAdd, "low-1", PriorityLow)
	q.Enqueue(JobTypeAdd, "normal-1", PriorityNormal)
	q.Enqueue(JobTypeAdd, "high-1", PriorityHigh)
	q.Enqueue(JobTypeAdd, "high-2", PriorityHigh)
	q.Enqueue(JobTypeAdd, "normal-2", PriorityNormal)

	jobs := q.Pop(10, time.Now())
	require.Len(t, jobs, 5)

	got := make([]string, len(jobs))
	for i, job := range jobs {
		got[i] = job.AssetID
	}

	// high > normal > low, FIFO within each priority.
	assert.Equal(t, []string{"high-1", "high-2", "normal-1", "normal-2", "low-1"}, got)
	assert.Zero(t, q.Len())
}

func TestQueue_PopRespectsMax(t *testing.T) {
	q := NewQueue()

	for i := 0; i < 5; i++ {
		q.Enqueue(JobTypeAdd, "a", PriorityNormal)
	}

	jobs := q.Pop(2, time.Now())
	assert.Len(t, jobs, 2)
	assert.Equal(t, 3, q.Len())
}

func TestQueue_DelayedJobsStayQueued(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(JobTypeAdd, "ready", PriorityNormal)

	delayed := Job{Type: JobTypeAdd, AssetID: "delayed", Priority: PriorityHigh, NotBefore: now.Add(time.Minute)}
	q.Push(delayed)

	jobs := q.Pop(10, now)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ready", jobs[0].AssetID)
	assert.Equal(t, 1, q.Len())

	// Once the delay has passed the job becomes eligible again.
	jobs = q.Pop(10, now.Add(2*time.Minute))
	require.Len(t, jobs, 1)
	assert.Equal(t, "delayed", jobs[0].AssetID)
}

func TestQueue_PushPreservesAttempts(t *testing.T) {
	q := NewQueue()

	job := q.Enqueue(JobTypeExtractCSV, "a", PriorityNormal)
	_ = q.Pop(1, time.Now())

	job.Attempts = 2
	job.Priority = PriorityLow
	q.Push(job)

	jobs := q.Pop(1, time.Now())
	require.Len(t, jobs, 1)
	assert.Equal(t, 2, jobs[0].Attempts)
	assert.Equal(t, PriorityLow, jobs[0].Priority)
	assert.Equal(t, job.ID, jobs[0].ID)
}

func TestQueue_PopZeroMax(t *testing.T) {
	q := NewQueue()
	q.Enqueue(JobTypeAdd, "a", PriorityNormal)

	assert.Empty(t, q.Pop(0, time.Now()))
	assert.Equal(t, 1, q.Len())
}

func TestBackoffPolicy_Delay(t *testing.T) {
	policy := BackoffPolicy{Base: 2 * time.Second, Max: time.Minute}

	assert.Equal(t, 2*time.Second, policy.Delay(1))
	assert.Equal(t, 4*time.Second, policy.Delay(2))
	assert.Equal(t, 8*time.Second, policy.Delay(3))
	assert.Equal(t, time.Minute, policy.Delay(10))
	assert.Equal(t, 2*time.Second, policy.Delay(0))
}
