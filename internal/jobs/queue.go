// Package jobs contains the in-memory priority queue and the batch processor
// that drives the extraction and vectorization pipeline.
package jobs

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the pipeline stage a job runs.
type JobType string

// Job types.
const (
	JobTypeAdd          JobType = "add"
	JobTypeUpdate       JobType = "update"
	JobTypeRemove       JobType = "remove"
	JobTypeExtractPDF   JobType = "extractPDF"
	JobTypeVectorizePDF JobType = "vectorizePDF"
	JobTypeExtractCSV   JobType = "extractCSV"
	JobTypeVectorizeCSV JobType = "vectorizeCSV"
)

// Priority orders jobs within the queue.
type Priority string

// Priorities, highest first.
const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// priorityRank maps priorities to sort order; unknown values sink to the end.
func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Job is one unit of pipeline work. NotBefore delays retried jobs; seq
// preserves FIFO order within a priority.
type Job struct {
	ID         uuid.UUID
	Type       JobType
	AssetID    string
	Priority   Priority
	Attempts   int
	EnqueuedAt time.Time
	NotBefore  time.Time

	seq uint64
}

// Queue is an in-memory job queue ordered by priority, FIFO within each
// priority. It is not durable: pending jobs are lost on process restart, and
// Enqueue applies no backpressure.
type Queue struct {
	mu   sync.Mutex
	jobs []Job
	seq  uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a new job and returns it.
func (q *Queue) Enqueue(jobType JobType, assetID string, priority Priority) Job {
	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		AssetID:    assetID,
		Priority:   priority,
		EnqueuedAt: time.Now(),
	}

	q.Push(job)

	return job
}

// Push re-inserts an existing job (used for retries, keeping its attempt
// count and delay).
func (q *Queue) Push(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	job.seq = q.seq
	q.jobs = append(q.jobs, job)
}

// Pop removes and returns up to max jobs that are eligible at now, highest
// priority first and FIFO within a priority. Jobs whose NotBefore lies in the
// future stay queued.
func (q *Queue) Pop(max int, now time.Time) []Job {
	if max <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	eligible := make([]int, 0, len(q.jobs))

	for i := range q.jobs {
		if !q.jobs[i].NotBefore.After(now) {
			eligible = append(eligible, i)
		}
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		ja, jb := q.jobs[eligible[a]], q.jobs[eligible[b]]
		if ra, rb := priorityRank(ja.Priority), priorityRank(jb.Priority); ra != rb {
			return ra < rb
		}

		return ja.seq < jb.seq
	})

	if len(eligible) > max {
		eligible = eligible[:max]
	}

	popped := make([]Job, len(eligible))
	taken := make(map[int]struct{}, len(eligible))

	for i, idx := range eligible {
		popped[i] = q.jobs[idx]
		taken[idx] = struct{}{}
	}

	remaining := q.jobs[:0]

	for i := range q.jobs {
		if _, ok := taken[i]; !ok {
			remaining = append(remaining, q.jobs[i])
		}
	}

	q.jobs = remaining

	return popped
}

// Len returns the number of queued jobs, including delayed ones.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.jobs)
}
