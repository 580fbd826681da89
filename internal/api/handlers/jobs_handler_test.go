package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/jobs"
)

type enqueuedJob struct {
	jobType  jobs.JobType
	assetID  string
	priority jobs.Priority
}

type mockEnqueuer struct {
	enqueued []enqueuedJob
}

func (m *mockEnqueuer) Enqueue(_ context.Context, jobType jobs.JobType, assetID string, priority jobs.Priority) {
	m.enqueued = append(m.enqueued, enqueuedJob{jobType: jobType, assetID: assetID, priority: priority})
}

func postJob(t *testing.T, handler *JobsHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "http://test/v1/jobs", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Enqueue(rec, req)

	return rec
}

func TestJobsHandler_Enqueue(t *testing.T) {
	t.Run("accepts a valid job", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewJobsHandler(enq, jobs.NewQueue())

		rec := postJob(t, handler, `{"job_type":"extractCSV","asset_id":"asset-1","priority":"high"}`)

		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, enq.enqueued, 1)
		assert.Equal(t, jobs.JobTypeExtractCSV, enq.enqueued[0].jobType)
		assert.Equal(t, "asset-1", enq.enqueued[0].assetID)
		assert.Equal(t, jobs.PriorityHigh, enq.enqueued[0].priority)

		var body EnqueueJobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, jobs.JobTypeExtractCSV, body.JobType)
	})

	t.Run("priority defaults to normal", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewJobsHandler(enq, jobs.NewQueue())

		rec := postJob(t, handler, `{"job_type":"add","asset_id":"asset-1"}`)

		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, enq.enqueued, 1)
		assert.Equal(t, jobs.PriorityNormal, enq.enqueued[0].priority)
	})

	t.Run("missing asset_id returns 400", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewJobsHandler(enq, jobs.NewQueue())

		rec := postJob(t, handler, `{"job_type":"add"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, enq.enqueued)
	})

	t.Run("unknown job type returns 422", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewJobsHandler(enq, jobs.NewQueue())

		rec := postJob(t, handler, `{"job_type":"transmogrify","asset_id":"asset-1"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, enq.enqueued)
	})

	t.Run("unknown priority returns 422", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewJobsHandler(enq, jobs.NewQueue())

		rec := postJob(t, handler, `{"job_type":"add","asset_id":"asset-1","priority":"urgent"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("invalid body returns 400", func(t *testing.T) {
		handler := NewJobsHandler(&mockEnqueuer{}, jobs.NewQueue())

		rec := postJob(t, handler, `{"job_type":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJobsHandler_QueueStatus(t *testing.T) {
	queue := jobs.NewQueue()
	queue.Enqueue(jobs.JobTypeAdd, "asset-1", jobs.PriorityNormal)
	queue.Enqueue(jobs.JobTypeAdd, "asset-2", jobs.PriorityLow)

	handler := NewJobsHandler(&mockEnqueuer{}, queue)

	req := httptest.NewRequest(http.MethodGet, "http://test/v1/jobs/queue", nil)
	rec := httptest.NewRecorder()

	handler.QueueStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body QueueStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Queued)
}
