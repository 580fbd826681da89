package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/luminahq/lumina/internal/api/response"
	"github.com/luminahq/lumina/internal/jobs"
)

// JobsHandler exposes manual job submission, mainly for re-running extraction
// or vectorization on assets whose earlier attempt failed.
type JobsHandler struct {
	processor JobEnqueuer
	queue     *jobs.Queue
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(processor JobEnqueuer, queue *jobs.Queue) *JobsHandler {
	return &JobsHandler{processor: processor, queue: queue}
}

// EnqueueJobRequest is the body for POST /v1/jobs.
type EnqueueJobRequest struct {
	JobType  string `json:"job_type"`
	AssetID  string `json:"asset_id"`
	Priority string `json:"priority"`
}

// EnqueueJobResponse acknowledges an accepted job.
type EnqueueJobResponse struct {
	JobType  jobs.JobType  `json:"job_type"`
	AssetID  string        `json:"asset_id"`
	Priority jobs.Priority `json:"priority"`
	Queued   int           `json:"queued"`
}

// Enqueue handles POST /v1/jobs. The job runs asynchronously; the response
// only acknowledges queueing.
func (h *JobsHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueJobRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if req.AssetID == "" {
		response.RespondBadRequest(w, "asset_id is required")

		return
	}

	jobType, err := parseJobType(req.JobType)
	if err != nil {
		response.RespondUnprocessableEntity(w, err.Error())

		return
	}

	priority, err := parsePriority(req.Priority, jobs.PriorityNormal)
	if err != nil {
		response.RespondUnprocessableEntity(w, err.Error())

		return
	}

	h.processor.Enqueue(r.Context(), jobType, req.AssetID, priority)

	response.RespondJSON(w, http.StatusAccepted, EnqueueJobResponse{
		JobType:  jobType,
		AssetID:  req.AssetID,
		Priority: priority,
		Queued:   h.queue.Len(),
	})
}

// QueueStatusResponse is the body for GET /v1/jobs/queue.
type QueueStatusResponse struct {
	Queued int `json:"queued"`
}

// QueueStatus handles GET /v1/jobs/queue.
func (h *JobsHandler) QueueStatus(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, QueueStatusResponse{Queued: h.queue.Len()})
}

func parseJobType(s string) (jobs.JobType, error) {
	switch t := jobs.JobType(s); t {
	case jobs.JobTypeAdd, jobs.JobTypeUpdate, jobs.JobTypeRemove,
		jobs.JobTypeExtractCSV, jobs.JobTypeVectorizeCSV,
		jobs.JobTypeExtractPDF, jobs.JobTypeVectorizePDF:
		return t, nil
	default:
		return "", fmt.Errorf("unknown job_type %q", s)
	}
}

func parsePriority(s string, def jobs.Priority) (jobs.Priority, error) {
	if s == "" {
		return def, nil
	}

	switch p := jobs.Priority(s); p {
	case jobs.PriorityHigh, jobs.PriorityNormal, jobs.PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}
