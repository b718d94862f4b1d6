package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/draftforge/api/internal/model"
	"github.com/draftforge/api/internal/service"
	"github.com/draftforge/api/pkg/response"
)

type JobsHandler struct {
	queue     *service.QueueService
	validator *validator.Validate
}

func NewJobsHandler(queue *service.QueueService, v *validator.Validate) *JobsHandler {
	return &JobsHandler{
		queue:     queue,
		validator: v,
	}
}

// Enqueue handles POST /api/jobs
func (h *JobsHandler) Enqueue(c *fiber.Ctx) error {
	var req model.EnqueueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.queue.Enqueue(c.Context(), &req.GenerationRequest, req.PreferredProvider)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, model.EnqueueResponse{
		JobID:     job.ID,
		Phase:     job.Phase,
		CreatedAt: job.CreatedAt,
	})
}

// EnqueueBatch handles POST /api/jobs/batch
func (h *JobsHandler) EnqueueBatch(c *fiber.Ctx) error {
	var req model.BatchEnqueueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	batchID, jobs, err := h.queue.EnqueueBatch(c.Context(), req.Requests, req.PreferredProvider)
	if err != nil {
		if errors.Is(err, model.ErrBatchTooLarge) || errors.Is(err, model.ErrBatchEmpty) {
			return response.ValidationError(c, err.Error(), nil)
		}
		return response.ServiceError(c, err.Error())
	}

	jobIDs := make([]string, len(jobs))
	for i, job := range jobs {
		jobIDs[i] = job.ID
	}

	return response.Accepted(c, model.BatchEnqueueResponse{
		BatchID: batchID,
		JobIDs:  jobIDs,
	})
}

// Status handles GET /api/jobs/:jobId
func (h *JobsHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.queue.GetProgress(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, job)
}

// Cancel handles POST /api/jobs/:jobId/cancel
func (h *JobsHandler) Cancel(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.queue.Cancel(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, job)
}

// BatchStatus handles GET /api/batches/:batchId
func (h *JobsHandler) BatchStatus(c *fiber.Ctx) error {
	batchID := c.Params("batchId")
	if batchID == "" {
		return response.ValidationError(c, "Batch ID is required", nil)
	}

	progress, err := h.queue.GetBatchProgress(c.Context(), batchID)
	if err != nil {
		if errors.Is(err, model.ErrBatchNotFound) {
			return response.NotFound(c, "Batch not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, progress)
}

// Stats handles GET /api/jobs/stats
func (h *JobsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.queue.Stats(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, stats)
}
