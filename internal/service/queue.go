package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/draftforge/api/internal/config"
	"github.com/draftforge/api/internal/model"
)

const TaskTypeGenerate = "generation:article"

const (
	jobTTL       = 24 * time.Hour
	statsKey     = "jobs:stats"
	cancelledMsg = "job cancelled by caller"
)

// stats hash fields
const (
	statQueued    = "queued"
	statInFlight  = "in_flight"
	statCompleted = "completed"
	statErrored   = "errored"
)

// GenerateTaskPayload is the asynq task envelope.
type GenerateTaskPayload struct {
	JobID             string                  `json:"jobId"`
	Request           model.GenerationRequest `json:"request"`
	PreferredProvider string                  `json:"preferredProvider,omitempty"`
}

// QueueService owns job and batch records and dispatches generation tasks.
// Records live in redis keyed by id; batch progress is always derived from
// member jobs on read, never stored.
type QueueService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
	estimate    time.Duration
	maxBatch    int
}

func NewQueueService(redisClient *redis.Client, asynqClient *asynq.Client, cfg *config.GenerationConfig) *QueueService {
	return &QueueService{
		redis:       redisClient,
		asynqClient: asynqClient,
		estimate:    time.Duration(cfg.EstimateSeconds) * time.Second,
		maxBatch:    cfg.MaxBatchSize,
	}
}

// Estimate returns the fixed total duration used for phase estimation.
func (s *QueueService) Estimate() time.Duration {
	return s.estimate
}

// Enqueue creates a job in queued and schedules asynchronous execution.
func (s *QueueService) Enqueue(ctx context.Context, req *model.GenerationRequest, preferred string) (*model.Job, error) {
	return s.enqueueOne(ctx, uuid.New().String(), req, preferred, "")
}

// EnqueueBatch creates N independent jobs sharing one batch tag. Members may
// run concurrently against each other and complete in any order. The batch
// record is written before any member is dispatched, so a mid-batch failure
// never leaves already-dispatched members unreachable through the batch id;
// members that were never created simply count as missing on read.
func (s *QueueService) EnqueueBatch(ctx context.Context, reqs []model.GenerationRequest, preferred string) (string, []*model.Job, error) {
	if len(reqs) == 0 {
		return "", nil, model.ErrBatchEmpty
	}
	if len(reqs) > s.maxBatch {
		return "", nil, fmt.Errorf("%w: %d > %d", model.ErrBatchTooLarge, len(reqs), s.maxBatch)
	}

	batchID := uuid.New().String()
	jobIDs := make([]string, len(reqs))
	for i := range jobIDs {
		jobIDs[i] = uuid.New().String()
	}

	data, err := json.Marshal(jobIDs)
	if err != nil {
		return "", nil, err
	}
	if err := s.redis.Set(ctx, batchKey(batchID), data, jobTTL).Err(); err != nil {
		return "", nil, fmt.Errorf("failed to save batch: %w", err)
	}

	jobs := make([]*model.Job, 0, len(reqs))
	for i := range reqs {
		job, err := s.enqueueOne(ctx, jobIDs[i], &reqs[i], preferred, batchID)
		if err != nil {
			return "", nil, fmt.Errorf("failed to enqueue batch member %d: %w", i, err)
		}
		jobs = append(jobs, job)
	}

	return batchID, jobs, nil
}

func (s *QueueService) enqueueOne(ctx context.Context, jobID string, req *model.GenerationRequest, preferred, batchID string) (*model.Job, error) {
	now := time.Now()

	job := &model.Job{
		ID:        jobID,
		BatchID:   batchID,
		Phase:     model.JobPhaseQueued,
		Progress:  0,
		Request:   *req,
		CreatedAt: now,
	}

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	s.redis.HIncrBy(ctx, statsKey, statQueued, 1)

	payload, err := json.Marshal(GenerateTaskPayload{
		JobID:             jobID,
		Request:           *req,
		PreferredProvider: preferred,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	// The orchestrator already retries across providers inside one run, so
	// asynq-level retries are reserved for infrastructure failures.
	_, err = s.asynqClient.Enqueue(
		asynq.NewTask(TaskTypeGenerate, payload),
		asynq.Queue("generation"),
		asynq.MaxRetry(2),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return job, nil
}

// GetProgress returns a snapshot of the job, with the estimated time
// remaining filled in while the job is in flight.
func (s *QueueService) GetProgress(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.Phase.Terminal() && job.StartedAt != nil {
		remaining := int(s.estimate.Seconds()) - int(time.Since(*job.StartedAt).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		job.ETASeconds = &remaining
	}
	return job, nil
}

// GetBatchProgress derives batch progress from member jobs.
func (s *QueueService) GetBatchProgress(ctx context.Context, batchID string) (*model.BatchProgress, error) {
	data, err := s.redis.Get(ctx, batchKey(batchID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, model.ErrBatchNotFound
		}
		return nil, err
	}

	var jobIDs []string
	if err := json.Unmarshal(data, &jobIDs); err != nil {
		return nil, err
	}

	progress := &model.BatchProgress{BatchID: batchID, Total: len(jobIDs)}
	for _, id := range jobIDs {
		job, err := s.getJob(ctx, id)
		if err != nil {
			continue // expired record still counts toward the total
		}
		switch job.Phase {
		case model.JobPhaseCompleted:
			progress.Completed++
		case model.JobPhaseError:
			progress.Errored++
		}
		progress.Jobs = append(progress.Jobs, *job)
	}
	return progress, nil
}

// Cancel flips a non-terminal job to error with a cancellation message. It
// is idempotent and a no-op on terminal jobs. An in-flight provider call is
// not interrupted; its eventual result is discarded on write.
func (s *QueueService) Cancel(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Phase.Terminal() {
		return job, nil
	}

	s.moveStat(ctx, bucketFor(job.Phase), statErrored)

	msg := cancelledMsg
	now := time.Now()
	job.Phase = model.JobPhaseError
	job.Error = &msg
	job.CompletedAt = &now

	if err := s.saveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Stats reports queue occupancy counters.
func (s *QueueService) Stats(ctx context.Context) (*model.QueueStats, error) {
	values, err := s.redis.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, err
	}
	stats := &model.QueueStats{}
	fmt.Sscanf(values[statQueued], "%d", &stats.Queued)
	fmt.Sscanf(values[statInFlight], "%d", &stats.InFlight)
	fmt.Sscanf(values[statCompleted], "%d", &stats.Completed)
	fmt.Sscanf(values[statErrored], "%d", &stats.Errored)
	return stats, nil
}

// AdvancePhase moves an in-flight job forward. Progress never decreases and
// advances on a terminal job are dropped, so a cancelled job stays cancelled.
// The bool reports whether the job actually moved: callers must not emit
// progress events for a dropped advance.
func (s *QueueService) AdvancePhase(ctx context.Context, jobID string, phase model.JobPhase, progress int, step string) (bool, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Phase.Terminal() {
		return false, nil
	}

	if job.Phase == model.JobPhaseQueued {
		now := time.Now()
		job.StartedAt = &now
		s.moveStat(ctx, statQueued, statInFlight)
	}

	job.Phase = phase
	if progress > job.Progress {
		job.Progress = progress
	}
	job.CurrentStep = step

	if err := s.saveJob(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

// Complete marks a job completed with its result. Terminal jobs are left
// untouched: a result arriving after cancellation is discarded, and the false
// return tells the caller the result must not be surfaced anywhere else
// either.
func (s *QueueService) Complete(ctx context.Context, jobID string, result *model.GenerationResult) (bool, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Phase.Terminal() {
		return false, nil
	}

	s.moveStat(ctx, bucketFor(job.Phase), statCompleted)

	now := time.Now()
	job.Phase = model.JobPhaseCompleted
	job.Progress = 100
	job.CurrentStep = ""
	job.Result = result
	job.CompletedAt = &now

	if err := s.saveJob(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

// Fail marks a job errored. Terminal jobs are left untouched; the bool
// reports whether the transition happened.
func (s *QueueService) Fail(ctx context.Context, jobID, errMsg string) (bool, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Phase.Terminal() {
		return false, nil
	}

	s.moveStat(ctx, bucketFor(job.Phase), statErrored)

	now := time.Now()
	job.Phase = model.JobPhaseError
	job.Error = &errMsg
	job.CompletedAt = &now

	if err := s.saveJob(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

// Helper methods

func (s *QueueService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, jobTTL).Err()
}

func (s *QueueService) getJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *QueueService) moveStat(ctx context.Context, from, to string) {
	s.redis.HIncrBy(ctx, statsKey, from, -1)
	s.redis.HIncrBy(ctx, statsKey, to, 1)
}

func bucketFor(phase model.JobPhase) string {
	if phase == model.JobPhaseQueued {
		return statQueued
	}
	return statInFlight
}

func jobKey(id string) string   { return fmt.Sprintf("job:%s", id) }
func batchKey(id string) string { return fmt.Sprintf("batch:%s", id) }
