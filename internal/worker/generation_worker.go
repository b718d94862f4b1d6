package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/draftforge/api/internal/model"
	"github.com/draftforge/api/internal/orchestrator"
	"github.com/draftforge/api/internal/service"
	"github.com/draftforge/api/internal/websocket"
)

// phaseSlice assigns each pre-completion phase a share of the fixed total
// estimate. The slices are a UI-facing estimation policy, not a reflection
// of discrete internal steps: the single provider call underneath does not
// report sub-task progress.
type phaseSlice struct {
	until float64 // cumulative fraction of the estimate
	phase model.JobPhase
	step  string
}

var phaseSchedule = []phaseSlice{
	{0.10, model.JobPhaseAnalyzing, "Analyzing topic and keywords..."},
	{0.25, model.JobPhaseStructuring, "Structuring the article outline..."},
	{0.70, model.JobPhaseWriting, "Writing article content..."},
	{0.90, model.JobPhaseOptimizing, "Optimizing for search..."},
	{1.01, model.JobPhaseFinalizing, "Finalizing..."},
}

const progressTick = 500 * time.Millisecond

// GenerationWorker processes generation jobs from the queue.
type GenerationWorker struct {
	queue    *service.QueueService
	orch     *orchestrator.Orchestrator
	hub      *websocket.Hub
	estimate time.Duration
}

func NewGenerationWorker(queue *service.QueueService, orch *orchestrator.Orchestrator, hub *websocket.Hub) *GenerationWorker {
	return &GenerationWorker{
		queue:    queue,
		orch:     orch,
		hub:      hub,
		estimate: queue.Estimate(),
	}
}

// ProcessTask handles one generation job. The orchestrator call is the only
// blocking operation; phase advancement is a lightweight timer alongside it.
func (w *GenerationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.GenerateTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := payload.JobID
	log.Printf("Starting generation job: %s", jobID)

	job, err := w.queue.GetProgress(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Phase.Terminal() {
		// Cancelled before pickup; nothing to do.
		log.Printf("Generation job %s already terminal, skipping", jobID)
		return nil
	}

	start := time.Now()
	w.advance(ctx, jobID, phaseSchedule[0].phase, 1, phaseSchedule[0].step)

	done := make(chan *model.GenerationResult, 1)
	go func() {
		done <- w.orch.Generate(ctx, &payload.Request, payload.PreferredProvider)
	}()

	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()

	var result *model.GenerationResult
	for result == nil {
		select {
		case result = <-done:
		case <-ticker.C:
			elapsed := time.Since(start)
			phase, step, progress := w.estimatePhase(elapsed)
			w.advance(ctx, jobID, phase, progress, step)
		}
	}

	if !result.Success {
		w.failJob(ctx, jobID, result.Error)
		log.Printf("Generation job %s failed: %s", jobID, result.Error)
		return nil // job is marked errored; no asynq retry for provider exhaustion
	}

	w.advance(ctx, jobID, model.JobPhaseFinalizing, 95, "Finalizing...")
	completed, err := w.queue.Complete(ctx, jobID, result)
	if err != nil {
		w.failJob(ctx, jobID, "Failed to save result")
		return err
	}
	if !completed {
		// Cancelled while the provider call was in flight. The record kept
		// its terminal state and the result must not reach subscribers.
		log.Printf("Generation job %s finished after cancellation, result discarded", jobID)
		return nil
	}

	w.hub.BroadcastComplete(jobID, result)
	log.Printf("Generation job %s completed via %s", jobID, result.FinalProvider)
	return nil
}

// estimatePhase maps wall-clock elapsed time onto the phase schedule.
// Progress caps at 95 and snaps to 100 only on completion.
func (w *GenerationWorker) estimatePhase(elapsed time.Duration) (model.JobPhase, string, int) {
	fraction := elapsed.Seconds() / w.estimate.Seconds()

	progress := int(fraction * 100)
	if progress > 95 {
		progress = 95
	}

	for _, slice := range phaseSchedule {
		if fraction < slice.until {
			return slice.phase, slice.step, progress
		}
	}
	last := phaseSchedule[len(phaseSchedule)-1]
	return last.phase, last.step, progress
}

func (w *GenerationWorker) advance(ctx context.Context, jobID string, phase model.JobPhase, progress int, step string) {
	moved, err := w.queue.AdvancePhase(ctx, jobID, phase, progress, step)
	if err != nil {
		log.Printf("Failed to update progress for job %s: %v", jobID, err)
		return
	}
	if !moved {
		return // terminal job; nothing to report
	}
	w.hub.BroadcastProgress(jobID, phase, progress, step)
}

func (w *GenerationWorker) failJob(ctx context.Context, jobID, errMsg string) {
	failed, err := w.queue.Fail(ctx, jobID, errMsg)
	if err != nil {
		log.Printf("Failed to mark job %s as failed: %v", jobID, err)
		return
	}
	if !failed {
		return // already terminal; the earlier event stands
	}
	w.hub.BroadcastError(jobID, "GENERATION_FAILED", errMsg)
}
