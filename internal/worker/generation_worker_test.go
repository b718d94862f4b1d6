package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/draftforge/api/internal/config"
	"github.com/draftforge/api/internal/model"
	"github.com/draftforge/api/internal/orchestrator"
	"github.com/draftforge/api/internal/provider"
	"github.com/draftforge/api/internal/service"
	"github.com/draftforge/api/internal/websocket"
)

// hookedAdapter wraps an adapter and runs a hook before every invocation,
// which lets a test cancel the job while the provider call is in flight.
type hookedAdapter struct {
	provider.Adapter
	hook func()
}

func (h *hookedAdapter) Invoke(ctx context.Context, prompt provider.Prompt, opts provider.Options) (*provider.Completion, error) {
	h.hook()
	return h.Adapter.Invoke(ctx, prompt, opts)
}

func newTestWorker(t *testing.T, adapters ...provider.Adapter) (*GenerationWorker, *service.QueueService, *websocket.Hub) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { asynqClient.Close() })

	queue := service.NewQueueService(rdb, asynqClient, &config.GenerationConfig{
		EstimateSeconds: 90,
		MaxBatchSize:    10,
	})

	if len(adapters) == 0 {
		adapters = []provider.Adapter{provider.NewMockAdapter()}
	}
	registry := provider.NewRegistry(adapters...)
	orch := orchestrator.New(registry, provider.NewHealthTracker(20))

	hub := websocket.NewHub()
	go hub.Run()

	return NewGenerationWorker(queue, orch, hub), queue, hub
}

func taskFor(t *testing.T, job *model.Job, preferred string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(service.GenerateTaskPayload{
		JobID:             job.ID,
		Request:           job.Request,
		PreferredProvider: preferred,
	})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return asynq.NewTask(service.TaskTypeGenerate, payload)
}

func TestProcessTaskCompletesJob(t *testing.T) {
	w, queue, _ := newTestWorker(t)
	ctx := context.Background()

	job, err := queue.Enqueue(ctx, &model.GenerationRequest{
		Title:    "Container Orchestration Basics",
		Keywords: []string{"kubernetes"},
	}, "")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := w.ProcessTask(ctx, taskFor(t, job, "mock")); err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}

	got, err := queue.GetProgress(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if got.Phase != model.JobPhaseCompleted {
		t.Fatalf("phase = %s, want completed", got.Phase)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %d, want 100", got.Progress)
	}
	if got.Result == nil || !got.Result.Success {
		t.Fatalf("result = %+v, want success", got.Result)
	}
	if got.Result.FinalProvider != model.ProviderMock {
		t.Errorf("finalProvider = %q, want mock", got.Result.FinalProvider)
	}
	if got.Result.Parsed == nil || got.Result.Parsed.Title == "" {
		t.Error("expected parsed content on completed job")
	}
	if got.Result.Metrics == nil {
		t.Error("expected metrics on completed job")
	}
}

func TestProcessTaskSkipsCancelledJob(t *testing.T) {
	w, queue, _ := newTestWorker(t)
	ctx := context.Background()

	job, err := queue.Enqueue(ctx, &model.GenerationRequest{Title: "Doomed Article"}, "")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := queue.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if err := w.ProcessTask(ctx, taskFor(t, job, "")); err != nil {
		t.Fatalf("ProcessTask on cancelled job should be a no-op, got: %v", err)
	}

	got, _ := queue.GetProgress(ctx, job.ID)
	if got.Phase != model.JobPhaseError {
		t.Errorf("phase = %s, want error to remain", got.Phase)
	}
	if got.Result != nil {
		t.Error("cancelled job must not receive a result")
	}
}

func TestCancelMidFlightSilencesSubscribers(t *testing.T) {
	var cancelJob func()
	adapter := &hookedAdapter{
		Adapter: provider.NewMockAdapter(),
		hook:    func() { cancelJob() },
	}

	w, queue, hub := newTestWorker(t, adapter)
	ctx := context.Background()

	job, err := queue.Enqueue(ctx, &model.GenerationRequest{Title: "Raced Broadcast"}, "")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	cancelJob = func() {
		if _, err := queue.Cancel(ctx, job.ID); err != nil {
			t.Errorf("Cancel failed: %v", err)
		}
	}

	subscriber := &websocket.Client{JobID: job.ID, Send: make(chan []byte, 16)}
	hub.Register(subscriber)

	if err := w.ProcessTask(ctx, taskFor(t, job, "")); err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}

	got, _ := queue.GetProgress(ctx, job.ID)
	if got.Phase != model.JobPhaseError {
		t.Errorf("phase = %s, want error to stick", got.Phase)
	}
	if got.Result != nil {
		t.Error("late result was not discarded")
	}

	// Only the pre-cancel progress updates may reach the subscriber; the
	// discarded result must not surface as a complete event.
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case data := <-subscriber.Send:
			var envelope struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(data, &envelope); err != nil {
				t.Fatalf("bad websocket payload: %v", err)
			}
			if envelope.Type == "complete" {
				t.Fatalf("subscriber received complete event for cancelled job: %s", data)
			}
		case <-deadline:
			return
		}
	}
}

func TestEstimatePhaseSchedule(t *testing.T) {
	w, _, _ := newTestWorker(t)

	tests := []struct {
		fraction float64
		phase    model.JobPhase
	}{
		{0.05, model.JobPhaseAnalyzing},
		{0.15, model.JobPhaseStructuring},
		{0.50, model.JobPhaseWriting},
		{0.80, model.JobPhaseOptimizing},
		{0.95, model.JobPhaseFinalizing},
		{2.00, model.JobPhaseFinalizing}, // over estimate, stays in last phase
	}
	for _, tt := range tests {
		elapsed := time.Duration(tt.fraction * float64(w.estimate))
		phase, _, progress := w.estimatePhase(elapsed)
		if phase != tt.phase {
			t.Errorf("estimatePhase(%.2f) phase = %s, want %s", tt.fraction, phase, tt.phase)
		}
		if progress > 95 {
			t.Errorf("estimatePhase(%.2f) progress = %d, exceeds cap 95", tt.fraction, progress)
		}
	}
}
