package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/draftforge/api/internal/auth"
	"github.com/draftforge/api/internal/client"
	"github.com/draftforge/api/internal/config"
	"github.com/draftforge/api/internal/handler"
	"github.com/draftforge/api/internal/middleware"
	"github.com/draftforge/api/internal/orchestrator"
	"github.com/draftforge/api/internal/provider"
	"github.com/draftforge/api/internal/service"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	queue *service.QueueService
}

// setupApp creates a Fiber app wired like main.go but against an embedded
// redis and with only the mock provider, so no request leaves the process.
// The asynq worker server is not started: enqueued jobs stay queued unless a
// test drives them explicitly.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	registry := provider.NewRegistry(provider.NewMockAdapter())
	health := provider.NewHealthTracker(20)
	orch := orchestrator.New(registry, health)

	// Articles store unconfigured → mock persistence
	articlesClient := client.NewArticlesClient(&config.ArticlesConfig{})

	generationService := service.NewGenerationService(orch, articlesClient)
	queueService := service.NewQueueService(redisClient, asynqClient, &config.GenerationConfig{
		EstimateSeconds: 90,
		MaxBatchSize:    10,
	})

	generateHandler := handler.NewGenerateHandler(generationService, validate)
	jobsHandler := handler.NewJobsHandler(queueService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		payload := fiber.Map{
			"status":    "ok",
			"providers": registry.Names(),
			"services": fiber.Map{
				"redis":    redisClient.Ping(c.Context()).Err() == nil,
				"articles": articlesClient.IsConfigured(),
				"auth":     true,
			},
		}
		if stats, err := queueService.Stats(c.Context()); err == nil {
			payload["queue"] = stats
		}
		return c.JSON(payload)
	})

	// API routes (authenticated). Rate limits are high so tests never trip them.
	api := app.Group("/api", authMiddleware.Authenticate())

	api.Post("/generate", rateLimiter.GenerateLimit(10000), generateHandler.Generate)

	jobs := api.Group("/jobs")
	jobs.Get("/stats", jobsHandler.Stats)
	jobs.Post("/batch", rateLimiter.BatchLimit(10000), jobsHandler.EnqueueBatch)
	jobs.Post("/", rateLimiter.EnqueueLimit(10000), jobsHandler.Enqueue)
	jobs.Get("/:jobId", jobsHandler.Status)
	jobs.Post("/:jobId/cancel", jobsHandler.Cancel)

	api.Get("/batches/:batchId", jobsHandler.BatchStatus)

	return &testApp{app: app, queue: queueService}
}

// generateToken signs a bearer token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	signed, err := auth.Sign("test-user-123", "test@example.com", testJWTSecret)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertErrorCode checks the error envelope code.
func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %s, got %v", code, errObj["code"])
	}
}
