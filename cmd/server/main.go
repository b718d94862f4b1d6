package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/draftforge/api/internal/client"
	"github.com/draftforge/api/internal/config"
	"github.com/draftforge/api/internal/handler"
	"github.com/draftforge/api/internal/middleware"
	"github.com/draftforge/api/internal/orchestrator"
	"github.com/draftforge/api/internal/provider"
	"github.com/draftforge/api/internal/service"
	"github.com/draftforge/api/internal/worker"
	ws "github.com/draftforge/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Provider registry: declaration order is the fallback order when no
	// health signal distinguishes the adapters.
	registry := provider.NewRegistry(
		provider.NewOpenAIAdapter(&cfg.OpenAI),
		provider.NewAnthropicAdapter(&cfg.Anthropic),
		provider.NewGeminiAdapter(&cfg.Gemini),
	)
	if registry.Empty() {
		log.Println("Info: no provider credentials configured, using mock provider")
		registry = provider.NewRegistry(provider.NewMockAdapter())
	}
	log.Printf("Providers available: %s", strings.Join(registry.Names(), ", "))

	health := provider.NewHealthTracker(cfg.Generation.HealthWindow)
	orch := orchestrator.New(registry, health)

	// Initialize external clients
	articlesClient := client.NewArticlesClient(&cfg.Articles)
	if !articlesClient.IsConfigured() {
		log.Println("Info: articles store not configured, using mock persistence")
	}

	// Initialize services
	generationService := service.NewGenerationService(orch, articlesClient)
	queueService := service.NewQueueService(redisClient, asynqClient, &cfg.Generation)

	// Initialize handlers
	generateHandler := handler.NewGenerateHandler(generationService, validate)
	jobsHandler := handler.NewJobsHandler(queueService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		payload := fiber.Map{
			"status":    "ok",
			"providers": registry.Names(),
			"services": fiber.Map{
				"redis":    redisClient.Ping(c.Context()).Err() == nil,
				"articles": articlesClient.IsConfigured(),
				"auth":     cfg.JWT.Secret != "",
			},
		}
		// Queue counters are informational; redis being down already shows
		// up under services.
		if stats, err := queueService.Stats(c.Context()); err == nil {
			payload["queue"] = stats
		}
		return c.JSON(payload)
	})

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	api.Post("/generate", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerMin), generateHandler.Generate)

	jobs := api.Group("/jobs")
	jobs.Get("/stats", jobsHandler.Stats)
	jobs.Post("/batch", rateLimiter.BatchLimit(cfg.RateLimit.BatchesPerHour), jobsHandler.EnqueueBatch)
	jobs.Post("/", rateLimiter.EnqueueLimit(cfg.RateLimit.EnqueuePerHour), jobsHandler.Enqueue)
	jobs.Get("/:jobId", jobsHandler.Status)
	jobs.Post("/:jobId/cancel", jobsHandler.Cancel)

	api.Get("/batches/:batchId", jobsHandler.BatchStatus)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, queueService, orch, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	queueService *service.QueueService,
	orch *orchestrator.Orchestrator,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Generation.WorkerConcurrency,
			Queues: map[string]int{
				"generation": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	generationWorker := worker.NewGenerationWorker(queueService, orch, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeGenerate, generationWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
