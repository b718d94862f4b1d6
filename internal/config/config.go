package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	Articles   ArticlesConfig
	Generation GenerationConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	GeneratePerMin int
	EnqueuePerHour int
	BatchesPerHour int
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Version string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ArticlesConfig points at the editorial store the generated articles are
// handed to after a successful run.
type ArticlesConfig struct {
	BaseURL string
	APIKey  string
}

type GenerationConfig struct {
	EstimateSeconds   int // fixed total used for phase progress estimation
	MaxBatchSize      int
	WorkerConcurrency int
	HealthWindow      int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("OPENAI_API_KEY")
	readSecret("ANTHROPIC_API_KEY")
	readSecret("GEMINI_API_KEY")
	readSecret("ARTICLES_API_KEY")
	readSecret("JWT_SECRET")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("openai.model", "OPENAI_MODEL")
	_ = viper.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("anthropic.base_url", "ANTHROPIC_BASE_URL")
	_ = viper.BindEnv("anthropic.model", "ANTHROPIC_MODEL")
	_ = viper.BindEnv("anthropic.version", "ANTHROPIC_VERSION")
	_ = viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = viper.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	_ = viper.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = viper.BindEnv("articles.base_url", "ARTICLES_BASE_URL")
	_ = viper.BindEnv("articles.api_key", "ARTICLES_API_KEY")
	_ = viper.BindEnv("generation.estimate_seconds", "GENERATION_ESTIMATE_SECONDS")
	_ = viper.BindEnv("generation.max_batch_size", "GENERATION_MAX_BATCH_SIZE")
	_ = viper.BindEnv("generation.worker_concurrency", "GENERATION_WORKER_CONCURRENCY")
	_ = viper.BindEnv("generation.health_window", "GENERATION_HEALTH_WINDOW")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.generate_per_min", 10)
	viper.SetDefault("ratelimit.enqueue_per_hour", 60)
	viper.SetDefault("ratelimit.batches_per_hour", 10)

	// Provider defaults
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	viper.SetDefault("anthropic.model", "claude-3-5-haiku-latest")
	viper.SetDefault("anthropic.version", "2023-06-01")
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")

	// Generation defaults
	viper.SetDefault("generation.estimate_seconds", 90)
	viper.SetDefault("generation.max_batch_size", 10)
	viper.SetDefault("generation.worker_concurrency", 4)
	viper.SetDefault("generation.health_window", 20)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerMin: viper.GetInt("ratelimit.generate_per_min"),
			EnqueuePerHour: viper.GetInt("ratelimit.enqueue_per_hour"),
			BatchesPerHour: viper.GetInt("ratelimit.batches_per_hour"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("openai.api_key"),
			BaseURL: viper.GetString("openai.base_url"),
			Model:   viper.GetString("openai.model"),
		},
		Anthropic: AnthropicConfig{
			APIKey:  viper.GetString("anthropic.api_key"),
			BaseURL: viper.GetString("anthropic.base_url"),
			Model:   viper.GetString("anthropic.model"),
			Version: viper.GetString("anthropic.version"),
		},
		Gemini: GeminiConfig{
			APIKey:  viper.GetString("gemini.api_key"),
			BaseURL: viper.GetString("gemini.base_url"),
			Model:   viper.GetString("gemini.model"),
		},
		Articles: ArticlesConfig{
			BaseURL: viper.GetString("articles.base_url"),
			APIKey:  viper.GetString("articles.api_key"),
		},
		Generation: GenerationConfig{
			EstimateSeconds:   viper.GetInt("generation.estimate_seconds"),
			MaxBatchSize:      viper.GetInt("generation.max_batch_size"),
			WorkerConcurrency: viper.GetInt("generation.worker_concurrency"),
			HealthWindow:      viper.GetInt("generation.health_window"),
		},
	}

	return cfg, nil
}
