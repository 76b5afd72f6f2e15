package config

import (
	"os"
	"strings"
	"time"

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
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Queue     QueueConfig
	Pipeline  PipelineConfig
	Agent     AgentConfig
	Gemini    GeminiConfig
	Groq      GroqConfig
	OpenAI    OpenAIConfig
	Ollama    OllamaConfig
	R2        R2Config
	Zitadel   ZitadelConfig
	Gateway   GatewayConfig
	Sweep     SweepConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Driver string // sqlite | postgres
	DSN    string
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	APIPerMin        int
	ContractsPerHour int
}

type QueueConfig struct {
	Name             string
	Concurrency      int
	MaxRetry         int
	BackoffBase      time.Duration
	ExecutionTimeout time.Duration
	Retention        time.Duration
}

type PipelineConfig struct {
	Stages []string
}

type AgentConfig struct {
	Provider  string // auto | gemini | groq | openai | ollama | mock
	OutputDir string
	Storage   string // local | r2
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OllamaConfig struct {
	ServerURL string
	Model     string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

type GatewayConfig struct {
	Enabled bool
}

type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
	MinAge   time.Duration
	Batch    int
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("DATABASE_DSN")
	readSecret("JWT_SECRET")
	readSecret("GEMINI_API_KEY")
	readSecret("GROQ_API_KEY")
	readSecret("OPENAI_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = v.BindEnv("ratelimit.api_per_min", "RATELIMIT_API_PER_MIN")
	_ = v.BindEnv("ratelimit.contracts_per_hour", "RATELIMIT_CONTRACTS_PER_HOUR")
	_ = v.BindEnv("queue.name", "QUEUE_NAME")
	_ = v.BindEnv("queue.concurrency", "WORKER_CONCURRENCY")
	_ = v.BindEnv("queue.max_retry", "QUEUE_MAX_RETRY")
	_ = v.BindEnv("queue.backoff_base", "QUEUE_BACKOFF_BASE")
	_ = v.BindEnv("queue.execution_timeout", "EXECUTION_TIMEOUT")
	_ = v.BindEnv("queue.retention", "QUEUE_RETENTION")
	_ = v.BindEnv("agent.provider", "AGENT_PROVIDER")
	_ = v.BindEnv("agent.output_dir", "AGENT_OUTPUT_DIR")
	_ = v.BindEnv("agent.storage", "AGENT_STORAGE")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("groq.base_url", "GROQ_BASE_URL")
	_ = v.BindEnv("groq.model", "GROQ_MODEL")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.model", "OPENAI_MODEL")
	_ = v.BindEnv("ollama.server_url", "OLLAMA_SERVER_URL")
	_ = v.BindEnv("ollama.model", "OLLAMA_MODEL")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = v.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = v.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = v.BindEnv("sweep.enabled", "SWEEP_ENABLED")
	_ = v.BindEnv("sweep.interval", "SWEEP_INTERVAL")
	_ = v.BindEnv("sweep.min_age", "SWEEP_MIN_AGE")
	_ = v.BindEnv("sweep.batch", "SWEEP_BATCH")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "devagent.db")
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24)
	v.SetDefault("ratelimit.api_per_min", 120)
	v.SetDefault("ratelimit.contracts_per_hour", 200)

	// Queue defaults
	v.SetDefault("queue.name", "agents")
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.max_retry", 3)
	v.SetDefault("queue.backoff_base", "1s")
	v.SetDefault("queue.execution_timeout", "10m")
	v.SetDefault("queue.retention", "24h")

	v.SetDefault("pipeline.stages", []string{
		"Architecture", "Backend", "Frontend", "Security", "Testing", "Deployment",
	})

	// Agent defaults
	v.SetDefault("agent.provider", "auto")
	v.SetDefault("agent.output_dir", "./generated")
	v.SetDefault("agent.storage", "local")

	v.SetDefault("gemini.model", "gemini-2.5-flash")

	// Groq defaults
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")

	// OpenAI / Ollama defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("ollama.server_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.1")

	// Gateway defaults
	v.SetDefault("gateway.enabled", false)

	// Sweep defaults
	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", "1m")
	v.SetDefault("sweep.min_age", "5m")
	v.SetDefault("sweep.batch", 100)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("server.port"),
			Env:       v.GetString("server.env"),
			LogLevel:  v.GetString("server.log_level"),
			ApiDomain: v.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			DSN:    v.GetString("database.dsn"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			APIPerMin:        v.GetInt("ratelimit.api_per_min"),
			ContractsPerHour: v.GetInt("ratelimit.contracts_per_hour"),
		},
		Queue: QueueConfig{
			Name:             v.GetString("queue.name"),
			Concurrency:      v.GetInt("queue.concurrency"),
			MaxRetry:         v.GetInt("queue.max_retry"),
			BackoffBase:      v.GetDuration("queue.backoff_base"),
			ExecutionTimeout: v.GetDuration("queue.execution_timeout"),
			Retention:        v.GetDuration("queue.retention"),
		},
		Pipeline: PipelineConfig{
			Stages: v.GetStringSlice("pipeline.stages"),
		},
		Agent: AgentConfig{
			Provider:  strings.ToLower(v.GetString("agent.provider")),
			OutputDir: v.GetString("agent.output_dir"),
			Storage:   strings.ToLower(v.GetString("agent.storage")),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("gemini.api_key"),
			Model:  v.GetString("gemini.model"),
		},
		Groq: GroqConfig{
			APIKey:  v.GetString("groq.api_key"),
			BaseURL: v.GetString("groq.base_url"),
			Model:   v.GetString("groq.model"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString("openai.api_key"),
			BaseURL: v.GetString("openai.base_url"),
			Model:   v.GetString("openai.model"),
		},
		Ollama: OllamaConfig{
			ServerURL: v.GetString("ollama.server_url"),
			Model:     v.GetString("ollama.model"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Zitadel: ZitadelConfig{
			Domain:   v.GetString("zitadel.domain"),
			ClientID: v.GetString("zitadel.client_id"),
			Issuer:   v.GetString("zitadel.issuer"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
		Sweep: SweepConfig{
			Enabled:  v.GetBool("sweep.enabled"),
			Interval: v.GetDuration("sweep.interval"),
			MinAge:   v.GetDuration("sweep.min_age"),
			Batch:    v.GetInt("sweep.batch"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
