package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Auth     AuthConfig
	Webhook  WebhookConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	Enabled   bool
	StatusTTL time.Duration
}

// StorageConfig holds object storage configuration.
// Driver selects between "minio" (S3 compatible) and "local".
type StorageConfig struct {
	Driver          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
	RootURL         string
	LocalRoot       string
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// PipelineConfig holds HLS conversion configuration
type PipelineConfig struct {
	TempDir           string
	FFmpegPath        string
	FFprobePath       string
	Namespace         string
	SegmentSeconds    int
	AudioSampleRate   int
	AudioChannels     int
	VideoCodec        string
	AudioCodec        string
	Preset            string
	MaxUploadAttempts int
	UploadBaseDelay   time.Duration
	UploadMaxDelay    time.Duration
	Concurrency       int
	JobTimeout        time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// MetricsConfig holds the metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds Jaeger tracing configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// AuthConfig holds API authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// WebhookConfig holds conversion notification endpoints
type WebhookConfig struct {
	URLs        []string
	Secret      string
	MaxAttempts int
	Timeout     time.Duration
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks invariants the pipeline relies on
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.MaxUploadAttempts < 1 {
		errs = append(errs, errors.New("pipeline.maxUploadAttempts must be at least 1"))
	}
	if c.Pipeline.SegmentSeconds <= 0 {
		errs = append(errs, errors.New("pipeline.segmentSeconds must be positive"))
	}
	if strings.Trim(c.Pipeline.Namespace, "/ ") == "" {
		errs = append(errs, errors.New("pipeline.namespace must not be empty"))
	}
	if c.Pipeline.TempDir == "" {
		errs = append(errs, errors.New("pipeline.tempDir must not be empty"))
	}
	switch c.Storage.Driver {
	case "minio", "local":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.rateLimitRPS", 20)
	v.SetDefault("server.rateLimitBurst", 40)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "streamingvideo")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.minConns", 2)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.statusTTL", "10m")

	// Storage defaults
	v.SetDefault("storage.driver", "minio")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "assets")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.rootURL", "")
	v.SetDefault("storage.localRoot", "/var/lib/streamingvideo")

	// Queue defaults
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")

	// Pipeline defaults
	v.SetDefault("pipeline.tempDir", "/tmp/streamingvideo")
	v.SetDefault("pipeline.ffmpegPath", "ffmpeg")
	v.SetDefault("pipeline.ffprobePath", "ffprobe")
	v.SetDefault("pipeline.namespace", "__hls__")
	v.SetDefault("pipeline.segmentSeconds", 6)
	v.SetDefault("pipeline.audioSampleRate", 48000)
	v.SetDefault("pipeline.audioChannels", 2)
	v.SetDefault("pipeline.videoCodec", "libx264")
	v.SetDefault("pipeline.audioCodec", "aac")
	v.SetDefault("pipeline.preset", "")
	v.SetDefault("pipeline.maxUploadAttempts", 3)
	v.SetDefault("pipeline.uploadBaseDelay", "1s")
	v.SetDefault("pipeline.uploadMaxDelay", "4s")
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.jobTimeout", "2h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "streamingvideo")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "change-me")

	// Webhook defaults
	v.SetDefault("webhook.urls", []string{})
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.maxAttempts", 3)
	v.SetDefault("webhook.timeout", "10s")
}
