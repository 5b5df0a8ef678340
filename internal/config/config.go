package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"production"`
	DBConnectionString string `envconfig:"DB_URL" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	MaxImageBytes      int64  `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`

	// Object storage (any S3-compatible endpoint)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Google Cloud. Pub/Sub and Secret Manager are disabled when the project is empty.
	GCPProjectID            string `envconfig:"GCP_PROJECT_ID"`
	PubSubDesignEventsTopic string `envconfig:"PUBSUB_DESIGN_EVENTS_TOPIC" default:"design-events"`
	PubSubEmulatorHost      string `envconfig:"PUBSUB_EMULATOR_HOST"`

	// Fingerprint cache, disabled when empty
	RedisURL               string `envconfig:"REDIS_URL"`
	FingerprintCacheTTLSec int    `envconfig:"FINGERPRINT_CACHE_TTL_SEC" default:"300"`

	// Model gateway
	ModelAPIBaseURL     string `envconfig:"MODEL_API_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	ModelAPIKey         string `envconfig:"MODEL_API_KEY"`
	ModelAPIKeySecret   string `envconfig:"MODEL_API_KEY_SECRET"`
	ModelAnalysisModel  string `envconfig:"MODEL_ANALYSIS_MODEL" default:"gemini-2.0-flash"`
	ModelImageModel     string `envconfig:"MODEL_IMAGE_MODEL" default:"gemini-2.0-flash-preview-image-generation"`
	ModelCallTimeoutSec int    `envconfig:"MODEL_CALL_TIMEOUT_SEC" default:"60"`
	ModelMaxConcurrency int64  `envconfig:"MODEL_MAX_CONCURRENCY" default:"8"`

	// Asset tagging orchestrator settings
	AssetTaggingQueueName         string `envconfig:"ASSET_TAGGING_QUEUE" default:"asset_tagging_queue"`
	AssetTaggingDeadLetterQueue   string `envconfig:"ASSET_TAGGING_DLQ" default:"asset_tagging_queue_dlq"`
	AssetTaggingPollTimeoutSec    int    `envconfig:"ASSET_TAGGING_POLL_TIMEOUT_SEC" default:"30"`
	AssetTaggingMaxRetries        int    `envconfig:"ASSET_TAGGING_MAX_RETRIES" default:"5"`
	AssetTaggingBackoffInitialSec int    `envconfig:"ASSET_TAGGING_BACKOFF_INITIAL_SEC" default:"1"`
	AssetTaggingBackoffMaxSec     int    `envconfig:"ASSET_TAGGING_BACKOFF_MAX_SEC" default:"60"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ModelCallTimeout bounds a single model gateway round trip.
func (c *Config) ModelCallTimeout() time.Duration {
	return time.Duration(c.ModelCallTimeoutSec) * time.Second
}

func (c *Config) FingerprintCacheTTL() time.Duration {
	return time.Duration(c.FingerprintCacheTTLSec) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
