package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port       string
	ClinicName string

	// Session persistence: memory|redis|mongo
	SessionBackend string
	SessionTTL     time.Duration

	// Artifact storage: local|gcs
	ArtifactBackend string
	UploadDir       string
	GCSBucket       string
	MaxVideoBytes   int64
	KeepAudio       bool

	FFmpegPath string

	// Speech-to-text: google|openai
	STTProvider    string
	STTLanguage    string
	OpenAISTTModel string

	// Analyzer LLM: vertex|openai
	LLMProvider  string
	GCPProjectID string
	GCPLocation  string
	VertexModel  string
	OpenAIKey    string
	OpenAIModel  string

	AllowReanalysis       bool
	TranscribeConcurrency int
	WorkerCount           int

	CatalogFile string

	RedisAddr   string
	MongoURI    string
	MongoDB     string
	PostgresURI string
}

// Load reads configuration from the environment. Call godotenv.Load first
// when a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8085"),
		ClinicName: os.Getenv("CLINIC_NAME"),

		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		SessionTTL:     getDuration("SESSION_TTL", 0),

		ArtifactBackend: strings.ToLower(getEnv("ARTIFACT_BACKEND", "local")),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		MaxVideoBytes:   int64(getInt("MAX_VIDEO_BYTES", 100<<20)),
		KeepAudio:       getBool("KEEP_AUDIO_ARTIFACTS", false),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),

		STTProvider:    strings.ToLower(getEnv("STT_PROVIDER", "google")),
		STTLanguage:    getEnv("STT_LANGUAGE", "en-US"),
		OpenAISTTModel: getEnv("OPENAI_STT_MODEL", "whisper-1"),

		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", "vertex")),
		GCPProjectID: os.Getenv("GCP_PROJECT_ID"),
		GCPLocation:  getEnv("GCP_LOCATION", "us-central1"),
		VertexModel:  getEnv("VERTEX_MODEL", "gemini-1.5-flash"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		AllowReanalysis:       getBool("ALLOW_REANALYSIS", true),
		TranscribeConcurrency: getInt("TRANSCRIBE_CONCURRENCY", 3),
		WorkerCount:           getInt("WORKER_COUNT", 3),

		CatalogFile: os.Getenv("INTAKE_CATALOG_FILE"),

		RedisAddr:   firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getEnv("MONGO_DB", "intake"),
		PostgresURI: os.Getenv("POSTGRES_URI"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("SESSION_BACKEND=redis requires REDIS_ADDR (or REDIS_URI/REDIS_URL)")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("SESSION_BACKEND=mongo requires MONGO_URI")
		}
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND: %s. Supported: memory, redis, mongo", c.SessionBackend)
	}

	switch c.ArtifactBackend {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("ARTIFACT_BACKEND=gcs requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unsupported ARTIFACT_BACKEND: %s. Supported: local, gcs", c.ArtifactBackend)
	}

	switch c.STTProvider {
	case "google":
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("STT_PROVIDER=openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported STT_PROVIDER: %s. Supported: google, openai", c.STTProvider)
	}

	switch c.LLMProvider {
	case "vertex":
		if c.GCPProjectID == "" {
			return fmt.Errorf("LLM_PROVIDER=vertex requires GCP_PROJECT_ID")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("LLM_PROVIDER=openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %s. Supported: vertex, openai", c.LLMProvider)
	}

	if c.MaxVideoBytes <= 0 {
		return fmt.Errorf("MAX_VIDEO_BYTES must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
