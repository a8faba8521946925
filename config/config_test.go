package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "SESSION_BACKEND", "SESSION_TTL", "ARTIFACT_BACKEND", "GCS_BUCKET", "MAX_VIDEO_BYTES",
	"KEEP_AUDIO_ARTIFACTS", "STT_PROVIDER", "LLM_PROVIDER", "GCP_PROJECT_ID", "OPENAI_API_KEY",
	"ALLOW_REANALYSIS", "TRANSCRIBE_CONCURRENCY", "REDIS_ADDR", "REDIS_URI", "REDIS_URL", "MONGO_URI",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCP_PROJECT_ID", "proj")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8085", cfg.Port)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, "local", cfg.ArtifactBackend)
	assert.Equal(t, "google", cfg.STTProvider)
	assert.Equal(t, "vertex", cfg.LLMProvider)
	assert.True(t, cfg.AllowReanalysis)
	assert.False(t, cfg.KeepAudio)
	assert.Equal(t, int64(100<<20), cfg.MaxVideoBytes)
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("STT_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("KEEP_AUDIO_ARTIFACTS", "true")
	t.Setenv("ALLOW_REANALYSIS", "false")
	t.Setenv("TRANSCRIBE_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.KeepAudio)
	assert.False(t, cfg.AllowReanalysis)
	assert.Equal(t, 3, cfg.TranscribeConcurrency)
}

func TestLoadValidatesBackends(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown session backend": {"SESSION_BACKEND": "etcd", "GCP_PROJECT_ID": "p"},
		"redis without address":   {"SESSION_BACKEND": "redis", "GCP_PROJECT_ID": "p"},
		"mongo without uri":       {"SESSION_BACKEND": "mongo", "GCP_PROJECT_ID": "p"},
		"gcs without bucket":      {"ARTIFACT_BACKEND": "gcs", "GCP_PROJECT_ID": "p"},
		"vertex without project":  {"GCP_PROJECT_ID": ""},
		"openai llm without key":  {"LLM_PROVIDER": "openai", "OPENAI_API_KEY": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
