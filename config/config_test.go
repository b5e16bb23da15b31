package config_test // Use an external test package

import (
	"testing"
	"time"

	"github.com/bimaega15/translate-video/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		// Ensure no env vars are lingering from other tests
		t.Setenv("TRANSLATE_VIDEO_PORT", "")
		t.Setenv("TRANSLATE_VIDEO_MAX_CONCURRENCY", "")
		t.Setenv("TRANSLATE_VIDEO_AUTH_ENABLE", "")
		t.Setenv("TRANSLATE_VIDEO_JOB_TIMEOUT", "")
		t.Setenv("TRANSLATE_VIDEO_MAX_UPLOAD_SIZE", "")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 1, cfg.MaxConcurrency)
		assert.Equal(t, false, cfg.AuthEnable)
		assert.Equal(t, "ffmpeg", cfg.FFmpegBin)
		assert.Equal(t, "whisper", cfg.WhisperBin)
		assert.Equal(t, 30*time.Minute, cfg.JobTimeout)
		assert.Equal(t, int64(500*1024*1024), cfg.MaxUploadSize)
		assert.Equal(t, []string{"mp4", "avi", "mov", "mkv", "wmv", "flv", "webm"}, cfg.AllowedFormats)
	})

	t.Run("clamps a zero concurrency to one worker", func(t *testing.T) {
		t.Setenv("TRANSLATE_VIDEO_MAX_CONCURRENCY", "0")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.Equal(t, 1, cfg.MaxConcurrency)

		t.Setenv("TRANSLATE_VIDEO_MAX_CONCURRENCY", "-3")
		cfg, err = config.Load()
		assert.NoError(t, err)
		assert.Equal(t, 1, cfg.MaxConcurrency)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("TRANSLATE_VIDEO_PORT", "9999")
		t.Setenv("TRANSLATE_VIDEO_MAX_CONCURRENCY", "10")
		t.Setenv("TRANSLATE_VIDEO_AUTH_ENABLE", "true")
		t.Setenv("TRANSLATE_VIDEO_AUTH_KEY", "newsecret")
		t.Setenv("TRANSLATE_VIDEO_MAX_UPLOAD_SIZE", "50MB")
		t.Setenv("TRANSLATE_VIDEO_RETENTION_WINDOW", "2h30m")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 10, cfg.MaxConcurrency)
		assert.Equal(t, true, cfg.AuthEnable)
		assert.Equal(t, "newsecret", cfg.AuthKey)
		assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadSize)
		assert.Equal(t, 2*time.Hour+30*time.Minute, cfg.RetentionWindow)
	})
}

func TestFormatAllowed(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.True(t, cfg.FormatAllowed("mp4"))
	assert.True(t, cfg.FormatAllowed(".MKV"))
	assert.True(t, cfg.FormatAllowed("WebM"))
	assert.False(t, cfg.FormatAllowed("txt"))
	assert.False(t, cfg.FormatAllowed("exe"))
	assert.False(t, cfg.FormatAllowed(""))
}
