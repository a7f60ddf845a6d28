package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, Load(v))
	cfg := Get()
	assert.Equal(t, "h264", cfg.Validation.Codec)
	assert.Equal(t, 60, cfg.Validation.MaxHashList)
	assert.Equal(t, 120, cfg.Validation.MaxPendingGops)
	assert.Equal(t, "gop", cfg.Signing.AuthenticityLevel)
	assert.Equal(t, 1, cfg.Signing.Recurrence)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("validation.codec", "h265")
	v.Set("validation.max_pending_gops", 16)
	v.Set("signing.authenticity_level", "frame")
	v.Set("logging.level", "debug")
	v.Set("logging.run_log", "runs.ndjson")
	require.NoError(t, Load(v))
	cfg := Get()
	assert.Equal(t, "h265", cfg.Validation.Codec)
	assert.Equal(t, 16, cfg.Validation.MaxPendingGops)
	assert.Equal(t, "frame", cfg.Signing.AuthenticityLevel)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "runs.ndjson", cfg.Logging.RunLog)
}
