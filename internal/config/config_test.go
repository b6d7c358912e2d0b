package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "openai", cfg.ApiProvider)
	require.Equal(t, 5000, cfg.ChunkSize)
	require.InDelta(t, 0.7, cfg.MinScoreThreshold, 0.0001)
	require.Equal(t, 5, cfg.MaxClipsPerCollection)
	require.Equal(t, 2, cfg.MaxConcurrentProcessing)
}

func TestLoad_InvalidProvider(t *testing.T) {
	resetViper(t)
	t.Setenv("API_PROVIDER", "not-a-provider")

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	resetViper(t)
	t.Setenv("API_PROVIDER", "anthropic")
	t.Setenv("CHUNK_SIZE", "1000")
	t.Setenv("MIN_SCORE_THRESHOLD", "0.5")
	t.Setenv("MAX_CONCURRENT_PROCESSING", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.ApiProvider)
	require.Equal(t, 1000, cfg.ChunkSize)
	require.InDelta(t, 0.5, cfg.MinScoreThreshold, 0.0001)
	require.Equal(t, 1, cfg.MaxConcurrentProcessing)
}

func TestNormalizeCategory(t *testing.T) {
	c, err := NormalizeCategory("")
	require.NoError(t, err)
	require.Equal(t, CategoryDefault, c)

	c, err = NormalizeCategory("knowledge")
	require.NoError(t, err)
	require.Equal(t, CategoryKnowledge, c)

	_, err = NormalizeCategory("not-a-category")
	require.Error(t, err)
}
