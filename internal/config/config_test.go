package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/sizing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "rainwater-assessment-requests", cfg.KafkaSourceTopic)
	assert.Equal(t, "rainwater-assessment-results", cfg.KafkaSinkTopic)
	assert.Equal(t, "rainwater-assessment", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.True(t, cfg.PipelineEnabled)

	assert.True(t, cfg.RainfallEnabled)
	assert.Equal(t, "https://archive-api.open-meteo.com", cfg.RainfallAPIURL)
	assert.Equal(t, 10*time.Second, cfg.RainfallTimeout)
	assert.Equal(t, 1000, cfg.RainfallCacheSize)
	assert.Equal(t, 10, cfg.RainfallNormalYears)
	assert.Empty(t, cfg.InfluxURL)

	assert.Equal(t, 1.0, cfg.CollectionEfficiency)
	assert.Equal(t, 0.0, cfg.FirstFlushLoss)
	assert.Equal(t, 0.8, cfg.ReliabilityTarget)
	assert.Equal(t, 0.5, cfg.InitialFill)
	assert.Equal(t, sizing.Grid{Min: 1000, Max: 50000, Step: 1000}, cfg.TankGrid)
	assert.Equal(t, 1000, cfg.UncertaintyTrials)
	assert.Equal(t, 0.2, cfg.UncertaintySigma)
	assert.Equal(t, domain.DefaultDrySeason, cfg.DrySeason)
	assert.Equal(t, domain.ScenarioMaxCapture, cfg.RecommendedScenario)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("PIPELINE_ENABLED", "false")
	t.Setenv("RAINFALL_API_URL", "http://rain.local")
	t.Setenv("RAINFALL_TIMEOUT", "3s")
	t.Setenv("RAINFALL_CACHE_SIZE", "50")
	t.Setenv("RAINFALL_NORMAL_YEARS", "30")
	t.Setenv("INFLUX_URL", "http://influx:8086")
	t.Setenv("INFLUX_TOKEN", "secret")
	t.Setenv("INFLUX_ORG", "acme")
	t.Setenv("INFLUX_BUCKET", "rain")
	t.Setenv("COLLECTION_EFFICIENCY", "0.9")
	t.Setenv("FIRST_FLUSH_LOSS", "0.05")
	t.Setenv("RELIABILITY_TARGET", "0.75")
	t.Setenv("INITIAL_FILL", "0")
	t.Setenv("TANK_GRID_MIN", "2000")
	t.Setenv("TANK_GRID_MAX", "80000")
	t.Setenv("TANK_GRID_STEP", "2000")
	t.Setenv("UNCERTAINTY_TRIALS", "250")
	t.Setenv("UNCERTAINTY_SIGMA", "0.3")
	t.Setenv("DRY_SEASON_MONTHS", "jun, July,8")
	t.Setenv("RECOMMENDED_SCENARIO", "cost-optimized")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.False(t, cfg.PipelineEnabled)
	assert.Equal(t, "http://rain.local", cfg.RainfallAPIURL)
	assert.Equal(t, 3*time.Second, cfg.RainfallTimeout)
	assert.Equal(t, 50, cfg.RainfallCacheSize)
	assert.Equal(t, 30, cfg.RainfallNormalYears)
	assert.Equal(t, "http://influx:8086", cfg.InfluxURL)
	assert.Equal(t, "acme", cfg.InfluxOrg)
	assert.Equal(t, "rain", cfg.InfluxBucket)
	assert.Equal(t, 0.9, cfg.CollectionEfficiency)
	assert.Equal(t, 0.05, cfg.FirstFlushLoss)
	assert.Equal(t, 0.75, cfg.ReliabilityTarget)
	assert.Equal(t, 0.0, cfg.InitialFill)
	assert.Equal(t, sizing.Grid{Min: 2000, Max: 80000, Step: 2000}, cfg.TankGrid)
	assert.Equal(t, 250, cfg.UncertaintyTrials)
	assert.Equal(t, 0.3, cfg.UncertaintySigma)
	assert.Equal(t, domain.Season{time.June, time.July, time.August}, cfg.DrySeason)
	assert.Equal(t, domain.ScenarioCostOptimized, cfg.RecommendedScenario)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
		{"zero batch size", "BATCH_SIZE", "0"},
		{"batch size too large", "BATCH_SIZE", "9999"},
		{"flush interval", "BATCH_FLUSH_INTERVAL", "not-a-duration"},
		{"rainfall timeout", "RAINFALL_TIMEOUT", "bad"},
		{"efficiency above one", "COLLECTION_EFFICIENCY", "1.2"},
		{"zero efficiency", "COLLECTION_EFFICIENCY", "0"},
		{"first flush not a number", "FIRST_FLUSH_LOSS", "lots"},
		{"target above one", "RELIABILITY_TARGET", "80"},
		{"negative fill", "INITIAL_FILL", "-0.1"},
		{"grid step", "TANK_GRID_STEP", "0"},
		{"grid min", "TANK_GRID_MIN", "abc"},
		{"trials", "UNCERTAINTY_TRIALS", "-5"},
		{"sigma", "UNCERTAINTY_SIGMA", "-0.2"},
		{"dry season month", "DRY_SEASON_MONTHS", "13"},
		{"dry season name", "DRY_SEASON_MONTHS", "oct,smarch"},
		{"dry season duplicate", "DRY_SEASON_MONTHS", "oct,10"},
		{"recommended scenario", "RECOMMENDED_SCENARIO", "biggest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_InfluxURLWithoutToken(t *testing.T) {
	t.Setenv("INFLUX_URL", "http://influx:8086")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INFLUX_TOKEN")
}

func TestLoad_RainfallDisabled(t *testing.T) {
	t.Setenv("RAINFALL_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.RainfallEnabled)
}

func TestLoad_BadCacheSizeFallsBack(t *testing.T) {
	t.Setenv("RAINFALL_CACHE_SIZE", "-3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.RainfallCacheSize)
}

func TestConfig_AssessmentOptions(t *testing.T) {
	t.Setenv("COLLECTION_EFFICIENCY", "0.9")
	t.Setenv("FIRST_FLUSH_LOSS", "0.1")
	t.Setenv("RELIABILITY_TARGET", "0.9")
	t.Setenv("TANK_GRID_MAX", "20000")
	t.Setenv("UNCERTAINTY_TRIALS", "10")
	t.Setenv("RECOMMENDED_SCENARIO", "dry_season")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.AssessmentOptions()
	assert.InDelta(t, 0.81, opts.CollectionEfficiency, 1e-12)
	assert.Equal(t, 0.9, opts.Sizing.ReliabilityTarget)
	assert.Equal(t, 20000, opts.Sizing.Grid.Max)
	assert.Equal(t, sizing.MaxPracticalLiters, opts.Sizing.Bounds.Max)
	assert.Equal(t, 10, opts.Uncertainty.Trials)
	assert.Equal(t, domain.ScenarioDrySeason, opts.Recommended)
	assert.Equal(t, domain.DefaultDrySeason, opts.DrySeason)
}
