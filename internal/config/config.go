package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/rainwater-assessment/internal/assessment"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/hydrology"
	"github.com/couchcryptid/rainwater-assessment/internal/sizing"
	"github.com/couchcryptid/rainwater-assessment/internal/uncertainty"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
	PipelineEnabled    bool

	// Rainfall normals lookup for requests that carry only a location.
	RainfallAPIURL      string
	RainfallEnabled     bool
	RainfallTimeout     time.Duration
	RainfallCacheSize   int
	RainfallNormalYears int

	// Optional InfluxDB result sink. Disabled when InfluxURL is empty.
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	// Assessment policy.
	CollectionEfficiency float64
	FirstFlushLoss       float64
	ReliabilityTarget    float64
	InitialFill          float64
	TankGrid             sizing.Grid
	UncertaintyTrials    int
	UncertaintySigma     float64
	DrySeason            domain.Season
	RecommendedScenario  domain.Scenario
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	rainfallTimeout, err := parsePositiveDuration("RAINFALL_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "rainwater-assessment-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "rainwater-assessment-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "rainwater-assessment"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		PipelineEnabled:    os.Getenv("PIPELINE_ENABLED") != "false",

		RainfallAPIURL:      sharedcfg.EnvOrDefault("RAINFALL_API_URL", "https://archive-api.open-meteo.com"),
		RainfallEnabled:     os.Getenv("RAINFALL_ENABLED") != "false",
		RainfallTimeout:     rainfallTimeout,
		RainfallCacheSize:   parsePositiveIntOrDefault("RAINFALL_CACHE_SIZE", 1000),
		RainfallNormalYears: parsePositiveIntOrDefault("RAINFALL_NORMAL_YEARS", 10),

		InfluxURL:    os.Getenv("INFLUX_URL"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    sharedcfg.EnvOrDefault("INFLUX_ORG", "rainwater"),
		InfluxBucket: sharedcfg.EnvOrDefault("INFLUX_BUCKET", "assessments"),
	}

	if err := cfg.loadPolicy(); err != nil {
		return nil, err
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.RainfallEnabled && cfg.RainfallAPIURL == "" {
		return nil, errors.New("RAINFALL_ENABLED is true but RAINFALL_API_URL is empty")
	}
	if cfg.InfluxURL != "" && cfg.InfluxToken == "" {
		return nil, errors.New("INFLUX_URL is set but INFLUX_TOKEN is not")
	}

	return cfg, nil
}

func (c *Config) loadPolicy() error {
	var err error
	if c.CollectionEfficiency, err = parseFraction("COLLECTION_EFFICIENCY", 1.0, false); err != nil {
		return err
	}
	if c.FirstFlushLoss, err = parseFraction("FIRST_FLUSH_LOSS", hydrology.FirstFlushLossFraction, true); err != nil {
		return err
	}
	if c.ReliabilityTarget, err = parseFraction("RELIABILITY_TARGET", 0.8, false); err != nil {
		return err
	}
	if c.InitialFill, err = parseFraction("INITIAL_FILL", 0.5, true); err != nil {
		return err
	}

	def := sizing.DefaultOptions().Grid
	if c.TankGrid.Min, err = parseInt("TANK_GRID_MIN", def.Min); err != nil {
		return err
	}
	if c.TankGrid.Max, err = parseInt("TANK_GRID_MAX", def.Max); err != nil {
		return err
	}
	if c.TankGrid.Step, err = parseInt("TANK_GRID_STEP", def.Step); err != nil {
		return err
	}
	if c.TankGrid.Step <= 0 || c.TankGrid.Min <= 0 || c.TankGrid.Max < c.TankGrid.Min {
		return fmt.Errorf("invalid tank grid: TANK_GRID_MIN=%d TANK_GRID_MAX=%d TANK_GRID_STEP=%d",
			c.TankGrid.Min, c.TankGrid.Max, c.TankGrid.Step)
	}

	if c.UncertaintyTrials, err = parseInt("UNCERTAINTY_TRIALS", uncertainty.DefaultTrials); err != nil {
		return err
	}
	if c.UncertaintyTrials <= 0 {
		return fmt.Errorf("invalid UNCERTAINTY_TRIALS: must be positive, got %d", c.UncertaintyTrials)
	}
	if c.UncertaintySigma, err = parseFloat("UNCERTAINTY_SIGMA", uncertainty.DefaultSigma); err != nil {
		return err
	}
	if c.UncertaintySigma < 0 {
		return fmt.Errorf("invalid UNCERTAINTY_SIGMA: must be non-negative, got %g", c.UncertaintySigma)
	}

	if c.DrySeason, err = parseSeason(os.Getenv("DRY_SEASON_MONTHS")); err != nil {
		return err
	}

	c.RecommendedScenario = domain.ScenarioMaxCapture
	if v := os.Getenv("RECOMMENDED_SCENARIO"); v != "" {
		s, err := domain.ParseScenario(v)
		if err != nil {
			return fmt.Errorf("invalid RECOMMENDED_SCENARIO: %w", err)
		}
		c.RecommendedScenario = s
	}
	return nil
}

// AssessmentOptions converts the policy settings into the options consumed by
// assessment.Run.
func (c *Config) AssessmentOptions() assessment.Options {
	opts := assessment.DefaultOptions()
	opts.CollectionEfficiency = hydrology.EffectiveEfficiency(c.CollectionEfficiency, c.FirstFlushLoss)
	opts.DrySeason = c.DrySeason
	opts.Recommended = c.RecommendedScenario

	opts.Sizing.Grid = c.TankGrid
	opts.Sizing.ReliabilityTarget = c.ReliabilityTarget
	opts.Sizing.InitialFill = c.InitialFill
	opts.Sizing.DrySeason = c.DrySeason

	opts.Uncertainty.Trials = c.UncertaintyTrials
	opts.Uncertainty.Sigma = c.UncertaintySigma
	return opts
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveIntOrDefault(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func parseFloat(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// parseFraction reads a value in (0, 1], or [0, 1] when allowZero is set.
func parseFraction(name string, def float64, allowZero bool) (float64, error) {
	v, err := parseFloat(name, def)
	if err != nil {
		return 0, err
	}
	if v > 1 || v < 0 || (v == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: %g is outside the allowed range", name, v)
	}
	return v, nil
}

// parseSeason accepts a comma-separated list of month numbers or English month
// names ("10,11,12,1,2,3" or "oct,nov,dec"). Empty means the default dry season.
func parseSeason(s string) (domain.Season, error) {
	if strings.TrimSpace(s) == "" {
		return domain.DefaultDrySeason, nil
	}
	var season domain.Season
	for _, part := range strings.Split(s, ",") {
		m, err := parseMonth(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid DRY_SEASON_MONTHS: %w", err)
		}
		season = append(season, m)
	}
	if err := season.Validate(); err != nil {
		return nil, fmt.Errorf("invalid DRY_SEASON_MONTHS: %w", err)
	}
	return season, nil
}

func parseMonth(s string) (time.Month, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return time.Month(n), nil
	}
	lower := strings.ToLower(s)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if lower == name || (len(lower) >= 3 && strings.HasPrefix(name, lower)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}
