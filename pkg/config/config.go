// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned when configuration values fail validation
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config represents the application configuration
type Config struct {
	// Logging
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`

	// Output
	OutputDir   string `yaml:"output_dir"`
	MetricsFile string `yaml:"metrics_file"`

	// Enricher order overrides; empty means the pipeline default
	GenericEnrichers []string `yaml:"generic_enrichers"`
	ArgoEnrichers    []string `yaml:"argo_enrichers"`

	// pH anomaly detection
	Detector DetectorConfig `yaml:"detector"`

	// External IOOS compliance-checker executable
	CFCheckerBin string `yaml:"cf_checker_bin" validate:"required"`
}

// DetectorConfig holds the isolation forest settings
type DetectorConfig struct {
	ModelPath     string  `yaml:"model_path"`
	SkipIfNoModel bool    `yaml:"skip_if_no_model"`
	Contamination float64 `yaml:"contamination" validate:"gt=0,lte=0.5"`
	Trees         int     `yaml:"trees" validate:"min=1"`
	SampleSize    int     `yaml:"sample_size" validate:"min=2"`
	RandomState   int64   `yaml:"random_state"`
}

// DefaultDetectorConfig returns the detector defaults
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ModelPath:     "models/ph_detector.json",
		SkipIfNoModel: true,
		Contamination: 0.05,
		Trees:         100,
		SampleSize:    256,
		RandomState:   42,
	}
}

// LoadConfig loads configuration from environment variables, reading a
// .env file first when one exists in the working directory.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	defaults := DefaultDetectorConfig()
	cfg := &Config{
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		OutputDir:        getEnv("FAIR_OUTPUT_DIR", ""),
		MetricsFile:      getEnv("METRICS_FILE", ""),
		GenericEnrichers: getEnvAsStringSlice("FAIR_ENRICHERS", nil),
		ArgoEnrichers:    getEnvAsStringSlice("ARGO_ENRICHERS", nil),
		Detector: DetectorConfig{
			ModelPath:     getEnv("PH_MODEL_PATH", defaults.ModelPath),
			SkipIfNoModel: getEnvAsBool("PH_SKIP_IF_NO_MODEL", defaults.SkipIfNoModel),
			Contamination: getEnvAsFloat("PH_CONTAMINATION", defaults.Contamination),
			Trees:         getEnvAsInt("PH_TREES", defaults.Trees),
			SampleSize:    getEnvAsInt("PH_SAMPLE_SIZE", defaults.SampleSize),
			RandomState:   int64(getEnvAsInt("PH_RANDOM_STATE", int(defaults.RandomState))),
		},
		CFCheckerBin: getEnv("CF_CHECKER_BIN", "compliance-checker"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are usable
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice parses a comma-separated list
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		v = strings.Trim(strings.TrimSpace(v), `"`)
		if v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
