package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. FUELPIPE_GEOCODE_API_KEY
const EnvPrefix = "FUELPIPE"

// Default file names, matching the layout the pipeline has always produced
const (
	DefaultDataDir        = "Data"
	DefaultInputFile      = "fuelPurchaseData.csv"
	DefaultAnomaliesFile  = "dataAnomalies.csv"
	DefaultCleanedFile    = "cleanedData.csv"
	DefaultEnrichedFile   = "enrichedData.csv"
	DefaultValidationFile = "validation_issues.txt"
	DefaultEnhancedFile   = "enhancedData.csv"
	DefaultXLSXFile       = "enhancedData.xlsx"
	DefaultMaxRows        = 5
)

// Config represents the complete application configuration
type Config struct {
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Geocode    GeocodeConfig    `yaml:"geocode" envconfig:"GEOCODE"`
	Enrichment EnrichmentConfig `yaml:"enrichment" envconfig:"ENRICHMENT"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Export     ExportConfig     `yaml:"export" envconfig:"EXPORT"`
}

// PathsConfig names the data directory and the files read and written in it
type PathsConfig struct {
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	InputFile      string `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required,filename"`
	AnomaliesFile  string `yaml:"anomalies_file" envconfig:"ANOMALIES_FILE" validate:"required,filename"`
	CleanedFile    string `yaml:"cleaned_file" envconfig:"CLEANED_FILE" validate:"required,filename"`
	EnrichedFile   string `yaml:"enriched_file" envconfig:"ENRICHED_FILE" validate:"required,filename"`
	ValidationFile string `yaml:"validation_file" envconfig:"VALIDATION_FILE" validate:"required,filename"`
	EnhancedFile   string `yaml:"enhanced_file" envconfig:"ENHANCED_FILE" validate:"required,filename"`
	XLSXFile       string `yaml:"xlsx_file" envconfig:"XLSX_FILE" validate:"required,filename"`
}

// GeocodeConfig configures the postal code lookup service
type GeocodeConfig struct {
	Endpoint          string        `yaml:"endpoint" envconfig:"ENDPOINT" validate:"required,url"`
	APIKey            string        `yaml:"api_key" envconfig:"API_KEY"`
	Country           string        `yaml:"country" envconfig:"COUNTRY" validate:"required,len=2"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gte=0"`
}

// EnrichmentConfig bounds the enrichment pass. MaxRows 0 visits every row.
type EnrichmentConfig struct {
	MaxRows int `yaml:"max_rows" envconfig:"MAX_ROWS" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig selects trace and metric exporters
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=none prometheus"`
	PushgatewayURL string `yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	PushJob        string `yaml:"push_job" envconfig:"PUSH_JOB" validate:"required"`
}

// ExportConfig controls optional extra outputs
type ExportConfig struct {
	XLSX bool `yaml:"xlsx" envconfig:"XLSX"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:        DefaultDataDir,
			LogsDir:        "logs",
			InputFile:      DefaultInputFile,
			AnomaliesFile:  DefaultAnomaliesFile,
			CleanedFile:    DefaultCleanedFile,
			EnrichedFile:   DefaultEnrichedFile,
			ValidationFile: DefaultValidationFile,
			EnhancedFile:   DefaultEnhancedFile,
			XLSXFile:       DefaultXLSXFile,
		},
		Geocode: GeocodeConfig{
			Endpoint: "https://app.zipcodebase.com/api/v1/code/city",
			Country:  "US",
			Timeout:  30 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			MaxRows: DefaultMaxRows,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "fuelpipe.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "fuelpipe",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			PushJob:        "fuelpipe",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first file found in the usual locations when path is empty),
// then FUELPIPE_* environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found, or "" to use defaults and env only
func findConfigFile() string {
	locations := []string{
		"fuelpipe.yaml",
		"configs/fuelpipe.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// ResolvePaths turns the configured names into usable paths
func (c *Config) ResolvePaths() *Paths {
	return NewPaths(c.Paths)
}
