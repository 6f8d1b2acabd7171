package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every file path used by one pipeline run.
// This is the single source of truth for file locations.
type Paths struct {
	DataDir string
	LogsDir string

	Input            string
	Anomalies        string
	Cleaned          string
	Enriched         string
	ValidationReport string
	Enhanced         string
	XLSX             string
}

// NewPaths joins the configured file names with the data directory
func NewPaths(cfg PathsConfig) *Paths {
	dataDir := filepath.Clean(cfg.DataDir)
	return &Paths{
		DataDir:          dataDir,
		LogsDir:          filepath.Clean(cfg.LogsDir),
		Input:            filepath.Join(dataDir, cfg.InputFile),
		Anomalies:        filepath.Join(dataDir, cfg.AnomaliesFile),
		Cleaned:          filepath.Join(dataDir, cfg.CleanedFile),
		Enriched:         filepath.Join(dataDir, cfg.EnrichedFile),
		ValidationReport: filepath.Join(dataDir, cfg.ValidationFile),
		Enhanced:         filepath.Join(dataDir, cfg.EnhancedFile),
		XLSX:             filepath.Join(dataDir, cfg.XLSXFile),
	}
}

// EnsureDirectories creates the data and logs directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetDataPath returns the path for a file in the data directory
func (p *Paths) GetDataPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.DataDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("data", p.DataDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("input", p.Input),
			slog.Bool("input_exists", FileExists(p.Input)),
			slog.String("anomalies", p.Anomalies),
			slog.String("cleaned", p.Cleaned),
			slog.String("enriched", p.Enriched),
			slog.String("validation_report", p.ValidationReport),
			slog.String("enhanced", p.Enhanced),
			slog.String("xlsx", p.XLSX),
		))
}
