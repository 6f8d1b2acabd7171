package operations

import (
	"time"
)

// Config represents the pipeline execution configuration
type Config struct {
	// Step-specific timeouts
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`

	// Whether later steps run after a failure. Off by default: every step reads
	// the file the previous one wrote.
	ContinueOnError bool `json:"continue_on_error"`
}

// NewConfig returns the default pipeline configuration
func NewConfig() *Config {
	return &Config{
		StageTimeouts: map[string]time.Duration{
			StageIDClean:    DefaultStageTimeout,
			StageIDEnrich:   DefaultEnrichTimeout,
			StageIDValidate: DefaultStageTimeout,
			StageIDEnhance:  DefaultStageTimeout,
		},
	}
}

// GetStageTimeout returns the timeout for a specific Step
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok && timeout > 0 {
		return timeout
	}
	return DefaultStageTimeout
}
