package internal

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. Verbose selects the human-readable
// development encoder; otherwise JSON production output on stderr.
func NewLogger(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
