package progress

import (
	"fmt"
	"log/slog"

	"parallax/internal/logging"
)

// Console renders phase and progress lines through the structured logger so
// operators tailing the worker see conversion activity as it happens.
type Console struct {
	logger *slog.Logger
}

// NewConsole builds a console sink on the provided base logger.
func NewConsole(logger *slog.Logger) *Console {
	return &Console{logger: logging.NewComponentLogger(logger, "progress")}
}

func (c *Console) ReportPhase(phase, message string) {
	c.logger.Info(fmt.Sprintf("[PHASE] %s: %s", phase, message))
}

func (c *Console) ReportProgress(current, total int, message string) {
	denominator := safeTotal(total)
	percent := float64(current) / float64(denominator) * 100.0
	c.logger.Info(fmt.Sprintf("[PROGRESS] %.1f%% (%d/%d) %s", percent, current, denominator, message))
}
