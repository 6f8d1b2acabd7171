package operations

import (
	"context"
	"log/slog"
	"time"
)

// logOperationStart logs the start of a pipeline run
func (m *Manager) logOperationStart(ctx context.Context, operationID, step string, stepCount int) {
	if step == "" {
		step = StepFullPipeline
	}
	m.logger.InfoContext(ctx, "operation start",
		slog.String("operation_id", operationID),
		slog.String("requested", step),
		slog.Int("step_count", stepCount))
}

// logOperationComplete logs the end of a pipeline run
func (m *Manager) logOperationComplete(ctx context.Context, operationID string, duration time.Duration, status string) {
	level := slog.LevelInfo
	if status != string(OperationStatusCompleted) {
		level = slog.LevelError
	}
	m.logger.Log(ctx, level, "operation complete",
		slog.String("operation_id", operationID),
		slog.String("status", status),
		slog.Duration("duration", duration))
}

func (m *Manager) logOperationError(ctx context.Context, operationID string, err error) {
	m.logger.ErrorContext(ctx, "operation error",
		slog.String("operation_id", operationID),
		slog.String("error", err.Error()))
}

func (m *Manager) logStageStart(ctx context.Context, operationID, stageID string) {
	m.logger.InfoContext(ctx, "step start",
		slog.String("operation_id", operationID),
		slog.String("step", stageID))
}

func (m *Manager) logStageComplete(ctx context.Context, operationID, stageID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "step complete",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.Duration("duration", duration))
}

func (m *Manager) logStageError(ctx context.Context, operationID, stageID string, err error) {
	m.logger.ErrorContext(ctx, "step error",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", err.Error()))
}
