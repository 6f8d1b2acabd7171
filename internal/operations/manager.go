package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fuelpipe/internal/infrastructure"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	tracer   *OperationTracer
}

// NewManager creates a new pipeline manager. Nil arguments fall back to an empty
// registry, the default configuration, slog.Default and the global tracer.
func NewManager(registry *Registry, config *Config, logger *slog.Logger, tracer *OperationTracer) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer, _ = NewOperationTracer(nil)
	}

	return &Manager{
		registry: registry,
		config:   config,
		logger:   logger.With(slog.String("component", "pipeline_manager")),
		tracer:   tracer,
	}
}

// RegisterStage registers a Step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// Execute runs one step or the full pipeline. The returned response is never nil;
// the error is the first step failure, already wrapped as an OperationError.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		ctx = infrastructure.EnsureRunID(ctx)
		req.ID = infrastructure.GetRunID(ctx)
	} else {
		ctx = infrastructure.WithRunID(ctx, req.ID)
	}

	state := NewOperationState(req.ID)
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	steps, err := m.selectSteps(req.Step)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, req.Step)
	defer span.End()

	m.logOperationStart(ctx, req.ID, req.Step, len(steps))
	state.Start()

	err = m.executeSequential(ctx, state, steps)

	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}

	m.tracer.RecordOperationCompletion(span, state.Status, state.Duration(), err)
	m.logOperationComplete(ctx, req.ID, state.Duration(), string(state.Status))

	return m.createResponse(state), err
}

// selectSteps resolves the requested step, or every step in dependency order
func (m *Manager) selectSteps(stepID string) ([]Step, error) {
	if stepID == "" || stepID == StepFullPipeline {
		steps, err := m.registry.GetDependencyOrder()
		if err != nil {
			return nil, NewFatalError("failed to get dependency order", err)
		}
		if len(steps) == 0 {
			return nil, NewFatalError("no steps registered", nil)
		}
		return steps, nil
	}

	step, err := m.registry.Get(stepID)
	if err != nil {
		return nil, &OperationError{
			Type:    ErrorTypeNotFound,
			Step:    stepID,
			Message: fmt.Sprintf("requested step not found, available: %s", strings.Join(m.registry.ListIDs(), ", ")),
		}
	}
	return []Step{step}, nil
}

// executeSequential executes steps one by one. Every step reads the file the
// previous one wrote, so there is no parallel mode.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID(), err)
		}

		stepState := state.GetStage(step.ID())

		if err := m.checkDependencies(state, step); err != nil {
			stepState.Skip(err.Error())
			m.logger.WarnContext(ctx, "step skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", err.Error()))
			continue
		}

		m.logger.DebugContext(ctx, "executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			if GetErrorType(err) == ErrorTypeCancellation || !m.config.ContinueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// executeStage validates and runs a single Step under its timeout
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err)
		stepState.Fail(verr)
		return verr
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stageCtx, span := m.tracer.TraceStageExecution(stageCtx, state.ID, step.ID())
	defer span.End()

	m.logStageStart(stageCtx, state.ID, step.ID())
	stepState.Start()
	startTime := time.Now()

	err := step.Execute(stageCtx, state)
	duration := time.Since(startTime)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID(), ctx.Err())
		case errors.Is(stageCtx.Err(), context.DeadlineExceeded):
			err = NewTimeoutError(step.ID(), timeout.String())
		default:
			err = WrapError(err, step.ID())
		}
		stepState.Fail(err)
		m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, err)
		return err
	}

	stepState.Complete()
	m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, nil)
	m.logStageComplete(stageCtx, state.ID, step.ID(), duration)
	return nil
}

// checkDependencies fails when a dependency scheduled in this run did not
// complete. Dependencies outside the run are satisfied by their output files.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			continue
		}
		if depState.GetStatus() != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep)
		}
	}
	return nil
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.Steps,
		Results:  make(map[string]any),
	}
	state.mu.RLock()
	for k, v := range state.Context {
		resp.Results[k] = v
	}
	state.mu.RUnlock()
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}
