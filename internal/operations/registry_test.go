package operations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepIDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func TestRegistryRegister(t *testing.T) {
	var journal []string
	r := NewRegistry()

	require.NoError(t, r.Register(newFakeStep("clean", nil, &journal)))
	assert.Equal(t, []string{"clean"}, r.ListIDs())

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newFakeStep("", nil, &journal)))
	assert.EqualError(t, r.Register(newFakeStep("clean", nil, &journal)), "step with ID clean already registered")

	_, err := r.Get("missing")
	assert.Error(t, err)
}

func TestRegistryDependencyOrder(t *testing.T) {
	var journal []string
	tests := []struct {
		name    string
		steps   []Step
		want    []string
		wantErr string
	}{
		{
			name: "registration order when independent",
			steps: []Step{
				newFakeStep("b", nil, &journal),
				newFakeStep("a", nil, &journal),
			},
			want: []string{"b", "a"},
		},
		{
			name: "dependencies first",
			steps: []Step{
				newFakeStep("enhance", []string{"enrich"}, &journal),
				newFakeStep("enrich", []string{"clean"}, &journal),
				newFakeStep("clean", nil, &journal),
			},
			want: []string{"clean", "enrich", "enhance"},
		},
		{
			name: "unknown dependency",
			steps: []Step{
				newFakeStep("enrich", []string{"clean"}, &journal),
			},
			wantErr: "step enrich depends on non-existent step clean",
		},
		{
			name: "cycle",
			steps: []Step{
				newFakeStep("a", []string{"b"}, &journal),
				newFakeStep("b", []string{"a"}, &journal),
			},
			wantErr: "dependency cycle detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, r.Register(s))
			}
			ordered, err := r.GetDependencyOrder()
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepIDs(ordered))
		})
	}
}

func TestBaseStageValidate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cleanedData.csv")

	stage := NewBaseStage(StageIDEnrich, StageNameEnrich, input, nil)
	assert.Error(t, stage.Validate(nil))

	require.NoError(t, os.WriteFile(input, []byte("a\n1\n"), 0644))
	assert.NoError(t, stage.Validate(nil))

	dirStage := NewBaseStage(StageIDEnrich, StageNameEnrich, dir, nil)
	assert.Error(t, dirStage.Validate(nil))

	assert.NotNil(t, stage.GetDependencies())
}

func TestStepStateTransitions(t *testing.T) {
	s := NewStepState(StageIDClean, StageNameClean)
	assert.Equal(t, StepStatusPending, s.GetStatus())
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.GetStatus())
	s.SetMetadata("cleaned", "Data/cleanedData.csv")
	s.Complete()
	assert.Equal(t, StepStatusCompleted, s.GetStatus())
	assert.NotNil(t, s.EndTime)
	assert.Equal(t, "Data/cleanedData.csv", s.Metadata["cleaned"])

	failed := NewStepState(StageIDEnrich, StageNameEnrich)
	failed.Fail(errors.New("boom"))
	assert.Equal(t, StepStatusFailed, failed.GetStatus())
	assert.EqualError(t, failed.Error, "boom")

	skipped := NewStepState(StageIDValidate, StageNameValidate)
	skipped.Skip("dependency enrich did not complete")
	assert.Equal(t, StepStatusSkipped, skipped.GetStatus())
	assert.Equal(t, "dependency enrich did not complete", skipped.Message)
}

func TestOperationErrors(t *testing.T) {
	cause := errors.New("permission denied")

	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantMsg  string
	}{
		{"validation", NewValidationError("clean", cause), ErrorTypeValidation, "[validation] clean: step cannot run: permission denied"},
		{"dependency", NewDependencyError("enrich", "clean"), ErrorTypeDependency, "[dependency] enrich: dependency clean did not complete"},
		{"execution", NewExecutionError("enrich", cause), ErrorTypeExecution, "[execution] enrich: step execution failed: permission denied"},
		{"timeout", NewTimeoutError("enrich", "1s"), ErrorTypeTimeout, "[timeout] enrich: step exceeded timeout of 1s"},
		{"cancellation", NewCancellationError("enrich", context.Canceled), ErrorTypeCancellation, "[cancellation] enrich: operation was cancelled: context canceled"},
		{"fatal", NewFatalError("no steps registered", nil), ErrorTypeFatal, "[fatal] no steps registered"},
		{"plain error", cause, ErrorTypeExecution, "permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, GetErrorType(tt.err))
			assert.EqualError(t, tt.err, tt.wantMsg)
		})
	}

	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "clean"))

	cause := errors.New("read failed")
	wrapped := WrapError(cause, "clean")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ErrorTypeExecution, GetErrorType(wrapped))

	typed := fmt.Errorf("outer: %w", &OperationError{Type: ErrorTypeTimeout, Message: "slow"})
	assert.Equal(t, typed, WrapError(typed, "enrich"))

	var opErr *OperationError
	require.ErrorAs(t, typed, &opErr)
	assert.Equal(t, "enrich", opErr.Step)
}
