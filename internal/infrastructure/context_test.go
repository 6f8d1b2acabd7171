package infrastructure

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRunID(ctx))
	assert.Empty(t, GetRunID(nil))

	ctx = WithRunID(ctx, "run-1")
	assert.Equal(t, "run-1", GetRunID(ctx))
	assert.Equal(t, ctx, EnsureRunID(ctx))
}

func TestEnsureRunIDGenerates(t *testing.T) {
	ctx := EnsureRunID(context.Background())
	id := GetRunID(ctx)

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, GenerateRunID())
}
