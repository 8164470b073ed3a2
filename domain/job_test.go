package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	id := uuid.New().String()
	workflowID := uuid.New().String()

	job, err := NewJob(id, "extract", workflowID, 2, "registry.local/etl:1.4",
		[]string{"--once"}, []string{"MODE=batch"})
	require.NoError(t, err)
	assert.Equal(t, id, job.ID().String())
	assert.Equal(t, "extract", job.Name())
	assert.Equal(t, workflowID, job.WorkflowID().String())
	assert.Equal(t, int32(2), job.Threshold())
	assert.Equal(t, "registry.local/etl:1.4", job.Image())
	assert.Equal(t, []string{"--once"}, job.Args())
	assert.Equal(t, []string{"MODE=batch"}, job.Envs())
}

func TestNewJobAllowsEmptyImageAndSequences(t *testing.T) {
	job, err := NewJob(uuid.New().String(), "extract", uuid.New().String(), 0, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", job.Image())
	assert.Empty(t, job.Args())
	assert.Empty(t, job.Envs())
	// Nil sequences normalize to empty ones so they store as arrays.
	assert.NotNil(t, job.Args())
	assert.NotNil(t, job.Envs())
}

func TestNewThreshold(t *testing.T) {
	for _, value := range []int32{0, 1, 100} {
		threshold, err := NewThreshold(value)
		require.NoError(t, err)
		assert.Equal(t, value, threshold)
	}
	for _, value := range []int32{-1, 101} {
		_, err := NewThreshold(value)
		assert.Error(t, err, "threshold %d", value)
	}
}

func TestNewJobRejectsBadInput(t *testing.T) {
	id := uuid.New().String()
	workflowID := uuid.New().String()

	_, err := NewJob("nope", "extract", workflowID, 0, "", nil, nil)
	assert.Error(t, err)

	_, err = NewJob(id, "", workflowID, 0, "", nil, nil)
	assert.Error(t, err)

	_, err = NewJob(id, "extract", "nope", 0, "", nil, nil)
	assert.Error(t, err)

	_, err = NewJob(id, "extract", workflowID, 101, "", nil, nil)
	assert.Error(t, err)
}
