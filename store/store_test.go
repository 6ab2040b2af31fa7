package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/socialforge/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResult(jobID string, status types.JobStatus) *types.JobResult {
	return &types.JobResult{
		JobID:  jobID,
		Schema: "instagram",
		Status: status,
		Content: map[string]any{
			"caption": "hello",
		},
		Attempts: []types.Attempt{
			{Seq: 0, Outcome: types.ValidationOutcome{Issues: []types.Issue{
				{Field: "caption", Rule: types.RuleMaxLength, Message: "Caption: exceeds 2200 characters"},
			}}},
			{Seq: 1, Outcome: types.ValidationOutcome{}},
		},
	}
}

func TestSaveAndGetResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := sampleResult("job-1", types.StatusPassed)
	require.NoError(t, s.SaveResult(ctx, in))

	out, err := s.GetResult(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, in.JobID, out.JobID)
	assert.Equal(t, in.Schema, out.Schema)
	assert.Equal(t, types.StatusPassed, out.Status)
	assert.Equal(t, "hello", out.Content["caption"])
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, "Caption: exceeds 2200 characters", out.Attempts[0].Outcome.Issues[0].Message)
}

func TestGetResultNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetResult(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDuplicateJobIDRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveResult(ctx, sampleResult("dup", types.StatusPassed)))
	assert.Error(t, s.SaveResult(ctx, sampleResult("dup", types.StatusPassed)))
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveResult(ctx, sampleResult("a", types.StatusPassed)))
	require.NoError(t, s.SaveResult(ctx, sampleResult("b", types.StatusUnverified)))
	require.NoError(t, s.SaveResult(ctx, sampleResult("c", types.StatusStopped)))

	results, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c", results[0].JobID)
	assert.Equal(t, "b", results[1].JobID)
}
