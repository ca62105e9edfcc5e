package linking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestNewBatchReport(t *testing.T) {
	decisions := []models.MatchDecision{
		{RecordID: "s1", Action: models.ActionLinked, MatchType: models.MatchTypeExact, SimilarityScore: 1, EntityID: "p1"},
		{RecordID: "s2", Action: models.ActionLinked, MatchType: models.MatchTypeFuzzy, SimilarityScore: 0.9, EntityID: "p1"},
		{RecordID: "s3", Action: models.ActionCreatedAndLinked, MatchType: models.MatchTypeCreated, EntityID: "p2"},
		{RecordID: "s4", Action: models.ActionFailed, MatchType: models.MatchTypeNone, Reason: "boom"},
	}

	report := NewBatchReport(decisions, false, 0.85)

	assert.Equal(t, 2, report.LinkedCount)
	assert.Equal(t, 1, report.CreatedCount)
	assert.Equal(t, 1, report.FailedCount)
	assert.NoError(t, report.Validate())

	resp := report.Response()
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.LinkedCount)
	assert.Equal(t, 1, resp.CreatedProviders)
	assert.Equal(t, 1, resp.FailedCount)
	require.Len(t, resp.Details, 4)
	assert.Equal(t, "s4", resp.Details[3].ServiceID)
	assert.Equal(t, "boom", resp.Details[3].Reason)
}

func TestNewBatchReport_Empty(t *testing.T) {
	report := NewBatchReport(nil, true, 0.85)

	assert.NotNil(t, report.Decisions)
	assert.NoError(t, report.Validate())
	assert.NotNil(t, report.Response().Details)
}

func TestBatchReport_Validate(t *testing.T) {
	tests := []struct {
		name   string
		report BatchReport
	}{
		{
			name: "count mismatch",
			report: BatchReport{
				LinkedCount: 2,
				Decisions:   []models.MatchDecision{{RecordID: "s1", Action: models.ActionLinked, MatchType: models.MatchTypeExact, SimilarityScore: 1}},
			},
		},
		{
			name: "unknown action",
			report: BatchReport{
				Decisions: []models.MatchDecision{{RecordID: "s1", Action: "merged"}},
			},
		},
		{
			name: "duplicate record",
			report: BatchReport{
				FailedCount: 2,
				Decisions: []models.MatchDecision{
					{RecordID: "s1", Action: models.ActionFailed, Reason: "a"},
					{RecordID: "s1", Action: models.ActionFailed, Reason: "b"},
				},
			},
		},
		{
			name: "fuzzy below threshold",
			report: BatchReport{
				Threshold:   0.9,
				LinkedCount: 1,
				Decisions:   []models.MatchDecision{{RecordID: "s1", Action: models.ActionLinked, MatchType: models.MatchTypeFuzzy, SimilarityScore: 0.8}},
			},
		},
		{
			name: "sentinel id outside dry run",
			report: BatchReport{
				CreatedCount: 1,
				Decisions:    []models.MatchDecision{{RecordID: "s1", Action: models.ActionCreatedAndLinked, EntityID: models.DryRunEntityID}},
			},
		},
		{
			name: "failure without reason",
			report: BatchReport{
				FailedCount: 1,
				Decisions:   []models.MatchDecision{{RecordID: "s1", Action: models.ActionFailed}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.report.Validate())
		})
	}
}

func TestLocalLocker(t *testing.T) {
	ctx := t.Context()
	locker := NewLocalLocker()

	release, err := locker.Acquire(ctx, "a", 0)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "a", 0)
	assert.ErrorIs(t, err, ErrRunInProgress)

	other, err := locker.Acquire(ctx, "b", 0)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := locker.Acquire(ctx, "a", 0)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
