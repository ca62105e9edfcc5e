package linking

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// BatchReport is the auditable result of one run. Counts are always derived
// from Decisions.
type BatchReport struct {
	RunID        string                 `json:"run_id"`
	LinkedCount  int                    `json:"linked_count"`
	CreatedCount int                    `json:"created_count"`
	FailedCount  int                    `json:"failed_count"`
	DryRun       bool                   `json:"dry_run"`
	Threshold    float64                `json:"threshold"`
	Decisions    []models.MatchDecision `json:"decisions"`
}

type counts struct {
	linked, created, failed int
}

func countDecisions(decisions []models.MatchDecision) counts {
	var c counts
	for _, d := range decisions {
		switch d.Action {
		case models.ActionLinked:
			c.linked++
		case models.ActionCreatedAndLinked:
			c.created++
		case models.ActionFailed:
			c.failed++
		}
	}
	return c
}

// NewBatchReport builds a report whose counts are derived from decisions.
func NewBatchReport(decisions []models.MatchDecision, dryRun bool, threshold float64) *BatchReport {
	if decisions == nil {
		decisions = []models.MatchDecision{}
	}
	c := countDecisions(decisions)
	return &BatchReport{
		LinkedCount:  c.linked,
		CreatedCount: c.created,
		FailedCount:  c.failed,
		DryRun:       dryRun,
		Threshold:    threshold,
		Decisions:    decisions,
	}
}

// Validate checks the counts against the decisions and that every decision is
// internally consistent.
func (r *BatchReport) Validate() error {
	c := countDecisions(r.Decisions)
	if c.linked != r.LinkedCount || c.created != r.CreatedCount || c.failed != r.FailedCount {
		return fmt.Errorf("report counts linked=%d created=%d failed=%d do not match decisions linked=%d created=%d failed=%d",
			r.LinkedCount, r.CreatedCount, r.FailedCount, c.linked, c.created, c.failed)
	}
	if c.linked+c.created+c.failed != len(r.Decisions) {
		return fmt.Errorf("report has %d decisions with an unknown action", len(r.Decisions)-c.linked-c.created-c.failed)
	}

	seen := make(map[string]struct{}, len(r.Decisions))
	for _, d := range r.Decisions {
		if _, dup := seen[d.RecordID]; dup {
			return fmt.Errorf("record %s has more than one decision", d.RecordID)
		}
		seen[d.RecordID] = struct{}{}

		switch d.Action {
		case models.ActionLinked:
			if d.MatchType == models.MatchTypeExact && d.SimilarityScore != 1.0 {
				return fmt.Errorf("record %s: exact link with score %v", d.RecordID, d.SimilarityScore)
			}
			if d.MatchType == models.MatchTypeFuzzy && d.SimilarityScore < r.Threshold {
				return fmt.Errorf("record %s: fuzzy link with score %v below threshold %v", d.RecordID, d.SimilarityScore, r.Threshold)
			}
			if d.MatchType != models.MatchTypeExact && d.MatchType != models.MatchTypeFuzzy {
				return fmt.Errorf("record %s: linked with match type %q", d.RecordID, d.MatchType)
			}
		case models.ActionCreatedAndLinked:
			if r.DryRun != (d.EntityID == models.DryRunEntityID) {
				return fmt.Errorf("record %s: entity id %q does not fit dry_run=%v", d.RecordID, d.EntityID, r.DryRun)
			}
		case models.ActionFailed:
			if d.Reason == "" {
				return fmt.Errorf("record %s: failed without a reason", d.RecordID)
			}
		}
	}
	return nil
}

// Response renders the report as the HTTP response body.
func (r *BatchReport) Response() models.AutoLinkResponse {
	details := make([]models.AutoLinkDetail, len(r.Decisions))
	for i, d := range r.Decisions {
		details[i] = models.AutoLinkDetail{
			ServiceID:       d.RecordID,
			ServiceTitle:    d.RecordTitle,
			ProviderID:      d.EntityID,
			ProviderName:    d.EntityName,
			Action:          d.Action,
			SimilarityScore: d.SimilarityScore,
			MatchType:       d.MatchType,
			Reason:          d.Reason,
		}
	}
	return models.AutoLinkResponse{
		Success:          true,
		LinkedCount:      r.LinkedCount,
		FailedCount:      r.FailedCount,
		CreatedProviders: r.CreatedCount,
		DryRun:           r.DryRun,
		Details:          details,
	}
}
