package models

// Action is the outcome of resolving one unlinked record.
type Action string

const (
	ActionLinked           Action = "linked"
	ActionCreatedAndLinked Action = "created_and_linked"
	ActionFailed           Action = "failed"
)

// MatchType records how a decision's provider was found.
type MatchType string

const (
	MatchTypeExact   MatchType = "exact"
	MatchTypeFuzzy   MatchType = "fuzzy"
	MatchTypeCreated MatchType = "created"
	MatchTypeNone    MatchType = "none"
)

// DryRunEntityID stands in for the id of a provider a dry run would have created.
const DryRunEntityID = "would_create_new"

// MatchDecision is the per-record result of a batch.
type MatchDecision struct {
	RecordID        string    `json:"record_id"`
	RecordTitle     string    `json:"record_title"`
	EntityID        string    `json:"entity_id"`
	EntityName      string    `json:"entity_name"`
	Action          Action    `json:"action"`
	SimilarityScore float64   `json:"similarity_score"`
	MatchType       MatchType `json:"match_type"`
	Reason          string    `json:"reason,omitempty"`
}

// AutoLinkRequest is the body of POST /api/v1/autolink.
type AutoLinkRequest struct {
	DryRun              bool     `json:"dry_run"`
	SimilarityThreshold *float64 `json:"similarity_threshold" validate:"omitempty,gt=0,lte=1"`
}

// AutoLinkDetail is one entry of AutoLinkResponse.Details.
type AutoLinkDetail struct {
	ServiceID       string    `json:"service_id"`
	ServiceTitle    string    `json:"service_title"`
	ProviderID      string    `json:"provider_id"`
	ProviderName    string    `json:"provider_name"`
	Action          Action    `json:"action"`
	SimilarityScore float64   `json:"similarity_score"`
	MatchType       MatchType `json:"match_type"`
	Reason          string    `json:"reason,omitempty"`
}

type AutoLinkResponse struct {
	Success          bool             `json:"success"`
	LinkedCount      int              `json:"linked_count"`
	FailedCount      int              `json:"failed_count"`
	CreatedProviders int              `json:"created_providers"`
	DryRun           bool             `json:"dry_run"`
	Details          []AutoLinkDetail `json:"details"`
}

type AutoLinkErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ScoreResponse is returned by the score diagnostics endpoint.
type ScoreResponse struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Exact       float64 `json:"exact"`
	Levenshtein float64 `json:"levenshtein"`
	Jaro        float64 `json:"jaro"`
	JaroWinkler float64 `json:"jaro_winkler"`
	SoundexA    string  `json:"soundex_a"`
	SoundexB    string  `json:"soundex_b"`
}
