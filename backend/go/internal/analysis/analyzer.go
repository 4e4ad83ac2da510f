package analysis

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answers without any content.
var ErrEmptyResponse = errors.New("analysis provider returned an empty response")

// Analysis is the structured root-cause verdict for a failed backup job.
type Analysis struct {
	ProblemSummary    string `json:"problem_summary"`
	ProbableCause     string `json:"probable_cause"`
	RecommendedAction string `json:"recommended_action"`
}

// TriageVerdict is the outcome of the first-pass evaluation: either the
// evidence already supports a root-cause analysis, or a list of log files
// is requested for a second pass.
type TriageVerdict struct {
	IsSufficient bool      `json:"is_sufficient"`
	LogsNeeded   []string  `json:"logs_needed"`
	Analysis     *Analysis `json:"analysis,omitempty"`
}

// Analyzer is the boundary to the AI analysis provider. Both calls may fail
// with a timeout or a malformed-response error; the triage pipeline absorbs
// those failures with fallback verdicts and never propagates them to the
// polling client.
type Analyzer interface {
	// Triage evaluates whether the failure summary plus the most recent job
	// events are enough evidence for a root-cause verdict.
	Triage(ctx context.Context, failureSummary string, recentEvents []string) (*TriageVerdict, error)

	// DeepAnalyze combines the initial evidence with the requested log
	// contents and produces the final verdict.
	DeepAnalyze(ctx context.Context, initialEvidence map[string]interface{}, logContents map[string]string) (*Analysis, error)
}
