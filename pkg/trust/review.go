package trust

// Model tags identifying which resolution state produced a TrustResult.
const (
	ModelCache     = "cache"
	ModelPipeline  = "pipeline"
	ModelHeuristic = "heuristic"
	ModelLLM       = "llm"
	ModelFallback  = "fallback"
	ModelError     = "error"

	// NeutralScore is returned when no evidence is available or trust
	// computation fails. Deliberately mid-scale, never an extreme.
	NeutralScore = 0.5

	maxEvidence = 3
)

// Review is a single user-submitted review. Zero values mean the field
// was absent from the source. Never persisted by this package.
type Review struct {
	Text         string  `json:"text" yaml:"text"`
	Rating       float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Timestamp    int64   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	ReviewerID   string  `json:"reviewer_id,omitempty" yaml:"reviewerId,omitempty"`
	HelpfulVotes int     `json:"helpful_votes,omitempty" yaml:"helpfulVotes,omitempty"`
}

// AggregateSignal is a suspicion penalty computed over all reviews for
// one item, with the flags that triggered it.
type AggregateSignal struct {
	Penalty float64  `json:"penalty" yaml:"penalty"`
	Flags   []string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// Evidence is one representative review excerpt or per-review suspicion
// value attached to a TrustResult.
type Evidence struct {
	Text      string   `json:"text,omitempty" yaml:"text,omitempty"`
	Rating    float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Helpful   int      `json:"helpful,omitempty" yaml:"helpful,omitempty"`
	Reviewer  string   `json:"reviewer,omitempty" yaml:"reviewer,omitempty"`
	Suspicion *float64 `json:"suspicion,omitempty" yaml:"suspicion,omitempty"`
}

// TrustResult is the sole externally visible artifact of a trust lookup.
// Always fully populated: Score is in [0,1] on every code path and Model
// names the resolution state that produced it.
type TrustResult struct {
	ItemID    string         `json:"item_id,omitempty" yaml:"itemId,omitempty"`
	Score     float64        `json:"score" yaml:"score"`
	Rationale string         `json:"rationale" yaml:"rationale"`
	Evidence  []Evidence     `json:"evidence" yaml:"evidence"`
	Model     string         `json:"model" yaml:"model"`
	Flags     []string       `json:"flags,omitempty" yaml:"flags,omitempty"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
