package trust

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const (
	// Only reviews in the open band (0.25, 0.85) are worth escalating:
	// anything outside it is already confidently clean or fake.
	ambiguousLow  = 0.25
	ambiguousHigh = 0.85

	// Oracle verdicts refine rather than replace the prior suspicion.
	adjudicatePriorWeight  = 0.6
	adjudicateOracleWeight = 0.4

	maxAdjudications = 3

	adjudicatePrompt = `You are an assistant that classifies whether a product review is likely fake (spam/promotional) or genuine.
Return strict JSON ONLY with keys:
{"label":"fake" or "real", "confidence":0.0-1.0, "reason":"1-2 sentence justification"}
Review:
"""%s"""`
)

// Classifier is the external text-classification oracle. Classify returns
// the raw response body, which may be free-form text around a JSON payload.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// Verdict is one oracle adjudication of a single review text.
type Verdict struct {
	FakeProb float64 `json:"fake_prob" yaml:"fakeProb"`
	Reason   string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type oraclePayload struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
}

var jsonPayloadRegEx = regexp.MustCompile(`(?s)\{.*\}`)

// Adjudicate asks the oracle whether a single review text is fake.
// Returns nil on any failure (missing classifier, timeout, unparseable
// response); adjudication never propagates errors to the caller.
func Adjudicate(ctx context.Context, c Classifier, text string) *Verdict {
	if c == nil {
		return nil
	}

	raw, err := c.Classify(ctx, fmt.Sprintf(adjudicatePrompt, text))
	if err != nil {
		slog.Debug("oracle call failed", "error", err)
		return nil
	}

	return parseVerdict(raw)
}

// parseVerdict extracts the first well-formed JSON payload from a
// possibly free-form oracle response. Anything unparseable is a
// non-result, not an error.
func parseVerdict(raw string) *Verdict {
	m := jsonPayloadRegEx.FindString(raw)
	if m == "" {
		return nil
	}

	var p oraclePayload
	if err := json.Unmarshal([]byte(m), &p); err != nil {
		slog.Debug("oracle response not parseable", "error", err)
		return nil
	}
	conf := 0.5
	if p.Confidence != nil {
		conf = clamp01(*p.Confidence)
	}

	fakeProb := conf
	if !strings.HasPrefix(strings.ToLower(p.Label), "fake") {
		fakeProb = 1 - conf
	}

	return &Verdict{FakeProb: fakeProb, Reason: p.Reason}
}
