package trust

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"
)

const (
	anomalyWeight = 0.6
	lexicalWeight = 0.4

	evidenceExcerptChars = 120
)

// Pipeline is the live trust scoring pipeline. All capabilities are
// injected and optional: a missing encoder or outlier model degrades to
// lexical-only suspicion, a missing classifier skips adjudication.
type Pipeline struct {
	Encoder    Encoder
	Outliers   OutlierModel
	Classifier Classifier
}

// llmFlag records one adjudication for the diagnostic details map.
type llmFlag struct {
	Index    int     `json:"idx"`
	FakeProb float64 `json:"fake_prob"`
	Reason   string  `json:"reason,omitempty"`
}

// Run scores a batch of reviews for one item and returns a fully
// populated TrustResult with model tag "pipeline". Never returns an
// error: every capability failure degrades to a weaker signal.
func (p *Pipeline) Run(ctx context.Context, reviews []Review) *TrustResult {
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}

	heur := make([]float64, len(texts))
	for i, t := range texts {
		heur[i] = ScoreText(t)
	}

	anomaly := AnomalyScores(ctx, p.Encoder, p.Outliers, texts)

	susp := make([]float64, len(texts))
	for i := range texts {
		susp[i] = clamp01(anomalyWeight*anomaly[i] + lexicalWeight*heur[i])
	}

	agg := BurstSignal(reviews)

	llmFlags := p.adjudicate(ctx, texts, susp)

	score, flags := Combine(susp, agg)
	if len(llmFlags) > 0 {
		flags = append(flags, FlagLLMChecked)
	}

	evidence := make([]Evidence, 0, maxEvidence)
	for i := range reviews {
		if len(evidence) == maxEvidence {
			break
		}
		s := susp[i]
		evidence = append(evidence, Evidence{
			Text:      excerpt(reviews[i].Text, evidenceExcerptChars),
			Suspicion: &s,
		})
	}

	details := map[string]any{
		"per_review_suspicion": susp,
		"avg_suspicion":        Mean(susp),
		"temporal_penalty":     agg.Penalty,
		"graph_flags":          agg.Flags,
	}
	if len(llmFlags) > 0 {
		details["llm_flags"] = llmFlags
	}

	return &TrustResult{
		Score:     score,
		Rationale: fmt.Sprintf("pipeline heuristic, flags=%v", flags),
		Evidence:  evidence,
		Model:     ModelPipeline,
		Flags:     flags,
		Details:   details,
	}
}

// RunTexts scores bare texts with no rating/timestamp/reviewer metadata.
func (p *Pipeline) RunTexts(ctx context.Context, texts []string) *TrustResult {
	reviews := make([]Review, len(texts))
	for i, t := range texts {
		reviews[i] = Review{Text: t}
	}
	res := p.Run(ctx, reviews)
	res.Rationale = fmt.Sprintf("pipeline on texts, flags=%v", res.Flags)
	return res
}

// adjudicate escalates the most suspicious ambiguous reviews to the
// oracle and blends the verdicts back into susp in place.
func (p *Pipeline) adjudicate(ctx context.Context, texts []string, susp []float64) []llmFlag {
	if p.Classifier == nil {
		return nil
	}

	idxs := make([]int, len(susp))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return susp[idxs[a]] > susp[idxs[b]]
	})
	if len(idxs) > maxAdjudications {
		idxs = idxs[:maxAdjudications]
	}

	var out []llmFlag
	for _, i := range idxs {
		if susp[i] <= ambiguousLow || susp[i] >= ambiguousHigh {
			continue
		}
		v := Adjudicate(ctx, p.Classifier, texts[i])
		if v == nil {
			continue
		}
		out = append(out, llmFlag{Index: i, FakeProb: v.FakeProb, Reason: v.Reason})
		susp[i] = clamp01(adjudicatePriorWeight*susp[i] + adjudicateOracleWeight*v.FakeProb)
	}
	return out
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
