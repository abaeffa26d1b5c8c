package trust

import "math"

const (
	// FlagManySuspicious marks an item whose average per-review
	// suspicion exceeds 0.5.
	FlagManySuspicious = "many_suspicious_reviews"
	// FlagLLMChecked marks a result refined by oracle adjudication.
	FlagLLMChecked = "llm_checked"

	manySuspiciousThreshold = 0.5

	// Aggregate-level evidence is down-weighted so the temporal penalty
	// cannot saturate the combined suspicion on its own.
	temporalWeight = 0.8
)

// Combine fuses per-review suspicions and the aggregate signal into one
// bounded trust score with explanatory flags. Suspicion and penalty add
// rather than multiply so either signal alone can move the score. An
// empty batch averages to zero suspicion and therefore maximal trust;
// that is a policy choice, the no-evidence neutral default lives in the
// resolution chain instead.
func Combine(suspicions []float64, agg AggregateSignal) (float64, []string) {
	avg := Mean(suspicions)
	combined := min(1.0, avg+temporalWeight*agg.Penalty)
	score := round3(1 - combined)

	var flags []string
	if avg > manySuspiciousThreshold {
		flags = append(flags, FlagManySuspicious)
	}
	flags = append(flags, agg.Flags...)

	return score, flags
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Mean returns the arithmetic mean of vals, 0 when empty.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
