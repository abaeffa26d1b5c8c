package trust

import (
	"context"
	"log/slog"
)

// Encoder turns review texts into fixed-width numeric vectors. Supplied
// by the caller, never instantiated here.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
}

// OutlierModel scores a batch of vectors with raw decision values where
// higher means more normal (the model owns its contamination rate,
// typically around 5%).
type OutlierModel interface {
	Detect(ctx context.Context, vectors [][]float64) ([]float64, error)
}

// AnomalyScores returns one anomaly score in [0,1] per input text,
// 1.0 being the most outlying relative to the batch itself. The scores
// are batch-relative, not globally calibrated. Fails closed: a missing
// capability, an error, or a mismatched response yields all zeros.
func AnomalyScores(ctx context.Context, enc Encoder, om OutlierModel, texts []string) []float64 {
	scores := make([]float64, len(texts))
	if len(texts) == 0 {
		return scores
	}
	if enc == nil || om == nil {
		return scores
	}

	vectors, err := enc.Encode(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		slog.Debug("encoder unavailable, anomaly scores zeroed", "error", err)
		return scores
	}

	raw, err := om.Detect(ctx, vectors)
	if err != nil || len(raw) != len(texts) {
		slog.Debug("outlier model unavailable, anomaly scores zeroed", "error", err)
		return scores
	}

	// Min-max normalize, then invert so 1.0 = most anomalous. A batch of
	// one or a degenerate batch has no value range and carries no signal.
	lo, hi := raw[0], raw[0]
	for _, v := range raw {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	rng := hi - lo
	if rng == 0 {
		return scores
	}
	for i, v := range raw {
		scores[i] = 1 - (v-lo)/rng
	}
	return scores
}
