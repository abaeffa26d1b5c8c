package trust

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ReviewSource fetches raw reviews for one item, keyed by item identifier.
type ReviewSource interface {
	FetchReviews(ctx context.Context, itemID string) ([]Review, error)
}

// CacheLoader loads the precomputed trust cache in one shot. Called at
// most once per Resolver; the returned map is treated as read-only.
type CacheLoader interface {
	LoadCache(ctx context.Context) (map[string]*TrustResult, error)
}

// Scanner is the last-resort bounded heuristic scan over a flat review
// source. An error means the state failed and the chain moves on.
type Scanner interface {
	ScanItem(ctx context.Context, itemID string) (*TrustResult, error)
}

// Resolver answers trust lookups through an ordered chain of strategies:
// adjudicator-first (when AlwaysAdjudicate), precomputed cache, live
// pipeline, bounded heuristic scan, neutral default. The first state to
// produce a TrustResult wins; a state fails only on missing preconditions
// and never by raising. GetTrust never returns an error.
type Resolver struct {
	Pipeline *Pipeline
	Cache    CacheLoader
	Reviews  ReviewSource
	Scanner  Scanner

	// AlwaysAdjudicate routes every identifier lookup to the oracle
	// before any other state is tried.
	AlwaysAdjudicate bool

	cacheOnce sync.Once
	cache     map[string]*TrustResult
}

// GetTrust resolves the trust score for an item identifier. The result
// always carries the model tag of the state that produced it; failure
// reasons from earlier states are retained as diagnostics, never
// surfaced as errors.
func (r *Resolver) GetTrust(ctx context.Context, itemID string) (res *TrustResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("trust resolution panicked", "item", itemID, "panic", rec)
			res = errorResult(itemID, fmt.Sprintf("%v", rec))
		}
	}()

	var degraded []string

	// 1. adjudicator-first
	if r.AlwaysAdjudicate {
		if out := r.adjudicateIdentifier(ctx, itemID); out != nil {
			return out
		}
		degraded = append(degraded, "adjudicator unavailable or returned no verdict")
	}

	// 2. precomputed cache
	if hit := r.lookupCache(ctx, itemID); hit != nil {
		return withDiagnostics(hit, degraded)
	}

	// 3. live pipeline over fetched reviews
	if r.Reviews != nil {
		reviews, err := r.Reviews.FetchReviews(ctx, itemID)
		switch {
		case err != nil:
			slog.Debug("review source failed", "item", itemID, "error", err)
			degraded = append(degraded, fmt.Sprintf("review source: %v", err))
		case len(reviews) > 0:
			out := r.pipeline().Run(ctx, reviews)
			out.ItemID = itemID
			return withDiagnostics(out, degraded)
		}
	}

	// 4. bounded heuristic scan
	if r.Scanner != nil {
		out, err := r.Scanner.ScanItem(ctx, itemID)
		if err == nil && out != nil {
			out.ItemID = itemID
			return withDiagnostics(out, degraded)
		}
		if err != nil {
			slog.Debug("heuristic scan failed", "item", itemID, "error", err)
			degraded = append(degraded, fmt.Sprintf("heuristic scan: %v", err))
		}
	}

	// 5. neutral default, the base case that cannot fail
	return withDiagnostics(&TrustResult{
		ItemID:    itemID,
		Score:     NeutralScore,
		Rationale: "no evidence found; neutral score",
		Evidence:  []Evidence{},
		Model:     ModelFallback,
	}, degraded)
}

// GetTrustForReviews scores a pre-fetched batch directly, bypassing the
// cache and fallback states.
func (r *Resolver) GetTrustForReviews(ctx context.Context, reviews []Review) (res *TrustResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("trust pipeline panicked", "panic", rec)
			res = errorResult("", fmt.Sprintf("%v", rec))
		}
	}()
	return r.pipeline().Run(ctx, reviews)
}

// GetTrustForTexts scores bare review texts directly.
func (r *Resolver) GetTrustForTexts(ctx context.Context, texts []string) (res *TrustResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("trust pipeline panicked", "panic", rec)
			res = errorResult("", fmt.Sprintf("%v", rec))
		}
	}()
	return r.pipeline().RunTexts(ctx, texts)
}

func (r *Resolver) pipeline() *Pipeline {
	if r.Pipeline != nil {
		return r.Pipeline
	}
	return &Pipeline{}
}

func (r *Resolver) adjudicateIdentifier(ctx context.Context, itemID string) *TrustResult {
	p := r.pipeline()
	if p.Classifier == nil {
		return nil
	}
	v := Adjudicate(ctx, p.Classifier, itemID)
	if v == nil {
		return nil
	}
	return &TrustResult{
		ItemID:    itemID,
		Score:     round3(clamp01(1 - v.FakeProb)),
		Rationale: fmt.Sprintf("oracle adjudication: %s", v.Reason),
		Evidence:  []Evidence{},
		Model:     ModelLLM,
	}
}

// lookupCache loads the cache exactly once per process and serves
// read-only hits as copies so the shared state is never mutated.
func (r *Resolver) lookupCache(ctx context.Context, itemID string) *TrustResult {
	r.cacheOnce.Do(func() {
		r.cache = map[string]*TrustResult{}
		if r.Cache == nil {
			return
		}
		m, err := r.Cache.LoadCache(ctx)
		if err != nil {
			slog.Warn("trust cache unavailable", "error", err)
			return
		}
		r.cache = m
		slog.Debug("trust cache loaded", "entries", len(m))
	})

	entry, ok := r.cache[itemID]
	if !ok || entry == nil {
		return nil
	}

	out := *entry
	out.ItemID = itemID
	out.Model = ModelCache
	if out.Evidence == nil {
		out.Evidence = []Evidence{}
	}
	return &out
}

func withDiagnostics(res *TrustResult, degraded []string) *TrustResult {
	if len(degraded) == 0 {
		return res
	}
	details := make(map[string]any, len(res.Details)+1)
	for k, v := range res.Details {
		details[k] = v
	}
	details["degraded"] = degraded
	res.Details = details
	return res
}

func errorResult(itemID, diag string) *TrustResult {
	return &TrustResult{
		ItemID:    itemID,
		Score:     NeutralScore,
		Rationale: "error computing trust",
		Evidence:  []Evidence{},
		Model:     ModelError,
		Details:   map[string]any{"error": diag},
	}
}
