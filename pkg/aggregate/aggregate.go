// Package aggregate is the offline batch job that scans a full review
// corpus and produces the precomputed trust cache consumed by the
// resolution chain. Its score formula mirrors the bounded live scan so
// switching sources does not produce discontinuous scores for the same
// item.
package aggregate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/TechNxt05/revtrust/pkg/scan"
	"github.com/TechNxt05/revtrust/pkg/trust"
)

const (
	// RowBudgetDefault caps rows read per corpus file.
	RowBudgetDefault = 2_000_000

	maxExamples      = 3
	exampleMaxChars  = 500
	shortReviewChars = 40
	shortFracLimit   = 0.6
	shortFracFactor  = 0.85
	countScaleFloor  = 0.6
	countScaleSpan   = 0.4
	countScaleCap    = 50
	helpfulBoostMax  = 0.12
	helpfulAvgScale  = 5.0
)

// Aggregator accumulates per-item review statistics across one or more
// corpus files and scores each item.
type Aggregator struct {
	// AllowList restricts aggregation to known catalog items when
	// non-empty.
	AllowList map[string]bool

	// RowBudget caps rows read per file; RowBudgetDefault when zero.
	RowBudget int
}

// Result is the outcome of one aggregation run.
type Result struct {
	Files   int                           `json:"files" yaml:"files"`
	Rows    int                           `json:"rows" yaml:"rows"`
	Items   int                           `json:"items" yaml:"items"`
	Skipped int                           `json:"skipped" yaml:"skipped"`
	Scores  map[string]*trust.TrustResult `json:"-" yaml:"-"`
}

// itemAgg mirrors the accumulation the live scan performs, plus the
// short-review counter the precompute formula needs.
type itemAgg struct {
	count        int
	sumRating    float64
	helpfulSum   int
	shortReviews int
	examples     []trust.Evidence
}

// fileAgg is one file's private accumulation, merged after the scan.
type fileAgg struct {
	rows    int
	skipped int
	items   map[string]*itemAgg
}

// Run scans every existing corpus path concurrently and returns the
// scored per-item results. The only fatal condition is having no corpus
// file at all: without any corpus there is nothing to aggregate.
func (a *Aggregator) Run(ctx context.Context, paths []string) (*Result, error) {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("no review corpus found in any of %v", paths)
	}

	budget := a.RowBudget
	if budget <= 0 {
		budget = RowBudgetDefault
	}

	var mu sync.Mutex
	parts := make([]*fileAgg, 0, len(existing))

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range existing {
		g.Go(func() error {
			slog.Info("aggregating corpus file", "path", path)
			fa, err := a.scanFile(gctx, path, budget)
			if err != nil {
				return err
			}
			mu.Lock()
			parts = append(parts, fa)
			mu.Unlock()
			slog.Info("corpus file aggregated", "path", path, "rows", fa.rows, "items", len(fa.items))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]*itemAgg)
	res := &Result{Files: len(existing)}
	for _, fa := range parts {
		res.Rows += fa.rows
		res.Skipped += fa.skipped
		for id, agg := range fa.items {
			m, ok := merged[id]
			if !ok {
				merged[id] = agg
				continue
			}
			m.count += agg.count
			m.sumRating += agg.sumRating
			m.helpfulSum += agg.helpfulSum
			m.shortReviews += agg.shortReviews
			for _, e := range agg.examples {
				if len(m.examples) < maxExamples {
					m.examples = append(m.examples, e)
				}
			}
		}
	}

	res.Scores = make(map[string]*trust.TrustResult, len(merged))
	for id, agg := range merged {
		res.Scores[id] = score(id, agg)
	}
	res.Items = len(res.Scores)

	return res, nil
}

func (a *Aggregator) scanFile(ctx context.Context, path string, budget int) (*fileAgg, error) {
	r, err := scan.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fa := &fileAgg{items: make(map[string]*itemAgg)}
	for fa.rows < budget {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		fa.rows++

		if row.ItemID == "" {
			fa.skipped++
			continue
		}
		if len(a.AllowList) > 0 && !a.AllowList[row.ItemID] {
			fa.skipped++
			continue
		}

		agg, ok := fa.items[row.ItemID]
		if !ok {
			agg = &itemAgg{}
			fa.items[row.ItemID] = agg
		}
		agg.count++
		agg.sumRating += row.Rating
		agg.helpfulSum += row.HelpfulVotes

		if row.Text != "" {
			if len(row.Text) < shortReviewChars {
				agg.shortReviews++
			}
			if len(agg.examples) < maxExamples {
				agg.examples = append(agg.examples, trust.Evidence{
					Text:     truncate(row.Text, exampleMaxChars),
					Rating:   row.Rating,
					Helpful:  row.HelpfulVotes,
					Reviewer: row.ReviewerID,
				})
			}
		}
	}

	return fa, nil
}

// score maps one item's aggregate onto a trust score with the
// precompute variant of the heuristic formula.
func score(itemID string, agg *itemAgg) *trust.TrustResult {
	avgRating := 0.0
	if agg.sumRating > 0 {
		avgRating = agg.sumRating / float64(agg.count)
	}
	helpfulAvg := float64(agg.helpfulSum) / float64(agg.count)
	shortFrac := float64(agg.shortReviews) / float64(agg.count)

	v := (avgRating - 1.0) / 4.0
	v *= countScaleFloor + countScaleSpan*min(float64(agg.count), countScaleCap)/countScaleCap
	v += helpfulBoostMax * min(helpfulAvg/helpfulAvgScale, 1.0)
	if shortFrac > shortFracLimit {
		v *= shortFracFactor
	}
	v = max(0, min(1, v))

	evidence := agg.examples
	if evidence == nil {
		evidence = []trust.Evidence{}
	}

	return &trust.TrustResult{
		ItemID: itemID,
		Score:  math.Round(v*1000) / 1000,
		Rationale: fmt.Sprintf("precomputed heuristic(avg_rating=%.2f,reviews=%d)",
			avgRating, agg.count),
		Evidence: evidence,
		Model:    trust.ModelCache,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
