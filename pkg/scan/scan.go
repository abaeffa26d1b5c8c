package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/TechNxt05/revtrust/pkg/trust"
)

const (
	// RowBudgetDefault and MatchBudgetDefault are hard iteration caps.
	// They bound worst-case latency and memory against adversarially
	// large or malformed corpora.
	RowBudgetDefault   = 50_000
	MatchBudgetDefault = 2_000

	shortReviewChars = 50
	longReviewChars  = 200
	shortLenFactor   = 0.92
	longLenFactor    = 1.02
	countScaleFloor  = 0.6
	countScaleSpan   = 0.4
	countScaleCap    = 50
	helpfulBoostMax  = 0.15
	helpfulAvgScale  = 5.0
)

// ErrNoCorpus is returned when none of the configured corpus paths exist.
var ErrNoCorpus = errors.New("no review corpus file found")

// ErrNoMatches is returned when the bounded scan finds no reviews for
// the item; the resolution chain treats it as state failure.
var ErrNoMatches = errors.New("no reviews matched item")

// Scanner is the last-resort bounded heuristic scan over a flat review
// corpus. It computes a lighter-weight score than the live pipeline so
// some signal is still returned when the pipeline's data source is
// unreachable.
type Scanner struct {
	// Paths are candidate corpus files; the first one that exists wins.
	Paths []string

	RowBudget   int
	MatchBudget int
}

// stats accumulates per-item aggregates during one scan.
type stats struct {
	matched    int
	sumRating  float64
	sumLen     int
	helpfulSum int
	examples   []trust.Evidence
}

// ScanItem scans up to RowBudget corpus rows, matching at most
// MatchBudget reviews for itemID, and scores the aggregate.
func (s *Scanner) ScanItem(ctx context.Context, itemID string) (*trust.TrustResult, error) {
	path := s.pickPath()
	if path == "" {
		return nil, ErrNoCorpus
	}

	rowBudget := s.RowBudget
	if rowBudget <= 0 {
		rowBudget = RowBudgetDefault
	}
	matchBudget := s.MatchBudget
	if matchBudget <= 0 {
		matchBudget = MatchBudgetDefault
	}

	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var st stats
	for rows := 0; rows < rowBudget; rows++ {
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
		if row.ItemID != itemID {
			continue
		}

		st.matched++
		st.sumRating += row.Rating
		st.sumLen += len(row.Text)
		st.helpfulSum += row.HelpfulVotes
		if len(st.examples) < 3 && row.Text != "" {
			st.examples = append(st.examples, trust.Evidence{
				Text:    truncate(row.Text, 500),
				Rating:  row.Rating,
				Helpful: row.HelpfulVotes,
			})
		}

		if st.matched >= matchBudget {
			slog.Debug("match budget reached", "item", itemID, "matched", st.matched)
			break
		}
	}

	if st.matched == 0 {
		return nil, ErrNoMatches
	}

	return scoreStats(itemID, &st), nil
}

// scoreStats maps the aggregate onto a trust score: average rating
// rescaled to [0,1], adjusted for review length, scaled down for thin
// evidence, and boosted a little by helpful-vote density.
func scoreStats(itemID string, st *stats) *trust.TrustResult {
	avgRating := st.sumRating / float64(st.matched)
	avgLen := float64(st.sumLen) / float64(st.matched)
	helpfulRatio := float64(st.helpfulSum) / float64(st.matched)

	v := (avgRating - 1.0) / 4.0
	if avgLen < shortReviewChars {
		v *= shortLenFactor
	} else if avgLen > longReviewChars {
		v *= longLenFactor
	}
	v *= countScaleFloor + countScaleSpan*min(float64(st.matched), countScaleCap)/countScaleCap
	v += helpfulBoostMax * min(helpfulRatio/helpfulAvgScale, 1.0)
	v = max(0, min(1, v))

	evidence := st.examples
	if evidence == nil {
		evidence = []trust.Evidence{}
	}

	return &trust.TrustResult{
		ItemID: itemID,
		Score:  round3(v),
		Rationale: fmt.Sprintf("heuristic: avg_rating=%.2f, avg_len=%.0f, reviews=%d, helpful_sum=%d",
			avgRating, avgLen, st.matched, st.helpfulSum),
		Evidence: evidence,
		Model:    trust.ModelHeuristic,
	}
}

func (s *Scanner) pickPath() string {
	for _, p := range s.Paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
