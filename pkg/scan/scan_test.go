package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechNxt05/revtrust/pkg/trust"
)

func TestScanItem_ScoresMatchingReviews(t *testing.T) {
	path := writeCSV(t, "asin,overall,reviewText,vote\n"+
		"B001,5,"+strings.Repeat("a solid review body ", 5)+",5\n"+
		"OTHER,1,terrible,0\n"+
		"B001,4,"+strings.Repeat("a solid review body ", 5)+",5\n")

	s := &Scanner{Paths: []string{path}}
	res, err := s.ScanItem(context.Background(), "B001")
	require.NoError(t, err)

	// avg rating 4.5 -> 0.875, avg len 100 (no adjust),
	// count scale 0.6+0.4*2/50 = 0.616, helpful 5/5 capped -> +0.15
	assert.InDelta(t, 0.689, res.Score, 0.0005)
	assert.Equal(t, trust.ModelHeuristic, res.Model)
	assert.Equal(t, "B001", res.ItemID)
	assert.Contains(t, res.Rationale, "avg_rating=4.50")
	assert.Contains(t, res.Rationale, "reviews=2")
	assert.Len(t, res.Evidence, 2)
}

func TestScanItem_NoMatches(t *testing.T) {
	path := writeCSV(t, "asin,overall,reviewText\nOTHER,5,fine\n")

	s := &Scanner{Paths: []string{path}}
	_, err := s.ScanItem(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestScanItem_NoCorpus(t *testing.T) {
	s := &Scanner{Paths: []string{filepath.Join(t.TempDir(), "absent.csv")}}
	_, err := s.ScanItem(context.Background(), "B001")
	assert.ErrorIs(t, err, ErrNoCorpus)
}

func TestScanItem_FirstExistingPathWins(t *testing.T) {
	path := writeCSV(t, "asin,overall,reviewText\nB001,5,works\n")

	s := &Scanner{Paths: []string{"/nonexistent/one.csv", path}}
	res, err := s.ScanItem(context.Background(), "B001")
	require.NoError(t, err)
	assert.Equal(t, "B001", res.ItemID)
}

func TestScanItem_RowBudgetStopsScan(t *testing.T) {
	var b strings.Builder
	b.WriteString("asin,overall,reviewText\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "FILLER%d,3,padding row\n", i)
	}
	b.WriteString("B001,5,beyond the budget\n")

	s := &Scanner{Paths: []string{writeCSV(t, b.String())}, RowBudget: 5}
	_, err := s.ScanItem(context.Background(), "B001")
	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestScanItem_MatchBudgetStopsEarly(t *testing.T) {
	var b strings.Builder
	b.WriteString("asin,overall,reviewText\n")
	for i := 0; i < 20; i++ {
		b.WriteString("B001,5,one of many matching reviews\n")
	}

	s := &Scanner{Paths: []string{writeCSV(t, b.String())}, MatchBudget: 10}
	res, err := s.ScanItem(context.Background(), "B001")
	require.NoError(t, err)
	assert.Contains(t, res.Rationale, "reviews=10")
}

func TestScanItem_ContextCancelled(t *testing.T) {
	path := writeCSV(t, "asin,overall,reviewText\nB001,5,fine\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scanner{Paths: []string{path}}
	_, err := s.ScanItem(ctx, "B001")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanItem_EvidenceCappedAndTruncated(t *testing.T) {
	long := strings.Repeat("x", 600)
	var b strings.Builder
	b.WriteString("asin,overall,reviewText\n")
	for i := 0; i < 5; i++ {
		b.WriteString("B001,4," + long + "\n")
	}

	s := &Scanner{Paths: []string{writeCSV(t, b.String())}}
	res, err := s.ScanItem(context.Background(), "B001")
	require.NoError(t, err)
	require.Len(t, res.Evidence, 3)
	assert.Len(t, res.Evidence[0].Text, 500)
	assert.Equal(t, 4.0, res.Evidence[0].Rating)
}

func TestScoreStats_ShortReviewsPenalized(t *testing.T) {
	short := &stats{matched: 1, sumRating: 5, sumLen: 10}
	long := &stats{matched: 1, sumRating: 5, sumLen: 100}

	assert.Less(t,
		scoreStats("a", short).Score,
		scoreStats("a", long).Score)
}

func TestScoreStats_BoundedScore(t *testing.T) {
	st := &stats{matched: 50, sumRating: 250, sumLen: 50 * 300, helpfulSum: 5000}
	res := scoreStats("a", st)
	assert.LessOrEqual(t, res.Score, 1.0)
	assert.GreaterOrEqual(t, res.Score, 0.0)
}
