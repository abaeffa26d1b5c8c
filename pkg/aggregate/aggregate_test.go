package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechNxt05/revtrust/pkg/trust"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestAggregatorRun_SingleFile(t *testing.T) {
	path := writeCSV(t, "reviews.csv", "asin,overall,reviewText,vote\n"+
		"B001,5,"+strings.Repeat("solid long review body ", 3)+",5\n"+
		"B001,4,"+strings.Repeat("solid long review body ", 3)+",5\n"+
		"B002,1,bad,0\n")

	res, err := (&Aggregator{}).Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 0, res.Skipped)

	b1 := res.Scores["B001"]
	require.NotNil(t, b1)
	// avg 4.5 -> 0.875, count scale 0.6+0.4*2/50 = 0.616, helpful capped +0.12
	assert.InDelta(t, 0.659, b1.Score, 0.0005)
	assert.Equal(t, trust.ModelCache, b1.Model)
	assert.Contains(t, b1.Rationale, "avg_rating=4.50")
	assert.Contains(t, b1.Rationale, "reviews=2")
	assert.Len(t, b1.Evidence, 2)
}

func TestAggregatorRun_MergesAcrossFiles(t *testing.T) {
	a := writeCSV(t, "part1.csv", "asin,overall,reviewText\n"+
		"B001,5,first part review with enough length in it\n")
	b := writeCSV(t, "part2.csv", "asin,overall,reviewText\n"+
		"B001,3,second part review with enough length in it\n")

	res, err := (&Aggregator{}).Run(context.Background(), []string{a, b})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 2, res.Rows)
	require.Contains(t, res.Scores, "B001")
	assert.Contains(t, res.Scores["B001"].Rationale, "avg_rating=4.00")
	assert.Contains(t, res.Scores["B001"].Rationale, "reviews=2")
}

func TestAggregatorRun_SkipsMissingFiles(t *testing.T) {
	path := writeCSV(t, "reviews.csv", "asin,overall,reviewText\nB001,5,present and accounted for\n")

	res, err := (&Aggregator{}).Run(context.Background(), []string{"/nope/a.csv", path})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
}

func TestAggregatorRun_NoCorpus(t *testing.T) {
	_, err := (&Aggregator{}).Run(context.Background(), []string{"/nope/a.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no review corpus")
}

func TestAggregatorRun_AllowList(t *testing.T) {
	path := writeCSV(t, "reviews.csv", "asin,overall,reviewText\n"+
		"KEEP,5,review for the item we care about\n"+
		"DROP,1,review for an out of catalog item\n")

	a := &Aggregator{AllowList: map[string]bool{"KEEP": true}}
	res, err := a.Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Items)
	assert.Equal(t, 1, res.Skipped)
	assert.Contains(t, res.Scores, "KEEP")
	assert.NotContains(t, res.Scores, "DROP")
}

func TestAggregatorRun_RowBudgetPerFile(t *testing.T) {
	var b strings.Builder
	b.WriteString("asin,overall,reviewText\n")
	for i := 0; i < 10; i++ {
		b.WriteString("B001,5,review within a generous rating stream\n")
	}
	path := writeCSV(t, "reviews.csv", b.String())

	res, err := (&Aggregator{RowBudget: 4}).Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rows)
	assert.Contains(t, res.Scores["B001"].Rationale, "reviews=4")
}

func TestAggregatorRun_ShortReviewPenalty(t *testing.T) {
	shortHeavy := writeCSV(t, "short.csv", "asin,overall,reviewText\n"+
		"B001,5,great\n"+
		"B001,5,nice one\n"+
		"B001,5,this one is comfortably past the short threshold\n")
	longOnly := writeCSV(t, "long.csv", "asin,overall,reviewText\n"+
		"B002,5,this one is comfortably past the short threshold\n"+
		"B002,5,and so is this other one with plenty of words\n"+
		"B002,5,a third review that is also long enough to count\n")

	shortRes, err := (&Aggregator{}).Run(context.Background(), []string{shortHeavy})
	require.NoError(t, err)
	longRes, err := (&Aggregator{}).Run(context.Background(), []string{longOnly})
	require.NoError(t, err)

	assert.Less(t, shortRes.Scores["B001"].Score, longRes.Scores["B002"].Score)
}

func TestAggregatorRun_ExamplesCappedAndTruncated(t *testing.T) {
	long := strings.Repeat("y", 700)
	var b strings.Builder
	b.WriteString("asin,overall,reviewText,reviewerID\n")
	for i := 0; i < 5; i++ {
		b.WriteString("B001,4," + long + ",u1\n")
	}
	path := writeCSV(t, "reviews.csv", b.String())

	res, err := (&Aggregator{}).Run(context.Background(), []string{path})
	require.NoError(t, err)

	ev := res.Scores["B001"].Evidence
	require.Len(t, ev, 3)
	assert.Len(t, ev[0].Text, 500)
	assert.Equal(t, "u1", ev[0].Reviewer)
}

func TestAggregatorRun_SkipsRowsWithoutItem(t *testing.T) {
	path := writeCSV(t, "reviews.csv", "asin,overall,reviewText\n"+
		",5,orphan review with no item attached\n"+
		"B001,5,properly attributed review text here\n")

	res, err := (&Aggregator{}).Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Items)
}

func TestScore_ZeroRatings(t *testing.T) {
	res := score("B001", &itemAgg{count: 2})
	assert.Equal(t, 0.0, res.Score)
	assert.NotNil(t, res.Evidence)
}
