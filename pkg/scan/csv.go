// Package scan reads flat-file review corpora. The CSV layout varies by
// export (Kaggle dumps, internal snapshots), so column names are resolved
// from a set of known aliases per field.
package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	itemIDColumns   = []string{"asin", "product_id", "productId", "productID", "ASIN"}
	ratingColumns   = []string{"overall", "rating", "stars"}
	textColumns     = []string{"review_text", "reviewText", "review", "review_body", "text"}
	summaryColumns  = []string{"summary", "title"}
	voteColumns     = []string{"vote", "helpful", "helpful_votes"}
	reviewerColumns = []string{"reviewerID", "user_id", "author"}
	timeColumns     = []string{"unixReviewTime", "timestamp", "time"}
)

// Row is one normalized review record from a corpus file.
type Row struct {
	ItemID       string
	Rating       float64
	Text         string
	HelpfulVotes int
	ReviewerID   string
	Timestamp    int64
}

// Reader iterates normalized rows of a review CSV file.
type Reader struct {
	f   *os.File
	csv *csv.Reader

	itemIdx     int
	ratingIdx   int
	textIdx     int
	summaryIdx  int
	voteIdx     int
	reviewerIdx int
	timeIdx     int
}

// OpenReader opens a review CSV and resolves its column layout from the
// header row. The file must at least carry an item identifier column.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reviews file %s: %w", path, err)
	}

	c := csv.NewReader(f)
	c.FieldsPerRecord = -1
	c.LazyQuotes = true

	header, err := c.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	r := &Reader{f: f, csv: c}
	r.itemIdx = findColumn(header, itemIDColumns)
	r.ratingIdx = findColumn(header, ratingColumns)
	r.textIdx = findColumn(header, textColumns)
	r.summaryIdx = findColumn(header, summaryColumns)
	r.voteIdx = findColumn(header, voteColumns)
	r.reviewerIdx = findColumn(header, reviewerColumns)
	r.timeIdx = findColumn(header, timeColumns)

	if r.itemIdx < 0 {
		f.Close()
		return nil, fmt.Errorf("no item identifier column in %s (tried %s)",
			path, strings.Join(itemIDColumns, ", "))
	}

	return r, nil
}

// Next returns the next row, io.EOF at end of file. Rows with a
// malformed record are skipped rather than failing the whole scan.
func (r *Reader) Next() (*Row, error) {
	for {
		rec, err := r.csv.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			continue
		}

		row := &Row{
			ItemID:       strings.TrimSpace(field(rec, r.itemIdx)),
			Rating:       parseRating(field(rec, r.ratingIdx)),
			HelpfulVotes: parseVotes(field(rec, r.voteIdx)),
			ReviewerID:   strings.TrimSpace(field(rec, r.reviewerIdx)),
			Timestamp:    parseUnix(field(rec, r.timeIdx)),
		}

		row.Text = strings.TrimSpace(field(rec, r.textIdx))
		if row.Text == "" {
			// Some exports split the review across summary + body.
			s := strings.TrimSpace(field(rec, r.summaryIdx))
			if s != "" {
				row.Text = s
			}
		}

		return row, nil
	}
}

func (r *Reader) Close() error {
	return r.f.Close()
}

func findColumn(header, names []string) int {
	for _, n := range names {
		for i, h := range header {
			if strings.TrimSpace(h) == n {
				return i
			}
		}
	}
	return -1
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func parseRating(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseVotes handles both plain counts and legacy "12/30" forms.
func parseVotes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

func parseUnix(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
