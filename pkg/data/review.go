package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/TechNxt05/revtrust/pkg/scan"
	"github.com/TechNxt05/revtrust/pkg/trust"
)

const (
	fetchReviewLimitDefault = 500

	insertReviewSQL = `INSERT INTO review (
			item_id, reviewer_id, rating, review_time, helpful_votes, text
		)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectReviewsSQL = `SELECT reviewer_id, rating, review_time, helpful_votes, text
		FROM review
		WHERE item_id = ?
		ORDER BY review_time, reviewer_id, text
		LIMIT ?
	`

	deleteReviewsSQL = `DELETE FROM review`

	countReviewsSQL = `SELECT COUNT(*) FROM review`
)

// ReviewImportResult is returned by the corpus import.
type ReviewImportResult struct {
	Path     string `json:"path" yaml:"path"`
	Imported int    `json:"imported" yaml:"imported"`
	Skipped  int    `json:"skipped" yaml:"skipped"`
	Duration string `json:"duration" yaml:"duration"`
}

// ImportReviews bulk-loads a review CSV into the review table in a
// single transaction. A zero limit imports the whole file.
func ImportReviews(db *sql.DB, path string, limit int) (*ReviewImportResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	start := time.Now()

	r, err := scan.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer r.Close()

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting import tx: %w", err)
	}

	stmt, err := tx.Prepare(insertReviewSQL)
	if err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("preparing review insert: %w", err)
	}

	res := &ReviewImportResult{Path: path}
	const logEvery = 100_000

	for limit <= 0 || res.Imported < limit {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("reading corpus row: %w", err)
		}
		if row.ItemID == "" || row.Text == "" {
			res.Skipped++
			continue
		}

		if _, execErr := stmt.Exec(row.ItemID, row.ReviewerID, row.Rating,
			row.Timestamp, row.HelpfulVotes, row.Text); execErr != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("inserting review for %s: %w", row.ItemID, execErr)
		}
		res.Imported++

		if res.Imported%logEvery == 0 {
			slog.Info("import progress", "imported", res.Imported)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import tx: %w", err)
	}

	res.Duration = time.Since(start).String()
	slog.Info("reviews imported", "path", path, "imported", res.Imported, "skipped", res.Skipped)

	return res, nil
}

// GetReviews returns up to limit reviews for an item, oldest first with
// a stable tie-break so repeated fetches are deterministic.
func GetReviews(ctx context.Context, db *sql.DB, itemID string, limit int) ([]trust.Review, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = fetchReviewLimitDefault
	}

	rows, err := db.QueryContext(ctx, selectReviewsSQL, itemID, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying reviews for %s: %w", itemID, err)
	}
	defer rows.Close()

	list := make([]trust.Review, 0)
	for rows.Next() {
		var (
			reviewer sql.NullString
			rating   sql.NullFloat64
			ts       sql.NullInt64
			helpful  sql.NullInt64
			text     sql.NullString
		)
		if err := rows.Scan(&reviewer, &rating, &ts, &helpful, &text); err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		list = append(list, trust.Review{
			Text:         text.String,
			Rating:       rating.Float64,
			Timestamp:    ts.Int64,
			ReviewerID:   reviewer.String,
			HelpfulVotes: int(helpful.Int64),
		})
	}

	return list, rows.Err()
}

// CountReviews returns the total number of imported reviews.
func CountReviews(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	var n int64
	if err := db.QueryRow(countReviewsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}

// ClearReviews empties the review table before a fresh import.
func ClearReviews(db *sql.DB) error {
	if db == nil {
		return errDBNotInitialized
	}
	if _, err := db.Exec(deleteReviewsSQL); err != nil {
		return fmt.Errorf("clearing reviews: %w", err)
	}
	return nil
}

// ReviewSource adapts the review table to the resolver's fetch
// capability.
type ReviewSource struct {
	DB    *sql.DB
	Limit int
}

// FetchReviews implements trust.ReviewSource.
func (s *ReviewSource) FetchReviews(ctx context.Context, itemID string) ([]trust.Review, error) {
	return GetReviews(ctx, s.DB, itemID, s.Limit)
}
