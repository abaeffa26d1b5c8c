package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TechNxt05/revtrust/pkg/trust"
)

const (
	insertTrustSQL = `INSERT INTO trust_cache (item_id, result, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE SET result = excluded.result,
			updated_at = excluded.updated_at
	`

	selectTrustSQL = `SELECT result FROM trust_cache WHERE item_id = ?`

	selectAllTrustSQL = `SELECT item_id, result FROM trust_cache`

	deleteTrustSQL = `DELETE FROM trust_cache`
)

// TrustCacheResult is returned by the wholesale cache rebuild.
type TrustCacheResult struct {
	Saved    int    `json:"saved" yaml:"saved"`
	Duration string `json:"duration" yaml:"duration"`
}

// SaveTrustResults regenerates the trust cache wholesale: the table is
// emptied and repopulated in one transaction, so readers either see the
// old cache or the new one, never a mix.
func SaveTrustResults(db *sql.DB, scores map[string]*trust.TrustResult) (*TrustCacheResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	start := time.Now()
	now := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting cache tx: %w", err)
	}

	if _, err := tx.Exec(deleteTrustSQL); err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("clearing trust cache: %w", err)
	}

	stmt, err := tx.Prepare(insertTrustSQL)
	if err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("preparing cache insert: %w", err)
	}

	total := len(scores)
	logEvery := total / 10
	if logEvery < 1 {
		logEvery = 1
	}

	res := &TrustCacheResult{}
	for id, tr := range scores {
		b, err := json.Marshal(tr)
		if err != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("marshaling result for %s: %w", id, err)
		}
		if _, execErr := stmt.Exec(id, string(b), now); execErr != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("saving result for %s: %w", id, execErr)
		}
		res.Saved++

		if res.Saved%logEvery == 0 {
			slog.Info("cache progress", "saved", res.Saved, "total", total)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cache tx: %w", err)
	}

	res.Duration = time.Since(start).String()
	slog.Info("trust cache regenerated", "entries", res.Saved)

	return res, nil
}

// GetTrustResult returns one cached result, nil when absent.
func GetTrustResult(ctx context.Context, db *sql.DB, itemID string) (*trust.TrustResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var raw string
	err := db.QueryRowContext(ctx, selectTrustSQL, itemID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying trust cache for %s: %w", itemID, err)
	}

	var tr trust.TrustResult
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		return nil, fmt.Errorf("decoding cached result for %s: %w", itemID, err)
	}
	return &tr, nil
}

// LoadTrustCache reads the whole cache table into a map.
func LoadTrustCache(ctx context.Context, db *sql.DB) (map[string]*trust.TrustResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.QueryContext(ctx, selectAllTrustSQL)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying trust cache: %w", err)
	}
	defer rows.Close()

	m := make(map[string]*trust.TrustResult)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		var tr trust.TrustResult
		if err := json.Unmarshal([]byte(raw), &tr); err != nil {
			slog.Warn("skipping undecodable cache entry", "item", id, "error", err)
			continue
		}
		m[id] = &tr
	}

	return m, rows.Err()
}

// CacheSource adapts the trust_cache table to the resolver's lazy
// cache-load capability.
type CacheSource struct {
	DB *sql.DB
}

// LoadCache implements trust.CacheLoader.
func (s *CacheSource) LoadCache(ctx context.Context) (map[string]*trust.TrustResult, error) {
	return LoadTrustCache(ctx, s.DB)
}
