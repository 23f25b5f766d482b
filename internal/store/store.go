// Package store keeps the history of finalized reviews in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/rfpick/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps compare and sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for review history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY,
			review_id TEXT NOT NULL UNIQUE,
			station TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			total INTEGER NOT NULL,
			kept INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			catalog_path TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS review_decisions (
			review_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			identifier TEXT NOT NULL,
			backazimuth REAL NOT NULL,
			kept INTEGER NOT NULL,
			PRIMARY KEY (review_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_ended_at ON reviews(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_station ON reviews(station);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertReview stores a finalized review and its per-trace decisions.
func (s *Store) InsertReview(ctx context.Context, summary model.ReviewSummary, decisions []model.Decision) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (review_id, station, started_at, ended_at, total, kept, rejected, catalog_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ReviewID,
		summary.Station,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.EndedAt.UTC().Format(timeLayout),
		summary.Total,
		summary.Kept,
		summary.Rejected,
		summary.CatalogPath,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(decisions) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO review_decisions (review_id, position, identifier, backazimuth, kept)
			 VALUES (?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, d := range decisions {
			if _, err = stmt.ExecContext(ctx, id, i, d.Identifier, d.Backazimuth, boolToInt(d.Kept)); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListReviews returns finalized reviews matching filter, oldest first.
func (s *Store) ListReviews(ctx context.Context, filter model.HistoryFilter) ([]model.ReviewAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Station != "" {
		clauses = append(clauses, "station = ?")
		args = append(args, filter.Station)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, review_id, station, ended_at, total, kept, rejected, catalog_path
		FROM reviews
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var reviews []model.ReviewAggregate
	for rows.Next() {
		var agg model.ReviewAggregate
		var endedAt string
		if err := rows.Scan(&agg.ID, &agg.ReviewID, &agg.Station, &endedAt, &agg.Total, &agg.Kept, &agg.Rejected, &agg.CatalogPath); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		reviews = append(reviews, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(reviews) > filter.Last {
		reviews = reviews[len(reviews)-filter.Last:]
	}
	return reviews, nil
}

// ListDecisions returns the decisions of one review in display order.
func (s *Store) ListDecisions(ctx context.Context, id int64) ([]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, backazimuth, kept FROM review_decisions
		 WHERE review_id = ?
		 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var decisions []model.Decision
	for rows.Next() {
		var d model.Decision
		var kept int
		if err := rows.Scan(&d.Identifier, &d.Backazimuth, &kept); err != nil {
			return nil, err
		}
		d.Kept = kept != 0
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}

// ListSectorAggregates counts kept and rejected decisions of the given
// reviews per backazimuth sector of width degrees. Empty sectors are omitted.
func (s *Store) ListSectorAggregates(ctx context.Context, reviewIDs []int64, width int) ([]model.SectorAggregate, error) {
	if len(reviewIDs) == 0 || width <= 0 {
		return nil, nil
	}
	placeholders := make([]string, len(reviewIDs))
	args := make([]any, 0, len(reviewIDs)+2)
	for i, id := range reviewIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, width, width)
	// deg is floor(backazimuth) wrapped into [0, 360).
	query := fmt.Sprintf(`WITH decided AS (
			SELECT ((CAST(backazimuth AS INTEGER) - (backazimuth < CAST(backazimuth AS INTEGER))) %% 360 + 360) %% 360 AS deg,
				kept
			FROM review_decisions
			WHERE review_id IN (%s)
		)
		SELECT (deg / ?) * ? AS sector,
			SUM(kept) AS kept, SUM(1 - kept) AS rejected
		FROM decided
		GROUP BY sector
		ORDER BY sector ASC`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SectorAggregate
	for rows.Next() {
		agg := model.SectorAggregate{Width: width}
		if err := rows.Scan(&agg.Start, &agg.Kept, &agg.Rejected); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
