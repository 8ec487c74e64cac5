// Package store persists scrape runs and their line-item listings to
// PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/J3698/tcg/models"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool, verifies it, and runs schema
// migrations.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scrapes (
			id          UUID PRIMARY KEY,
			term        TEXT        NOT NULL,
			num_results INTEGER     NOT NULL DEFAULT 0,
			num_on_day  INTEGER     NOT NULL DEFAULT 0,
			error       TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS scrape_results (
			id               BIGSERIAL PRIMARY KEY,
			scrape_id        UUID          NOT NULL REFERENCES scrapes(id),
			title            TEXT          NOT NULL,
			normalized_title TEXT          NOT NULL,
			sell_date        DATE          NOT NULL,
			sell_price       NUMERIC(12,2) NOT NULL,
			auth_guarantee   BOOLEAN       NOT NULL DEFAULT FALSE,
			psa_vault        BOOLEAN       NOT NULL DEFAULT FALSE,
			url              TEXT,
			image            TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_scrapes_term              ON scrapes(term);
		CREATE INDEX IF NOT EXISTS idx_scrape_results_scrape_id  ON scrape_results(scrape_id);
		CREATE INDEX IF NOT EXISTS idx_scrape_results_sell_date  ON scrape_results(sell_date);
	`)
	return err
}

// SaveRun inserts the run summary row and one row per listing, in a
// single transaction keyed by the run's ID.
func (s *Store) SaveRun(ctx context.Context, run *models.ScrapeRun) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO scrapes (id, term, num_results, num_on_day, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Term, len(run.Listings), run.NumOnDay, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert scrape: %w", err)
	}

	if len(run.Listings) > 0 {
		rows := make([][]any, 0, len(run.Listings))
		for _, l := range run.Listings {
			rows = append(rows, []any{
				run.ID, l.Title, l.NormalizedTitle, l.SoldAt, l.Price,
				l.AuthGuarantee, l.Vaulted, nullable(l.URL), nullable(l.ImageURL),
			})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"scrape_results"},
			[]string{"scrape_id", "title", "normalized_title", "sell_date", "sell_price",
				"auth_guarantee", "psa_vault", "url", "image"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("store: insert scrape results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// SaveRunError records a failed run as a summary row with the error
// message and zero results. Used best-effort on failure paths.
func (s *Store) SaveRunError(ctx context.Context, id, term, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scrapes (id, term, num_results, num_on_day, error)
		 VALUES ($1, $2, 0, 0, $3)`,
		id, term, errMsg,
	)
	if err != nil {
		return fmt.Errorf("store: insert error row: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
