package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNegativeCount is returned by SaveInventory for a count below zero.
var ErrNegativeCount = errors.New("inventory count must not be negative")

// ProgressRepository persists the tower's defeated opponents and the global
// item inventory.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a ProgressRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// LoadDefeated returns the ids of every defeated opponent, ordered by id.
func (r *ProgressRepository) LoadDefeated(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT opponent_id FROM defeated_opponents ORDER BY opponent_id`)
	if err != nil {
		return nil, fmt.Errorf("querying defeated opponents: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning defeated opponents: %w", err)
	}
	return ids, nil
}

// MarkDefeated records id as defeated.
//
// Precondition: id must be non-empty.
// Postcondition: Repeating the call for the same id keeps the first
// defeated_at and returns nil.
func (r *ProgressRepository) MarkDefeated(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO defeated_opponents (opponent_id) VALUES ($1)
		 ON CONFLICT (opponent_id) DO NOTHING`,
		id,
	)
	if err != nil {
		return fmt.Errorf("marking %q defeated: %w", id, err)
	}
	return nil
}

// LoadInventory returns the persisted item counts. The map is empty when no
// inventory has been saved yet.
func (r *ProgressRepository) LoadInventory(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT item_id, count FROM inventory_counts`)
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// SaveInventory upserts every count in one transaction.
//
// Precondition: Every count must be >= 0.
// Postcondition: Either all counts are stored or none are; ErrNegativeCount
// is returned without touching the database.
func (r *ProgressRepository) SaveInventory(ctx context.Context, counts map[string]int) error {
	for id, n := range counts {
		if n < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeCount, id, n)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning inventory transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for id, n := range counts {
		batch.Queue(
			`INSERT INTO inventory_counts (item_id, count) VALUES ($1, $2)
			 ON CONFLICT (item_id) DO UPDATE SET count = EXCLUDED.count, updated_at = NOW()`,
			id, n,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving inventory: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing inventory: %w", err)
	}
	return nil
}
