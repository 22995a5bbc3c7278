package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// JournalStore implements domain.TxJournal using PostgreSQL.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a JournalStore backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

var _ domain.TxJournal = (*JournalStore)(nil)

// Record appends a journal entry. The detail map is stored as JSONB.
func (s *JournalStore) Record(ctx context.Context, rec domain.TxRecord) error {
	detailJSON, err := json.Marshal(rec.Detail)
	if err != nil {
		return fmt.Errorf("postgres: marshal journal detail: %w", err)
	}
	if rec.Detail == nil {
		detailJSON = []byte("{}")
	}

	const query = `
		INSERT INTO tx_journal (op, listing_id, tx_hash, status, detail)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = s.pool.Exec(ctx, query, rec.Op, rec.ListingID, rec.TxHash, rec.Status, detailJSON)
	if err != nil {
		return fmt.Errorf("postgres: record journal entry %s: %w", rec.Op, err)
	}
	return nil
}

// ListRecent returns the most recent journal entries, newest first.
func (s *JournalStore) ListRecent(ctx context.Context, limit int) ([]domain.TxRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, op, listing_id, tx_hash, status, detail, created_at
		FROM tx_journal
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list journal entries: %w", err)
	}
	defer rows.Close()

	var records []domain.TxRecord
	for rows.Next() {
		var rec domain.TxRecord
		var detailJSON []byte

		if err := rows.Scan(&rec.ID, &rec.Op, &rec.ListingID, &rec.TxHash, &rec.Status, &detailJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan journal entry: %w", err)
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &rec.Detail); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal journal detail: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate journal entries: %w", err)
	}
	return records, nil
}
