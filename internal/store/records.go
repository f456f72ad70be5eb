package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agencyboard/internal/pipeline"
)

// Insert stores a new record and returns the stored row. A blank id is
// replaced with a fresh UUID.
func (s *Store) Insert(ctx context.Context, rec pipeline.Record) (pipeline.Record, error) {
	if strings.TrimSpace(string(rec.Board)) == "" {
		return pipeline.Record{}, errors.New("insert record: board is required")
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err := s.execWithRetry(ctx,
		`INSERT INTO records (
            id, board, status, title, client_name, payment_method, payment_link,
            handler, amount_cents, notes, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Board),
		rec.Status,
		strings.TrimSpace(rec.Title),
		nullableString(rec.ClientName),
		nullableString(rec.PaymentMethod),
		nullablePtr(rec.PaymentLink),
		nullablePtr(rec.Handler),
		rec.AmountCents,
		nullableString(rec.Notes),
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return s.Get(ctx, rec.ID)
}

// Get fetches a record by id.
func (s *Store) Get(ctx context.Context, id string) (pipeline.Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns the records matching q.
func (s *Store) List(ctx context.Context, q Query) ([]pipeline.Record, error) {
	query, args, err := q.build()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []pipeline.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// ListBoard returns a board's records newest first.
func (s *Store) ListBoard(ctx context.Context, board pipeline.Board, limit int) ([]pipeline.Record, error) {
	return s.List(ctx, BoardQuery(board, limit))
}

// Update writes every mutable column of rec and returns the stored row.
func (s *Store) Update(ctx context.Context, rec pipeline.Record) (pipeline.Record, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE records
         SET status = ?, title = ?, client_name = ?, payment_method = ?, payment_link = ?,
             handler = ?, amount_cents = ?, notes = ?, updated_at = ?
         WHERE id = ?`,
		rec.Status,
		strings.TrimSpace(rec.Title),
		nullableString(rec.ClientName),
		nullableString(rec.PaymentMethod),
		nullablePtr(rec.PaymentLink),
		nullablePtr(rec.Handler),
		rec.AmountCents,
		nullableString(rec.Notes),
		formatTime(s.now()),
		rec.ID,
	)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("update record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pipeline.Record{}, fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return s.Get(ctx, rec.ID)
}

// Delete removes a record together with its locators and costs.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRecord(ctx, tx, id); err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM costs WHERE record_id = ?`,
			`DELETE FROM locators WHERE record_id = ?`,
			`DELETE FROM records WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
