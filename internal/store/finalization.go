package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"agencyboard/internal/pipeline"
)

var (
	locatorNamespace = uuid.MustParse("5b3f4f6e-8d0a-4c52-9a4e-1f0d6a7c2e11")
	costNamespace    = uuid.MustParse("c2a1e9b4-3f7d-4e08-b6a5-9d4c8e1f7a20")
)

// LocatorID is the deterministic row id of a passenger's locator.
func LocatorID(recordID, passenger string) string {
	return uuid.NewSHA1(locatorNamespace, []byte(recordID+"\x00"+strings.TrimSpace(passenger))).String()
}

// CostID is the deterministic row id of the cost line at position.
func CostID(recordID string, position int) string {
	return uuid.NewSHA1(costNamespace, []byte(recordID+"\x00"+strconv.Itoa(position))).String()
}

// UpsertLocators writes one locator per passenger. Re-sending a passenger
// replaces its code and ticket number.
func (s *Store) UpsertLocators(ctx context.Context, recordID string, locators []pipeline.Locator) error {
	for i, loc := range locators {
		if strings.TrimSpace(loc.Passenger) == "" || strings.TrimSpace(loc.Code) == "" {
			return fmt.Errorf("upsert locators: entry %d needs passenger and code", i)
		}
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRecord(ctx, tx, recordID); err != nil {
			return err
		}
		now := formatTime(s.now())
		for _, loc := range locators {
			passenger := strings.TrimSpace(loc.Passenger)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO locators (id, record_id, passenger, code, ticket_number, created_at, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)
                 ON CONFLICT (record_id, passenger) DO UPDATE
                 SET code = excluded.code, ticket_number = excluded.ticket_number, updated_at = excluded.updated_at`,
				LocatorID(recordID, passenger),
				recordID,
				passenger,
				strings.TrimSpace(loc.Code),
				nullableString(loc.TicketNumber),
				now,
				now,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert locators: %w", err)
	}
	return nil
}

// UpsertCosts replaces the cost lines of a record. Lines are keyed by
// position so repeating the same batch leaves the table unchanged.
func (s *Store) UpsertCosts(ctx context.Context, recordID string, costs []pipeline.CostLine) error {
	for i, line := range costs {
		if strings.TrimSpace(line.Description) == "" {
			return fmt.Errorf("upsert costs: line %d needs a description", i)
		}
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRecord(ctx, tx, recordID); err != nil {
			return err
		}
		now := formatTime(s.now())
		for i, line := range costs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO costs (id, record_id, position, description, amount_cents, supplier, created_at, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
                 ON CONFLICT (id) DO UPDATE
                 SET description = excluded.description, amount_cents = excluded.amount_cents,
                     supplier = excluded.supplier, updated_at = excluded.updated_at`,
				CostID(recordID, i),
				recordID,
				i,
				strings.TrimSpace(line.Description),
				line.AmountCents,
				nullableString(line.Supplier),
				now,
				now,
			); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM costs WHERE record_id = ? AND position >= ?`, recordID, len(costs))
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert costs: %w", err)
	}
	return nil
}

// Locators returns a record's locators ordered by passenger.
func (s *Store) Locators(ctx context.Context, recordID string) ([]pipeline.Locator, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT passenger, code, ticket_number FROM locators WHERE record_id = ? ORDER BY passenger`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list locators: %w", err)
	}
	defer rows.Close()

	var out []pipeline.Locator
	for rows.Next() {
		var (
			loc    pipeline.Locator
			ticket sql.NullString
		)
		if err := rows.Scan(&loc.Passenger, &loc.Code, &ticket); err != nil {
			return nil, fmt.Errorf("scan locator: %w", err)
		}
		loc.TicketNumber = ticket.String
		out = append(out, loc)
	}
	return out, rows.Err()
}

// Costs returns a record's cost lines in entry order.
func (s *Store) Costs(ctx context.Context, recordID string) ([]pipeline.CostLine, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT description, amount_cents, supplier FROM costs WHERE record_id = ? ORDER BY position`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	defer rows.Close()

	var out []pipeline.CostLine
	for rows.Next() {
		var (
			line     pipeline.CostLine
			supplier sql.NullString
		)
		if err := rows.Scan(&line.Description, &line.AmountCents, &supplier); err != nil {
			return nil, fmt.Errorf("scan cost: %w", err)
		}
		line.Supplier = supplier.String
		out = append(out, line)
	}
	return out, rows.Err()
}

func requireRecord(ctx context.Context, tx *sql.Tx, recordID string) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM records WHERE id = ?`, recordID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	return nil
}
