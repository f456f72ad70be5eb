package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"agencyboard/internal/pipeline"
)

const recordColumns = "id, board, status, title, client_name, payment_method, payment_link, handler, amount_cents, notes, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (pipeline.Record, error) {
	var (
		rec           pipeline.Record
		board         string
		clientName    sql.NullString
		paymentMethod sql.NullString
		paymentLink   sql.NullString
		handler       sql.NullString
		notes         sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&board,
		&rec.Status,
		&rec.Title,
		&clientName,
		&paymentMethod,
		&paymentLink,
		&handler,
		&rec.AmountCents,
		&notes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return pipeline.Record{}, err
	}

	rec.Board = pipeline.Board(board)
	rec.ClientName = clientName.String
	rec.PaymentMethod = paymentMethod.String
	rec.PaymentLink = optionalString(paymentLink)
	rec.Handler = optionalString(handler)
	rec.Notes = notes.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

// optionalString keeps NULL and blank columns as an absent value.
func optionalString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return pipeline.StringPtr(value.String)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullablePtr(value *string) any {
	if value == nil {
		return nil
	}
	return nullableString(*value)
}

// timeLayout is fixed width so text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
