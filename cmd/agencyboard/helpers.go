package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"agencyboard/internal/pipeline"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// formatCents renders an amount as Brazilian reais, e.g. "R$ 1.234,56".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, brl.Sprintf("%d", cents/100), cents%100)
}

// parseAmount converts a money string into cents. Both "1.234,56" and
// "1234.56" are accepted; the last separator followed by one or two digits
// is the decimal mark and any other separator groups thousands.
func parseAmount(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "R$")
	value = strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if value == "" {
		return 0, errors.New("amount is empty")
	}
	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	whole, frac := value, ""
	if idx := strings.LastIndexAny(value, ".,"); idx >= 0 {
		if tail := value[idx+1:]; len(tail) > 0 && len(tail) <= 2 {
			whole, frac = value[:idx], tail
		}
	}
	whole = strings.NewReplacer(".", "", ",", "").Replace(whole)
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	total := units*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

// parseLocator reads "Passenger=CODE" or "Passenger=CODE/TICKET".
func parseLocator(raw string) (pipeline.Locator, error) {
	passenger, rest, ok := strings.Cut(raw, "=")
	passenger = strings.TrimSpace(passenger)
	if !ok || passenger == "" {
		return pipeline.Locator{}, fmt.Errorf("locator %q: expected Passenger=CODE[/TICKET]", raw)
	}
	code, ticket, _ := strings.Cut(rest, "/")
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return pipeline.Locator{}, fmt.Errorf("locator %q: booking code is empty", raw)
	}
	return pipeline.Locator{Passenger: passenger, Code: code, TicketNumber: strings.TrimSpace(ticket)}, nil
}

// parseCost reads "Description=AMOUNT" or "Description=AMOUNT@Supplier".
func parseCost(raw string) (pipeline.CostLine, error) {
	desc, rest, ok := strings.Cut(raw, "=")
	desc = strings.TrimSpace(desc)
	if !ok || desc == "" {
		return pipeline.CostLine{}, fmt.Errorf("cost %q: expected Description=AMOUNT[@Supplier]", raw)
	}
	amountText, supplier, _ := strings.Cut(rest, "@")
	cents, err := parseAmount(amountText)
	if err != nil {
		return pipeline.CostLine{}, fmt.Errorf("cost %q: %w", raw, err)
	}
	if cents < 0 {
		return pipeline.CostLine{}, fmt.Errorf("cost %q: amount must not be negative", raw)
	}
	return pipeline.CostLine{Description: desc, AmountCents: cents, Supplier: strings.TrimSpace(supplier)}, nil
}

// shortID trims a uuid to its first block for table output.
func shortID(id string) string {
	if head, _, ok := strings.Cut(id, "-"); ok && head != "" {
		return head
	}
	return id
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// resolveRecordID accepts a full record id or a unique prefix of one, as
// printed by "board show".
func resolveRecordID(records []pipeline.Record, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("record id is required")
	}
	var matches []string
	for _, rec := range records {
		if rec.ID == ref {
			return rec.ID, nil
		}
		if strings.HasPrefix(rec.ID, ref) {
			matches = append(matches, rec.ID)
		}
	}
	switch len(matches) {
	case 0:
		return ref, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("record id %q is ambiguous (%d matches)", ref, len(matches))
	}
}
