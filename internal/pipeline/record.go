package pipeline

import (
	"strings"
	"time"
)

// Record is the typed shape of a board card. Optional columns from the
// table store are pointers so "absent" and "empty" stay distinct.
type Record struct {
	ID            string    `json:"id"`
	Board         Board     `json:"board"`
	Status        string    `json:"status"`
	Title         string    `json:"title"`
	ClientName    string    `json:"client_name,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	PaymentLink   *string   `json:"payment_link"`
	Handler       *string   `json:"handler"`
	AmountCents   int64     `json:"amount_cents"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.PaymentLink = cloneString(r.PaymentLink)
	out.Handler = cloneString(r.Handler)
	return out
}

// DisplayName is the human label used for folders and notifications.
func (r Record) DisplayName() string {
	if name := strings.TrimSpace(r.ClientName); name != "" {
		return name
	}
	return strings.TrimSpace(r.Title)
}

// LinkValue returns the payment link or "".
func (r Record) LinkValue() string {
	if r.PaymentLink == nil {
		return ""
	}
	return *r.PaymentLink
}

// HandlerValue returns the assigned handler or "".
func (r Record) HandlerValue() string {
	if r.Handler == nil {
		return ""
	}
	return *r.Handler
}

// Locator is a per-passenger ticket/booking identifier recorded on emission.
type Locator struct {
	Passenger    string `json:"passenger"`
	Code         string `json:"code"`
	TicketNumber string `json:"ticket_number,omitempty"`
}

// CostLine is an internal cost entry committed on emission.
type CostLine struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Supplier    string `json:"supplier,omitempty"`
}

// StringPtr returns a pointer to a trimmed copy of value, or nil when blank.
func StringPtr(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
