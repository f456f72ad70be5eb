package api

import "time"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Record is a board card in transport form.
type Record struct {
	ID            string `json:"id"`
	Board         string `json:"board"`
	Stage         string `json:"stage"`
	Status        string `json:"status"`
	Title         string `json:"title"`
	ClientName    string `json:"clientName,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	PaymentLink   string `json:"paymentLink,omitempty"`
	Handler       string `json:"handler,omitempty"`
	AmountCents   int64  `json:"amountCents"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// Stage describes one column.
type Stage struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Decoration string `json:"decoration,omitempty"`
}

// Column is a stage with its records.
type Column struct {
	Stage   Stage    `json:"stage"`
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

// BoardSummary lists a board without its records.
type BoardSummary struct {
	Board   string  `json:"board"`
	Guarded bool    `json:"guarded"`
	Loaded  bool    `json:"loaded"`
	Stages  []Stage `json:"stages"`
}

// BoardsResponse wraps every served board.
type BoardsResponse struct {
	Boards []BoardSummary `json:"boards"`
}

// BoardResponse is a projected board.
type BoardResponse struct {
	Board   string   `json:"board"`
	Total   int      `json:"total"`
	Columns []Column `json:"columns"`
}

// RefreshResponse reports a manual refresh.
type RefreshResponse struct {
	Board string   `json:"board"`
	Total int      `json:"total"`
	New   []Record `json:"new"`
}

// CreateRecordRequest is the body of POST /records.
type CreateRecordRequest struct {
	Title         string `json:"title"`
	ClientName    string `json:"clientName"`
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
	AmountCents   int64  `json:"amountCents"`
	Notes         string `json:"notes"`
}

// Move is one offered transition.
type Move struct {
	To       string   `json:"to"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Requires []string `json:"requires,omitempty"`
}

// RecordResponse is a record with the moves it currently offers.
type RecordResponse struct {
	Record Record `json:"record"`
	Moves  []Move `json:"moves"`
}

// MovesResponse wraps the offered moves of a record.
type MovesResponse struct {
	RecordID string `json:"recordId"`
	Moves    []Move `json:"moves"`
}

// Locator is a passenger booking code.
type Locator struct {
	Passenger    string `json:"passenger"`
	Code         string `json:"code"`
	TicketNumber string `json:"ticketNumber,omitempty"`
}

// CostLine is an internal cost entry.
type CostLine struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
	Supplier    string `json:"supplier,omitempty"`
}

// MoveRequest is the body of POST /move.
type MoveRequest struct {
	To          string     `json:"to"`
	From        string     `json:"from,omitempty"`
	Override    bool       `json:"override,omitempty"`
	PaymentLink string     `json:"paymentLink,omitempty"`
	Locators    []Locator  `json:"locators,omitempty"`
	Costs       []CostLine `json:"costs,omitempty"`
}

// MoveResponse reports an applied move.
type MoveResponse struct {
	Outcome   string `json:"outcome"`
	From      string `json:"from"`
	To        string `json:"to"`
	Record    Record `json:"record"`
	Finalized bool   `json:"finalized,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Reason    string   `json:"reason,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	Failed    string   `json:"failedStep,omitempty"`
	Completed []string `json:"completedSteps,omitempty"`
}

// Document is a stored file.
type Document struct {
	Folder    string `json:"folder"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	ModTime   string `json:"modTime,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	URL       string `json:"url,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// DocumentsResponse lists a folder.
type DocumentsResponse struct {
	Folder    string     `json:"folder"`
	Documents []Document `json:"documents"`
}

// SignedURLResponse carries a download link.
type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// MeetingRequest is the body of POST /api/webhooks/meeting.
type MeetingRequest struct {
	RecordID        string    `json:"recordId"`
	ClientName      string    `json:"clientName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	StartsAt        time.Time `json:"startsAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `json:"notes"`
}

// ContractRequest is the body of POST /api/webhooks/contract.
type ContractRequest struct {
	RecordID    string `json:"recordId"`
	ClientName  string `json:"clientName"`
	Document    string `json:"document"`
	Email       string `json:"email"`
	AmountCents int64  `json:"amountCents"`
	Template    string `json:"template"`
}

// WebhookResponse reports a webhook call.
type WebhookResponse struct {
	Link   string `json:"link,omitempty"`
	Status int    `json:"status"`
	Raw    string `json:"raw,omitempty"`
}

// StatusResponse summarises the running server.
type StatusResponse struct {
	Version      string         `json:"version"`
	DatabasePath string         `json:"databasePath,omitempty"`
	Boards       []BoardSummary `json:"boards"`
	Documents    bool           `json:"documents"`
	Signing      bool           `json:"signing"`
	Meeting      bool           `json:"meetingWebhook"`
	Contract     bool           `json:"contractWebhook"`
}
