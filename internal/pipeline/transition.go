package pipeline

import (
	"fmt"
	"strings"

	"agencyboard/internal/session"
)

// Reason explains why a transition was rejected.
type Reason string

const (
	ReasonIllegalTransition  Reason = "ILLEGAL_TRANSITION"
	ReasonStaleStage         Reason = "STALE_STAGE"
	ReasonUnknownStage       Reason = "UNKNOWN_STAGE"
	ReasonRecordMismatch     Reason = "RECORD_MISMATCH"
	ReasonOverrideForbidden  Reason = "OVERRIDE_FORBIDDEN"
	ReasonNotCardPayment     Reason = "NOT_CARD_PAYMENT"
	ReasonCardRequiresLink   Reason = "CARD_REQUIRES_LINK"
	ReasonMissingPaymentLink Reason = "MISSING_PAYMENT_LINK"
	ReasonMissingHandler     Reason = "MISSING_HANDLER"
)

// Outcome tags a Result.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// MoveKind classifies an offered move for presentation.
type MoveKind string

const (
	MoveFree     MoveKind = "free"
	MoveForward  MoveKind = "forward"
	MoveRevert   MoveKind = "revert"
	MoveFinalize MoveKind = "finalize"
	MoveReopen   MoveKind = "reopen"
	MoveCancel   MoveKind = "cancel"
)

// Payload field names reported in Move.Requires.
const (
	FieldPaymentLink = "payment_link"
	FieldHandler     = "handler"
	FieldLocators    = "locators"
	FieldCosts       = "costs"
)

// Payload carries the side-effect data a transition may need.
type Payload struct {
	PaymentLink string     `json:"payment_link,omitempty"`
	Locators    []Locator  `json:"locators,omitempty"`
	Costs       []CostLine `json:"costs,omitempty"`
}

// Request is a requested stage change for one record.
type Request struct {
	RecordID string  `json:"record_id"`
	From     StageID `json:"from,omitempty"`
	To       StageID `json:"to"`
	Payload  Payload `json:"payload,omitempty"`
	// Override marks an administrative move that bypasses the state machine.
	Override bool `json:"override,omitempty"`
}

// Finalization lists the batch writes that must accompany an emission.
type Finalization struct {
	RecordID string     `json:"record_id"`
	Target   StageID    `json:"target"`
	Locators []Locator  `json:"locators,omitempty"`
	Costs    []CostLine `json:"costs,omitempty"`
}

// Empty reports whether there is nothing beyond the status update to commit.
func (f *Finalization) Empty() bool {
	return f == nil || (len(f.Locators) == 0 && len(f.Costs) == 0)
}

// Result is the Transition Authority verdict. When Applied, Record holds the
// updated record; otherwise Reason says why not.
type Result struct {
	Outcome      Outcome       `json:"outcome"`
	Record       Record        `json:"record"`
	From         StageID       `json:"from"`
	To           StageID       `json:"to"`
	Reason       Reason        `json:"reason,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	Finalization *Finalization `json:"finalization,omitempty"`
}

// Applied reports whether the transition was accepted.
func (r Result) Applied() bool { return r.Outcome == OutcomeApplied }

// Move is one action the UI may offer for a record.
type Move struct {
	To       StageID  `json:"to"`
	Label    string   `json:"label"`
	Kind     MoveKind `json:"kind"`
	Requires []string `json:"requires,omitempty"`
}

// ruleSet is the guarded state machine of a board.
type ruleSet struct {
	moves func(from StageID, rec Record) []Move
	apply func(rec Record, from, to StageID, payload Payload, actor session.Actor) (Record, *Finalization, Reason, string)
	// explain gives a specific reason for a move that is absent from moves.
	explain func(from, to StageID, rec Record) (Reason, string)
}

// Authorize judges req against the board's rules and returns the updated
// record on success. It never mutates rec.
func Authorize(reg *Registry, rec Record, req Request, actor session.Actor) Result {
	current := reg.Classify(rec.Status)
	from := req.From
	if from == "" {
		from = current
	}
	to := StageID(strings.TrimSpace(string(req.To)))

	if req.RecordID != "" && req.RecordID != rec.ID {
		return rejected(from, to, ReasonRecordMismatch, fmt.Sprintf("request targets %s, record is %s", req.RecordID, rec.ID))
	}
	if from != current {
		return rejected(from, to, ReasonStaleStage, fmt.Sprintf("record is in %s, not %s", current, from))
	}
	if !reg.Has(to) {
		return rejected(from, to, ReasonUnknownStage, fmt.Sprintf("%q is not a stage of %s", to, reg.Board()))
	}

	if req.Override {
		if !actor.Admin {
			return rejected(from, to, ReasonOverrideForbidden, "administrative override requires an admin")
		}
		return applied(from, to, withStatus(rec, to), nil)
	}

	if reg.rules == nil {
		return applied(from, to, withStatus(rec, to), nil)
	}

	if !hasMove(reg.rules.moves(from, rec), to) {
		reason, detail := ReasonIllegalTransition, fmt.Sprintf("%s → %s is not permitted", from, to)
		if reg.rules.explain != nil {
			if r, d := reg.rules.explain(from, to, rec); r != "" {
				reason, detail = r, d
			}
		}
		return rejected(from, to, reason, detail)
	}

	updated, fin, reason, detail := reg.rules.apply(rec.Clone(), from, to, req.Payload, actor)
	if reason != "" {
		return rejected(from, to, reason, detail)
	}
	updated.Status = string(to)
	return applied(from, to, updated, fin)
}

// AvailableMoves lists the transitions a UI should offer for rec.
func AvailableMoves(reg *Registry, rec Record) []Move {
	current := reg.Classify(rec.Status)
	if reg.rules != nil {
		moves := reg.rules.moves(current, rec)
		for i := range moves {
			if def, ok := reg.Stage(moves[i].To); ok {
				moves[i].Label = def.Label
			}
		}
		return moves
	}
	moves := make([]Move, 0, len(reg.stages)-1)
	for _, st := range reg.stages {
		if st.ID == current {
			continue
		}
		moves = append(moves, Move{To: st.ID, Label: st.Label, Kind: MoveFree})
	}
	return moves
}

func hasMove(moves []Move, to StageID) bool {
	for _, m := range moves {
		if m.To == to {
			return true
		}
	}
	return false
}

func withStatus(rec Record, to StageID) Record {
	out := rec.Clone()
	out.Status = string(to)
	return out
}

func applied(from, to StageID, rec Record, fin *Finalization) Result {
	return Result{Outcome: OutcomeApplied, Record: rec, From: from, To: to, Finalization: fin}
}

func rejected(from, to StageID, reason Reason, detail string) Result {
	return Result{Outcome: OutcomeRejected, From: from, To: to, Reason: reason, Detail: detail}
}
