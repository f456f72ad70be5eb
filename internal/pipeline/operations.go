package pipeline

import (
	"agencyboard/internal/session"
)

var operationsRules = &ruleSet{
	moves:   operationsMoves,
	apply:   applyOperationsMove,
	explain: explainOperationsMove,
}

func opsMove(to StageID, kind MoveKind, requires ...string) Move {
	return Move{To: to, Kind: kind, Requires: requires}
}

// operationsMoves is the legal-move graph of the emission funnel. CANCELADO
// is appended to every non-cancelled state as the operator escape hatch.
func operationsMoves(from StageID, rec Record) []Move {
	card := IsCardPayment(rec.PaymentMethod)
	var moves []Move
	switch from {
	case StageOPGenerated:
		if card {
			moves = append(moves, opsMove(StageLinkGenerated, MoveForward, FieldPaymentLink))
		} else {
			moves = append(moves, opsMove(StagePaymentConfirmed, MoveForward))
		}
	case StageLinkGenerated:
		moves = append(moves,
			opsMove(StagePaymentConfirmed, MoveForward),
			opsMove(StageOPGenerated, MoveRevert),
		)
	case StagePaymentConfirmed:
		moves = append(moves, opsMove(StageInEmission, MoveForward, FieldHandler))
		if card {
			moves = append(moves, opsMove(StageLinkGenerated, MoveRevert))
		} else {
			moves = append(moves, opsMove(StageOPGenerated, MoveRevert))
		}
	case StageInEmission:
		moves = append(moves,
			opsMove(StageEmittedByUser, MoveFinalize),
			opsMove(StageEmittedByCompany, MoveFinalize),
			opsMove(StagePaymentConfirmed, MoveRevert),
		)
	case StageEmittedByUser, StageEmittedByCompany:
		moves = append(moves, opsMove(StageInEmission, MoveReopen))
	case StageCancelled:
		return nil
	}
	return append(moves, opsMove(StageCancelled, MoveCancel))
}

func explainOperationsMove(from, to StageID, rec Record) (Reason, string) {
	if from != StageOPGenerated {
		return "", ""
	}
	card := IsCardPayment(rec.PaymentMethod)
	switch {
	case card && to == StagePaymentConfirmed:
		return ReasonCardRequiresLink, "card payments must pass through LINK_GERADO"
	case !card && to == StageLinkGenerated:
		return ReasonNotCardPayment, "payment link stage is only used for card payments"
	}
	return "", ""
}

func applyOperationsMove(rec Record, from, to StageID, payload Payload, actor session.Actor) (Record, *Finalization, Reason, string) {
	switch {
	case from == StageOPGenerated && to == StageLinkGenerated:
		link := StringPtr(payload.PaymentLink)
		if link == nil {
			return rec, nil, ReasonMissingPaymentLink, "a generated payment link is required"
		}
		rec.PaymentLink = link

	case to == StageOPGenerated:
		// Reverting to the start discards any generated link.
		rec.PaymentLink = nil

	case from == StagePaymentConfirmed && to == StageInEmission:
		handler := StringPtr(actor.Name())
		if handler == nil {
			return rec, nil, ReasonMissingHandler, "the acting user has no display name to assign"
		}
		rec.Handler = handler

	case from == StageInEmission && to == StagePaymentConfirmed:
		rec.Handler = nil

	case from == StageInEmission && (to == StageEmittedByUser || to == StageEmittedByCompany):
		fin := &Finalization{
			RecordID: rec.ID,
			Target:   to,
			Locators: append([]Locator(nil), payload.Locators...),
			Costs:    append([]CostLine(nil), payload.Costs...),
		}
		return rec, fin, "", ""
	}
	return rec, nil, "", ""
}
