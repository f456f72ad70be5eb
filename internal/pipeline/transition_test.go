package pipeline_test

import (
	"testing"

	"agencyboard/internal/pipeline"
	"agencyboard/internal/session"
)

var operator = session.Actor{UserID: "u-1", DisplayName: "Marina"}

func opsRecord(status, method string) pipeline.Record {
	return pipeline.Record{
		ID:            "rec-1",
		Board:         pipeline.BoardOperations,
		Status:        status,
		Title:         "GRU-LIS",
		PaymentMethod: method,
	}
}

func TestCardRecordMustPassThroughLink(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("OP_GERADA", "cartao")

	res := pipeline.Authorize(reg, rec, pipeline.Request{RecordID: rec.ID, To: pipeline.StagePaymentConfirmed}, operator)
	if res.Applied() {
		t.Fatal("expected card record to be blocked from skipping the link stage")
	}
	if res.Reason != pipeline.ReasonCardRequiresLink {
		t.Fatalf("expected %s, got %s", pipeline.ReasonCardRequiresLink, res.Reason)
	}

	res = pipeline.Authorize(reg, rec, pipeline.Request{
		RecordID: rec.ID,
		To:       pipeline.StageLinkGenerated,
		Payload:  pipeline.Payload{PaymentLink: " https://pay.example/abc "},
	}, operator)
	if !res.Applied() {
		t.Fatalf("expected move to be applied, got %s: %s", res.Reason, res.Detail)
	}
	if res.Record.Status != string(pipeline.StageLinkGenerated) {
		t.Fatalf("unexpected status %q", res.Record.Status)
	}
	if res.Record.LinkValue() != "https://pay.example/abc" {
		t.Fatalf("unexpected link %q", res.Record.LinkValue())
	}
	if rec.PaymentLink != nil || rec.Status != "OP_GERADA" {
		t.Fatal("Authorize mutated its input")
	}
}

func TestLinkStageRequiresLink(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("OP_GERADA", "Cartão de crédito")
	res := pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StageLinkGenerated, Payload: pipeline.Payload{PaymentLink: "   "}}, operator)
	if res.Reason != pipeline.ReasonMissingPaymentLink {
		t.Fatalf("expected %s, got %s", pipeline.ReasonMissingPaymentLink, res.Reason)
	}
}

func TestNonCardRecordSkipsLink(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("OP_GERADA", "pix")

	res := pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StageLinkGenerated, Payload: pipeline.Payload{PaymentLink: "x"}}, operator)
	if res.Reason != pipeline.ReasonNotCardPayment {
		t.Fatalf("expected %s, got %s", pipeline.ReasonNotCardPayment, res.Reason)
	}
	res = pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StagePaymentConfirmed}, operator)
	if !res.Applied() {
		t.Fatalf("expected direct confirmation, got %s", res.Reason)
	}
}

func TestRevertToStartClearsLink(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("LINK_GERADO", "cartao")
	rec.PaymentLink = pipeline.StringPtr("https://pay.example/abc")

	res := pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StageOPGenerated}, operator)
	if !res.Applied() {
		t.Fatalf("expected revert to apply, got %s", res.Reason)
	}
	if res.Record.PaymentLink != nil {
		t.Fatalf("expected link to be cleared, got %q", res.Record.LinkValue())
	}
	if rec.LinkValue() != "https://pay.example/abc" {
		t.Fatal("input record lost its link")
	}
}

func TestEmissionStampsAndClearsHandler(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("PAGAMENTO_CONFIRMADO", "pix")

	res := pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StageInEmission}, operator)
	if !res.Applied() {
		t.Fatalf("expected start of emission, got %s", res.Reason)
	}
	if res.Record.HandlerValue() != "Marina" {
		t.Fatalf("expected handler Marina, got %q", res.Record.HandlerValue())
	}

	res = pipeline.Authorize(reg, res.Record, pipeline.Request{To: pipeline.StagePaymentConfirmed}, operator)
	if !res.Applied() {
		t.Fatalf("expected revert, got %s", res.Reason)
	}
	if res.Record.Handler != nil {
		t.Fatalf("expected handler cleared, got %q", res.Record.HandlerValue())
	}
}

func TestEmissionWithoutActorName(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("PAGAMENTO_CONFIRMADO", "pix")
	res := pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StageInEmission}, session.Anonymous)
	if res.Reason != pipeline.ReasonMissingHandler {
		t.Fatalf("expected %s, got %s", pipeline.ReasonMissingHandler, res.Reason)
	}
}

func TestFinalizeCarriesBatch(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("EM_EMISSAO", "pix")
	locators := []pipeline.Locator{{Passenger: "Ana", Code: "XYZ123"}, {Passenger: "Rui", Code: "XYZ124"}}
	costs := []pipeline.CostLine{{Description: "tarifa", AmountCents: 120000}}

	res := pipeline.Authorize(reg, rec, pipeline.Request{
		To:      pipeline.StageEmittedByCompany,
		Payload: pipeline.Payload{Locators: locators, Costs: costs},
	}, operator)
	if !res.Applied() {
		t.Fatalf("expected finalize, got %s", res.Reason)
	}
	fin := res.Finalization
	if fin == nil || fin.Empty() {
		t.Fatal("expected a finalization batch")
	}
	if fin.Target != pipeline.StageEmittedByCompany || fin.RecordID != rec.ID {
		t.Fatalf("unexpected finalization header %+v", fin)
	}
	if len(fin.Locators) != 2 || len(fin.Costs) != 1 {
		t.Fatalf("unexpected batch sizes: %d locators, %d costs", len(fin.Locators), len(fin.Costs))
	}
	locators[0].Code = "CHANGED"
	if fin.Locators[0].Code != "XYZ123" {
		t.Fatal("finalization shares the caller's slice")
	}
}

func TestOperationsLegalMoves(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	type key struct {
		from, to pipeline.StageID
	}
	card := map[key]bool{
		{pipeline.StageOPGenerated, pipeline.StageLinkGenerated}:      true,
		{pipeline.StageLinkGenerated, pipeline.StagePaymentConfirmed}: true,
		{pipeline.StageLinkGenerated, pipeline.StageOPGenerated}:      true,
		{pipeline.StagePaymentConfirmed, pipeline.StageInEmission}:    true,
		{pipeline.StagePaymentConfirmed, pipeline.StageLinkGenerated}: true,
		{pipeline.StageInEmission, pipeline.StageEmittedByUser}:       true,
		{pipeline.StageInEmission, pipeline.StageEmittedByCompany}:    true,
		{pipeline.StageInEmission, pipeline.StagePaymentConfirmed}:    true,
		{pipeline.StageEmittedByUser, pipeline.StageInEmission}:       true,
		{pipeline.StageEmittedByCompany, pipeline.StageInEmission}:    true,
		{pipeline.StageOPGenerated, pipeline.StageCancelled}:          true,
		{pipeline.StageLinkGenerated, pipeline.StageCancelled}:        true,
		{pipeline.StagePaymentConfirmed, pipeline.StageCancelled}:     true,
		{pipeline.StageInEmission, pipeline.StageCancelled}:           true,
		{pipeline.StageEmittedByUser, pipeline.StageCancelled}:        true,
		{pipeline.StageEmittedByCompany, pipeline.StageCancelled}:     true,
	}
	nonCard := map[key]bool{}
	for k, v := range card {
		nonCard[k] = v
	}
	delete(nonCard, key{pipeline.StageOPGenerated, pipeline.StageLinkGenerated})
	delete(nonCard, key{pipeline.StagePaymentConfirmed, pipeline.StageLinkGenerated})
	nonCard[key{pipeline.StageOPGenerated, pipeline.StagePaymentConfirmed}] = true
	nonCard[key{pipeline.StagePaymentConfirmed, pipeline.StageOPGenerated}] = true

	tests := []struct {
		name   string
		method string
		legal  map[key]bool
		// conditional names the pairs whose rejection depends on the
		// payment method; every other illegal pair is ILLEGAL_TRANSITION.
		conditional map[key]pipeline.Reason
	}{
		{"card", "cartao", card, map[key]pipeline.Reason{
			{pipeline.StageOPGenerated, pipeline.StagePaymentConfirmed}: pipeline.ReasonCardRequiresLink,
		}},
		{"pix", "pix", nonCard, map[key]pipeline.Reason{
			{pipeline.StageOPGenerated, pipeline.StageLinkGenerated}: pipeline.ReasonNotCardPayment,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, from := range reg.Stages() {
				for _, to := range reg.Stages() {
					rec := opsRecord(string(from.ID), tt.method)
					rec.PaymentLink = pipeline.StringPtr("https://pay.example/abc")
					req := pipeline.Request{
						RecordID: rec.ID,
						From:     from.ID,
						To:       to.ID,
						Payload:  pipeline.Payload{PaymentLink: "https://pay.example/abc"},
					}
					res := pipeline.Authorize(reg, rec, req, operator)
					want := tt.legal[key{from.ID, to.ID}]
					if res.Applied() != want {
						t.Fatalf("%s → %s: applied=%v want %v (%s)", from.ID, to.ID, res.Applied(), want, res.Reason)
					}
					if !want {
						wantReason, ok := tt.conditional[key{from.ID, to.ID}]
						if !ok {
							wantReason = pipeline.ReasonIllegalTransition
						}
						if res.Reason != wantReason {
							t.Fatalf("%s → %s: reason %s, want %s", from.ID, to.ID, res.Reason, wantReason)
						}
					}
					if want && res.Record.Status != string(to.ID) {
						t.Fatalf("%s → %s: status %q", from.ID, to.ID, res.Record.Status)
					}
				}
			}
		})
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("CANCELADO", "pix")
	if moves := pipeline.AvailableMoves(reg, rec); len(moves) != 0 {
		t.Fatalf("expected no moves out of CANCELADO, got %+v", moves)
	}
}

func TestAuthorizeRejectsBadRequests(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("OP_GERADA", "pix")
	tests := []struct {
		name string
		req  pipeline.Request
		want pipeline.Reason
	}{
		{"mismatch", pipeline.Request{RecordID: "other", To: pipeline.StagePaymentConfirmed}, pipeline.ReasonRecordMismatch},
		{"stale", pipeline.Request{From: pipeline.StageInEmission, To: pipeline.StageEmittedByUser}, pipeline.ReasonStaleStage},
		{"unknown", pipeline.Request{To: "VOANDO"}, pipeline.ReasonUnknownStage},
		{"same stage", pipeline.Request{To: pipeline.StageOPGenerated}, pipeline.ReasonIllegalTransition},
		{"skip ahead", pipeline.Request{To: pipeline.StageEmittedByUser}, pipeline.ReasonIllegalTransition},
		{"override without admin", pipeline.Request{To: pipeline.StageEmittedByUser, Override: true}, pipeline.ReasonOverrideForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pipeline.Authorize(reg, rec, tt.req, operator)
			if res.Applied() {
				t.Fatal("expected rejection")
			}
			if res.Reason != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, res.Reason)
			}
		})
	}
}

func TestAdminOverride(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	rec := opsRecord("CANCELADO", "pix")
	admin := session.Actor{UserID: "root", Admin: true}
	res := pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StageInEmission, Override: true}, admin)
	if !res.Applied() || res.Record.Status != string(pipeline.StageInEmission) {
		t.Fatalf("expected override to apply, got %+v", res)
	}
}

func TestUnguardedBoardAllowsAnyStage(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardCommercial)
	rec := pipeline.Record{ID: "c-1", Board: pipeline.BoardCommercial, Status: "Lead"}
	res := pipeline.Authorize(reg, rec, pipeline.Request{To: pipeline.StageCompleted}, session.Anonymous)
	if !res.Applied() {
		t.Fatalf("expected free move, got %s", res.Reason)
	}
	moves := pipeline.AvailableMoves(reg, rec)
	if len(moves) != len(reg.Stages())-1 {
		t.Fatalf("expected %d free moves, got %d", len(reg.Stages())-1, len(moves))
	}
	for _, m := range moves {
		if m.To == pipeline.StageLead {
			t.Fatal("current stage offered as a move")
		}
		if m.Kind != pipeline.MoveFree || m.Label == "" {
			t.Fatalf("unexpected move %+v", m)
		}
	}
}

func TestAvailableMovesLabelsAndRequirements(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	moves := pipeline.AvailableMoves(reg, opsRecord("OP_GERADA", "cartao"))
	if len(moves) != 2 {
		t.Fatalf("expected link and cancel moves, got %+v", moves)
	}
	link := moves[0]
	if link.To != pipeline.StageLinkGenerated || link.Label != "Link Gerado" || link.Kind != pipeline.MoveForward {
		t.Fatalf("unexpected first move %+v", link)
	}
	if len(link.Requires) != 1 || link.Requires[0] != pipeline.FieldPaymentLink {
		t.Fatalf("expected payment link requirement, got %v", link.Requires)
	}
	if moves[1].To != pipeline.StageCancelled || moves[1].Kind != pipeline.MoveCancel {
		t.Fatalf("unexpected second move %+v", moves[1])
	}
}
