package pipeline_test

import (
	"testing"

	"agencyboard/internal/pipeline"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"lançado", "LANCADO"},
		{"  em_emissão ", "EM EMISSAO"},
		{"OP-GERADA", "OP GERADA"},
		{"pagamento__confirmado", "PAGAMENTO CONFIRMADO"},
		{"Cancelado / Erro", "CANCELADO ERRO"},
		{"Emitido (7C)", "EMITIDO 7C"},
	}
	for _, tt := range tests {
		if got := pipeline.Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyOperations(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	tests := []struct {
		status string
		want   pipeline.StageID
	}{
		{"OP_GERADA", pipeline.StageOPGenerated},
		{"op gerada", pipeline.StageOPGenerated},
		{"link-gerado", pipeline.StageLinkGenerated},
		{"Pagamento Confirmado", pipeline.StagePaymentConfirmed},
		{"em emissão", pipeline.StageInEmission},
		{"EMITIDO", pipeline.StageEmittedByUser},
		{"emitido_7c", pipeline.StageEmittedByCompany},
		{"EMITIDO7C", pipeline.StageEmittedByCompany},
		{"Emitido 7C", pipeline.StageEmittedByCompany},
		{"erro", pipeline.StageCancelled},
		{"", pipeline.StageOPGenerated},
		{"something unexpected", pipeline.StageOPGenerated},
	}
	for _, tt := range tests {
		if got := reg.Classify(tt.status); got != tt.want {
			t.Fatalf("Classify(%q) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestClassifyLegacyApprovalSynonyms(t *testing.T) {
	quotes := pipeline.MustRegistry(pipeline.BoardQuotations)
	for _, status := range []string{"Aprovada", "EMITIDO", "LANÇADO", "aprovado", "lancado"} {
		if got := quotes.Classify(status); got != pipeline.StageQuoteApproved {
			t.Fatalf("quotations: Classify(%q) = %s, want %s", status, got, pipeline.StageQuoteApproved)
		}
	}

	commercial := pipeline.MustRegistry(pipeline.BoardCommercial)
	want := commercial.Classify("Aprovada")
	if want != pipeline.StageCompleted {
		t.Fatalf("commercial: expected Aprovada to fold into %s, got %s", pipeline.StageCompleted, want)
	}
	for _, status := range []string{"EMITIDO", "LANÇADO"} {
		if got := commercial.Classify(status); got != want {
			t.Fatalf("commercial: Classify(%q) = %s, want %s", status, got, want)
		}
	}
}

func TestClassifyIsTotalAndIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "\t\n", "lead", "LEAD", "Lead!!", "???", "ç", "12345",
		"reunião agendada", "REUNIAO_AGENDADA", "contrato", "Perdido", "x-y-z",
		"OP_GERADA", "EM_EMISSAO", "emitido", "emitido 7c", "cancelado", "nova",
		"Aprovada", "LANÇADO", "recusada", " LINK ", "💥",
	}
	for _, board := range pipeline.Boards() {
		reg := pipeline.MustRegistry(board)
		for _, input := range inputs {
			id := reg.Classify(input)
			if !reg.Has(id) {
				t.Fatalf("%s: Classify(%q) returned unregistered %q", board, input, id)
			}
			again := reg.Classify(pipeline.Normalize(string(id)))
			if again != id {
				t.Fatalf("%s: classification of %q not idempotent: %s then %s", board, input, id, again)
			}
		}
		for _, st := range reg.Stages() {
			if got := reg.Classify(string(st.ID)); got != st.ID {
				t.Fatalf("%s: canonical id %s classified as %s", board, st.ID, got)
			}
			if got := reg.Classify(st.Label); got != st.ID {
				t.Fatalf("%s: label %q classified as %s", board, st.Label, got)
			}
		}
	}
}

func TestRecognized(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardCommercial)
	if !reg.Recognized("contato inicial") {
		t.Fatal("expected known status to be recognized")
	}
	if reg.Recognized("mystery") {
		t.Fatal("expected unknown status to fall back")
	}
	if reg.Recognized("") {
		t.Fatal("expected empty status to fall back")
	}
}

func TestResolve(t *testing.T) {
	reg := pipeline.MustRegistry(pipeline.BoardOperations)
	tests := []struct {
		in   string
		want pipeline.StageID
	}{
		{"op_gerada", pipeline.StageOPGenerated},
		{"link_gerado", pipeline.StageLinkGenerated},
		{"Pagamento Confirmado", pipeline.StagePaymentConfirmed},
		{"emitido 7c", pipeline.StageEmittedByCompany},
		{"  NAO_EXISTE ", "NAO_EXISTE"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := reg.Resolve(tt.in); got != tt.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsCardPayment(t *testing.T) {
	tests := map[string]bool{
		"cartao":            true,
		"Cartão":            true,
		"cartão de crédito": true,
		"CREDIT_CARD":       true,
		"pix":               false,
		"boleto":            false,
		"":                  false,
	}
	for method, want := range tests {
		if got := pipeline.IsCardPayment(method); got != want {
			t.Fatalf("IsCardPayment(%q) = %v, want %v", method, got, want)
		}
	}
}
