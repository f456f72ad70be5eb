package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "voucher.pdf", "voucher.pdf"},
		{"separators", "a/b\\c:d*e.pdf", "a-b-c-d-e.pdf"},
		{"removed", `what?"<>|.txt`, "what.txt"},
		{"parent dir", "../../etc/passwd", "-..-etc-passwd"},
		{"hidden", ".env", "env"},
		{"dots only", "..", ""},
		{"control runes", "a\x00b\nc.pdf", "abc.pdf"},
		{"blank", "   ", ""},
		{"accents kept", "Passagem São Paulo.pdf", "Passagem São Paulo.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.input); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"operacoes", "operacoes"},
		{"Em Emissão", "em_emiss_o"},
		{"--x--", "x"},
		{"", "unknown"},
		{"!!!", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.input); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
