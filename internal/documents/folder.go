package documents

import (
	"strings"
	"unicode"

	"agencyboard/internal/pipeline"
)

// FolderName derives the storage folder for a client display name: accents
// are stripped, characters other than letters, digits and spaces are
// removed, and runs of spaces become single underscores.
// "João da Silva & Cia." becomes "Joao_da_Silva_Cia".
func FolderName(display string) string {
	folded := pipeline.FoldAccents(display)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '_' || unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}
