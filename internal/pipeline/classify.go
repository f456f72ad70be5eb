package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents removes combining marks, turning "LANÇADO" into "LANCADO".
func FoldAccents(value string) string {
	// transform chains carry state; build one per call.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, value)
	if err != nil {
		return value
	}
	return out
}

// Normalize folds a raw status into the comparison form used by the
// classifier: accents stripped, uppercased, and every run of punctuation or
// whitespace collapsed into a single space with no leading/trailing space.
func Normalize(value string) string {
	upper := strings.ToUpper(FoldAccents(value))
	var b strings.Builder
	b.Grow(len(upper))
	pendingSpace := false
	for _, r := range upper {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func compactKey(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "")
}

// Classify maps a raw status onto exactly one registered stage. Statuses that
// match no id, label, or synonym land on the registry default so records
// never drop off the board.
func (r *Registry) Classify(status string) StageID {
	id, _ := r.lookup(status)
	return id
}

// Recognized reports whether status matched a stage without falling back.
func (r *Registry) Recognized(status string) bool {
	_, ok := r.lookup(status)
	return ok
}

// Resolve maps operator input such as "link_gerado" or "Pagamento
// Confirmado" onto a stage id. Unlike Classify it does not fall back to the
// default stage: unmatched input comes back trimmed so Authorize can reject
// it as unknown. Blank input stays blank.
func (r *Registry) Resolve(input string) StageID {
	if id, ok := r.lookup(input); ok {
		return id
	}
	return StageID(strings.TrimSpace(input))
}

func (r *Registry) lookup(status string) (StageID, bool) {
	key := Normalize(status)
	if key == "" {
		return r.defaultStage, false
	}
	if id, ok := r.synonyms[key]; ok {
		return id, true
	}
	if id, ok := r.compact[compactKey(key)]; ok {
		return id, true
	}
	return r.defaultStage, false
}

// ClassifyRecord is Classify applied to a record's status.
func (r *Registry) ClassifyRecord(rec Record) StageID {
	return r.Classify(rec.Status)
}
