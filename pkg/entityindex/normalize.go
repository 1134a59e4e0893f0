package entityindex

import (
	"strings"
	"unicode"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// Normalize canonicalizes a raw entity value: lowercase, trim, collapse
// whitespace and punctuation variants, singularize simple plurals, then
// map through the type-scoped synonym table. Normalizing an already
// canonical value returns it unchanged.
func Normalize(entityType types.EntityType, raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}

	v = collapse(v)
	v = singularize(v)

	if canon, ok := synonymTable[entityType][v]; ok {
		return canon
	}
	return v
}

// NormalizeEntity returns a copy of e with its value canonicalized.
func NormalizeEntity(e types.Entity) types.Entity {
	return types.Entity{Type: e.Type, Value: Normalize(e.Type, e.Value)}
}

// collapse rewrites runs of whitespace and connecting punctuation
// (hyphen, underscore, slash) into single spaces, dropping any other
// punctuation except the characters that matter in playa addresses
// (':', '&', '@').
func collapse(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	space := false
	for _, r := range v {
		switch {
		case unicode.IsSpace(r), r == '-', r == '_', r == '/':
			space = true
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ':', r == '&', r == '@':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// singularize strips simple English plural suffixes from the final word.
// It is intentionally conservative: only -ies, -es after sibilants, and a
// trailing -s are handled; irregular plurals belong in the synonym table.
func singularize(v string) string {
	words := strings.Split(v, " ")
	last := words[len(words)-1]
	words[len(words)-1] = singularizeWord(last)
	return strings.Join(words, " ")
}

func singularizeWord(w string) string {
	switch {
	case len(w) > 3 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "shes") || strings.HasSuffix(w, "ches")):
		return w[:len(w)-2]
	case len(w) > 3 && (strings.HasSuffix(w, "sses") || strings.HasSuffix(w, "xes")):
		return w[:len(w)-2]
	case len(w) > 2 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us"):
		return w[:len(w)-1]
	}
	return w
}
