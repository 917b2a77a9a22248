package shared

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics, so "Compra Simbólica" and
// "COMPRA SIMBOLICA" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// collators are pooled; a Collator keeps per-call buffers.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.BrazilianPortuguese, collate.Numeric, collate.IgnoreCase)
	},
}

// CompareNumeric orders strings so embedded digit runs compare by value:
// "R-9" sorts before "R-10".
func CompareNumeric(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a, b)
}
