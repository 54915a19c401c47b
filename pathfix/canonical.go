package pathfix

import (
	"path"
	"strings"
)

// substitutions folds accented letters and punctuation to ASCII.
var substitutions = map[rune]string{
	' ': "_",
	'é': "e", 'è': "e", 'ê': "e", 'ë': "e",
	'à': "a", 'â': "a", 'ä': "a",
	'ù': "u", 'û': "u", 'ü': "u",
	'î': "i", 'ï': "i",
	'ô': "o", 'ö': "o",
	'É': "E", 'È': "E", 'Ê': "E", 'Ë': "E",
	'À': "A", 'Â': "A", 'Ä': "A",
	'Ù': "U", 'Û': "U", 'Ü': "U",
	'Î': "I", 'Ï': "I",
	'Ô': "O", 'Ö': "O",
	'ç': "c", 'Ç': "C",
	'œ': "oe", 'Œ': "OE",
	'æ': "ae", 'Æ': "AE",
	'[': "_", ']': "_",
	'(': "_", ')': "_",
	'{': "_", '}': "_",
	'’': "_", '\'': "_",
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '-', r == '/', r == '\\':
		return true
	}
	return false
}

// Canonical returns the repaired form of a path or file name: substitutions
// first, then lower case, then removal of every rune outside [a-z0-9_.-/\].
// Adjacent runes that all substitute to '_' produce a single '_'.
// Canonical is idempotent.
func Canonical(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	underscoreRun := false
	for _, r := range s {
		sub, ok := substitutions[r]
		if !ok {
			sb.WriteRune(r)
			underscoreRun = false
			continue
		}
		if sub == "_" {
			if !underscoreRun {
				sb.WriteString(sub)
			}
			underscoreRun = true
			continue
		}
		sb.WriteString(sub)
		underscoreRun = false
	}

	lowered := strings.ToLower(sb.String())

	sb.Reset()
	for _, r := range lowered {
		if allowed(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NeedsRepair reports whether the last element of p differs from its
// canonical form.
func NeedsRepair(p string) bool {
	base := path.Base(p)
	return base != Canonical(base)
}
