// Package normalize enthält die Schlüssel- und Slug-Funktionen, mit denen
// Namen aus den Altdaten verglichen und in URL-Pfade übersetzt werden.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// StripDiacritics entfernt kombinierende Zeichen (z.B. "Ș" -> "S").
func StripDiacritics(s string) string {
	// Transformer halten Zustand, daher pro Aufruf neu bauen.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Key liefert den Vergleichsschlüssel eines Namens: ohne Diakritika,
// kleingeschrieben, nur Buchstaben und Ziffern. Zwei Namen gelten als gleich,
// wenn ihre Schlüssel gleich sind.
func Key(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(StripDiacritics(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Slug erzeugt einen URL-tauglichen Slug aus freiem Text.
func Slug(s string) string {
	s = strings.TrimSpace(strings.ToLower(StripDiacritics(s)))
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	out := whitespaceRun.ReplaceAllString(strings.TrimSpace(b.String()), "-")
	out = hyphenRun.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// StableSlug ist Slug mit Ersatz für Namen ohne lateinische Zeichen
// ("Иван Иванов"): dann wird aus dem Schlüssel ein kurzer, deterministischer
// Hash gebildet, damit verschiedene Namen nie auf denselben Slug fallen.
// Leer nur, wenn der Name weder Buchstaben noch Ziffern enthält.
func StableSlug(s string) string {
	if slug := Slug(s); slug != "" {
		return slug
	}
	key := Key(s)
	if key == "" {
		return ""
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	return "n-" + strings.ReplaceAll(id.String(), "-", "")[:12]
}
