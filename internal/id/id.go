package id

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// Fold lower-cases s, strips diacritics and collapses whitespace, so that
// "Press  Pallof" and "press pállof" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = multiSpace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Slug converts a name to lowercase kebab-case ASCII, max 40 chars.
func Slug(name string) string {
	s := nonAlnum.ReplaceAllString(Fold(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = strings.TrimRight(s[:40], "-")
	}
	return s
}

// RoutineID builds rt-YYYYMMDD-<user-slug>-NNNN where NNNN is xxhash(seed)%10000.
func RoutineID(dateISO, userID string, seedInput []byte) string {
	d := strings.ReplaceAll(dateISO, "-", "")
	h := xxhash.Sum64(seedInput) % 10000
	return fmt.Sprintf("rt-%s-%s-%04d", d, Slug(userID), h)
}

// ChunkID is the stable identity of a reference chunk: same source and text,
// same ID.
func ChunkID(source, text string) string {
	d := xxhash.New()
	_, _ = d.WriteString(source)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(text)
	return fmt.Sprintf("%016x", d.Sum64())
}
