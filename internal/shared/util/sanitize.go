package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFileName produces a storage-safe key segment from a user-supplied
// file name: accents stripped, anything outside [a-z0-9.-] collapsed to
// underscores, lowercased. This applies to storage keys only; the original
// file name is preserved separately for display, and file content is never
// touched (spelling analysis depends on exact characters).
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}

	s := strings.TrimSpace(name)
	s = stripAccents(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	out = collapseRuns(out, '_')
	out = collapseRuns(out, '.')
	out = strings.Trim(out, "_.")
	if out == "" {
		return "", errors.New("invalid file name")
	}
	return out, nil
}

// OwnerKey returns a filesystem-safe identifier for an owner ID, used to
// namespace storage keys.
func OwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

func stripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseRuns(s string, c byte) string {
	double := string([]byte{c, c})
	single := string(c)
	for strings.Contains(s, double) {
		s = strings.ReplaceAll(s, double, single)
	}
	return s
}
