package upload

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"
)

// GenerateFilename derives a storage key from the document title: the title
// is slugified, suffixed with 8 random hex characters to avoid collisions,
// and given the validated extension.
func GenerateFilename(title, ext string) string {
	slug := slugify(title)
	if slug == "" {
		slug = "document"
	}
	return slug + "-" + randomHex(4) + "." + ext
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '-':
			b.WriteRune('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
