package helpers

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Marker characters characteristic of UTF-8 text mis-decoded as
// Windows-1252/Latin-1 (e.g. "â€™" where "’" was meant).
var mojibakeMarkers = []string{"â", "Ã", "ð"}

var mojibakeCharmaps = []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1}

// FixMojibake repairs common mis-decoded text heuristically. Text without
// marker characters is returned unchanged. Otherwise each candidate legacy
// encoding is tried (re-encode, then decode as UTF-8, dropping what does not
// map) and the variant with the fewest remaining markers wins; the original
// wins ties.
func FixMojibake(text string) string {
	if text == "" {
		return text
	}
	best, bestScore := text, markerCount(text)
	if bestScore == 0 {
		return text
	}
	for _, cm := range mojibakeCharmaps {
		candidate := decodeUTF8Lossy(encodeCharmapLossy(text, cm))
		if score := markerCount(candidate); score < bestScore {
			best, bestScore = candidate, score
		}
	}
	return best
}

func markerCount(s string) int {
	n := 0
	for _, m := range mojibakeMarkers {
		n += strings.Count(s, m)
	}
	return n
}

// encodeCharmapLossy maps each rune to its single-byte representation in the
// given charmap, skipping runes the charmap cannot express.
func encodeCharmapLossy(s string, cm *charmap.Charmap) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := cm.EncodeRune(r); ok {
			out = append(out, b)
		}
	}
	return out
}

// decodeUTF8Lossy decodes bytes as UTF-8, skipping invalid sequences.
func decodeUTF8Lossy(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			b = b[1:]
			continue
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
