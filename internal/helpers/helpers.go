package helpers

import (
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"lukechampine.com/blake3"
)

// Characters that are illegal in filenames on common filesystems (Windows
// being the strictest). Control characters below codepoint 32 are handled
// separately.
const invalidFilenameChars = `<>:"/\|?*`

// MaxFilenameRunes bounds sanitized names to keep full paths under the
// Windows MAX_PATH limit.
const MaxFilenameRunes = 140

// SanitizeFilename turns arbitrary title text into a filesystem-safe name.
// Unicode is preserved; illegal and control characters become underscores,
// whitespace runs collapse to single spaces, and leading/trailing spaces and
// dots are trimmed. An empty result falls back to "download".
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 32 || strings.ContainsRune(invalidFilenameChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")
	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" {
		return "download"
	}

	if runes := []rune(cleaned); len(runes) > MaxFilenameRunes {
		cleaned = strings.TrimRight(string(runes[:MaxFilenameRunes]), " .")
		if cleaned == "" {
			return "download"
		}
	}
	return cleaned
}

// DedupePath returns path unchanged if nothing exists there, otherwise the
// first free sibling of the form "name (1)", "name (2)", ... up to 99 probes.
// If every probe is taken the original path is returned and the caller must
// tolerate a possible overwrite.
func DedupePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; i < 100; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
	log.Warnf("Exhausted dedupe probes for %s, reusing original path", path)
	return path
}

// HumanDuration formats a duration in seconds as "m:ss" or "h:mm:ss".
// It returns ok=false for nil, negative, or non-finite input.
func HumanDuration(seconds *float64) (string, bool) {
	if seconds == nil {
		return "", false
	}
	sec := *seconds
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return "", false
	}
	total := int(math.Round(sec))
	m, s := total/60, total%60
	h, m := m/60, m%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s), true
	}
	return fmt.Sprintf("%d:%02d", m, s), true
}

// FileChecksum returns the lowercase hex BLAKE3-256 digest of a file.
func FileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s for checksum: %w", path, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// BytesToSize converts a byte count into a human-readable string (KB, MB, GB, etc.).
func BytesToSize(bytes uint64) string {
	sizes := []string{"B", "KB", "MB", "GB", "TB"}
	if bytes == 0 {
		return "0B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	return fmt.Sprintf("%.2f%s", float64(bytes)/math.Pow(1024, float64(i)), sizes[i])
}

// CheckAndMakeDir ensures a directory exists, creating it if necessary.
func CheckAndMakeDir(dir string) bool {
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.WithError(err).Errorf("Error creating directory %s", dir)
		return false
	}
	return true
}
