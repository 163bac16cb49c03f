package extractor

import "strings"

// User-actionable hints matched against lowercase extractor error text.
// Order matters: the first match wins. This is a best-effort heuristic layer
// over free-form extractor phrasing; keep every pattern in this file so a
// structured error contract can replace it wholesale.
const (
	hintUnavailable = "Suggestion: the content is unavailable (private, removed, region- or age-restricted). Try a different link or supply a cookie file."
	hintEmptyFile   = "Suggestion: this can be network blocking or an unavailable format. Try the video download instead, or supply a cookie file."
	hintBadURL      = "Suggestion: the link is invalid or unsupported. Try a direct link to the content."
	hintFacebook    = "Suggestion (Facebook): downloads usually need cookies to work reliably. Set STREAMDL_COOKIES_FILE or place a cookies.txt next to the binary."
)

// Hint maps an extraction failure to a suggestion the user can act on, or ""
// when no pattern applies.
func Hint(errText, url, cookieFile string) string {
	low := strings.ToLower(errText)
	switch {
	case strings.Contains(low, "unavailable"):
		return hintUnavailable
	case strings.Contains(low, "file is empty") || strings.Contains(low, "0 bytes"):
		return hintEmptyFile
	case strings.Contains(low, "unsupported url"):
		return hintBadURL
	case IsCredentialGatedHost(url) && cookieFile == "":
		return hintFacebook
	}
	return ""
}

// IsCredentialGatedHost reports whether the URL belongs to a platform that
// typically refuses anonymous access.
func IsCredentialGatedHost(url string) bool {
	return strings.Contains(strings.ToLower(url), "facebook")
}

// ComposeError builds the terminal error message for a job: root cause,
// optional hint, optional tail of recent extractor log lines.
func ComposeError(base, hint string, logTail []string) string {
	msg := base
	if hint != "" {
		msg += "\n\n" + hint
	}
	if len(logTail) > 0 {
		msg += "\n\nExtractor log:\n" + strings.Join(logTail, "\n")
	}
	return msg
}
