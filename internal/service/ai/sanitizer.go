package ai

import (
	"regexp"
	"strings"
)

// The sanitizer strips recognized steering markers that leaked from the
// system instruction into generated text. It is a heuristic safety net over
// a known marker vocabulary, not a completeness guarantee.
var (
	bracketMarkerRe = regexp.MustCompile(`(?is)\[\s*system[^\]]*\]`)
	metadataLineRe  = regexp.MustCompile(`(?im)^[ \t]*meta-?data[ \t]*:.*$`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// Sanitize removes leaked internal markers from raw model output and trims
// the result. Input without markers comes back unchanged apart from
// surrounding whitespace.
func Sanitize(raw string) string {
	cleaned := bracketMarkerRe.ReplaceAllString(raw, "")
	cleaned = metadataLineRe.ReplaceAllString(cleaned, "")
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
