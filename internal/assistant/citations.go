package assistant

import (
	"regexp"
	"strings"
)

// citationPattern matches the inline file_search citation markers the
// model copies out of retrieved documents, e.g. 【3:1†source】.
var citationPattern = regexp.MustCompile(`【\d+:\d+†source】`)

// StripCitations removes file_search citation markers from text and trims
// leading/trailing whitespace. Applying it twice yields the same result
// as applying it once.
func StripCitations(text string) string {
	return strings.TrimSpace(citationPattern.ReplaceAllString(text, ""))
}
