// Package export renders parsed reports for delivery outside the
// service: the narrative as HTML and the annotated essay as plain text
// with its correction markup stripped.
package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/gradeband/examiner/internal/domain"
)

// markerTags matches the inline correction markup the model embeds in
// the annotated essay, such as <del> and <ins class="...">.
var markerTags = regexp.MustCompile(`<[^>]+>`)

// HTML renders the report narrative from markdown to HTML.
func HTML(report domain.ParsedReport) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(report.Narrative), &buf); err != nil {
		return "", fmt.Errorf("render narrative: %w", err)
	}
	return buf.String(), nil
}

// PlainAnnotated returns the annotated essay with every marker tag
// removed. Deleted and inserted text both survive the strip; only the
// markup goes.
func PlainAnnotated(report domain.ParsedReport) string {
	return strings.TrimSpace(markerTags.ReplaceAllString(report.AnnotatedEssay, ""))
}
