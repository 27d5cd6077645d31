package extractor

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure HTML implements the interface.
var _ driven.Extractor = (*HTML)(nil)

// HTML extracts readable text from saved web pages as a single page.
type HTML struct{}

// NewHTML creates an HTML extractor.
func NewHTML() *HTML {
	return &HTML{}
}

// Name returns the extractor name.
func (e *HTML) Name() string {
	return "html"
}

// Extensions returns the handled file extensions.
func (e *HTML) Extensions() []string {
	return []string{".html", ".htm"}
}

// Extract strips markup and returns the visible text.
func (e *HTML) Extract(_ context.Context, filename string, data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrIO, filename)
	}
	return []string{stripHTML(string(data))}, nil
}

// Pre-compiled expressions, applied in order.
var (
	invisibleTags = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}
	blockBoundary = regexp.MustCompile(
		`(?i)</?(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>|<br\s*/?>|<hr\s*/?>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	multiSpaces = regexp.MustCompile(`[ \t]+`)
)

// stripHTML keeps one line per block of visible text. Blank lines between
// blocks are preserved as paragraph breaks for the chunker.
func stripHTML(content string) string {
	for _, re := range invisibleTags {
		content = re.ReplaceAllString(content, "")
	}
	content = blockBoundary.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n")
}
