// Package htmltomarkdown converts doctor profile descriptions to Markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/medimatch"
)

// Ensure Converter implements medimatch.Converter at compile time.
var _ medimatch.Converter = (*Converter)(nil)

// DefaultMaxLength bounds a converted description, in runes.
const DefaultMaxLength = 600

var blankLines = regexp.MustCompile(`\n{3,}`)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv      *converter.Converter
	maxLength int
}

// Option configures a Converter.
type Option func(*Converter)

// WithMaxLength truncates output longer than n runes. Zero disables truncation.
func WithMaxLength(n int) Option {
	return func(c *Converter) {
		c.maxLength = n
	}
}

// NewConverter creates a new Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert transforms an HTML fragment into Markdown.
// Runs of blank lines are collapsed and the result is truncated on a word
// boundary when it exceeds the configured length.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", medimatch.Errorf(medimatch.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", medimatch.WrapError(medimatch.EPARSE, "markdown", err, "failed to convert description")
	}

	result = strings.TrimSpace(blankLines.ReplaceAllString(result, "\n\n"))
	return truncate(result, c.maxLength), nil
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := string([]rune(s)[:n])
	if i := strings.LastIndexAny(cut, " \n"); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
