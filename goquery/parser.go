// Package goquery extracts doctor listings from directory result pages.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/medimatch"
)

// Ensure ResultParser implements medimatch.ResultParser at compile time.
var _ medimatch.ResultParser = (*ResultParser)(nil)

// ResultParser implements medimatch.ResultParser using selector profiles.
// Pages that match no profile fail closed with EPARSE.
type ResultParser struct {
	registry  *Registry
	converter medimatch.Converter
}

// NewResultParser creates a ResultParser. A nil registry uses
// DefaultRegistry. A nil converter keeps descriptions as plain text.
func NewResultParser(registry *Registry, converter medimatch.Converter) *ResultParser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &ResultParser{registry: registry, converter: converter}
}

// Parse extracts raw entries from the page.
func (p *ResultParser) Parse(html string, pageURL string) ([]medimatch.RawEntry, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, medimatch.Errorf(medimatch.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, medimatch.WrapError(medimatch.EPARSE, "parse", err, "failed to parse HTML")
	}

	profile, cards, ok := p.registry.Match(doc)
	if !ok {
		if p.registry.HasNoResults(doc) {
			return []medimatch.RawEntry{}, nil
		}
		return nil, medimatch.Errorf(medimatch.EPARSE, "unrecognized results page")
	}

	var entries []medimatch.RawEntry
	recognized := false
	cards.Each(func(_ int, card *goquery.Selection) {
		entry := p.extractEntry(profile, card, base)
		if entry.Name != "" || entry.Address != "" {
			recognized = true
		}
		entries = append(entries, entry)
	})
	if !recognized {
		return nil, medimatch.Errorf(medimatch.EPARSE, "%s cards carry neither name nor address", profile.Name)
	}
	return entries, nil
}

func (p *ResultParser) extractEntry(profile Profile, card *goquery.Selection, base *url.URL) medimatch.RawEntry {
	return medimatch.RawEntry{
		Name:         firstValue(card, profile.DoctorName),
		Specialty:    firstValue(card, profile.Specialty),
		Address:      firstValue(card, profile.Address),
		Phone:        strings.TrimPrefix(firstValue(card, profile.Phone), "tel:"),
		Insurance:    allValues(card, profile.Insurance),
		Languages:    allValues(card, profile.Languages),
		Slots:        allValues(card, profile.Slots),
		Telehealth:   isTelehealth(card, profile.Telehealth),
		ProfileImage: resolveURL(base, firstValue(card, profile.Image)),
		Description:  p.description(card, profile.Description),
		URL:          resolveURL(base, firstValue(card, profile.Link)),
	}
}

// description converts the description markup to markdown, falling back to
// its text when conversion fails.
func (p *ResultParser) description(card *goquery.Selection, f Field) string {
	sel := find(card, f)
	if f.Selector == "" || sel.Length() == 0 {
		return ""
	}
	text := medimatch.CollapseSpace(sel.Text())
	if p.converter == nil || text == "" {
		return text
	}
	inner, err := sel.Html()
	if err != nil {
		return text
	}
	md, err := p.converter.Convert(inner)
	if err != nil {
		return text
	}
	return strings.TrimSpace(md)
}

func find(card *goquery.Selection, f Field) *goquery.Selection {
	if f.Selector == "" {
		return card
	}
	return card.Find(f.Selector)
}

func value(sel *goquery.Selection, f Field) string {
	if f.Attr != "" {
		v, _ := sel.Attr(f.Attr)
		return strings.TrimSpace(v)
	}
	return medimatch.CollapseSpace(sel.Text())
}

func firstValue(card *goquery.Selection, f Field) string {
	if f.Selector == "" && f.Attr == "" {
		return ""
	}
	return value(find(card, f).First(), f)
}

// allValues returns one value per matched element. Comma-separated text is
// split into separate values.
func allValues(card *goquery.Selection, f Field) []string {
	if f.Selector == "" && f.Attr == "" {
		return nil
	}
	var values []string
	find(card, f).Each(func(_ int, sel *goquery.Selection) {
		v := value(sel, f)
		if f.Attr == "" {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					values = append(values, part)
				}
			}
			return
		}
		if v != "" {
			values = append(values, v)
		}
	})
	return values
}

func isTelehealth(card *goquery.Selection, selector string) bool {
	if selector == "" {
		return false
	}
	return card.Is(selector) || card.Find(selector).Length() > 0
}

// resolveURL resolves href against the page URL. Non-HTTP links and
// unparseable values yield an empty string.
func resolveURL(base *url.URL, href string) string {
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
