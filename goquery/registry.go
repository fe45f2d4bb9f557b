package goquery

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Registry holds selector profiles in priority order and picks the one
// matching a results page.
type Registry struct {
	profiles []Profile
	markers  []string
}

// NewRegistry creates a Registry trying the given profiles in order.
func NewRegistry(profiles ...Profile) *Registry {
	return &Registry{
		profiles: slices.Clone(profiles),
		markers:  slices.Clone(NoResultsMarkers),
	}
}

// DefaultRegistry returns a Registry with the built-in profiles.
func DefaultRegistry() *Registry {
	return NewRegistry(MicrodataProfile, CardProfile, DataAttributeProfile)
}

// Register adds a profile after the existing ones.
// A profile with the same name is replaced in place.
func (r *Registry) Register(p Profile) {
	for i := range r.profiles {
		if r.profiles[i].Name == p.Name {
			r.profiles[i] = p
			return
		}
	}
	r.profiles = append(r.profiles, p)
}

// Get returns the profile registered under name.
func (r *Registry) Get(name string) (Profile, bool) {
	for _, p := range r.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// List returns the registered profile names in priority order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.profiles))
	for _, p := range r.profiles {
		names = append(names, p.Name)
	}
	return names
}

// Match returns the first profile whose card selector matches the document,
// together with the matched cards.
func (r *Registry) Match(doc *goquery.Document) (Profile, *goquery.Selection, bool) {
	for _, p := range r.profiles {
		cards := doc.Find(p.Card)
		if cards.Length() > 0 {
			return p, cards, true
		}
	}
	return Profile{}, nil, false
}

// HasNoResults reports whether the document carries an empty-search notice.
func (r *Registry) HasNoResults(doc *goquery.Document) bool {
	for _, marker := range r.markers {
		if doc.Find(marker).Length() > 0 {
			return true
		}
	}
	return false
}

// WaitSelector returns a selector list matching any result card or
// empty-search notice. A renderer waits for it before reading the page.
func (r *Registry) WaitSelector() string {
	selectors := make([]string, 0, len(r.profiles)+len(r.markers))
	for _, p := range r.profiles {
		selectors = append(selectors, p.Card)
	}
	selectors = append(selectors, r.markers...)
	return strings.Join(selectors, ", ")
}
