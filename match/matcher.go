// Package match turns directory search results into ranked doctor lists
// and drives the conversation pipeline from utterance to chat turn.
package match

import (
	"context"
	"slices"
	"time"

	"github.com/fwojciec/medimatch"
)

// Ensure Matcher implements medimatch.DoctorFinder at compile time.
var _ medimatch.DoctorFinder = (*Matcher)(nil)

// Matcher normalizes, deduplicates and ranks directory results.
// Given a fixed directory response its output is deterministic.
type Matcher struct {
	Directory medimatch.DoctorDirectory

	// PhoneRegion is the region assumed for numbers without a country code.
	// Defaults to medimatch.DefaultPhoneRegion.
	PhoneRegion string

	// Location interprets slot times without a zone. Defaults to UTC.
	Location *time.Location

	// InsuranceSector applies to queries that do not name one.
	InsuranceSector string
}

// NewMatcher creates a Matcher over the given directory.
func NewMatcher(dir medimatch.DoctorDirectory) *Matcher {
	return &Matcher{Directory: dir}
}

// FindDoctors searches the directory and returns at most q.MaxResults doctors.
// Doctors with open slots are listed first; otherwise the directory's order is kept.
func (m *Matcher) FindDoctors(ctx context.Context, q medimatch.Query) ([]medimatch.Doctor, error) {
	if q.InsuranceSector == "" {
		q.InsuranceSector = m.InsuranceSector
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := m.Directory.Search(ctx, q)
	if err != nil {
		switch medimatch.Classify(err) {
		case medimatch.KindEmpty:
			return nil, medimatch.WrapError(medimatch.ENOMATCHES, "match", err, "no doctors found")
		case medimatch.KindInput:
			return nil, err
		}
		return nil, medimatch.WrapError(medimatch.EUPSTREAM, "match", err, "directory search failed")
	}

	doctors := Rank(Deduplicate(m.normalizeAll(entries, q)))
	if len(doctors) == 0 {
		return nil, medimatch.Errorf(medimatch.ENOMATCHES, "no doctors found")
	}
	if len(doctors) > q.MaxResults {
		doctors = doctors[:q.MaxResults]
	}
	return doctors, nil
}

func (m *Matcher) normalizeAll(entries []medimatch.RawEntry, q medimatch.Query) []medimatch.Doctor {
	doctors := make([]medimatch.Doctor, 0, len(entries))
	for _, e := range entries {
		if d, ok := m.Normalize(e, q); ok {
			doctors = append(doctors, d)
		}
	}
	return doctors
}

// Normalize converts a raw entry into a Doctor.
// Entries without both name and address, and telehealth-only entries, are
// rejected. Unparseable phones and slots are dropped rather than failing
// the entry.
func (m *Matcher) Normalize(e medimatch.RawEntry, q medimatch.Query) (medimatch.Doctor, bool) {
	name := medimatch.CollapseSpace(e.Name)
	address := medimatch.CollapseSpace(e.Address)
	if name == "" && address == "" {
		return medimatch.Doctor{}, false
	}
	if e.Telehealth {
		return medimatch.Doctor{}, false
	}

	d := medimatch.Doctor{
		ID:                medimatch.DoctorID(name, address),
		Name:              name,
		Specialty:         medimatch.CollapseSpace(e.Specialty),
		Address:           address,
		AcceptedInsurance: medimatch.NormalizeSet(e.Insurance),
		AvailableSlots:    m.parseSlots(e.Slots),
		Languages:         medimatch.NormalizeSet(e.Languages),
		ProfileImageURL:   medimatch.CollapseSpace(e.ProfileImage),
		Description:       e.Description,
		SourceURL:         medimatch.CollapseSpace(e.URL),
	}
	if d.Specialty == "" {
		d.Specialty = q.Specialty
	}
	if phone, ok := medimatch.CanonicalPhone(e.Phone, m.PhoneRegion); ok {
		d.Phone = phone
	}
	return d, true
}

func (m *Matcher) parseSlots(raw []string) []time.Time {
	var slots []time.Time
	for _, s := range raw {
		t, err := medimatch.ParseSlot(s, m.Location)
		if err != nil {
			continue
		}
		slots = append(slots, t.UTC())
	}
	return sortSlots(slots)
}

// Deduplicate collapses doctors sharing a normalized (name, address).
// The first-seen doctor keeps its position, name and address. Optional
// fields come from the more populated duplicate (first seen on a tie),
// gaps are filled from the other, and set-valued fields are unioned.
func Deduplicate(doctors []medimatch.Doctor) []medimatch.Doctor {
	out := make([]medimatch.Doctor, 0, len(doctors))
	index := make(map[string]int, len(doctors))
	for _, d := range doctors {
		key := medimatch.IdentityKey(d.Name, d.Address)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, d)
			continue
		}
		out[i] = merge(out[i], d)
	}
	return out
}

func merge(first, dup medimatch.Doctor) medimatch.Doctor {
	primary, secondary := first, dup
	if populated(dup) > populated(first) {
		primary, secondary = dup, first
	}

	merged := medimatch.Doctor{
		ID:                first.ID,
		Name:              first.Name,
		Address:           first.Address,
		Specialty:         pick(primary.Specialty, secondary.Specialty),
		Phone:             pick(primary.Phone, secondary.Phone),
		ProfileImageURL:   pick(primary.ProfileImageURL, secondary.ProfileImageURL),
		Description:       pick(primary.Description, secondary.Description),
		SourceURL:         pick(primary.SourceURL, secondary.SourceURL),
		AcceptedInsurance: medimatch.NormalizeSet(append(slices.Clone(first.AcceptedInsurance), dup.AcceptedInsurance...)),
		Languages:         medimatch.NormalizeSet(append(slices.Clone(first.Languages), dup.Languages...)),
		AvailableSlots:    sortSlots(append(slices.Clone(first.AvailableSlots), dup.AvailableSlots...)),
	}
	return merged
}

// populated counts the optional fields carrying a value.
func populated(d medimatch.Doctor) int {
	n := 0
	for _, s := range []string{d.Phone, d.ProfileImageURL, d.Description, d.SourceURL} {
		if s != "" {
			n++
		}
	}
	for _, l := range []int{len(d.AcceptedInsurance), len(d.AvailableSlots), len(d.Languages)} {
		if l > 0 {
			n++
		}
	}
	return n
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

// sortSlots sorts slots ascending and removes duplicate instants.
func sortSlots(slots []time.Time) []time.Time {
	if len(slots) == 0 {
		return nil
	}
	slices.SortFunc(slots, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(slots, func(a, b time.Time) bool { return a.Equal(b) })
}

// Rank moves doctors with open slots ahead of those without, preserving the
// relative order within each group.
func Rank(doctors []medimatch.Doctor) []medimatch.Doctor {
	ranked := slices.Clone(doctors)
	slices.SortStableFunc(ranked, func(a, b medimatch.Doctor) int {
		switch {
		case a.HasAvailability() == b.HasAvailability():
			return 0
		case a.HasAvailability():
			return -1
		default:
			return 1
		}
	})
	return ranked
}
