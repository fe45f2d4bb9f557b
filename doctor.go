package medimatch

import (
	"context"
	"time"
)

// RawEntry is an unnormalized doctor record scraped from a directory page.
// All fields hold text as extracted from the page markup.
type RawEntry struct {
	Name         string   `json:"name"`
	Specialty    string   `json:"specialty,omitempty"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Insurance    []string `json:"insurance,omitempty"`
	Slots        []string `json:"slots,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	Telehealth   bool     `json:"telehealth,omitempty"`
	ProfileImage string   `json:"profileImage,omitempty"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Doctor is a normalized practitioner returned to the user.
type Doctor struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Specialty         string      `json:"specialty,omitempty"`
	Address           string      `json:"address"`
	Phone             string      `json:"phone,omitempty"`
	AcceptedInsurance []string    `json:"acceptedInsurance"`
	AvailableSlots    []time.Time `json:"availableSlots"`
	Languages         []string    `json:"languages,omitempty"`
	ProfileImageURL   string      `json:"profileImageUrl,omitempty"`
	Description       string      `json:"description,omitempty"`
	SourceURL         string      `json:"sourceUrl"`
}

// HasAvailability reports whether the doctor has at least one open slot.
func (d *Doctor) HasAvailability() bool {
	return len(d.AvailableSlots) > 0
}

// NextSlot returns the earliest available slot, if any.
func (d *Doctor) NextSlot() (time.Time, bool) {
	if len(d.AvailableSlots) == 0 {
		return time.Time{}, false
	}
	return d.AvailableSlots[0], true
}

// DoctorDirectory searches an external doctor directory.
type DoctorDirectory interface {
	// Search issues a single bounded request for the query.
	// Returns ENETWORK when the directory is unreachable, ENORESULTS for a
	// valid page without results and EPARSE when the page is unrecognized.
	Search(ctx context.Context, q Query) ([]RawEntry, error)
}

// DoctorFinder turns a query into a ranked list of doctors.
type DoctorFinder interface {
	// FindDoctors returns at most q.MaxResults doctors.
	// Returns ENOMATCHES when nothing usable was found and EUPSTREAM
	// wrapping the directory error when the search failed.
	FindDoctors(ctx context.Context, q Query) ([]Doctor, error)
}

// ResultParser extracts raw entries from a directory results page.
type ResultParser interface {
	// Parse returns the entries on the page. pageURL resolves relative links.
	// An empty slice with a nil error means the page reported no results.
	Parse(html string, pageURL string) ([]RawEntry, error)
}
