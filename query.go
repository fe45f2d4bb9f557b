package medimatch

import (
	"context"
	"strings"
)

// DefaultMaxResults bounds a result list when the model does not specify one.
const DefaultMaxResults = 10

// MaxResultsLimit is the largest result list a query may request.
const MaxResultsLimit = 50

// DefaultSpecialty is used when the model could not settle on a specialty.
const DefaultSpecialty = "general practitioner"

// Insurance sectors a directory can filter doctors by.
const (
	InsurancePublic  = "public"
	InsurancePrivate = "private"
)

// Query is a structured doctor search derived from an utterance.
type Query struct {
	Specialty  string   `json:"specialty"`
	Location   string   `json:"location"`
	MaxResults int      `json:"maxResults"`
	Languages  []string `json:"languages,omitempty"`

	// InsuranceSector restricts results to doctors accepting public or
	// private insurance. Empty means no filter.
	InsuranceSector string `json:"insuranceSector,omitempty"`
}

// Validate returns an error if the query cannot be dispatched.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Specialty) == "" {
		return Errorf(EINVALID, "query specialty required")
	}
	if strings.TrimSpace(q.Location) == "" {
		return Errorf(EMISSINGLOCATION, "query location required")
	}
	if q.MaxResults < 1 || q.MaxResults > MaxResultsLimit {
		return Errorf(EINVALID, "query max results must be between 1 and %d", MaxResultsLimit)
	}
	switch q.InsuranceSector {
	case "", InsurancePublic, InsurancePrivate:
	default:
		return Errorf(EINVALID, "unknown insurance sector %q", q.InsuranceSector)
	}
	return nil
}

// IntentParser turns a natural-language utterance into a Query.
type IntentParser interface {
	// ParseIntent extracts specialty and location from the utterance.
	// Returns EEMPTYINPUT for blank input, EMISSINGLOCATION when no location
	// could be resolved and EUPSTREAM when the model call fails.
	ParseIntent(ctx context.Context, utterance string) (Query, error)
}
