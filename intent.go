package medimatch

import (
	"encoding/json"
	"slices"
	"strings"
)

// IntentInstructions is the system instruction given to the language model.
const IntentInstructions = `You are an assistant that helps users find the right medical specialist based on their symptoms and preferences.

Your tasks:
1. Analyze the user's description of their symptoms or health concern.
2. Determine the most appropriate medical specialty that would handle these symptoms.
3. Extract the following information:
   - recommended_specialty: the most relevant medical specialty (e.g. "dermatologist", "cardiologist", "general practitioner")
   - location: city, district, or place name where the doctor should be located
   - languages_found: list of language codes requested by the user

If the description is vague or could apply to multiple specialties, recommend a general practitioner.
If the user did not mention a location, return an empty string for location.

For languages_found use only these codes: de (German), gb (English), ar (Arabic), cn (Chinese),
es (Spanish), fr (French), gr (Greek), it (Italian), jp (Japanese), sgn (Sign language),
fa (Persian), pl (Polish), pt (Portuguese), ro (Romanian), ru (Russian), tr (Turkish), ua (Ukrainian).

Return ONLY a JSON object with the keys recommended_specialty, location, languages_found.

Example:
User: "I have a toothache and need to see someone in Berlin who speaks German and English"
{"recommended_specialty": "dentist", "location": "Berlin", "languages_found": ["de", "gb"]}`

// Languages lists the language codes a directory search can filter on.
var Languages = []string{
	"ar", "cn", "de", "es", "fa", "fr", "gb", "gr", "it",
	"jp", "pl", "pt", "ro", "ru", "sgn", "tr", "ua",
}

// Intent is the structured response expected from the language model.
type Intent struct {
	Specialty  string   `json:"recommended_specialty"`
	Location   string   `json:"location"`
	Languages  []string `json:"languages_found"`
	MaxResults *int     `json:"max_results,omitempty"`
}

// DecodeIntent decodes raw model output into an Intent.
// Markdown code fences around the JSON object are tolerated.
// Returns EUPSTREAM if the output is not a well-formed intent object.
func DecodeIntent(text string) (*Intent, error) {
	body := StripCodeFence(text)
	if body == "" {
		return nil, Errorf(EUPSTREAM, "model returned an empty response")
	}

	var intent Intent
	if err := json.Unmarshal([]byte(body), &intent); err != nil {
		return nil, WrapError(EUPSTREAM, "intent", err, "model returned malformed intent")
	}
	return &intent, nil
}

// Query validates the intent and converts it into a Query.
// A missing specialty falls back to DefaultSpecialty; a missing location is
// reported as EMISSINGLOCATION. Unknown language codes are dropped.
func (i *Intent) Query(maxResults int) (Query, error) {
	location := CollapseSpace(i.Location)
	if location == "" {
		return Query{}, Errorf(EMISSINGLOCATION, "no location found in request")
	}

	specialty := CollapseSpace(i.Specialty)
	if specialty == "" {
		specialty = DefaultSpecialty
	}

	if i.MaxResults != nil && *i.MaxResults > 0 {
		maxResults = *i.MaxResults
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	maxResults = min(maxResults, MaxResultsLimit)

	languages, _ := FilterLanguages(i.Languages)

	q := Query{
		Specialty:  specialty,
		Location:   location,
		MaxResults: maxResults,
		Languages:  languages,
	}
	return q, q.Validate()
}

// FilterLanguages lowercases codes and splits them into codes found in
// Languages, deduplicated in input order, and codes that are not.
func FilterLanguages(codes []string) (known, unknown []string) {
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		switch {
		case code == "":
		case !slices.Contains(Languages, code):
			unknown = append(unknown, code)
		case !slices.Contains(known, code):
			known = append(known, code)
		}
	}
	return known, unknown
}

// QueryFromModelOutput decodes and validates raw model output in one step.
func QueryFromModelOutput(text string, maxResults int) (Query, error) {
	intent, err := DecodeIntent(text)
	if err != nil {
		return Query{}, err
	}
	return intent.Query(maxResults)
}

// StripCodeFence removes a surrounding markdown code fence (``` or ```json).
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop the language tag on the opening fence line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	return strings.TrimSpace(s)
}
