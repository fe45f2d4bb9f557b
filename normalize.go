package medimatch

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/cespare/xxhash/v2"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultPhoneRegion is the region assumed for phone numbers without a country code.
const DefaultPhoneRegion = "DE"

// slotLayouts are tried before falling back to dateparse so that the common
// ISO forms never depend on heuristics.
var slotLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// CollapseSpace trims s and replaces every run of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IdentityKey returns the comparison key used to deduplicate doctors.
// Comparison is case-insensitive and whitespace-collapsed.
func IdentityKey(name, address string) string {
	return strings.ToLower(CollapseSpace(name)) + "\x00" + strings.ToLower(CollapseSpace(address))
}

// DoctorID derives a stable identifier from a doctor's name and address.
func DoctorID(name, address string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(IdentityKey(name, address)))
}

// CanonicalPhone formats raw as an E.164 number.
// Returns false when raw is not a valid number for region.
func CanonicalPhone(raw, region string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// ParseSlot parses an availability string. Strings without a zone are
// interpreted in loc.
func ParseSlot(raw string, loc *time.Location) (time.Time, error) {
	raw = CollapseSpace(raw)
	if raw == "" {
		return time.Time{}, Errorf(EINVALID, "empty slot")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range slotLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, WrapError(EINVALID, "slot", err, "unrecognized slot %q", raw)
	}
	return t, nil
}

// NormalizeSet trims, deduplicates and sorts a set of labels.
// Returns nil when no label survives.
func NormalizeSet(values []string) []string {
	var out []string
	for _, v := range values {
		v = CollapseSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// Slugify converts s into a lowercase URL path segment.
// Diacritics on Latin letters are folded ("Köln" becomes "koln"), letters
// of other scripts are kept as they are, and every run of other characters
// becomes a single hyphen.
func Slugify(s string) string {
	s = foldLatin(strings.ReplaceAll(strings.ToLower(s), "ß", "ss"))

	var sb strings.Builder
	pendingHyphen := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return sb.String()
}

// foldLatin strips combining marks that follow an ASCII letter. Marks on
// other scripts (Cyrillic й, Greek ή, Japanese dakuten) are significant and kept.
func foldLatin(s string) string {
	var base rune
	drop := runes.Predicate(func(r rune) bool {
		if !unicode.Is(unicode.Mn, r) {
			base = r
			return false
		}
		return base < unicode.MaxASCII
	})
	t := transform.Chain(norm.NFD, runes.Remove(drop), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
