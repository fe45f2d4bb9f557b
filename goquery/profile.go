package goquery

// Field locates one value inside a result card.
type Field struct {
	// Selector is relative to the card. Empty selects the card itself.
	Selector string
	// Attr names the attribute holding the value. Empty reads the element text.
	Attr string
}

// Profile describes the markup of one family of directory result pages.
type Profile struct {
	Name string
	// Card matches one element per doctor.
	Card string

	DoctorName  Field
	Specialty   Field
	Address     Field
	Phone       Field
	Insurance   Field
	Languages   Field
	Slots       Field
	Image       Field
	Description Field
	Link        Field

	// Telehealth marks cards for video-only consultations. It is matched
	// against the card itself and its descendants.
	Telehealth string
}

// MicrodataProfile reads schema.org Physician and Dentist microdata.
var MicrodataProfile = Profile{
	Name:        "microdata",
	Card:        `[itemscope][itemtype$="/Physician"], [itemscope][itemtype$="/Dentist"], [itemscope][itemtype$="/MedicalClinic"]`,
	DoctorName:  Field{Selector: `[itemprop="name"]`},
	Specialty:   Field{Selector: `[itemprop="medicalSpecialty"]`},
	Address:     Field{Selector: `[itemprop="address"]`},
	Phone:       Field{Selector: `[itemprop="telephone"]`},
	Insurance:   Field{Selector: `[itemprop="paymentAccepted"]`},
	Languages:   Field{Selector: `[itemprop="knowsLanguage"]`},
	Slots:       Field{Selector: `time[itemprop="availableSlot"]`, Attr: "datetime"},
	Image:       Field{Selector: `img[itemprop="image"]`, Attr: "src"},
	Description: Field{Selector: `[itemprop="description"]`},
	Link:        Field{Selector: `a[itemprop="url"]`, Attr: "href"},
	Telehealth:  `[itemprop="availableService"][content="telehealth"]`,
}

// CardProfile reads the search result cards rendered by appointment
// booking directories.
var CardProfile = Profile{
	Name:        "cards",
	Card:        `.dl-search-result, .search-result-card`,
	DoctorName:  Field{Selector: `.dl-search-result-name, .doctor-name`},
	Specialty:   Field{Selector: `.dl-search-result-subtitle, .doctor-specialty`},
	Address:     Field{Selector: `.dl-search-result-address, address`},
	Phone:       Field{Selector: `a[href^="tel:"]`, Attr: "href"},
	Insurance:   Field{Selector: `.dl-insurance, .insurance-tag`},
	Languages:   Field{Selector: `.dl-language, .language-tag`},
	Slots:       Field{Selector: `.availabilities-slot[data-datetime]`, Attr: "data-datetime"},
	Image:       Field{Selector: `img.dl-avatar, img.doctor-photo`, Attr: "src"},
	Description: Field{Selector: `.dl-search-result-description, .doctor-description`},
	Link:        Field{Selector: `a.dl-search-result-name, a.doctor-link`, Attr: "href"},
	Telehealth:  `.telehealth-badge, .dl-telehealth`,
}

// DataAttributeProfile reads listings annotated with data-* attributes.
var DataAttributeProfile = Profile{
	Name:        "data-attributes",
	Card:        `[data-doctor]`,
	DoctorName:  Field{Selector: `[data-name]`},
	Specialty:   Field{Selector: `[data-specialty]`},
	Address:     Field{Selector: `[data-address]`},
	Phone:       Field{Selector: `[data-phone]`},
	Insurance:   Field{Selector: `[data-insurance]`},
	Languages:   Field{Selector: `[data-language]`},
	Slots:       Field{Selector: `[data-slot]`, Attr: "data-slot"},
	Image:       Field{Selector: `img[data-photo]`, Attr: "src"},
	Description: Field{Selector: `[data-description]`},
	Link:        Field{Selector: `a[data-profile]`, Attr: "href"},
	Telehealth:  `[data-telehealth="true"]`,
}

// NoResultsMarkers match the notice a directory renders for an empty search.
var NoResultsMarkers = []string{
	".dl-search-no-results",
	".search-no-results",
	"[data-no-results]",
	"#no-results",
}
