package medimatch

// Converter converts HTML fragments to Markdown.
type Converter interface {
	// Convert transforms an HTML fragment, such as a doctor's profile
	// description, into Markdown suitable for terminal display.
	Convert(html string) (string, error)
}
