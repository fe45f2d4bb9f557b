package mock

import "github.com/fwojciec/medimatch"

var _ medimatch.Converter = (*Converter)(nil)

// Converter is a mock implementation of medimatch.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
