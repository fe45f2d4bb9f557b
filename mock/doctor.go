package mock

import (
	"context"

	"github.com/fwojciec/medimatch"
)

var (
	_ medimatch.DoctorDirectory = (*DoctorDirectory)(nil)
	_ medimatch.DoctorFinder    = (*DoctorFinder)(nil)
	_ medimatch.ResultParser    = (*ResultParser)(nil)
)

// DoctorDirectory is a mock implementation of medimatch.DoctorDirectory.
type DoctorDirectory struct {
	SearchFn func(ctx context.Context, q medimatch.Query) ([]medimatch.RawEntry, error)
}

func (d *DoctorDirectory) Search(ctx context.Context, q medimatch.Query) ([]medimatch.RawEntry, error) {
	return d.SearchFn(ctx, q)
}

// DoctorFinder is a mock implementation of medimatch.DoctorFinder.
type DoctorFinder struct {
	FindDoctorsFn func(ctx context.Context, q medimatch.Query) ([]medimatch.Doctor, error)
}

func (f *DoctorFinder) FindDoctors(ctx context.Context, q medimatch.Query) ([]medimatch.Doctor, error) {
	return f.FindDoctorsFn(ctx, q)
}

// ResultParser is a mock implementation of medimatch.ResultParser.
type ResultParser struct {
	ParseFn func(html string, pageURL string) ([]medimatch.RawEntry, error)
}

func (p *ResultParser) Parse(html string, pageURL string) ([]medimatch.RawEntry, error) {
	return p.ParseFn(html, pageURL)
}
