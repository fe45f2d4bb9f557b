package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/medimatch"
	"github.com/fwojciec/medimatch/match"
)

// Run executes the search command. Unknown language codes are skipped with
// a warning. A search without matches is reported but is not an error.
func (c *SearchCmd) Run(deps *Dependencies) error {
	languages, unknown := medimatch.FilterLanguages(c.Languages)
	if len(unknown) > 0 {
		fmt.Fprintf(deps.Stderr, "warning: ignoring unknown language codes: %s (known: %s)\n",
			strings.Join(unknown, ", "), strings.Join(medimatch.Languages, ", "))
	}

	q := medimatch.Query{
		Specialty:       medimatch.CollapseSpace(c.Specialty),
		Location:        medimatch.CollapseSpace(c.Location),
		MaxResults:      deps.MaxResults,
		Languages:       languages,
		InsuranceSector: deps.InsuranceSector,
	}
	if q.MaxResults == 0 {
		q.MaxResults = medimatch.DefaultMaxResults
	}
	if err := q.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", medimatch.ErrorMessage(err))
		return err
	}

	out := deps.renderer()
	doctors, err := deps.Finder.FindDoctors(deps.Ctx, q)
	if medimatch.Classify(err) == medimatch.KindEmpty {
		if deps.JSON {
			return out.Doctors([]medimatch.Doctor{})
		}
		_, err := fmt.Fprintln(deps.Stdout, match.MessageNoDoctors)
		return err
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", medimatch.ErrorMessage(err))
		return err
	}

	return out.Doctors(doctors)
}
