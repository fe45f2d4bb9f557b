package http

import (
	"context"
	"net/url"
	"time"

	"github.com/fwojciec/medimatch"
)

// Ensure Directory implements medimatch.DoctorDirectory at compile time.
var _ medimatch.DoctorDirectory = (*Directory)(nil)

// Directory searches a doctor directory website by fetching its results
// page and parsing the listings. Each search issues exactly one request.
type Directory struct {
	BaseURL string
	Fetcher medimatch.Fetcher
	Parser  medimatch.ResultParser
	Limiter medimatch.HostLimiter

	// Timeout bounds the rate limit wait and the fetch together.
	// Defaults to DefaultFetchTimeout.
	Timeout time.Duration
}

// NewDirectory creates a Directory rooted at baseURL.
func NewDirectory(baseURL string, fetcher medimatch.Fetcher, parser medimatch.ResultParser, limiter medimatch.HostLimiter) *Directory {
	return &Directory{
		BaseURL: baseURL,
		Fetcher: fetcher,
		Parser:  parser,
		Limiter: limiter,
		Timeout: DefaultFetchTimeout,
	}
}

// Search fetches and parses the results page for q.
func (d *Directory) Search(ctx context.Context, q medimatch.Query) ([]medimatch.RawEntry, error) {
	searchURL, err := SearchURL(d.BaseURL, q)
	if err != nil {
		return nil, err
	}
	u, _ := url.Parse(searchURL)

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, medimatch.WrapError(medimatch.ENETWORK, "directory", err, "rate limit wait for %s", u.Host)
		}
	}

	html, err := d.Fetcher.Fetch(ctx, searchURL)
	if err != nil {
		if medimatch.ErrorCode(err) == medimatch.ENETWORK {
			return nil, err
		}
		return nil, medimatch.WrapError(medimatch.ENETWORK, "directory", err, "fetching %s", searchURL)
	}

	entries, err := d.Parser.Parse(html, searchURL)
	if err != nil {
		if medimatch.ErrorCode(err) == medimatch.EPARSE {
			return nil, err
		}
		return nil, medimatch.WrapError(medimatch.EPARSE, "directory", err, "parsing %s", searchURL)
	}
	if len(entries) == 0 {
		return nil, medimatch.Errorf(medimatch.ENORESULTS, "no results for %s in %s", q.Specialty, q.Location)
	}
	return entries, nil
}

// SearchURL builds the results page URL for q:
// <base>/<specialty-slug>/<location-slug>?insurance_sector=<sector>&language=<code>...
func SearchURL(baseURL string, q medimatch.Query) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", medimatch.Errorf(medimatch.EINVALID, "invalid directory URL %q", baseURL)
	}

	specialty := medimatch.Slugify(q.Specialty)
	location := medimatch.Slugify(q.Location)
	if specialty == "" || location == "" {
		return "", medimatch.Errorf(medimatch.EINVALID, "query has no searchable specialty or location")
	}

	u := base.JoinPath(specialty, location)
	params := url.Values{}
	if q.InsuranceSector != "" {
		params.Set("insurance_sector", q.InsuranceSector)
	}
	for _, lang := range q.Languages {
		params.Add("language", lang)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}
