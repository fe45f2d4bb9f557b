// Package slog provides logging decorators for medimatch services.
// Decorators log outcomes and timings. They never log user utterances or
// anything derived from them, such as locations or search URLs.
package slog

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/medimatch"
)

// Ensure LoggingFetcher implements medimatch.Fetcher.
var _ medimatch.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   medimatch.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next medimatch.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the host being fetched and delegates to the wrapped fetcher.
// The path and query carry the search terms and are left out.
func (f *LoggingFetcher) Fetch(ctx context.Context, rawURL string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"host", host(rawURL),
			"bytes", len(html),
			"code", medimatch.ErrorCode(err),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return f.next.Fetch(ctx, rawURL)
}

func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
