package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/medimatch"
)

// Ensure LoggingDirectory implements medimatch.DoctorDirectory.
var _ medimatch.DoctorDirectory = (*LoggingDirectory)(nil)

// LoggingDirectory wraps a DoctorDirectory with logging.
type LoggingDirectory struct {
	next   medimatch.DoctorDirectory
	logger *slog.Logger
}

// NewLoggingDirectory creates a new LoggingDirectory.
func NewLoggingDirectory(next medimatch.DoctorDirectory, logger *slog.Logger) *LoggingDirectory {
	return &LoggingDirectory{next: next, logger: logger}
}

// Search delegates to the wrapped directory and logs the number of entries.
func (d *LoggingDirectory) Search(ctx context.Context, q medimatch.Query) (entries []medimatch.RawEntry, err error) {
	defer func(begin time.Time) {
		d.logger.Info("directory search",
			"specialty", q.Specialty,
			"count", len(entries),
			"code", medimatch.ErrorCode(err),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return d.next.Search(ctx, q)
}

// Ensure LoggingFinder implements medimatch.DoctorFinder.
var _ medimatch.DoctorFinder = (*LoggingFinder)(nil)

// LoggingFinder wraps a DoctorFinder with logging.
type LoggingFinder struct {
	next   medimatch.DoctorFinder
	logger *slog.Logger
}

// NewLoggingFinder creates a new LoggingFinder.
func NewLoggingFinder(next medimatch.DoctorFinder, logger *slog.Logger) *LoggingFinder {
	return &LoggingFinder{next: next, logger: logger}
}

// FindDoctors delegates to the wrapped finder and logs the result size.
func (f *LoggingFinder) FindDoctors(ctx context.Context, q medimatch.Query) (doctors []medimatch.Doctor, err error) {
	defer func(begin time.Time) {
		available := 0
		for i := range doctors {
			if doctors[i].HasAvailability() {
				available++
			}
		}
		f.logger.Info("find doctors",
			"specialty", q.Specialty,
			"max", q.MaxResults,
			"count", len(doctors),
			"available", available,
			"code", medimatch.ErrorCode(err),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return f.next.FindDoctors(ctx, q)
}
