package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/medimatch"
)

// Ensure LoggingIntentParser implements medimatch.IntentParser.
var _ medimatch.IntentParser = (*LoggingIntentParser)(nil)

// LoggingIntentParser wraps an IntentParser with logging.
// Only the extracted specialty is logged.
type LoggingIntentParser struct {
	next   medimatch.IntentParser
	logger *slog.Logger
}

// NewLoggingIntentParser creates a new LoggingIntentParser.
func NewLoggingIntentParser(next medimatch.IntentParser, logger *slog.Logger) *LoggingIntentParser {
	return &LoggingIntentParser{next: next, logger: logger}
}

// ParseIntent delegates to the wrapped parser and logs the outcome.
func (p *LoggingIntentParser) ParseIntent(ctx context.Context, utterance string) (q medimatch.Query, err error) {
	defer func(begin time.Time) {
		p.logger.Info("parse intent",
			"specialty", q.Specialty,
			"languages", len(q.Languages),
			"code", medimatch.ErrorCode(err),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.ParseIntent(ctx, utterance)
}
