package mock

import (
	"context"

	"github.com/fwojciec/medimatch"
)

var _ medimatch.IntentParser = (*IntentParser)(nil)

// IntentParser is a mock implementation of medimatch.IntentParser.
type IntentParser struct {
	ParseIntentFn func(ctx context.Context, utterance string) (medimatch.Query, error)
}

func (p *IntentParser) ParseIntent(ctx context.Context, utterance string) (medimatch.Query, error) {
	return p.ParseIntentFn(ctx, utterance)
}
