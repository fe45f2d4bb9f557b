// Package openai implements intent parsing with the OpenAI chat completions API.
package openai

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/medimatch"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used for intent extraction.
const DefaultModel = openai.GPT4oMini

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 20 * time.Second

// Ensure IntentParser implements medimatch.IntentParser at compile time.
var _ medimatch.IntentParser = (*IntentParser)(nil)

// IntentParser implements medimatch.IntentParser using OpenAI.
type IntentParser struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxResults int
}

// Option configures an IntentParser.
type Option func(*IntentParser)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(p *IntentParser) {
		if model != "" {
			p.model = model
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *IntentParser) {
		p.timeout = d
	}
}

// WithMaxResults sets the result bound used when the model supplies none.
func WithMaxResults(n int) Option {
	return func(p *IntentParser) {
		p.maxResults = n
	}
}

// NewIntentParser creates a new IntentParser.
func NewIntentParser(client *openai.Client, opts ...Option) *IntentParser {
	p := &IntentParser{
		client:     client,
		model:      DefaultModel,
		timeout:    DefaultTimeout,
		maxResults: medimatch.DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseIntent extracts a Query from the utterance with a single completion.
func (p *IntentParser) ParseIntent(ctx context.Context, utterance string) (medimatch.Query, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return medimatch.Query{}, medimatch.Errorf(medimatch.EEMPTYINPUT, "utterance required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, BuildRequest(p.model, utterance))
	if err != nil {
		return medimatch.Query{}, medimatch.WrapError(medimatch.EUPSTREAM, "intent", err, "openai request failed")
	}
	if len(resp.Choices) == 0 {
		return medimatch.Query{}, medimatch.Errorf(medimatch.EUPSTREAM, "openai returned no choices")
	}

	return medimatch.QueryFromModelOutput(resp.Choices[0].Message.Content, p.maxResults)
}

// BuildRequest returns the completion request for an utterance.
func BuildRequest(model, utterance string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: medimatch.IntentInstructions},
			{Role: openai.ChatMessageRoleUser, Content: utterance},
		},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}
