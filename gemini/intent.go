// Package gemini implements intent parsing with Google Gemini.
package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/medimatch"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for intent extraction.
const DefaultModel = "gemini-2.5-flash"

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 20 * time.Second

// Ensure IntentParser implements medimatch.IntentParser at compile time.
var _ medimatch.IntentParser = (*IntentParser)(nil)

// IntentParser implements medimatch.IntentParser using Google Gemini.
type IntentParser struct {
	client     *genai.Client
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
func NewIntentParser(client *genai.Client, opts ...Option) *IntentParser {
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

// ParseIntent extracts a Query from the utterance with a single model call.
func (p *IntentParser) ParseIntent(ctx context.Context, utterance string) (medimatch.Query, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return medimatch.Query{}, medimatch.Errorf(medimatch.EEMPTYINPUT, "utterance required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(utterance, genai.RoleUser)},
		BuildConfig(),
	)
	if err != nil {
		return medimatch.Query{}, medimatch.WrapError(medimatch.EUPSTREAM, "intent", err, "gemini request failed")
	}
	if result == nil {
		return medimatch.Query{}, medimatch.Errorf(medimatch.EUPSTREAM, "gemini returned nil result")
	}

	return medimatch.QueryFromModelOutput(result.Text(), p.maxResults)
}

// BuildConfig returns the GenerateContentConfig for intent extraction.
// The response is constrained to the intent JSON object.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: medimatch.IntentInstructions}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"recommended_specialty": {Type: genai.TypeString},
				"location":              {Type: genai.TypeString},
				"languages_found": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString, Enum: medimatch.Languages},
				},
			},
			Required: []string{"recommended_specialty", "location", "languages_found"},
		},
	}
}
