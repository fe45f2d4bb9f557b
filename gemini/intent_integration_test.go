//go:build integration

package gemini_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/medimatch/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestIntentParser_Integration_ExtractsSpecialtyAndLocation(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	require.NoError(t, err)

	parser := gemini.NewIntentParser(client)

	q, err := parser.ParseIntent(ctx, "I have a rash on my arm and need someone in Munich who speaks English")

	require.NoError(t, err)
	assert.Contains(t, q.Location, "Munich")
	assert.NotEmpty(t, q.Specialty)
	assert.Contains(t, q.Languages, "gb")
}
