package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/medimatch"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Parser medimatch.IntentParser
	Finder medimatch.DoctorFinder
	JSON   bool

	// MaxResults bounds searches issued without the language model.
	MaxResults int

	// Location is the zone slot times are shown in. Defaults to UTC.
	Location *time.Location

	// InsuranceSector filters searches issued without the language model.
	InsuranceSector string

	// Now returns the current time for chat turns. Defaults to time.Now.
	Now func() time.Time
}

// renderer returns a Renderer for the command's output settings.
func (d *Dependencies) renderer() *Renderer {
	r := NewRenderer(d.Stdout, d.JSON)
	r.Location = d.Location
	return r
}

// Config holds settings shared by all commands. Every setting can also be
// supplied through its environment variable.
type Config struct {
	DirectoryURL string        `name:"directory-url" env:"MEDIMATCH_DIRECTORY_URL" help:"Base URL of the doctor directory"`
	LLM          string        `name:"llm" env:"MEDIMATCH_LLM" enum:"gemini,openai" default:"gemini" help:"Language model provider (gemini, openai)"`
	GeminiAPIKey string        `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key"`
	OpenAIAPIKey string        `name:"openai-api-key" env:"OPENAI_API_KEY" help:"OpenAI API key"`
	Model        string        `name:"model" env:"MEDIMATCH_MODEL" help:"Override the language model"`
	Browser      bool          `name:"browser" env:"MEDIMATCH_BROWSER" help:"Render directory pages in headless Chrome"`
	Cache        string        `name:"cache" env:"MEDIMATCH_CACHE" help:"SQLite file caching directory results (empty disables)"`
	CacheTTL     time.Duration `name:"cache-ttl" env:"MEDIMATCH_CACHE_TTL" default:"6h" help:"How long cached results stay fresh"`
	PhoneRegion  string        `name:"phone-region" env:"MEDIMATCH_PHONE_REGION" default:"DE" help:"Region assumed for phone numbers without a country code"`
	MaxResults   int           `name:"max-results" env:"MEDIMATCH_MAX_RESULTS" default:"10" help:"Maximum doctors per answer (1-50)"`
	Insurance    string        `name:"insurance" env:"MEDIMATCH_INSURANCE" enum:"public,private" default:"public" help:"Insurance sector doctors must accept (public, private)"`
	Timezone     string        `name:"timezone" env:"MEDIMATCH_TIMEZONE" default:"Europe/Berlin" help:"Time zone for appointment slots"`
	Timeout      time.Duration `name:"timeout" env:"MEDIMATCH_TIMEOUT" default:"15s" help:"Directory request timeout"`
	Verbose      bool          `short:"v" name:"verbose" env:"MEDIMATCH_VERBOSE" help:"Log service calls to stderr"`
	JSON         bool          `name:"json" help:"Print results as JSON"`
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config `embed:""`

	Chat   ChatCmd   `cmd:"" help:"Chat with the assistant to find a doctor"`
	Find   FindCmd   `cmd:"" help:"Find doctors for a single request"`
	Search SearchCmd `cmd:"" help:"Search the directory without the language model"`
}

// ChatCmd is the "chat" subcommand.
type ChatCmd struct{}

// FindCmd is the "find" subcommand.
type FindCmd struct {
	Request string `arg:"" help:"Symptoms and location, e.g. \"rash on my arm, Berlin Mitte\""`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Specialty string   `arg:"" help:"Medical specialty"`
	Location  string   `arg:"" help:"City or neighborhood"`
	Languages []string `short:"l" name:"language" help:"Language code the doctor speaks (repeatable, e.g. gb, fr)"`
}
