package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/medimatch"
	"github.com/fwojciec/medimatch/gemini"
	"github.com/fwojciec/medimatch/goquery"
	"github.com/fwojciec/medimatch/htmltomarkdown"
	mmhttp "github.com/fwojciec/medimatch/http"
	"github.com/fwojciec/medimatch/match"
	mmopenai "github.com/fwojciec/medimatch/openai"
	"github.com/fwojciec/medimatch/rod"
	mmslog "github.com/fwojciec/medimatch/slog"
	"github.com/fwojciec/medimatch/sqlite"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Stdin feeds the chat command.
	Stdin io.Reader

	// Services for end-to-end testing. When set they replace the
	// configured language model and directory.
	IntentParser medimatch.IntentParser
	Directory    medimatch.DoctorDirectory
	Now          func() time.Time

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Stdin: os.Stdin}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("medimatch"),
		kong.Description("Describe your symptoms and location; medimatch finds matching doctors."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'medimatch --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]
	cfg := cli.Config

	if err := m.validate(cfg, cmd != "search"); err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return medimatch.WrapError(medimatch.EINVALID, "config", err, "unknown time zone %q", cfg.Timezone)
	}

	logger := newLogger(cfg.Verbose, stderr)
	deps.JSON = cfg.JSON
	deps.MaxResults = cfg.MaxResults
	deps.Location = loc
	deps.InsuranceSector = cfg.Insurance

	directory, err := m.directory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	matcher := match.NewMatcher(directory)
	matcher.PhoneRegion = cfg.PhoneRegion
	matcher.Location = loc
	matcher.InsuranceSector = cfg.Insurance
	deps.Finder = mmslog.NewLoggingFinder(matcher, logger)

	if cmd != "search" {
		intentParser, err := m.intentParser(ctx, cfg, stderr)
		if err != nil {
			return err
		}
		deps.Parser = mmslog.NewLoggingIntentParser(intentParser, logger)
	}

	return kongCtx.Run(deps)
}

// validate reports missing or invalid configuration before any session starts.
func (m *Main) validate(cfg Config, needsLLM bool) error {
	if m.Directory == nil {
		if cfg.DirectoryURL == "" {
			return medimatch.Errorf(medimatch.EINVALID, "MEDIMATCH_DIRECTORY_URL not set. Set it or pass --directory-url")
		}
		if _, err := mmhttp.SearchURL(cfg.DirectoryURL, medimatch.Query{Specialty: "x", Location: "x"}); err != nil {
			return medimatch.Errorf(medimatch.EINVALID, "invalid directory URL %q: must be an absolute http(s) URL", cfg.DirectoryURL)
		}
	}
	if cfg.MaxResults < 1 || cfg.MaxResults > medimatch.MaxResultsLimit {
		return medimatch.Errorf(medimatch.EINVALID, "max results must be between 1 and %d", medimatch.MaxResultsLimit)
	}
	if !needsLLM || m.IntentParser != nil {
		return nil
	}
	switch cfg.LLM {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return medimatch.Errorf(medimatch.EINVALID, "OPENAI_API_KEY not set. Get a key at https://platform.openai.com/api-keys")
		}
	default:
		if cfg.GeminiAPIKey == "" {
			return medimatch.Errorf(medimatch.EINVALID, "GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}
	}
	return nil
}

// directory wires fetcher, parser, rate limiter and cache into a
// DoctorDirectory.
func (m *Main) directory(ctx context.Context, cfg Config, logger *slog.Logger) (medimatch.DoctorDirectory, error) {
	var directory medimatch.DoctorDirectory = mmslog.NewLoggingDirectory(m.webDirectory(cfg, logger), logger)
	if cfg.Cache == "" {
		return directory, nil
	}

	db := sqlite.NewDB(cfg.Cache)
	if err := db.Open(); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("failed to open cache at %q: %w", cfg.Cache, err)
	}
	m.closers = append(m.closers, db)

	cache := sqlite.NewDirectoryCache(db, directory, cfg.CacheTTL)
	cache.Logger = logger
	if n, err := cache.Prune(ctx); err != nil {
		logger.Warn("prune cache", "err", err)
	} else if n > 0 {
		logger.Info("prune cache", "removed", n)
	}
	return cache, nil
}

// webDirectory returns the directory searched over HTTP, or the injected one.
func (m *Main) webDirectory(cfg Config, logger *slog.Logger) medimatch.DoctorDirectory {
	if m.Directory != nil {
		return m.Directory
	}

	registry := goquery.DefaultRegistry()

	var fetcher medimatch.Fetcher
	if cfg.Browser {
		fetcher = rod.NewFetcher(
			rod.WithFetchTimeout(cfg.Timeout),
			rod.WithWaitSelector(registry.WaitSelector()),
		)
	} else {
		fetcher = mmhttp.NewFetcher(mmhttp.WithTimeout(cfg.Timeout))
	}
	m.closers = append(m.closers, fetcher)

	dir := mmhttp.NewDirectory(
		cfg.DirectoryURL,
		mmslog.NewLoggingFetcher(fetcher, logger),
		goquery.NewResultParser(registry, htmltomarkdown.NewConverter()),
		mmhttp.NewHostLimiter(mmhttp.DefaultRequestsPerSecond),
	)
	dir.Timeout = cfg.Timeout
	return dir
}

// intentParser builds the language model client for the configured provider.
func (m *Main) intentParser(ctx context.Context, cfg Config, stderr io.Writer) (medimatch.IntentParser, error) {
	if m.IntentParser != nil {
		return m.IntentParser, nil
	}

	switch cfg.LLM {
	case "openai":
		client := openai.NewClient(cfg.OpenAIAPIKey)
		return mmopenai.NewIntentParser(client,
			mmopenai.WithModel(cfg.Model),
			mmopenai.WithMaxResults(cfg.MaxResults),
		), nil
	default:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return gemini.NewIntentParser(client,
			gemini.WithModel(cfg.Model),
			gemini.WithMaxResults(cfg.MaxResults),
		), nil
	}
}

// newLogger returns a text logger on stderr when verbose, otherwise a
// logger that discards everything.
func newLogger(verbose bool, stderr io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
