package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-template/internal/db"
	"github.com/jonathan/resume-template/internal/fetch"
	"github.com/jonathan/resume-template/internal/llm"
	"github.com/jonathan/resume-template/internal/observability"
	"github.com/spf13/cobra"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a template from a profile with an LLM",
	Long:  "Reads source material from a file or an http(s) URL, asks the model for each top-level section of the template and writes the resulting JSON document. Sections that still do not conform after repair are reported but kept.",
	RunE:  runFill,
}

var (
	fillTemplate    string
	fillSource      string
	fillOut         string
	fillTier        string
	fillConcurrency int
	fillRepairs     int
	fillUseBrowser  bool
	fillSkipCache   bool
	fillStrict      bool
)

// newLLMClient is swapped out in tests.
var newLLMClient = func(ctx context.Context, apiKey string) (llm.Client, error) {
	return llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
}

func init() {
	fillCmd.Flags().StringVarP(&fillTemplate, "template", "t", "", "Path to the template (default from config)")
	fillCmd.Flags().StringVarP(&fillSource, "source", "s", "", "Profile file or http(s) URL to fill from (required)")
	fillCmd.Flags().StringVarP(&fillOut, "out", "o", "", "Output document path (default stdout)")
	fillCmd.Flags().StringVar(&fillTier, "tier", "", "Model tier: lite, standard or advanced (default from config)")
	fillCmd.Flags().IntVar(&fillConcurrency, "concurrency", 0, "Sections generated in parallel (default from config)")
	fillCmd.Flags().IntVar(&fillRepairs, "repairs", 1, "Times a non-conforming section is sent back to the model")
	fillCmd.Flags().BoolVar(&fillUseBrowser, "use-browser", false, "Render pages with little static text in a headless browser")
	fillCmd.Flags().BoolVar(&fillSkipCache, "skip-cache", false, "Fetch URLs even when a fresh cached copy exists")
	fillCmd.Flags().BoolVar(&fillStrict, "strict", false, "Fail when the document does not conform")

	_ = fillCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, _ []string) error {
	cfg := current()
	if cfg.APIKey == "" {
		return fmt.Errorf("an API key is required: set GEMINI_API_KEY or api_key in the config")
	}

	s, err := loadTemplate(fillTemplate)
	if err != nil {
		return err
	}

	tierName := fillTier
	if tierName == "" {
		tierName = cfg.ModelTier
	}
	tier, err := llm.ParseTier(tierName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := readSource(ctx, fillSource)
	if err != nil {
		return err
	}
	logger.Debug().Str("source", fillSource).Int("chars", len(source)).Msg("source loaded")

	client, err := newLLMClient(ctx, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	filler := llm.NewFiller(client, logger)
	filler.Tier = tier
	filler.Repairs = fillRepairs
	filler.Options.AllowUnknownKeys = cfg.AllowUnknownKeys
	switch {
	case fillConcurrency > 0:
		filler.Concurrency = fillConcurrency
	case cfg.Concurrency > 0:
		filler.Concurrency = cfg.Concurrency
	}

	res, err := filler.Fill(ctx, s, source)
	if err != nil {
		return err
	}
	logger.Info().Int("sections", len(res.Document)).Int("issues", len(res.Issues)).Msg("template filled")

	data, err := marshalDocument(s, res.Document)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, fillOut, data); err != nil {
		return err
	}

	if cfg.Verbose {
		p := observability.NewPrinter(cmd.ErrOrStderr())
		p.PrintFillResult(s, res)
		p.PrintIssues(res.Issues)
	} else {
		for _, iss := range res.Issues {
			logger.Warn().Str("path", iss.Path).Str("code", iss.Code).Msg(iss.Message)
		}
	}
	if fillStrict && len(res.Issues) > 0 {
		return fmt.Errorf("filled document does not conform: %w", res.Issues)
	}
	return nil
}

// readSource reads ref through the page cache when a database is configured.
func readSource(ctx context.Context, ref string) (string, error) {
	cfg := current()
	opts := fetch.DefaultSourceOptions()
	opts.UseBrowser = fillUseBrowser || cfg.UseBrowser
	opts.Logger = logger

	var cache fetch.SourceCache
	if cfg.DatabaseURL != "" && fetch.IsURL(ref) {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return "", fmt.Errorf("failed to migrate database: %w", err)
		}
		cache = database
	}

	fetcher := fetch.NewCachedFetcher(cache, &fetch.CachedFetcherConfig{
		SkipCache: fillSkipCache,
		Options:   opts,
	})
	return fetcher.Read(ctx, ref)
}
