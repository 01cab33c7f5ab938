package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/prompts"
	"github.com/jonathan/resume-template/internal/template"
)

// DefaultConcurrency bounds parallel section generations.
const DefaultConcurrency = 4

// ErrEmptySource is returned when there is no material to fill from.
var ErrEmptySource = errors.New("source material is empty")

// Filler fills a template one top-level section at a time.
type Filler struct {
	Client      Client
	Tier        ModelTier
	Concurrency int
	// Repairs is how many times a non-conforming section is sent back.
	Repairs int
	Options conformance.Options
	Logger  zerolog.Logger
}

// NewFiller returns a Filler with default settings.
func NewFiller(client Client, logger zerolog.Logger) *Filler {
	return &Filler{
		Client:      client,
		Tier:        TierStandard,
		Concurrency: DefaultConcurrency,
		Repairs:     1,
		Logger:      logger,
	}
}

// FillResult is a generated document and whatever issues remain after repair.
type FillResult struct {
	Document map[string]any     `json:"document"`
	Issues   conformance.Issues `json:"issues,omitempty"`
}

// Fill generates a document for s from source text. Sections are generated
// concurrently; a section whose model call fails aborts the whole fill.
// Conformance problems do not: they are returned in the result.
func (f *Filler) Fill(ctx context.Context, s *template.Schema, source string) (*FillResult, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	if f.Client == nil {
		return nil, errors.New("filler has no LLM client")
	}
	if s == nil {
		s = template.NewSchema()
	}

	names := s.Keys()
	values := make([]any, len(names))

	limit := f.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, name := range names {
		field, _ := s.Get(name)
		g.Go(func() error {
			v, err := f.fillSection(gctx, name, field, source)
			if err != nil {
				return fmt.Errorf("section %q: %w", name, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := make(map[string]any, len(names))
	for i, name := range names {
		if values[i] != nil {
			doc[name] = values[i]
		}
	}
	issues := conformance.Check(s, doc, f.Options)
	f.Logger.Info().
		Int("sections", len(names)).
		Int("filled", len(doc)).
		Int("issues", len(issues)).
		Msg("template filled")
	return &FillResult{Document: doc, Issues: issues}, nil
}

// BuildFieldPrompt renders the prompt for one top-level section.
func BuildFieldPrompt(name string, f template.Field, source string) (string, error) {
	return prompts.FillField(name, sectionOutline(name, f), source)
}

// BuildRepairPrompt renders the follow-up prompt for a section whose
// previous answer had problems.
func BuildRepairPrompt(name string, f template.Field, problems, previous, source string) (string, error) {
	return prompts.RepairField(name, sectionOutline(name, f), problems, previous, source)
}

func sectionOutline(name string, f template.Field) string {
	single := template.NewSchema()
	single.Set(name, f)
	return template.Outline(single)
}

func (f *Filler) fillSection(ctx context.Context, name string, field template.Field, source string) (any, error) {
	if !generatable(field) {
		if template.IsRequired(field) {
			return emptyValue(field), nil
		}
		return nil, nil
	}
	prompt, err := BuildFieldPrompt(name, field, source)
	if err != nil {
		return nil, err
	}
	schema := SectionSchema(name, field)
	log := f.Logger.With().Str("section", name).Logger()

	tier := f.Tier
	var value any
	for attempt := 0; ; attempt++ {
		log.Debug().Int("attempt", attempt).Str("tier", string(tier)).Msg("generating section")
		text, err := f.Client.GenerateStructured(ctx, prompt, schema, tier)
		if err != nil {
			return nil, err
		}

		var problems string
		value, problems = f.parseSection(name, field, text)
		if problems == "" {
			return value, nil
		}
		if attempt >= f.Repairs {
			log.Warn().Str("problems", problems).Msg("section still does not conform")
			return value, nil
		}

		log.Debug().Str("problems", problems).Msg("repairing section")
		prompt, err = BuildRepairPrompt(name, field, problems, text, source)
		if err != nil {
			return nil, err
		}
		tier = TierAdvanced
	}
}

// parseSection extracts the section value from a model response and lists
// anything wrong with it, one problem per line.
func (f *Filler) parseSection(name string, field template.Field, text string) (any, string) {
	decoded, err := conformance.Decode([]byte(CleanJSONBlock(text)))
	if err != nil {
		return nil, "- the answer is not valid JSON\n"
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Sprintf("- expected an object with the key %q, got %s\n", name, conformance.Kind(decoded))
	}

	value := FoldPairs(field, obj[name])
	if value == nil {
		if template.IsRequired(field) {
			return nil, fmt.Sprintf("- %q is required\n", name)
		}
		return nil, ""
	}

	issues := conformance.CheckField(field, value, template.Root.Field(name), f.Options)
	if len(issues) == 0 {
		return value, ""
	}
	var sb strings.Builder
	for _, is := range issues {
		fmt.Fprintf(&sb, "- %s at %s: %s\n", is.Code, is.Path, is.Message)
	}
	return value, sb.String()
}
