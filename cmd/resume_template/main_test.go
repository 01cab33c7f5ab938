package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-template/internal/config"
	"github.com/jonathan/resume-template/internal/llm"
)

const (
	testTemplate = "testdata/resume.json"
	validDoc     = "testdata/valid_document.json"
	invalidDoc   = "testdata/invalid_document.json"
)

// reset restores every package-level flag and setting between tests.
func reset(t *testing.T) {
	t.Helper()
	configFile, verbose = "", false
	settings, logger = nil, zerolog.Nop()

	lintMeta = false
	convertTo = ""
	exportJSONSchemaOut = ""
	checkTemplate, checkAllowUnknownKeys, checkFailFast = "", false, false
	checkJSON, checkJSONSchema, checkSchemaFile = false, false, ""
	fillTemplate, fillSource, fillOut, fillTier = "", "", "", ""
	fillConcurrency, fillRepairs = 0, 1
	fillUseBrowser, fillSkipCache, fillStrict = false, false, false
	renderTemplate, renderFormat, renderLatexTemplate, renderOut = "", "", "", ""
	renderEngine, renderForce = "chrome", false
	servePort = 0
}

// withSettings installs cfg as the loaded configuration.
func withSettings(t *testing.T, mutate func(*config.Config)) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Template = testTemplate
	if mutate != nil {
		mutate(&cfg)
	}
	settings = &cfg
}

// run invokes a command's run function with captured output.
func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())
	err := fn(cmd, args)
	return out.String(), err
}

func TestLoadSettings(t *testing.T) {
	reset(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("template: "+testTemplate+"\nrender_format: html\n"), 0644))
	configFile, verbose = path, true

	require.NoError(t, loadSettings(&cobra.Command{}, nil))
	assert.Equal(t, testTemplate, current().Template)
	assert.Equal(t, "html", current().RenderFormat)
	assert.Equal(t, "standard", current().ModelTier)
	assert.True(t, current().Verbose)
}

func TestLoadSettings_InvalidConfig(t *testing.T) {
	reset(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render_format: docx\n"), 0644))
	configFile = path

	err := loadSettings(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RenderFormat")
}

func TestCurrent_DefaultsWithoutSettings(t *testing.T) {
	reset(t)
	assert.Equal(t, config.Defaults(), *current())
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"lint", "check", "export-jsonschema", "convert", "outline", "fill", "render", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestLint(t *testing.T) {
	reset(t)
	out, err := run(t, runLint, testTemplate)
	require.NoError(t, err)
	assert.Equal(t, "testdata/resume.json: ok (5 fields)\n", out)
}

func TestLint_UsesConfiguredTemplate(t *testing.T) {
	reset(t)
	withSettings(t, nil)
	out, err := run(t, runLint)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestLint_MetaSchema(t *testing.T) {
	reset(t)
	lintMeta = true
	_, err := run(t, runLint, testTemplate)
	require.NoError(t, err)
}

func TestLint_BrokenTemplate(t *testing.T) {
	reset(t)
	_, err := run(t, runLint, "testdata/broken_template.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array field requires items")
}

func TestLint_Verbose(t *testing.T) {
	reset(t)
	withSettings(t, func(c *config.Config) { c.Verbose = true })
	out, err := run(t, runLint, testTemplate)
	require.NoError(t, err)
	assert.Contains(t, out, "TEMPLATE IS VALID")
}

func TestLint_NoTemplate(t *testing.T) {
	reset(t)
	_, err := run(t, runLint)
	require.Error(t, err)
}

func TestOutline(t *testing.T) {
	reset(t)
	out, err := run(t, runOutline, testTemplate)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "name (String, required)", lines[0])
	assert.Contains(t, out, "experience (Array, arrangeable)")
	assert.Contains(t, out, "skills (Object, open map of String)")
	assert.Less(t, strings.Index(out, "contact"), strings.Index(out, "summary"))
}

func TestConvert_RoundTrip(t *testing.T) {
	reset(t)
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "resume.yaml")
	jsonPath := filepath.Join(dir, "resume.json")

	_, err := run(t, runConvert, testTemplate, yamlPath)
	require.NoError(t, err)
	_, err = run(t, runConvert, yamlPath, jsonPath)
	require.NoError(t, err)

	out, err := run(t, runOutline, jsonPath)
	require.NoError(t, err)
	want, err := run(t, runOutline, testTemplate)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestConvert_Stdout(t *testing.T) {
	reset(t)
	out, err := run(t, runConvert, testTemplate)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "name:"), out)

	convertTo = "json"
	out, err = run(t, runConvert, testTemplate)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), out)

	convertTo = "toml"
	_, err = run(t, runConvert, testTemplate)
	require.Error(t, err)
}

func TestExportJSONSchema(t *testing.T) {
	reset(t)
	out, err := run(t, runExportJSONSchema, testTemplate)
	require.NoError(t, err)
	assert.Contains(t, out, `"$schema": "http://json-schema.org/draft-07/schema#"`)
	assert.Contains(t, out, `"required"`)
}

func TestExportJSONSchema_ThenCheckAgainstFile(t *testing.T) {
	reset(t)
	schemaPath := filepath.Join(t.TempDir(), "resume.schema.json")
	exportJSONSchemaOut = schemaPath
	_, err := run(t, runExportJSONSchema, testTemplate)
	require.NoError(t, err)

	checkTemplate = testTemplate
	checkSchemaFile = schemaPath
	_, err = run(t, runCheck, validDoc)
	require.NoError(t, err)
}

func TestCheck_Conforms(t *testing.T) {
	reset(t)
	checkTemplate = testTemplate
	checkJSONSchema = true
	out, err := run(t, runCheck, validDoc)
	require.NoError(t, err)
	assert.Equal(t, "testdata/valid_document.json: conforms\n", out)
}

func TestCheck_ReportsIssues(t *testing.T) {
	reset(t)
	checkTemplate = testTemplate
	out, err := run(t, runCheck, invalidDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not conform")

	assert.Contains(t, out, "/name: required")
	assert.Contains(t, out, "/contact/fax: unknown_key")
	assert.Contains(t, out, "/experience/0/title: invalid_type")
	assert.Contains(t, out, "/skills/math: invalid_additional")
}

func TestCheck_AllowUnknownKeysAndFailFast(t *testing.T) {
	reset(t)
	checkTemplate = testTemplate
	checkAllowUnknownKeys = true
	out, err := run(t, runCheck, invalidDoc)
	require.Error(t, err)
	assert.NotContains(t, out, "unknown_key")

	checkFailFast = true
	out, err = run(t, runCheck, invalidDoc)
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestCheck_JSONOutput(t *testing.T) {
	reset(t)
	checkTemplate = testTemplate
	checkJSON = true
	out, err := run(t, runCheck, validDoc)
	require.NoError(t, err)
	assert.Contains(t, out, `"conforms": true`)
}

func TestCheck_JSONSchemaDisagreement(t *testing.T) {
	reset(t)
	checkTemplate = testTemplate
	checkJSONSchema = true
	_, err := run(t, runCheck, invalidDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON Schema validation failed")
}

func TestCheck_MissingSchemaFile(t *testing.T) {
	reset(t)
	checkTemplate = testTemplate
	checkSchemaFile = "testdata/nope.schema.json"
	_, err := run(t, runCheck, validDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

func TestCommands_RejectInvalidTemplates(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}
	openMap := write("open_map.json", `{"name": {"type": "String"}, "skills": {"type": "Object", "additionalProperties": {"type": "Object"}}}`)
	unnamed := write("unnamed.json", `{"": {"type": "String"}}`)

	for _, path := range []string{openMap, unnamed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			reset(t)
			_, err := run(t, runExportJSONSchema, path)
			require.Error(t, err)

			checkTemplate = path
			_, err = run(t, runCheck, validDoc)
			require.Error(t, err)

			renderTemplate = path
			_, err = run(t, runRender, validDoc)
			require.Error(t, err)
		})
	}

	reset(t)
	_, err := run(t, runExportJSONSchema, openMap)
	assert.Contains(t, err.Error(), "must be of type String")
	_, err = run(t, runExportJSONSchema, unnamed)
	assert.Contains(t, err.Error(), "not a valid template")
}

func TestRender_LaTeX(t *testing.T) {
	reset(t)
	renderTemplate = testTemplate
	out, err := run(t, runRender, validDoc)
	require.NoError(t, err)
	assert.Contains(t, out, `Mathematician \& first programmer.`)
}

func TestRender_HTMLAndText(t *testing.T) {
	reset(t)
	renderTemplate = testTemplate
	renderFormat = "html"
	out, err := run(t, runRender, validDoc)
	require.NoError(t, err)
	assert.Contains(t, out, "Mathematician &amp; first programmer.")

	renderFormat = "text"
	out, err = run(t, runRender, validDoc)
	require.NoError(t, err)
	assert.Contains(t, out, "Mathematician & first programmer.")
	assert.NotContains(t, out, "<")
}

func TestRender_ToFile(t *testing.T) {
	reset(t)
	renderTemplate = testTemplate
	renderOut = filepath.Join(t.TempDir(), "out", "resume.tex")
	_, err := run(t, runRender, validDoc)
	require.NoError(t, err)

	data, err := os.ReadFile(renderOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ada Lovelace")
}

func TestRender_RefusesNonConforming(t *testing.T) {
	reset(t)
	renderTemplate = testTemplate
	_, err := run(t, runRender, invalidDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not conform")
}

func TestRender_UnknownFormat(t *testing.T) {
	reset(t)
	renderTemplate = testTemplate
	renderFormat = "docx"
	_, err := run(t, runRender, validDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestRender_LaTeXEngineWithoutCompiler(t *testing.T) {
	reset(t)
	t.Setenv("PATH", "")
	renderTemplate = testTemplate
	renderFormat = "pdf"
	renderEngine = "latex"
	_, err := run(t, runRender, validDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdflatex not found")
}

func TestServe_RequiresDatabase(t *testing.T) {
	reset(t)
	withSettings(t, nil)
	_, err := run(t, runServe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

// fakeLLM answers by the section named in the prompt.
type fakeLLM struct {
	mu      sync.Mutex
	answers map[string]string
	closed  bool
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateStructured(ctx, prompt, nil, tier)
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateStructured(ctx, prompt, nil, tier)
}

func (f *fakeLLM) GenerateStructured(_ context.Context, prompt string, _ *genai.Schema, _ llm.ModelTier) (string, error) {
	const marker = `Section to fill: "`
	i := strings.Index(prompt, marker)
	if i < 0 {
		return "{}", nil
	}
	rest := prompt[i+len(marker):]
	name := rest[:strings.Index(rest, `"`)]
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.answers[name]; ok {
		return a, nil
	}
	return "{}", nil
}

func (f *fakeLLM) GetModel(tier llm.ModelTier) string { return string(tier) }

func (f *fakeLLM) Close() error {
	f.closed = true
	return nil
}

func useFakeLLM(t *testing.T, client *fakeLLM) {
	t.Helper()
	orig := newLLMClient
	newLLMClient = func(context.Context, string) (llm.Client, error) { return client, nil }
	t.Cleanup(func() { newLLMClient = orig })
}

func TestFill(t *testing.T) {
	reset(t)
	withSettings(t, func(c *config.Config) { c.APIKey = "test-key" })
	client := &fakeLLM{answers: map[string]string{
		"name":       `{"name": "Ada Lovelace"}`,
		"contact":    `{"contact": {"email": "ada@example.com"}}`,
		"experience": `{"experience": [{"company": "Analytical Engines", "title": "Programmer"}]}`,
		"skills":     `{"skills": {"_entries": [{"key": "languages", "value": "Note G"}]}}`,
	}}
	useFakeLLM(t, client)

	fillSource = "testdata/profile.txt"
	fillOut = filepath.Join(t.TempDir(), "doc.json")
	fillStrict = true
	_, err := run(t, runFill)
	require.NoError(t, err)
	assert.True(t, client.closed)

	data, err := os.ReadFile(fillOut)
	require.NoError(t, err)
	text := string(data)
	assert.Less(t, strings.Index(text, `"name"`), strings.Index(text, `"contact"`))
	assert.Less(t, strings.Index(text, `"experience"`), strings.Index(text, `"skills"`))
	assert.NotContains(t, text, `"summary"`)

	// The written document passes check.
	checkTemplate = testTemplate
	_, err = run(t, runCheck, fillOut)
	require.NoError(t, err)
}

func TestFill_StrictRejectsIssues(t *testing.T) {
	reset(t)
	withSettings(t, func(c *config.Config) { c.APIKey = "test-key" })
	useFakeLLM(t, &fakeLLM{answers: map[string]string{
		"contact": `{"contact": {"email": "ada@example.com"}}`,
	}})

	fillSource = "testdata/profile.txt"
	fillStrict = true
	out, err := run(t, runFill)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not conform")
	assert.Contains(t, out, `"contact"`)
}

func TestFill_RequiresAPIKey(t *testing.T) {
	reset(t)
	withSettings(t, nil)
	fillSource = "testdata/profile.txt"
	_, err := run(t, runFill)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestFill_MissingSource(t *testing.T) {
	reset(t)
	withSettings(t, func(c *config.Config) { c.APIKey = "test-key" })
	useFakeLLM(t, &fakeLLM{})
	fillSource = "testdata/missing.txt"
	_, err := run(t, runFill)
	require.Error(t, err)
}

func TestFill_UnknownTier(t *testing.T) {
	reset(t)
	withSettings(t, func(c *config.Config) { c.APIKey = "test-key" })
	fillSource = "testdata/profile.txt"
	fillTier = "ultra"
	_, err := run(t, runFill)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model tier")
}
