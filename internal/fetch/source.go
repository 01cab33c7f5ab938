package fetch

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SourceOptions configures how source material is read.
type SourceOptions struct {
	HTTP *Options
	// UseBrowser allows a headless browser fallback for pages whose HTTP
	// response has too little text.
	UseBrowser     bool
	BrowserTimeout time.Duration
	Logger         zerolog.Logger
}

// DefaultSourceOptions returns options without the browser fallback.
func DefaultSourceOptions() *SourceOptions {
	return &SourceOptions{
		HTTP:           DefaultOptions(),
		BrowserTimeout: DefaultTimeout,
		Logger:         zerolog.Nop(),
	}
}

// IsURL reports whether ref looks like an http(s) URL rather than a path.
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Source fetches a profile page and fills Result.Text with its readable
// content, using the platform's selectors.
func Source(ctx context.Context, urlStr string, opts *SourceOptions) (*Result, error) {
	if opts == nil {
		opts = DefaultSourceOptions()
	}
	platform := DetectPlatform(urlStr)
	log := opts.Logger.With().Str("url", urlStr).Str("platform", string(platform)).Logger()

	result, err := URL(ctx, urlStr, opts.HTTP)
	if err != nil {
		return result, err
	}
	result.Text, err = ExtractMainText(result.HTML, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
	if err != nil {
		return result, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}

	if opts.UseBrowser && (NeedsBrowser(platform) || ShouldUseBrowser(result.Text)) {
		log.Info().Int("chars", len(result.Text)).Msg("falling back to headless browser")
		timeout := opts.BrowserTimeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		html, err := WithBrowser(ctx, urlStr, timeout, log)
		if err != nil {
			// Keep the HTTP result; thin text beats no text.
			log.Warn().Err(err).Msg("browser rendering failed")
			return result, nil
		}
		text, err := ExtractMainText(html, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
		if err == nil && len(text) > len(result.Text) {
			result.HTML = html
			result.Text = text
		}
	}

	log.Debug().Int("chars", len(result.Text)).Msg("source fetched")
	return result, nil
}

// Read returns the text of ref, which is either an http(s) URL or a local
// file. HTML files are reduced to text; anything else is used as is.
func Read(ctx context.Context, ref string, opts *SourceOptions) (string, error) {
	if IsURL(ref) {
		result, err := Source(ctx, ref, opts)
		if err != nil {
			return "", err
		}
		return result.Text, nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return "", &Error{URL: ref, Message: "failed to read file", Cause: err}
	}
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".html", ".htm":
		text, err := HTMLToText(string(data))
		if err != nil {
			return "", &Error{URL: ref, Message: "failed to extract text", Cause: err}
		}
		return text, nil
	}
	return strings.TrimSpace(string(data)), nil
}
