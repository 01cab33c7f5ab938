package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/resume-template/internal/db"
)

// DefaultCacheTTL is how long a fetched source page stays fresh.
const DefaultCacheTTL = 24 * time.Hour

// SourceCache stores fetched pages. *db.DB implements it.
type SourceCache interface {
	GetFreshSource(ctx context.Context, url string, ttl time.Duration) (*db.SourcePage, error)
	UpsertSource(ctx context.Context, page *db.SourcePage) error
}

// CachedFetcher wraps Source with a page cache.
type CachedFetcher struct {
	cache     SourceCache
	options   *SourceOptions
	cacheTTL  time.Duration
	skipCache bool // For testing or forcing fresh fetches
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *SourceOptions
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: DefaultCacheTTL,
		Options:  DefaultSourceOptions(),
	}
}

// NewCachedFetcher creates a cached fetcher. A nil cache disables caching.
func NewCachedFetcher(cache SourceCache, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultSourceOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	return &CachedFetcher{
		cache:     cache,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch returns the cached text of urlStr when it is fresh, otherwise fetches
// the page and stores it.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	useCache := f.cache != nil && !f.skipCache

	if useCache {
		cached, err := f.cache.GetFreshSource(ctx, urlStr, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if cached != nil {
			return &CachedResult{
				Result: &Result{
					URL:        cached.URL,
					HTML:       cached.HTML,
					Text:       cached.Text,
					StatusCode: cached.StatusCode,
				},
				FromCache: true,
			}, nil
		}
	}

	result, err := Source(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		page := &db.SourcePage{
			URL:        urlStr,
			HTML:       result.HTML,
			Text:       result.Text,
			StatusCode: result.StatusCode,
		}
		if err := f.cache.UpsertSource(ctx, page); err != nil {
			// The fetch itself succeeded.
			f.options.Logger.Warn().Err(err).Str("url", urlStr).Msg("failed to cache source page")
		}
	}
	return &CachedResult{Result: result}, nil
}

// Read reads ref like the package-level Read, serving URLs through the cache.
func (f *CachedFetcher) Read(ctx context.Context, ref string) (string, error) {
	if !IsURL(ref) {
		return Read(ctx, ref, f.options)
	}
	res, err := f.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
