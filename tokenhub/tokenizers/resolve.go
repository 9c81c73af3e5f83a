package tokenizers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	internal "github.com/ZanzyTHEbar/tokenhub/tokenhub"
	"github.com/ZanzyTHEbar/tokenhub/tokenhub/config"
	"github.com/ZanzyTHEbar/tokenhub/tokenhub/registry"
)

var logger = internal.GetLogger()

// Sentinel errors surfaced by resolution.
var (
	ErrEmptyTokenizerSource = errors.New("model declares no tokenizer source")
	ErrUnrecognizedFormat   = errors.New("no valid tokenizer format found")
)

// Registry is the process-wide tokenizer cache. One coarse lock serializes
// every resolution across all models; resolution is rare and dominated by
// download latency, so per-model locking is not worth the complexity. The
// memo is only written under that lock, with insertion as the last step, so
// readers never observe a half-populated entry.
type Registry struct {
	client     *http.Client
	cacheDir   string
	hfTemplate string
	attempts   int
	retryDelay time.Duration

	mu sync.Mutex
	// memo maps a normalized model id to its tokenizer; a stored nil means
	// "confirmed: this model has no tokenizer", distinct from absence.
	memo map[string]*UnifiedTokenizer
}

// Option configures a Registry.
type Option func(*Registry)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Registry) { r.client = client }
}

// WithCacheDir overrides the on-disk cache root.
func WithCacheDir(dir string) Option {
	return func(r *Registry) { r.cacheDir = dir }
}

// WithHFTemplate overrides the hf:// download template ($HF_MODEL is
// substituted with the model name).
func WithHFTemplate(template string) Option {
	return func(r *Registry) { r.hfTemplate = template }
}

// WithRetryPolicy overrides the fetch attempt budget and inter-attempt delay.
func WithRetryPolicy(attempts int, delay time.Duration) Option {
	return func(r *Registry) {
		r.attempts = attempts
		r.retryDelay = delay
	}
}

// NewRegistry builds a tokenizer registry with defaults from the app globals.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		client:     &http.Client{Timeout: time.Duration(internal.DefaultHTTPTimeoutSeconds) * time.Second},
		cacheDir:   internal.DefaultCacheDir,
		hfTemplate: internal.DefaultHFTokenizerTemplate,
		attempts:   fetchAttempts,
		retryDelay: fetchRetryDelay,
		memo:       make(map[string]*UnifiedTokenizer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRegistryFromConfig builds a registry from the tokenizers section of the
// app configuration. Zero-valued fields keep the app defaults.
func NewRegistryFromConfig(cfg *config.TokenizersConfig) *Registry {
	var opts []Option
	if cfg.CacheDir != "" {
		opts = append(opts, WithCacheDir(cfg.CacheDir))
	}
	if cfg.HFTokenizerTemplate != "" {
		opts = append(opts, WithHFTemplate(cfg.HFTokenizerTemplate))
	}
	if cfg.HTTPTimeoutSeconds > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}))
	}
	attempts := fetchAttempts
	if cfg.FetchAttempts > 0 {
		attempts = cfg.FetchAttempts
	}
	delay := fetchRetryDelay
	if cfg.FetchRetryDelayMs > 0 {
		delay = time.Duration(cfg.FetchRetryDelayMs) * time.Millisecond
	}
	opts = append(opts, WithRetryPolicy(attempts, delay))
	return NewRegistry(opts...)
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, built from whatever
// configuration LoadConfig has populated (app defaults otherwise).
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistryFromConfig(&config.AppConfig.Tokenizers)
	})
	return defaultRegistry
}

// CachePath is the on-disk location for a model's downloaded tokenizer.
func (r *Registry) CachePath(modelID string) string {
	return filepath.Join(r.cacheDir, "tokenizers", registry.SanitizeID(modelID), hfTokenizerFile)
}

// Resolve returns the tokenizer for a model record, fetching and caching it
// on first use. A (nil, nil) result means the model deliberately has no
// tokenizer; callers fall back to the estimator. Failed resolutions are not
// memoized, so a later call retries from scratch.
func (r *Registry) Resolve(ctx context.Context, rec registry.ModelRecord) (*UnifiedTokenizer, error) {
	modelID := registry.StripFinetune(rec.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if tok, ok := r.memo[modelID]; ok {
		return tok, nil
	}

	source, err := registry.ParseSource(rec.Tokenizer)
	if err != nil {
		return nil, err
	}

	var tokPath, tokURL string
	switch source.Kind {
	case registry.SourceEmpty:
		return nil, fmt.Errorf("failed to load tokenizer: %w for %s", ErrEmptyTokenizerSource, modelID)
	case registry.SourceFake:
		r.memo[modelID] = nil
		return nil, nil
	case registry.SourceHub:
		tokURL = strings.ReplaceAll(r.hfTemplate, "$HF_MODEL", source.HubModel)
	case registry.SourceURL:
		tokURL = source.URL
	case registry.SourceFile:
		tokPath = source.Path
	}

	if tokURL != "" {
		tokPath = r.CachePath(modelID)
		if err := ensureTokenizerFile(ctx, r.client, tokURL, rec.TokenizerAPIKey, tokPath, r.attempts, r.retryDelay); err != nil {
			return nil, err
		}
	}

	logger.Info().Str("model", modelID).Str("path", tokPath).Msg("loading tokenizer")
	tok, err := LoadTokenizer(tokPath)
	if err != nil {
		return nil, err
	}

	r.memo[modelID] = tok
	return tok, nil
}
