// Package registry holds model records and the tokenizer source descriptors
// they declare. Records are owned by the broader capability registry and are
// read-only to the tokenizer subsystem.
package registry

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// ModelRecord identifies a model and where its tokenizer comes from.
type ModelRecord struct {
	ID              string `json:"id" mapstructure:"id"`
	Tokenizer       string `json:"tokenizer" mapstructure:"tokenizer"`
	TokenizerAPIKey string `json:"tokenizer_api_key,omitempty" mapstructure:"tokenizerApiKey"`
}

// SourceKind tags the recognized tokenizer source descriptor variants.
type SourceKind int

const (
	// SourceEmpty means the record declares no tokenizer source at all.
	// That is a configuration error, not a request for the fallback estimator.
	SourceEmpty SourceKind = iota
	// SourceFake marks a model that deliberately has no tokenizer.
	SourceFake
	// SourceHub is an hf://<model> reference resolved through the download template.
	SourceHub
	// SourceURL is a direct http(s) URL to the tokenizer artifact.
	SourceURL
	// SourceFile is a local filesystem path, optionally file://-prefixed.
	SourceFile
)

// Source is the parsed form of a ModelRecord's tokenizer field. It is built
// once per resolution attempt and never mutated.
type Source struct {
	Kind SourceKind
	// HubModel is set for SourceHub (the part after hf://).
	HubModel string
	// URL is set for SourceURL.
	URL string
	// Path is set for SourceFile, already canonicalized.
	Path string
}

// ParseSource classifies a record's tokenizer descriptor.
func ParseSource(tokenizer string) (Source, error) {
	switch {
	case tokenizer == "":
		return Source{Kind: SourceEmpty}, nil
	case strings.HasPrefix(tokenizer, "fake"):
		return Source{Kind: SourceFake}, nil
	case strings.HasPrefix(tokenizer, "hf://"):
		return Source{Kind: SourceHub, HubModel: strings.TrimPrefix(tokenizer, "hf://")}, nil
	case strings.HasPrefix(tokenizer, "http://"), strings.HasPrefix(tokenizer, "https://"):
		return Source{Kind: SourceURL, URL: tokenizer}, nil
	case strings.HasPrefix(tokenizer, "file://"):
		u, err := url.Parse(tokenizer)
		if err != nil {
			return Source{}, fmt.Errorf("invalid path URL %s: %w", tokenizer, err)
		}
		if u.Path == "" {
			return Source{}, fmt.Errorf("invalid path URL %s: empty path", tokenizer)
		}
		return Source{Kind: SourceFile, Path: CanonicalPath(u.Path)}, nil
	default:
		return Source{Kind: SourceFile, Path: CanonicalPath(tokenizer)}, nil
	}
}

// StripFinetune normalizes a model id by dropping any fine-tune suffix
// ("base:finetune" resolves with base's tokenizer).
func StripFinetune(modelID string) string {
	if idx := strings.Index(modelID, ":"); idx >= 0 {
		return modelID[:idx]
	}
	return modelID
}

// SanitizeID maps every non-alphanumeric rune to '_' so the id can be used as
// a path segment in the on-disk cache.
func SanitizeID(modelID string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, modelID)
}

// CanonicalPath makes a filesystem path absolute and cleans it. Symlinks are
// left alone; the cache only needs a stable key, not identity resolution.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
