package tokenizers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugarme/tokenizer/pretrained"
)

// hfTokenizerFile is the vocabulary-table JSON filename.
const hfTokenizerFile = "tokenizer.json"

// Format classifies what kind of tokenizer artifact a path holds.
type Format int

const (
	FormatUnrecognized Format = iota
	FormatHuggingFace
	FormatTikToken
)

func (f Format) String() string {
	switch f {
	case FormatHuggingFace:
		return "huggingface"
	case FormatTikToken:
		return "tiktoken"
	default:
		return "unrecognized"
	}
}

// ValidateTokenizerFile reports whether path parses as a vocabulary-table
// JSON tokenizer. Shared by the detector and the fetcher's idempotence check.
func ValidateTokenizerFile(path string) bool {
	_, err := pretrained.FromFile(path)
	return err == nil
}

// Detect classifies a filesystem path as one of the supported tokenizer
// formats, preferring the HuggingFace JSON format when a valid tokenizer.json
// is present. It is a pure function of filesystem state at call time; callers
// get no staleness protection across calls.
func Detect(path string) Format {
	info, err := os.Stat(path)
	if err != nil {
		return FormatUnrecognized
	}

	if info.IsDir() {
		jsonPath := filepath.Join(path, hfTokenizerFile)
		if fileExists(jsonPath) && ValidateTokenizerFile(jsonPath) {
			return FormatHuggingFace
		}
		if fileExists(filepath.Join(path, tiktokenModelFile)) {
			return FormatTikToken
		}
		return FormatUnrecognized
	}

	switch filepath.Ext(path) {
	case ".json":
		if ValidateTokenizerFile(path) {
			return FormatHuggingFace
		}
		return FormatUnrecognized
	case ".model":
		// Declarative: extension alone routes to tiktoken, content is not
		// validated here.
		return FormatTikToken
	default:
		sibling := filepath.Join(filepath.Dir(path), hfTokenizerFile)
		if fileExists(sibling) && ValidateTokenizerFile(sibling) {
			return FormatHuggingFace
		}
		return FormatUnrecognized
	}
}

// LoadTokenizer detects the format at path and constructs the matching
// adapter wrapped as a UnifiedTokenizer.
func LoadTokenizer(path string) (*UnifiedTokenizer, error) {
	switch Detect(path) {
	case FormatHuggingFace:
		jsonPath := hfJSONPath(path)
		logger.Info().Str("path", jsonPath).Msg("loading HuggingFace tokenizer")
		hf, err := NewHFTokenizerFromFile(jsonPath)
		if err != nil {
			return nil, err
		}
		return NewHuggingFaceTokenizer(hf), nil
	case FormatTikToken:
		logger.Info().Str("path", path).Msg("loading tiktoken tokenizer")
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		var tt *TikTokenWrapper
		if info.IsDir() {
			tt, err = NewTikTokenFromDirectory(path)
		} else {
			tt, err = NewTikTokenFromModelFile(path)
		}
		if err != nil {
			return nil, err
		}
		return NewTikTokenTokenizer(tt), nil
	default:
		return nil, fmt.Errorf("%w at %s", ErrUnrecognizedFormat, path)
	}
}

// hfJSONPath maps a detected HuggingFace path to the concrete tokenizer.json
// file, mirroring the detector's search order.
func hfJSONPath(path string) string {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return filepath.Join(path, hfTokenizerFile)
	}
	if filepath.Ext(path) == ".json" {
		return path
	}
	return filepath.Join(filepath.Dir(path), hfTokenizerFile)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
