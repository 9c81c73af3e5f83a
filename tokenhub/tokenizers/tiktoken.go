package tokenizers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	tk "github.com/sugarme/tokenizer"
)

// tiktokenModelFile is the fixed table filename expected inside a tokenizer
// directory.
const tiktokenModelFile = "tiktoken.model"

// tiktokenConfigFile is the optional side-car next to the table file.
const tiktokenConfigFile = "tokenizer_config.json"

var bpeLoaderOnce sync.Once

// setOfflineBpeLoader routes tiktoken table loads through the embedded
// dictionaries so the four known encodings never hit the network.
func setOfflineBpeLoader() {
	bpeLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
}

// TikTokenConfig is the parsed side-car configuration for a tiktoken table.
type TikTokenConfig struct {
	AddedTokensDecoder map[string]json.RawMessage `json:"added_tokens_decoder"`
	ModelMaxLength     *int                       `json:"model_max_length"`
	PatStr             *string                    `json:"pat_str"`
}

// TikTokenWrapper adapts a tiktoken encoding to the HuggingFace-shaped
// encoding contract.
type TikTokenWrapper struct {
	engine     *tiktoken.Tiktoken
	config     TikTokenConfig
	truncation *tk.TruncationParams
	padding    *tk.PaddingParams
}

// loadTikTokenConfig reads an optional side-car config; a missing file yields
// the zero config.
func loadTikTokenConfig(configPath string) (TikTokenConfig, error) {
	var config TikTokenConfig
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", tiktokenConfigFile, err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", tiktokenConfigFile, err)
	}
	return config, nil
}

// selectEncoding picks one of the known public tiktoken tables from config
// and filename hints. The raw table bytes are not deserialized; until proper
// model loading lands, the hint heuristic is all there is.
func selectEncoding(config TikTokenConfig, modelPath string) (*tiktoken.Tiktoken, error) {
	setOfflineBpeLoader()

	if config.PatStr != nil && strings.Contains(*config.PatStr, "o200k") {
		return tiktoken.GetEncoding("o200k_base")
	}

	filename := filepath.Base(modelPath)
	switch {
	case strings.Contains(filename, "o200k"), strings.Contains(filename, "gpt-4o"):
		return tiktoken.GetEncoding("o200k_base")
	case strings.Contains(filename, "p50k"):
		return tiktoken.GetEncoding("p50k_base")
	case strings.Contains(filename, "r50k"), strings.Contains(filename, "gpt2"):
		return tiktoken.GetEncoding("r50k_base")
	default:
		logger.Warn().Str("model", modelPath).Msg("could not determine tiktoken model type, defaulting to cl100k_base")
		return tiktoken.GetEncoding("cl100k_base")
	}
}

// NewTikTokenFromDirectory loads a tiktoken tokenizer from a directory
// containing tiktoken.model and an optional tokenizer_config.json.
func NewTikTokenFromDirectory(dir string) (*TikTokenWrapper, error) {
	modelPath := filepath.Join(dir, tiktokenModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%s not found in %s", tiktokenModelFile, dir)
	}
	return newTikTokenFromPaths(modelPath, filepath.Join(dir, tiktokenConfigFile))
}

// NewTikTokenFromModelFile loads a tiktoken tokenizer from a single table
// file; the side-car is looked up as a sibling.
func NewTikTokenFromModelFile(modelPath string) (*TikTokenWrapper, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	return newTikTokenFromPaths(modelPath, filepath.Join(filepath.Dir(modelPath), tiktokenConfigFile))
}

func newTikTokenFromPaths(modelPath, configPath string) (*TikTokenWrapper, error) {
	config, err := loadTikTokenConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Read the table to confirm it is accessible; the bytes themselves are
	// discarded by the hint heuristic in selectEncoding.
	if _, err := os.ReadFile(modelPath); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", modelPath, err)
	}

	engine, err := selectEncoding(config, modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding for %s: %w", modelPath, err)
	}
	return &TikTokenWrapper{engine: engine, config: config}, nil
}

// NewTikTokenFromEncoding wraps an already-constructed tiktoken encoding.
// Used by tests and bootstrap paths.
func NewTikTokenFromEncoding(engine *tiktoken.Tiktoken) *TikTokenWrapper {
	return &TikTokenWrapper{engine: engine}
}

// Encode tokenizes text into the common encoding shape. No true special-token
// insertion is performed regardless of addSpecial; the auxiliary fields are
// synthesized for interface compatibility with the HuggingFace engine:
// offsets are accumulated decoded-token byte lengths, not source-text spans.
func (w *TikTokenWrapper) Encode(text string, addSpecial bool) (*Encoding, error) {
	_ = addSpecial
	ids := w.engine.EncodeOrdinary(text)

	if w.truncation != nil && len(ids) > w.truncation.MaxLength {
		ids = ids[:w.truncation.MaxLength]
	}

	tokens := make([]string, len(ids))
	for i, id := range ids {
		decoded := w.engine.Decode([]int{id})
		if decoded == "" {
			decoded = fmt.Sprintf("token_%d", id)
		}
		tokens[i] = decoded
	}

	words := make([]int, len(ids))
	offsets := make([][]int, len(ids))
	current := 0
	for i, token := range tokens {
		words[i] = i
		offsets[i] = []int{current, current + len(token)}
		current += len(token)
	}

	return &Encoding{
		Ids:               ids,
		TypeIds:           make([]int, len(ids)),
		Tokens:            tokens,
		Words:             words,
		Offsets:           offsets,
		SpecialTokensMask: make([]int, len(ids)),
		AttentionMask:     onesMask(len(ids)),
	}, nil
}

// withTruncation returns a copy of the wrapper with the given truncation
// settings; the shared encoding engine is reused.
func (w *TikTokenWrapper) withTruncation(params *tk.TruncationParams) *TikTokenWrapper {
	cloned := *w
	cloned.truncation = params
	return &cloned
}

// withPadding accepts padding parameters for interface symmetry. Padding is
// not supported for tiktoken tokenizers; the setting is recorded but has no
// effect on Encode.
func (w *TikTokenWrapper) withPadding(params *tk.PaddingParams) *TikTokenWrapper {
	if params != nil {
		logger.Warn().Msg("padding is not supported for tiktoken tokenizers")
	}
	cloned := *w
	cloned.padding = params
	return &cloned
}

func onesMask(n int) []int {
	mask := make([]int, n)
	for i := range mask {
		mask[i] = 1
	}
	return mask
}
