package tokenizers

import (
	"fmt"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer is a thin wrapper over the sugarme tokenizer engine loaded from
// a tokenizer.json artifact. Truncation and padding are handled natively by
// the engine.
type HFTokenizer struct {
	engine *tk.Tokenizer
}

// NewHFTokenizerFromFile loads a tokenizer.json artifact.
func NewHFTokenizerFromFile(path string) (*HFTokenizer, error) {
	engine, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load HuggingFace tokenizer from %s: %w", path, err)
	}
	return &HFTokenizer{engine: engine}, nil
}

// Encode tokenizes text, optionally inserting the model's special tokens.
func (h *HFTokenizer) Encode(text string, addSpecial bool) (*Encoding, error) {
	enc, err := h.engine.EncodeSingle(text, addSpecial)
	if err != nil {
		return nil, fmt.Errorf("huggingface tokenizer: %w", err)
	}
	return fromSugarme(enc), nil
}

// withTruncation returns a copy of the wrapper whose engine has the given
// truncation settings. The receiver's engine is never mutated; the underlying
// model data is shared between the two.
func (h *HFTokenizer) withTruncation(params *tk.TruncationParams) *HFTokenizer {
	cloned := *h.engine
	cloned.WithTruncation(params)
	return &HFTokenizer{engine: &cloned}
}

// withPadding returns a copy of the wrapper whose engine has the given
// padding settings.
func (h *HFTokenizer) withPadding(params *tk.PaddingParams) *HFTokenizer {
	cloned := *h.engine
	cloned.WithPadding(params)
	return &HFTokenizer{engine: &cloned}
}
