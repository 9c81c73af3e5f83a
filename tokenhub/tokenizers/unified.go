package tokenizers

import (
	"fmt"

	tk "github.com/sugarme/tokenizer"
)

// Kind tags the closed set of supported tokenizer formats.
type Kind int

const (
	// KindHuggingFace is a vocabulary-table JSON tokenizer (tokenizer.json).
	KindHuggingFace Kind = iota + 1
	// KindTikToken is a byte-pair-encoding table tokenizer (tiktoken.model).
	KindTikToken
)

func (k Kind) String() string {
	switch k {
	case KindHuggingFace:
		return "huggingface"
	case KindTikToken:
		return "tiktoken"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// UnifiedTokenizer hides the format difference between the two tokenizer
// families behind one encode surface. Instances are immutable once built and
// safe to share across goroutines; the configuration setters return new
// instances rather than mutating a shared one.
type UnifiedTokenizer struct {
	kind Kind
	hf   *HFTokenizer
	tt   *TikTokenWrapper
}

// NewHuggingFaceTokenizer wraps a HuggingFace adapter.
func NewHuggingFaceTokenizer(hf *HFTokenizer) *UnifiedTokenizer {
	return &UnifiedTokenizer{kind: KindHuggingFace, hf: hf}
}

// NewTikTokenTokenizer wraps a tiktoken adapter.
func NewTikTokenTokenizer(tt *TikTokenWrapper) *UnifiedTokenizer {
	return &UnifiedTokenizer{kind: KindTikToken, tt: tt}
}

// Kind reports which tokenizer family backs this instance.
func (u *UnifiedTokenizer) Kind() Kind {
	return u.kind
}

// Encode tokenizes text with the active variant.
func (u *UnifiedTokenizer) Encode(text string, addSpecial bool) (*Encoding, error) {
	switch u.kind {
	case KindHuggingFace:
		return u.hf.Encode(text, addSpecial)
	case KindTikToken:
		return u.tt.Encode(text, addSpecial)
	default:
		return nil, fmt.Errorf("unknown tokenizer kind %v", u.kind)
	}
}

// WithTruncation returns a new tokenizer with the given truncation settings
// applied to a clone of the variant's engine. Existing holders of the
// receiver keep the old behavior.
func (u *UnifiedTokenizer) WithTruncation(params *tk.TruncationParams) *UnifiedTokenizer {
	switch u.kind {
	case KindHuggingFace:
		return &UnifiedTokenizer{kind: u.kind, hf: u.hf.withTruncation(params)}
	case KindTikToken:
		return &UnifiedTokenizer{kind: u.kind, tt: u.tt.withTruncation(params)}
	default:
		return u
	}
}

// WithPadding returns a new tokenizer with the given padding settings. The
// tiktoken variant accepts but ignores padding.
func (u *UnifiedTokenizer) WithPadding(params *tk.PaddingParams) *UnifiedTokenizer {
	switch u.kind {
	case KindHuggingFace:
		return &UnifiedTokenizer{kind: u.kind, hf: u.hf.withPadding(params)}
	case KindTikToken:
		return &UnifiedTokenizer{kind: u.kind, tt: u.tt.withPadding(params)}
	default:
		return u
	}
}
