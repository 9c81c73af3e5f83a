// Package tokenizers resolves, downloads, caches, and exposes text tokenizers
// behind a single encode surface, whether the underlying artifact is a
// HuggingFace tokenizer.json or a tiktoken byte-pair table.
package tokenizers

import (
	tk "github.com/sugarme/tokenizer"
)

// Encoding is the common result of encoding text, shaped after the
// HuggingFace encoding contract so both tokenizer families interchange.
type Encoding struct {
	Ids               []int
	TypeIds           []int
	Tokens            []string
	Words             []int
	Offsets           [][]int
	SpecialTokensMask []int
	AttentionMask     []int
}

// Len returns the number of tokens in the encoding.
func (e *Encoding) Len() int {
	return len(e.Ids)
}

// fromSugarme copies the parallel slices out of a sugarme encoding.
func fromSugarme(enc *tk.Encoding) *Encoding {
	return &Encoding{
		Ids:               enc.Ids,
		TypeIds:           enc.TypeIds,
		Tokens:            enc.Tokens,
		Words:             enc.Words,
		Offsets:           enc.Offsets,
		SpecialTokensMask: enc.SpecialTokenMask,
		AttentionMask:     enc.AttentionMask,
	}
}
