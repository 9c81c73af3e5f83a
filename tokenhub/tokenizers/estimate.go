package tokenizers

import "fmt"

// EstimateTokens approximates a token count as length / 3.5 bytes per token,
// a reasonable middle ground between code (~3) and natural language (~4).
func EstimateTokens(text string) int {
	return 1 + len(text)*2/7
}

// CountTokens counts tokens with the given tokenizer, or estimates when the
// model has none (tok == nil). Encode failures are surfaced to the caller.
func CountTokens(tok *UnifiedTokenizer, text string) (int, error) {
	if tok == nil {
		return EstimateTokens(text), nil
	}
	enc, err := tok.Encode(text, false)
	if err != nil {
		return 0, fmt.Errorf("encoding error: %w", err)
	}
	return enc.Len(), nil
}

// CountTokensWithFallback never fails: an encode error is logged and the
// length-based estimate substituted.
func CountTokensWithFallback(tok *UnifiedTokenizer, text string) int {
	count, err := CountTokens(tok, text)
	if err != nil {
		logger.Error().Err(err).Msg("token counting failed, falling back to estimate")
		return EstimateTokens(text)
	}
	return count
}
