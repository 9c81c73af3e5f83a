package tokenizers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// minimalHFTokenizerJSON is the smallest tokenizer.json the vocabulary-table
// engine accepts: a WordPiece model with a three-entry vocab and no
// normalization pipeline, matching the schema HuggingFace emits.
const minimalHFTokenizerJSON = `{
  "version": "1.0",
  "truncation": null,
  "padding": null,
  "added_tokens": [],
  "normalizer": null,
  "pre_tokenizer": {
    "type": "Whitespace"
  },
  "post_processor": null,
  "decoder": null,
  "model": {
    "type": "WordPiece",
    "unk_token": "[UNK]",
    "continuing_subword_prefix": "##",
    "max_input_chars_per_word": 100,
    "vocab": {
      "[UNK]": 0,
      "hello": 1,
      "world": 2
    }
  }
}`

func writeMinimalHFTokenizer(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, hfTokenizerFile)
	require.NoError(t, os.WriteFile(path, []byte(minimalHFTokenizerJSON), 0o644))
	return path
}

func writeFakeTiktokenModel(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("fake tiktoken model data"), 0o644))
}
