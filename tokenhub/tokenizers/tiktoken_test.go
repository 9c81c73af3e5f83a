package tokenizers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tk "github.com/sugarme/tokenizer"
)

// encodingIds is the reference id sequence for text under the named public
// table, loaded directly by encoding name.
func encodingIds(t *testing.T, encodingName, text string) []int {
	t.Helper()
	setOfflineBpeLoader()
	engine, err := tiktoken.GetEncoding(encodingName)
	require.NoError(t, err)
	return engine.EncodeOrdinary(text)
}

func TestTikTokenTableHeuristicByFilename(t *testing.T) {
	tests := []struct {
		filename string
		encoding string
	}{
		{"o200k_base.model", "o200k_base"},
		{"gpt-4o.model", "o200k_base"},
		{"p50k_base.model", "p50k_base"},
		{"r50k_base.model", "r50k_base"},
		{"gpt2.model", "r50k_base"},
		{"mystery.model", "cl100k_base"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.filename)
			writeFakeTiktokenModel(t, path)

			w, err := NewTikTokenFromModelFile(path)
			require.NoError(t, err)
			enc, err := w.Encode("Hello, world!", false)
			require.NoError(t, err)
			// Identity check: the ids must match the table the hint names,
			// not merely some table.
			want := encodingIds(t, tt.encoding, "Hello, world!")
			require.NotEmpty(t, want)
			assert.Equal(t, want, enc.Ids)
		})
	}
}

func TestTikTokenHeuristicPrefersPatStr(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, tiktokenModelFile)
	writeFakeTiktokenModel(t, modelPath)
	configPath := filepath.Join(dir, tiktokenConfigFile)
	require.NoError(t, os.WriteFile(configPath, []byte(`{"pat_str": "o200k style pattern", "model_max_length": 128}`), 0o644))

	w, err := NewTikTokenFromDirectory(dir)
	require.NoError(t, err)
	require.NotNil(t, w.config.PatStr)
	require.NotNil(t, w.config.ModelMaxLength)
	assert.Equal(t, 128, *w.config.ModelMaxLength)

	// The pat_str hint must win over the hintless fixed filename, which
	// would otherwise fall back to cl100k.
	fromHint, err := w.Encode("Hello, world!", false)
	require.NoError(t, err)
	o200k := encodingIds(t, "o200k_base", "Hello, world!")
	cl100k := encodingIds(t, "cl100k_base", "Hello, world!")
	require.NotEqual(t, o200k, cl100k)
	assert.Equal(t, o200k, fromHint.Ids)
}

func TestTikTokenMissingModelFile(t *testing.T) {
	_, err := NewTikTokenFromDirectory(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), tiktokenModelFile)

	_, err = NewTikTokenFromModelFile(filepath.Join(t.TempDir(), "nope.model"))
	require.Error(t, err)
}

func TestTikTokenEncodeShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r50k_base.model")
	writeFakeTiktokenModel(t, path)
	w, err := NewTikTokenFromModelFile(path)
	require.NoError(t, err)

	enc, err := w.Encode("Hello, world!", false)
	require.NoError(t, err)
	n := len(enc.Ids)
	require.NotZero(t, n)

	assert.Len(t, enc.Tokens, n)
	assert.Len(t, enc.TypeIds, n)
	assert.Len(t, enc.Words, n)
	assert.Len(t, enc.Offsets, n)
	assert.Len(t, enc.SpecialTokensMask, n)
	assert.Len(t, enc.AttentionMask, n)

	for i := 0; i < n; i++ {
		assert.Equal(t, 0, enc.TypeIds[i])
		assert.Equal(t, 0, enc.SpecialTokensMask[i])
		assert.Equal(t, 1, enc.AttentionMask[i])
		assert.Equal(t, i, enc.Words[i])
	}

	// Offsets accumulate decoded byte lengths: monotonic, non-overlapping,
	// each span starting where the previous ended.
	prevEnd := 0
	for _, span := range enc.Offsets {
		require.Len(t, span, 2)
		assert.Equal(t, prevEnd, span[0])
		assert.GreaterOrEqual(t, span[1], span[0])
		prevEnd = span[1]
	}

	// addSpecial performs no special-token insertion for this family.
	withSpecial, err := w.Encode("Hello, world!", true)
	require.NoError(t, err)
	assert.Equal(t, enc.Ids, withSpecial.Ids)
}

func TestTikTokenDeterministicEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r50k_base.model")
	writeFakeTiktokenModel(t, path)
	w, err := NewTikTokenFromModelFile(path)
	require.NoError(t, err)

	first, err := w.Encode("Hello, world!", false)
	require.NoError(t, err)
	second, err := w.Encode("Hello, world!", false)
	require.NoError(t, err)
	assert.Equal(t, first.Ids, second.Ids)
}

func TestTikTokenTruncation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r50k_base.model")
	writeFakeTiktokenModel(t, path)
	w, err := NewTikTokenFromModelFile(path)
	require.NoError(t, err)

	full, err := w.Encode("one two three four five six seven eight", false)
	require.NoError(t, err)
	require.Greater(t, full.Len(), 2)

	truncated := w.withTruncation(&tk.TruncationParams{MaxLength: 2})
	enc, err := truncated.Encode("one two three four five six seven eight", false)
	require.NoError(t, err)
	assert.Equal(t, 2, enc.Len())
	// Prefix truncation: the surviving ids are the head of the full sequence.
	assert.Equal(t, full.Ids[:2], enc.Ids)
}

func TestTikTokenTruncationToZero(t *testing.T) {
	// Truncation applies whenever it is set, including a zero maximum.
	dir := t.TempDir()
	path := filepath.Join(dir, "r50k_base.model")
	writeFakeTiktokenModel(t, path)
	w, err := NewTikTokenFromModelFile(path)
	require.NoError(t, err)

	truncated := w.withTruncation(&tk.TruncationParams{MaxLength: 0})
	enc, err := truncated.Encode("Hello, world!", false)
	require.NoError(t, err)
	assert.Equal(t, 0, enc.Len())
}

func TestTikTokenPaddingIsNoOp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r50k_base.model")
	writeFakeTiktokenModel(t, path)
	w, err := NewTikTokenFromModelFile(path)
	require.NoError(t, err)

	padded := w.withPadding(&tk.PaddingParams{})
	plain, err := w.Encode("hello world", false)
	require.NoError(t, err)
	got, err := padded.Encode("hello world", false)
	require.NoError(t, err)
	assert.Equal(t, plain.Ids, got.Ids)
	assert.Equal(t, plain.AttentionMask, got.AttentionMask)
}

func TestTikTokenSidecarParseError(t *testing.T) {
	dir := t.TempDir()
	writeFakeTiktokenModel(t, filepath.Join(dir, tiktokenModelFile))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tiktokenConfigFile), []byte("{not json"), 0o644))

	_, err := NewTikTokenFromDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), tiktokenConfigFile)
}
