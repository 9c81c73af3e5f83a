package tokenizers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	// fetchAttempts bounds the retry loop; fetchRetryDelay separates attempts.
	fetchAttempts   = 15
	fetchRetryDelay = 200 * time.Millisecond
)

// downloadToFile performs a single GET of url into dest, with an optional
// bearer credential. A non-2xx status is an error.
func downloadToFile(ctx context.Context, client *http.Client, url, apiKey, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create parent dir: %w", err)
	}

	logger.Info().Str("url", url).Msg("downloading tokenizer")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get response: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to get response: %s returned status %s", url, resp.Status)
	}

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

// EnsureTokenizerFile makes sure targetPath holds a validated tokenizer
// artifact downloaded from url, retrying the whole sequence on any failure.
// Downloads land in a fresh temp file first so concurrent readers of
// targetPath never observe partial content.
func EnsureTokenizerFile(ctx context.Context, client *http.Client, url, apiKey, targetPath string) error {
	return ensureTokenizerFile(ctx, client, url, apiKey, targetPath, fetchAttempts, fetchRetryDelay)
}

func ensureTokenizerFile(ctx context.Context, client *http.Client, url, apiKey, targetPath string, attempts int, delay time.Duration) error {
	if fileExists(targetPath) && ValidateTokenizerFile(targetPath) {
		return nil
	}

	tmpPath := filepath.Join(os.TempDir(), uuid.New().String())
	defer os.Remove(tmpPath)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i != 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := downloadToFile(ctx, client, url, apiKey, tmpPath); err != nil {
			lastErr = fmt.Errorf("failed to download tokenizer: %w", err)
			logger.Error().Err(lastErr).Str("url", url).Msg("tokenizer download attempt failed")
			continue
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			lastErr = fmt.Errorf("failed to create parent dir: %w", err)
			logger.Error().Err(lastErr).Msg("tokenizer download attempt failed")
			continue
		}

		if !ValidateTokenizerFile(tmpPath) {
			lastErr = errors.New("failed to download tokenizer: file is not a tokenizer")
			logger.Error().Err(lastErr).Str("url", url).Msg("tokenizer download attempt failed")
			continue
		}

		if err := placeFile(tmpPath, targetPath); err != nil {
			lastErr = fmt.Errorf("failed to move tokenizer file: %w", err)
			logger.Error().Err(lastErr).Msg("tokenizer download attempt failed")
			continue
		}
		logger.Info().Str("path", targetPath).Msg("saved tokenizer")
		return nil
	}
	return lastErr
}

// placeFile relocates src to dest atomically where possible, falling back to
// a copy when the temp dir is on a different filesystem.
func placeFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	staging := dest + ".partial"
	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return err
	}
	return os.Rename(staging, dest)
}
