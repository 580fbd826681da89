// Package extractor turns raw asset files (CSV, PDF) into structured content
// and derived metadata. Extractors accept a local path or an HTTP(S) URL;
// remote sources are downloaded to a temp file that is always cleaned up,
// even when extraction fails.
package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/luminahq/lumina/internal/lumerrors"
)

// MaxFileSize is the extraction cap. Files beyond it fail with an
// ExtractionError instead of being read into memory.
const MaxFileSize = 50 << 20 // 50MB

const downloadTimeout = 60 * time.Second

// resolveSource returns a local file path for the given source, downloading it
// first when it is a URL. The returned cleanup must be called once the file is
// no longer needed; for local paths it is a no-op.
func resolveSource(ctx context.Context, source string) (string, func(), error) {
	noop := func() {}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		path, err := downloadToTemp(ctx, source)
		if err != nil {
			return "", noop, err
		}

		return path, func() { _ = os.Remove(path) }, nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return "", noop, lumerrors.NewExtractionError(source, "file not found", err)
	}

	if info.Size() > MaxFileSize {
		return "", noop, lumerrors.NewExtractionError(source,
			fmt.Sprintf("file too large (%d bytes, max %d)", info.Size(), MaxFileSize), nil)
	}

	return source, noop, nil
}

// downloadToTemp fetches a URL into a temp file, enforcing MaxFileSize. The
// temp file is removed on any failure path.
func downloadToTemp(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", lumerrors.NewExtractionError(url, "invalid URL", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", lumerrors.NewExtractionError(url, "download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", lumerrors.NewExtractionError(url,
			fmt.Sprintf("download failed (status %d)", resp.StatusCode), nil)
	}

	tmp, err := os.CreateTemp("", "lumina-extract-*")
	if err != nil {
		return "", lumerrors.NewExtractionError(url, "temp file", err)
	}

	// Read one byte past the cap so we can tell "exactly at cap" from "over it".
	n, err := io.Copy(tmp, io.LimitReader(resp.Body, MaxFileSize+1))
	closeErr := tmp.Close()

	switch {
	case err != nil:
		_ = os.Remove(tmp.Name())
		return "", lumerrors.NewExtractionError(url, "download failed", err)
	case closeErr != nil:
		_ = os.Remove(tmp.Name())
		return "", lumerrors.NewExtractionError(url, "temp file", closeErr)
	case n > MaxFileSize:
		_ = os.Remove(tmp.Name())
		return "", lumerrors.NewExtractionError(url,
			fmt.Sprintf("file too large (max %d bytes)", int64(MaxFileSize)), nil)
	}

	return tmp.Name(), nil
}
