package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

// ErrUnexpectedStatus is wrapped by Download when the server answers with
// anything other than 200 OK.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Download reads a whole response body into memory.
//
// Parameters:
//   - ctx:      context for cancellation/timeout
//   - client:   HTTP client to use (caller controls timeouts, transport, etc.)
//   - req:      fully prepared *http.Request (method, URL, headers, etc.)
//   - maxBytes: maximum bytes to read; 0 means no limit
//
// Only a 200 response counts as a successful download.
func Download(ctx context.Context, client *http.Client, req *http.Request, maxBytes int64) ([]byte, error) {
	req = req.WithContext(ctx)

	logger.DebugCF("download", "Starting download", map[string]interface{}{
		"url":       req.URL.String(),
		"max_bytes": maxBytes,
	})

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var src io.Reader = resp.Body
	if maxBytes > 0 {
		src = io.LimitReader(resp.Body, maxBytes+1) // +1 to detect overflow
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("download read failed: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("download too large: %d bytes (max %d)", len(data), maxBytes)
	}

	logger.DebugCF("download", "Download complete", map[string]interface{}{
		"url":   req.URL.String(),
		"bytes": len(data),
	})

	return data, nil
}
