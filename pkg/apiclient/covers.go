package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/zhaopengme/dwtrbot/pkg/logger"
	"github.com/zhaopengme/dwtrbot/pkg/utils"
)

const defaultMaxCoverSize = 10 * 1024 * 1024 // 10 MB

// CoverFetcher downloads cover images. Any failure, including a non-200
// answer, means "no cover".
type CoverFetcher struct {
	client  *http.Client
	maxSize int64
}

func NewCoverFetcher(timeout time.Duration) *CoverFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CoverFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: defaultMaxCoverSize,
	}
}

func (f *CoverFetcher) FetchCover(ctx context.Context, uri string) ([]byte, bool) {
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		logger.WarnCF("apiclient", "Invalid cover URI", map[string]interface{}{
			"uri":   uri,
			"error": err.Error(),
		})
		return nil, false
	}

	data, err := utils.Download(ctx, f.client, req, f.maxSize)
	if err != nil {
		logger.WarnCF("apiclient", "Cover download failed", map[string]interface{}{
			"uri":   uri,
			"error": err.Error(),
		})
		return nil, false
	}
	return data, len(data) > 0
}
