// Package covers downloads remote cover images and turns them into data URIs
// so a book keeps its cover when the remote host goes away.
package covers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// MaxImageSize caps the size of a downloaded cover.
const MaxImageSize = 5 << 20

type Inliner struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewInliner(timeout time.Duration) *Inliner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Inliner{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   MaxImageSize,
	}
}

// Inline returns a data URI for the image at url. Anything that is not a
// reachable image under the size cap leaves url unchanged.
func (i *Inliner) Inline(ctx context.Context, url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return url
	}
	uri, err := i.fetch(ctx, url)
	if err != nil {
		log.Printf("Keeping remote cover %s: %v", url, err)
		return url
	}
	return uri
}

func (i *Inliner) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "BiblionApp/1.0")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, i.maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > i.maxBytes {
		return "", fmt.Errorf("cover larger than %d bytes", i.maxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty cover")
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("not an image: %s", contentType)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
