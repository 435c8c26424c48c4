package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const maxBiographyLength = 600

// WikipediaClient fetches short author biographies from the intro section of
// the best matching Wikipedia article.
type WikipediaClient struct {
	client
}

func NewWikipediaClient(opts Options) *WikipediaClient {
	return &WikipediaClient{client: newClient(opts, "https://en.wikipedia.org")}
}

// Biography searches for "<name> writer" and returns the plain-text intro of
// the first hit, truncated to 600 characters.
func (c *WikipediaClient) Biography(ctx context.Context, name string) (string, bool, error) {
	search := fmt.Sprintf("%s/w/api.php?action=query&format=json&list=search&utf8=1&srsearch=%s",
		c.baseURL, url.QueryEscape(name+" writer"))
	var hits struct {
		Query struct {
			Search []struct {
				Title  string `json:"title"`
				PageID int    `json:"pageid"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, search, &hits); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if len(hits.Query.Search) == 0 {
		return "", false, nil
	}

	pageID := strconv.Itoa(hits.Query.Search[0].PageID)
	extract := fmt.Sprintf("%s/w/api.php?action=query&format=json&prop=extracts&exintro&explaintext&redirects=1&pageids=%s",
		c.baseURL, pageID)
	var pages struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, extract, &pages); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	page, ok := pages.Query.Pages[pageID]
	if !ok {
		for _, p := range pages.Query.Pages {
			page = p
			break
		}
	}
	if page.Extract == "" {
		return "", false, nil
	}
	return truncate(page.Extract, maxBiographyLength), true, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
