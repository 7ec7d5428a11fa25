// Package umasen scrapes the umasen.com prediction site: the daily race index
// and the analyst marks on a single race page.
package umasen

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/keibabot/internal/pkg/fetch"
	"github.com/Vodeneev/keibabot/internal/pkg/parserutil"
)

const (
	defaultBaseURL       = "https://umasen.com"
	defaultMinSlugLength = 5
	expectSegment        = "expect"
)

// Client reads umasen pages through a Fetcher.
type Client struct {
	baseURL       string
	fetcher       fetch.Fetcher
	minSlugLength int
}

// NewClient creates an umasen client. Zero values fall back to the production defaults.
func NewClient(baseURL string, fetcher fetch.Fetcher, minSlugLength int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if minSlugLength <= 0 {
		minSlugLength = defaultMinSlugLength
	}
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		fetcher:       fetcher,
		minSlugLength: minSlugLength,
	}
}

func (c *Client) listingURL() string {
	return c.baseURL + "/" + expectSegment + "/"
}

func (c *Client) detailURL(slug string) string {
	return c.baseURL + "/" + expectSegment + "/" + url.PathEscape(slug) + "/"
}

func (c *Client) document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return parserutil.Document(body, rawURL)
}
