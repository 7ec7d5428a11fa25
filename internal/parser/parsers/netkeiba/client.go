// Package netkeiba builds race_id indexes from race.netkeiba.com day listings
// and formats odds page links.
package netkeiba

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Vodeneev/keibabot/internal/pkg/fetch"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
	"github.com/Vodeneev/keibabot/internal/pkg/parserutil"
	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

const defaultBaseURL = "https://race.netkeiba.com"

// raceLinkSelector picks anchors carrying a race_id query parameter
const raceLinkSelector = "a[href*='race_id=']"

// raceNumberTextRegex accepts only anchors whose whole text is "11R".
// The listing repeats race numbers inside longer link texts which must not be indexed.
var raceNumberTextRegex = regexp.MustCompile(`^(\d{1,2})R$`)

// Client reads netkeiba listings through a Fetcher.
type Client struct {
	baseURL string
	fetcher fetch.Fetcher
}

// NewClient creates a netkeiba client; an empty baseURL means production.
func NewClient(baseURL string, fetcher fetch.Fetcher) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), fetcher: fetcher}
}

// OddsURL is the odds page for one race.
func (c *Client) OddsURL(raceID string) string {
	return c.baseURL + "/odds/index.html?race_id=" + url.QueryEscape(raceID)
}

func (c *Client) listURL(key models.IndexKey) string {
	q := url.Values{}
	q.Set("kaisai_date", key.Date)
	if key.VenueCode != "" {
		q.Set("kaisai_place", key.VenueCode)
	}
	return c.baseURL + "/top/race_list_sub.html?" + q.Encode()
}

// Index builds the index for key: by race number when key has a venue code,
// by normalized title for the whole-day listing.
func (c *Client) Index(ctx context.Context, key models.IndexKey) (models.RaceIndex, bool, error) {
	if key.VenueCode != "" {
		return c.RaceNumberIndex(ctx, key.Date, key.VenueCode)
	}
	return c.TitleIndex(ctx, key.Date)
}

// RaceNumberIndex maps race number → race_id for one venue on one day.
//
// The returned bool reports whether the result may be cached: a non-2xx answer
// yields an empty cacheable index, a transport failure an empty index that is
// not cacheable. The error is informational in both cases.
func (c *Client) RaceNumberIndex(ctx context.Context, date, venueCode string) (models.RaceIndex, bool, error) {
	key := models.IndexKey{Date: date, VenueCode: venueCode}
	return c.build(ctx, key, func(a *goquery.Selection) string {
		m := raceNumberTextRegex.FindStringSubmatch(parserutil.StrippedText(a))
		if m == nil {
			return ""
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return ""
		}
		return strconv.Itoa(n)
	})
}

// TitleIndex maps normalized race title → race_id for the whole day.
// Caching semantics match RaceNumberIndex.
func (c *Client) TitleIndex(ctx context.Context, date string) (models.RaceIndex, bool, error) {
	key := models.IndexKey{Date: date}
	return c.build(ctx, key, func(a *goquery.Selection) string {
		return models.NormalizeTitle(parserutil.StrippedText(a))
	})
}

func (c *Client) build(ctx context.Context, key models.IndexKey, keyOf func(*goquery.Selection) string) (models.RaceIndex, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "netkeiba.Index", attribute.String("key", key.String()))
	defer span.End()

	index := models.RaceIndex{}
	rawURL := c.listURL(key)
	body, err := c.fetcher.Get(ctx, rawURL)
	if err != nil {
		telemetry.RecordError(span, err)
		if fetchErr, ok := fetch.AsError(err); ok && fetchErr.IsStatus() {
			return index, true, err
		}
		return index, false, err
	}

	doc, err := parserutil.Document(body, rawURL)
	if err != nil {
		return index, true, err
	}

	doc.Find(raceLinkSelector).Each(func(_ int, a *goquery.Selection) {
		k := keyOf(a)
		if k == "" {
			return
		}
		href, _ := a.Attr("href")
		id := raceIDFromHref(href)
		if id == "" {
			return
		}
		index.Add(k, id)
	})

	telemetry.LoggerWithCorr(ctx).Debug("netkeiba: index built",
		slog.String("key", key.String()),
		slog.Int("entries", len(index)))
	return index, true, nil
}

func raceIDFromHref(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("race_id"))
}
