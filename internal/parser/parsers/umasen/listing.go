package umasen

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
	"github.com/Vodeneev/keibabot/internal/pkg/parserutil"
	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

// DefaultListLimit matches how many buttons the races card shows.
const DefaultListLimit = 10

const titleMarker = "予想"

// ListToday fetches the prediction index and returns at most limit races in page order.
// A failed fetch is returned as *fetch.Error; a page without race links yields an empty slice.
func (c *Client) ListToday(ctx context.Context, limit int) ([]models.RaceRef, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	ctx, span := telemetry.StartSpan(ctx, "umasen.ListToday")
	defer span.End()

	doc, err := c.document(ctx, c.listingURL())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	races := c.parseListing(doc, limit)

	telemetry.LoggerWithCorr(ctx).Debug("umasen: listing parsed", slog.Int("races", len(races)))
	return races, nil
}

func (c *Client) parseListing(doc *goquery.Document, limit int) []models.RaceRef {
	races := make([]models.RaceRef, 0, limit)
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		slug, ok := c.slugFromHref(strings.TrimSpace(href))
		if !ok {
			return true
		}
		if _, dup := seen[slug]; dup {
			return true
		}
		seen[slug] = struct{}{}

		raw := parserutil.StrippedText(a)
		name := ShortTitle(raw)
		if name == "" {
			name = slug
		}
		races = append(races, models.RaceRef{DisplayName: name, Slug: slug, RawDescriptor: raw})
		return len(races) < limit
	})
	return races
}

// slugFromHref accepts links into /expect/ and returns their last path segment.
// The bare index and short menu slugs are rejected.
func (c *Client) slugFromHref(href string) (string, bool) {
	path := href
	if u, err := url.Parse(href); err == nil {
		path = u.Path
	}
	if !strings.Contains(path, "/"+expectSegment+"/") {
		return "", false
	}
	trimmed := strings.TrimRight(path, "/")
	slug := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if slug == "" || slug == expectSegment || len(slug) < c.minSlugLength {
		return "", false
	}
	return slug, true
}

// ShortTitle turns a listing link text such as "予想【2月8日 東京11R】東京新聞杯の予想"
// into a display title ("東京新聞杯"). The result can be empty.
func ShortTitle(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, titleMarker) {
		s = strings.TrimSpace(strings.TrimPrefix(s, titleMarker))
	}
	if _, after, ok := strings.Cut(s, "】"); ok {
		s = strings.TrimSpace(after)
	}
	if before, _, ok := strings.Cut(s, "の"); ok {
		s = strings.TrimSpace(before)
	}
	return s
}
