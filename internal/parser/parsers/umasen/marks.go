package umasen

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
	"github.com/Vodeneev/keibabot/internal/pkg/parserutil"
	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

// Marks fetches the race page for slug and returns its marked horses in table order.
// Rows missing a mark, number or name cell are skipped, as are marks outside the vocabulary.
func (c *Client) Marks(ctx context.Context, slug string) ([]models.MarkRow, error) {
	ctx, span := telemetry.StartSpan(ctx, "umasen.Marks", attribute.String("slug", slug))
	defer span.End()

	doc, err := c.document(ctx, c.detailURL(slug))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	rows := parseMarks(doc)

	telemetry.LoggerWithCorr(ctx).Debug("umasen: marks parsed",
		slog.String("slug", slug),
		slog.Int("rows", len(rows)))
	return rows, nil
}

func parseMarks(doc *goquery.Document) []models.MarkRow {
	var rows []models.MarkRow
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		mark := tr.Find(".uma_mark").First()
		ban := tr.Find(".expect_uma_ban").First()
		name := tr.Find(".expect_uma_name").First()
		if mark.Length() == 0 || ban.Length() == 0 || name.Length() == 0 {
			return
		}
		m := models.Mark(parserutil.StrippedText(mark))
		if !m.IsValid() {
			return
		}
		rows = append(rows, models.MarkRow{
			Mark:        m,
			HorseNumber: parserutil.StrippedText(ban),
			HorseName:   parserutil.StrippedText(name),
		})
	})
	return rows
}
