package umasen

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/Vodeneev/keibabot/internal/pkg/enums"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

// monthDayRegex matches "2月8日"; full-width digits are folded before matching
var monthDayRegex = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)

// raceNumberRegex matches "11R"
var raceNumberRegex = regexp.MustCompile(`(\d{1,2})R`)

// ExtractDescriptor pulls month/day, venue and race number out of a listing link text.
// It never fails; each field is nil when its pattern is absent.
func ExtractDescriptor(raw string) models.Descriptor {
	s := width.Fold.String(raw)
	var d models.Descriptor

	if m := monthDayRegex.FindStringSubmatch(s); m != nil {
		month, errM := strconv.Atoi(m[1])
		day, errD := strconv.Atoi(m[2])
		if errM == nil && errD == nil {
			d.Month = &month
			d.Day = &day
		}
	}

	for _, v := range enums.VenueScanOrder() {
		if strings.Contains(s, v.String()) {
			venue := v.String()
			d.Venue = &venue
			break
		}
	}

	if m := raceNumberRegex.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			d.RaceNumber = &n
		}
	}
	return d
}
