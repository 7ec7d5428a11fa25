package models

import (
	"fmt"
	"strconv"
	"time"
)

// RaceRef represents one race link found on the umasen listing page
type RaceRef struct {
	DisplayName   string `json:"display_name"`
	Slug          string `json:"slug"`           // Last path segment of /expect/<slug>/
	RawDescriptor string `json:"raw_descriptor"` // Visible link text, untouched
}

// Descriptor holds the fields pulled out of a RaceRef's raw text.
// Every field is optional because each extraction can fail on its own.
type Descriptor struct {
	Month      *int    `json:"month,omitempty"`
	Day        *int    `json:"day,omitempty"`
	Venue      *string `json:"venue,omitempty"`
	RaceNumber *int    `json:"race_number,omitempty"`
}

// HasDate reports whether both month and day were extracted.
func (d Descriptor) HasDate() bool {
	return d.Month != nil && d.Day != nil
}

// Date returns the YYYYMMDD the race is held on. Month/day from the descriptor
// are combined with the current year in loc; without them, or when they do not
// form a real calendar date, today in loc is used.
func (d Descriptor) Date(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	if d.HasDate() {
		t := time.Date(now.Year(), time.Month(*d.Month), *d.Day, 0, 0, 0, 0, now.Location())
		// time.Date normalizes 13月40日 into another date
		if int(t.Month()) == *d.Month && t.Day() == *d.Day {
			return fmt.Sprintf("%04d%02d%02d", now.Year(), *d.Month, *d.Day)
		}
	}
	return now.Format("20060102")
}

// Mark is an analyst confidence symbol
type Mark string

const (
	MarkHonmei    Mark = "◎"
	MarkTaikou    Mark = "〇"
	MarkTanana    Mark = "▲"
	MarkRenshita  Mark = "△"
	MarkBlackStar Mark = "★"
	MarkWhiteStar Mark = "☆"
)

// Marks lists the accepted symbols in display order.
var Marks = []Mark{MarkHonmei, MarkTaikou, MarkTanana, MarkRenshita, MarkBlackStar, MarkWhiteStar}

// IsValid checks the symbol against the fixed vocabulary.
func (m Mark) IsValid() bool {
	for _, v := range Marks {
		if m == v {
			return true
		}
	}
	return false
}

// MarkRow is one horse entry carrying a mark on a race detail page
type MarkRow struct {
	Mark        Mark   `json:"mark"`
	HorseNumber string `json:"horse_number"`
	HorseName   string `json:"horse_name"`
}

func (r MarkRow) String() string {
	return string(r.Mark) + " " + r.HorseNumber + " " + r.HorseName
}

// IndexKey identifies one netkeiba listing slice.
// An empty VenueCode means the whole-day listing.
type IndexKey struct {
	Date      string `json:"date"`
	VenueCode string `json:"venue_code,omitempty"`
}

func (k IndexKey) String() string {
	if k.VenueCode == "" {
		return k.Date
	}
	return k.Date + ":" + k.VenueCode
}

// RaceIndex maps a matchable key (race number or normalized title) to a netkeiba race_id.
type RaceIndex map[string]string

// ByNumber looks up a race number key.
func (idx RaceIndex) ByNumber(n int) (string, bool) {
	id, ok := idx[strconv.Itoa(n)]
	return id, ok && id != ""
}

// Add stores key → id unless the key is already present. Reports whether it was stored.
func (idx RaceIndex) Add(key, id string) bool {
	if key == "" || id == "" {
		return false
	}
	if _, exists := idx[key]; exists {
		return false
	}
	idx[key] = id
	return true
}
