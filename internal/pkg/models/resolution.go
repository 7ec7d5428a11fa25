package models

// Resolution is the outcome of matching one umasen race against netkeiba.
// RaceID and URL are empty when Resolved is false.
type Resolution struct {
	Slug       string `json:"slug"`
	Strategy   string `json:"strategy"`
	Tier       string `json:"tier,omitempty"` // exact, substring, loose or race_number
	Date       string `json:"date"`
	VenueCode  string `json:"venue_code,omitempty"`
	RaceNumber int    `json:"race_number,omitempty"`
	RaceID     string `json:"race_id,omitempty"`
	URL        string `json:"url,omitempty"`
	Resolved   bool   `json:"resolved"`
}
