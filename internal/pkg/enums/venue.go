package enums

// Venue represents a JRA racecourse by its display name
type Venue string

const (
	Sapporo   Venue = "札幌"
	Hakodate  Venue = "函館"
	Fukushima Venue = "福島"
	Niigata   Venue = "新潟"
	Tokyo     Venue = "東京"
	Nakayama  Venue = "中山"
	Chukyo    Venue = "中京"
	Kyoto     Venue = "京都"
	Hanshin   Venue = "阪神"
	Kokura    Venue = "小倉"
)

// VenueInfo contains additional information about a venue
type VenueInfo struct {
	Code  string // netkeiba kaisai_place
	Alias string
}

// GetVenueInfo returns venue information
func (v Venue) GetVenueInfo() VenueInfo {
	switch v {
	case Sapporo:
		return VenueInfo{Code: "01", Alias: "sapporo"}
	case Hakodate:
		return VenueInfo{Code: "02", Alias: "hakodate"}
	case Fukushima:
		return VenueInfo{Code: "03", Alias: "fukushima"}
	case Niigata:
		return VenueInfo{Code: "04", Alias: "niigata"}
	case Tokyo:
		return VenueInfo{Code: "05", Alias: "tokyo"}
	case Nakayama:
		return VenueInfo{Code: "06", Alias: "nakayama"}
	case Chukyo:
		return VenueInfo{Code: "07", Alias: "chukyo"}
	case Kyoto:
		return VenueInfo{Code: "08", Alias: "kyoto"}
	case Hanshin:
		return VenueInfo{Code: "09", Alias: "hanshin"}
	case Kokura:
		return VenueInfo{Code: "10", Alias: "kokura"}
	default:
		return VenueInfo{Alias: "unknown"}
	}
}

// IsValid checks if venue is known
func (v Venue) IsValid() bool {
	return v.GetVenueInfo().Code != ""
}

// String returns string representation
func (v Venue) String() string {
	return string(v)
}

// VenueScanOrder is the order venues are searched for in free text; the first hit wins.
func VenueScanOrder() []Venue {
	return []Venue{
		Tokyo,
		Kyoto,
		Kokura,
		Nakayama,
		Hanshin,
		Chukyo,
		Niigata,
		Fukushima,
		Hakodate,
		Sapporo,
	}
}

// VenueCode maps a venue display name to its netkeiba code
func VenueCode(name string) (string, bool) {
	code := Venue(name).GetVenueInfo().Code
	return code, code != ""
}
