package enums

import "testing"

func TestVenueCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"札幌", "01", true},
		{"東京", "05", true},
		{"京都", "08", true},
		{"小倉", "10", true},
		{"大井", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		code, ok := VenueCode(tt.name)
		if code != tt.code || ok != tt.ok {
			t.Errorf("VenueCode(%q) = %q, %v; want %q, %v", tt.name, code, ok, tt.code, tt.ok)
		}
	}
}

func TestVenueScanOrderCoversAllCodes(t *testing.T) {
	seen := make(map[string]bool)
	for _, v := range VenueScanOrder() {
		if !v.IsValid() {
			t.Errorf("venue %q in scan order has no code", v)
		}
		code := v.GetVenueInfo().Code
		if seen[code] {
			t.Errorf("duplicate code %s", code)
		}
		seen[code] = true
	}
	if len(seen) != 10 {
		t.Errorf("expected 10 venues, got %d", len(seen))
	}
}
