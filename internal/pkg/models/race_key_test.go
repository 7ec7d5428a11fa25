package models

import (
	"testing"
	"time"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  京都記念   (G2) ", "京都記念 (G2)"},
		{"京都記念（Ｇ２）", "京都記念(G2)"},
		{"予想 京都記念", "京都記念"},
		{"予想予想京都記念", "京都記念"},
		{"京都記念 予想", "京都記念"},
		{"東京１１Ｒ", "東京11R"},
		{"\t共同通信杯　", "共同通信杯"},
		{"", ""},
	}

	for _, tt := range tests {
		result := NormalizeTitle(tt.input)
		if result != tt.expected {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"  A   B ",
		"予想 予想 京都記念（G2） 予想",
		"ｸｲｰﾝｶｯﾌﾟ",
		"【2月8日】東京11R 東京新聞杯の予想",
	}
	for _, in := range inputs {
		once := NormalizeTitle(in)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeTitle_WhitespaceInsensitive(t *testing.T) {
	if NormalizeTitle("  A   B ") != NormalizeTitle("A B") {
		t.Errorf("whitespace runs should not change the key: %q vs %q", NormalizeTitle("  A   B "), NormalizeTitle("A B"))
	}
}

func TestLooseTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"京都記念(G2)", "京都記念"},
		{"京都記念 （Ｇ２）", "京都記念"},
		{"京都記念", "京都記念"},
		{"(G1)", ""},
	}
	for _, tt := range tests {
		got := LooseTitle(tt.in)
		if got != tt.want {
			t.Errorf("LooseTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDescriptorDate(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	// 2026-02-07 20:00 UTC is already 2026-02-08 in Tokyo
	now := time.Date(2026, 2, 7, 20, 0, 0, 0, time.UTC)

	month, day := 3, 1
	withDate := Descriptor{Month: &month, Day: &day}
	if got := withDate.Date(now, jst); got != "20260301" {
		t.Errorf("Date with month/day = %q, want 20260301", got)
	}

	if got := (Descriptor{}).Date(now, jst); got != "20260208" {
		t.Errorf("Date without month/day = %q, want 20260208", got)
	}

	onlyMonth := Descriptor{Month: &month}
	if got := onlyMonth.Date(now, jst); got != "20260208" {
		t.Errorf("Date with partial date = %q, want today", got)
	}
}

func TestDescriptorDateRejectsImpossibleDates(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	now := time.Date(2026, 2, 8, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		month, day int
	}{
		{13, 40},
		{0, 5},
		{2, 29}, // 2026 is not a leap year
		{4, 31},
		{2, 0},
	}
	for _, tt := range tests {
		d := Descriptor{Month: &tt.month, Day: &tt.day}
		if got := d.Date(now, jst); got != "20260208" {
			t.Errorf("Date(%d月%d日) = %q, want today 20260208", tt.month, tt.day, got)
		}
	}

	month, day := 12, 31
	if got := (Descriptor{Month: &month, Day: &day}).Date(now, jst); got != "20261231" {
		t.Errorf("Date(12月31日) = %q, want 20261231", got)
	}
}

func TestRaceIndexFirstWins(t *testing.T) {
	idx := RaceIndex{}
	if !idx.Add("11", "202605010811") {
		t.Fatal("first add should be stored")
	}
	if idx.Add("11", "999999999999") {
		t.Error("second add for the same key must be dropped")
	}
	if id, ok := idx.ByNumber(11); !ok || id != "202605010811" {
		t.Errorf("ByNumber(11) = %q, %v", id, ok)
	}
	if _, ok := idx.ByNumber(12); ok {
		t.Error("ByNumber(12) should miss")
	}
	if idx.Add("", "x") || idx.Add("x", "") {
		t.Error("empty key or id must not be stored")
	}
}

func TestMarkIsValid(t *testing.T) {
	for _, m := range Marks {
		if !m.IsValid() {
			t.Errorf("%q should be valid", m)
		}
	}
	for _, m := range []Mark{"×", "○", "注", ""} {
		if m.IsValid() {
			t.Errorf("%q should not be valid", m)
		}
	}
}
