package umasen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vodeneev/keibabot/internal/pkg/fetch"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

// pageFetcher serves canned bodies by URL and records every request.
type pageFetcher struct {
	pages map[string]string
	calls []string
}

func (f *pageFetcher) Get(_ context.Context, rawURL string) ([]byte, error) {
	f.calls = append(f.calls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &fetch.Error{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return []byte(body), nil
}

const listingPage = `<html><body>
<nav>
  <a href="/expect/">予想一覧</a>
  <a href="/expect/top/">TOP</a>
  <a href="/column/kyoto2025/">コラム</a>
</nav>
<ul>
  <li><a href="https://umasen.com/expect/tokyoshinbun2025/">予想【2月8日 東京11R】東京新聞杯の予想</a></li>
  <li><a href="/expect/kyotokinen2025/"> <span>予想【2月9日 京都11R】</span>京都記念(G2)の予想 </a></li>
  <li><a href="/expect/tokyoshinbun2025/">東京新聞杯 別リンク</a></li>
  <li><a href="/expect/nameless99/"></a></li>
</ul>
</body></html>`

func TestListTodayDedupAndOrder(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{"https://umasen.com/expect/": listingPage}}
	c := NewClient("", f, 0)

	races, err := c.ListToday(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListToday: %v", err)
	}
	want := []models.RaceRef{
		{DisplayName: "東京新聞杯", Slug: "tokyoshinbun2025", RawDescriptor: "予想【2月8日 東京11R】東京新聞杯の予想"},
		{DisplayName: "京都記念(G2)", Slug: "kyotokinen2025", RawDescriptor: "予想【2月9日 京都11R】京都記念(G2)の予想"},
		{DisplayName: "nameless99", Slug: "nameless99", RawDescriptor: ""},
	}
	if len(races) != len(want) {
		t.Fatalf("got %d races, want %d: %+v", len(races), len(want), races)
	}
	for i := range want {
		if races[i] != want[i] {
			t.Errorf("race %d = %+v, want %+v", i, races[i], want[i])
		}
	}
}

func TestListTodayLimit(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{"https://umasen.com/expect/": listingPage}}
	races, err := NewClient("https://umasen.com/", f, 5).ListToday(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListToday: %v", err)
	}
	if len(races) != 1 || races[0].Slug != "tokyoshinbun2025" {
		t.Errorf("limit not honoured: %+v", races)
	}
}

func TestListTodayRejectsDecoySlug(t *testing.T) {
	page := `<a href="/expect/abc/">予想【2月8日 東京1R】</a><a href="/expect/valid-race-1/">予想【2月8日 東京2R】メインの予想</a>`
	f := &pageFetcher{pages: map[string]string{"https://umasen.com/expect/": page}}

	races, err := NewClient("", f, 0).ListToday(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListToday: %v", err)
	}
	if len(races) != 1 || races[0].Slug != "valid-race-1" {
		t.Fatalf("expected only the valid race, got %+v", races)
	}
}

func TestListTodayUpstream500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, fetch.NewHTTPFetcher("", time.Second, nil), 0)
	races, err := c.ListToday(context.Background(), 10)
	if races != nil {
		t.Errorf("expected no races, got %+v", races)
	}
	fetchErr, ok := fetch.AsError(err)
	if !ok || fetchErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected fetch error with status 500, got %v", err)
	}
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"予想【2月8日 東京11R】東京新聞杯の予想", "東京新聞杯"},
		{"  予想 【京都】 きさらぎ賞 ", "きさらぎ賞"},
		{"シンザン記念の見解", "シンザン記念"},
		{"【小倉】", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortTitle(tt.raw); got != tt.want {
			t.Errorf("ShortTitle(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestExtractDescriptor(t *testing.T) {
	d := ExtractDescriptor("2月8日 東京11R")
	if d.Month == nil || *d.Month != 2 || d.Day == nil || *d.Day != 8 {
		t.Errorf("month/day not extracted: %+v", d)
	}
	if d.Venue == nil || *d.Venue != "東京" {
		t.Errorf("venue not extracted: %+v", d)
	}
	if d.RaceNumber == nil || *d.RaceNumber != 11 {
		t.Errorf("race number not extracted: %+v", d)
	}

	empty := ExtractDescriptor("no info here")
	if empty.Month != nil || empty.Day != nil || empty.Venue != nil || empty.RaceNumber != nil {
		t.Errorf("expected all fields nil, got %+v", empty)
	}
}

func TestExtractDescriptorFieldsIndependent(t *testing.T) {
	tests := []struct {
		raw       string
		wantDate  bool
		wantVenue string
		wantRace  int
	}{
		{"１２月２８日 中山１１Ｒ", true, "中山", 11},
		{"阪神メイン 9R", false, "阪神", 9},
		{"3月1日の予想", true, "", 0},
		// scan order puts 東京 ahead of 中山 regardless of position
		{"中山→東京 5R", false, "東京", 5},
		{"札幌2歳S", false, "札幌", 0},
	}
	for _, tt := range tests {
		d := ExtractDescriptor(tt.raw)
		if d.HasDate() != tt.wantDate {
			t.Errorf("%q: HasDate = %v, want %v", tt.raw, d.HasDate(), tt.wantDate)
		}
		gotVenue := ""
		if d.Venue != nil {
			gotVenue = *d.Venue
		}
		if gotVenue != tt.wantVenue {
			t.Errorf("%q: venue = %q, want %q", tt.raw, gotVenue, tt.wantVenue)
		}
		gotRace := 0
		if d.RaceNumber != nil {
			gotRace = *d.RaceNumber
		}
		if gotRace != tt.wantRace {
			t.Errorf("%q: race = %d, want %d", tt.raw, gotRace, tt.wantRace)
		}
	}
}

const detailPage = `<html><body><table>
<tr><th>印</th><th>馬番</th><th>馬名</th></tr>
<tr><td class="uma_mark">◎</td><td class="expect_uma_ban">3</td><td class="expect_uma_name">ジャスティンミラノ</td></tr>
<tr><td class="uma_mark">〇</td><td class="expect_uma_ban">7</td></tr>
<tr><td class="uma_mark">×</td><td class="expect_uma_ban">9</td><td class="expect_uma_name">ダノンデサイル</td></tr>
<tr><td class="uma_mark"> ▲ </td><td class="expect_uma_ban">12</td><td class="expect_uma_name"><a href="/horse/1">シンエンペラー</a></td></tr>
</table></body></html>`

func TestMarksKeepsValidRowsInOrder(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{"https://umasen.com/expect/satsukisho2025/": detailPage}}

	rows, err := NewClient("", f, 0).Marks(context.Background(), "satsukisho2025")
	if err != nil {
		t.Fatalf("Marks: %v", err)
	}
	want := []models.MarkRow{
		{Mark: models.MarkHonmei, HorseNumber: "3", HorseName: "ジャスティンミラノ"},
		{Mark: models.MarkTanana, HorseNumber: "12", HorseName: "シンエンペラー"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(rows), len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
	if rows[0].String() != "◎ 3 ジャスティンミラノ" {
		t.Errorf("unexpected line %q", rows[0].String())
	}
}

func TestMarksEscapesSlug(t *testing.T) {
	f := &pageFetcher{}
	_, err := NewClient("", f, 0).Marks(context.Background(), "東京 11R")
	if _, ok := fetch.AsError(err); !ok {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if len(f.calls) != 1 || f.calls[0] != "https://umasen.com/expect/%E6%9D%B1%E4%BA%AC%2011R/" {
		t.Errorf("unexpected request %v", f.calls)
	}
}
