package netkeiba

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vodeneev/keibabot/internal/pkg/fetch"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

type stubFetcher struct {
	body  string
	err   error
	calls []string
}

func (f *stubFetcher) Get(_ context.Context, rawURL string) ([]byte, error) {
	f.calls = append(f.calls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

const venueListing = `<html><body>
<dl class="RaceList_DataList">
 <dd><a href="../race/shutuba.html?race_id=202505010101&rf=race_list"><div class="Race_Num"><span>1R</span></div></a></dd>
 <dd><a href="../race/shutuba.html?race_id=202505010101&rf=race_list">1R 3歳未勝利</a></dd>
 <dd><a href="../race/shutuba.html?race_id=202505010111">
      11R
    </a></dd>
 <dd><a href="../race/movie.html?race_id=999999999911">11R</a></dd>
 <dd><a href="../race/shutuba.html?race_id=">12R</a></dd>
 <dd><a href="../race/shutuba.html?rid=1&race_id_x=2">10R</a></dd>
</dl>
</body></html>`

func TestRaceNumberIndex(t *testing.T) {
	f := &stubFetcher{body: venueListing}
	c := NewClient("", f)

	index, cacheable, err := c.RaceNumberIndex(context.Background(), "20250208", "05")
	if err != nil {
		t.Fatalf("RaceNumberIndex: %v", err)
	}
	if !cacheable {
		t.Error("a parsed page should be cacheable")
	}
	want := models.RaceIndex{"1": "202505010101", "11": "202505010111"}
	if len(index) != len(want) {
		t.Fatalf("index = %v, want %v", index, want)
	}
	for k, v := range want {
		if index[k] != v {
			t.Errorf("index[%s] = %q, want %q", k, index[k], v)
		}
	}
	wantURL := "https://race.netkeiba.com/top/race_list_sub.html?kaisai_date=20250208&kaisai_place=05"
	if len(f.calls) != 1 || f.calls[0] != wantURL {
		t.Errorf("requested %v, want %s", f.calls, wantURL)
	}
}

func TestTitleIndex(t *testing.T) {
	page := `<ul>
<li><a href="/race/result.html?race_id=202508010211">京都記念（Ｇ２）</a></li>
<li><a href="/race/result.html?race_id=202505010111"> 東京新聞杯 <span>(G3)</span></a></li>
<li><a href="/race/result.html?race_id=999">京都記念(G2)</a></li>
<li><a href="/race/result.html?race_id=202505010112"><img src="icon.png"></a></li>
</ul>`
	f := &stubFetcher{body: page}
	index, cacheable, err := NewClient("http://nk.test/", f).TitleIndex(context.Background(), "20250209")
	if err != nil || !cacheable {
		t.Fatalf("TitleIndex: cacheable=%v err=%v", cacheable, err)
	}
	if got := index["京都記念(G2)"]; got != "202508010211" {
		t.Errorf("first title should win, got %q (index %v)", got, index)
	}
	if got := index["東京新聞杯(G3)"]; got != "202505010111" {
		t.Errorf("missing 東京新聞杯, index %v", index)
	}
	if len(index) != 2 {
		t.Errorf("expected 2 entries, got %v", index)
	}
	if f.calls[0] != "http://nk.test/top/race_list_sub.html?kaisai_date=20250209" {
		t.Errorf("unexpected url %s", f.calls[0])
	}
}

func TestIndexCacheability(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCacheable bool
	}{
		{"non-2xx", &fetch.Error{URL: "u", StatusCode: http.StatusServiceUnavailable}, true},
		{"timeout", &fetch.Error{URL: "u", Err: context.DeadlineExceeded}, false},
		{"unknown", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("", &stubFetcher{err: tt.err})
			index, cacheable, err := c.Index(context.Background(), models.IndexKey{Date: "20250208", VenueCode: "05"})
			if err == nil {
				t.Fatal("expected the fetch error to be reported")
			}
			if index == nil || len(index) != 0 {
				t.Errorf("expected empty non-nil index, got %v", index)
			}
			if cacheable != tt.wantCacheable {
				t.Errorf("cacheable = %v, want %v", cacheable, tt.wantCacheable)
			}
		})
	}
}

func TestIndexCachesErrorStatusWithBrokenBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte{0xff, 0x00, 0x13})
	}))
	defer server.Close()

	c := NewClient(server.URL, fetch.NewHTTPFetcher("", time.Second, nil))
	_, cacheable, err := c.Index(context.Background(), models.IndexKey{Date: "20250208", VenueCode: "05"})
	if err == nil || !cacheable {
		t.Errorf("a 502 must be cacheable whatever its body, got cacheable=%v err=%v", cacheable, err)
	}
}

func TestOddsURL(t *testing.T) {
	c := NewClient("", nil)
	if got := c.OddsURL("202505010111"); got != "https://race.netkeiba.com/odds/index.html?race_id=202505010111" {
		t.Errorf("OddsURL = %s", got)
	}
}
