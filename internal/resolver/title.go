package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/Vodeneev/keibabot/internal/parser/parsers/umasen"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

const (
	StrategyTitle = "title"

	TierExact     = "exact"
	TierSubstring = "substring"
	TierLoose     = "loose"
)

func init() {
	Register(StrategyTitle, func(cache *IndexCache) Strategy { return &titleStrategy{cache: cache} })
}

// titleStrategy matches the short display title against the whole-day listing.
type titleStrategy struct {
	cache *IndexCache
}

func (s *titleStrategy) Name() string { return StrategyTitle }

func (s *titleStrategy) Match(ctx context.Context, ref models.RaceRef, _ models.Descriptor, res *models.Resolution) bool {
	query := models.NormalizeTitle(umasen.ShortTitle(ref.RawDescriptor))
	if query == "" {
		return false
	}
	index := s.cache.Lookup(ctx, models.IndexKey{Date: res.Date})
	id, tier, ok := matchTitle(query, index)
	if !ok {
		return false
	}
	res.RaceID = id
	res.Tier = tier
	return true
}

// matchTitle tries exact, then substring either way, then substring on
// parenthesis-stripped titles. Keys are scanned in sorted order so the first
// hit is stable. query must already be normalized.
func matchTitle(query string, index models.RaceIndex) (id, tier string, ok bool) {
	if query == "" || len(index) == 0 {
		return "", "", false
	}
	if id, found := index[query]; found && id != "" {
		return id, TierExact, true
	}

	keys := make([]string, 0, len(index))
	for k := range index {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if containsEither(k, query) {
			return index[k], TierSubstring, true
		}
	}

	loose := models.LooseTitle(query)
	if loose == "" {
		return "", "", false
	}
	for _, k := range keys {
		lk := models.LooseTitle(k)
		if lk != "" && containsEither(lk, loose) {
			return index[k], TierLoose, true
		}
	}
	return "", "", false
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
