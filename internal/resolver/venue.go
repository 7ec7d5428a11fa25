package resolver

import (
	"context"

	"github.com/Vodeneev/keibabot/internal/pkg/enums"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

const (
	StrategyVenue  = "venue"
	TierRaceNumber = "race_number"
)

func init() {
	Register(StrategyVenue, func(cache *IndexCache) Strategy { return &venueStrategy{cache: cache} })
}

// venueStrategy looks the race number up in the (date, venue) listing.
// Without a known venue and a race number nothing is fetched.
type venueStrategy struct {
	cache *IndexCache
}

func (s *venueStrategy) Name() string { return StrategyVenue }

func (s *venueStrategy) Match(ctx context.Context, _ models.RaceRef, d models.Descriptor, res *models.Resolution) bool {
	if d.Venue == nil || d.RaceNumber == nil {
		return false
	}
	code, ok := enums.VenueCode(*d.Venue)
	if !ok {
		return false
	}
	res.VenueCode = code
	res.RaceNumber = *d.RaceNumber

	index := s.cache.Lookup(ctx, models.IndexKey{Date: res.Date, VenueCode: code})
	id, ok := index.ByNumber(*d.RaceNumber)
	if !ok {
		return false
	}
	res.RaceID = id
	res.Tier = TierRaceNumber
	return true
}
