package supplier

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/readymix/internal/pricing"
)

func at(id string, lat, lon float64) Location {
	return Location{ID: id, Name: id, Latitude: lat, Longitude: lon}
}

func TestDistanceMiles(t *testing.T) {
	// One degree of longitude at the equator is ~69.09 miles.
	d := DistanceMiles(Point{0, 0}, Point{0, 1})
	assert.InDelta(t, 69.09, d, 0.05)

	assert.Zero(t, DistanceMiles(Point{39.74, -104.99}, Point{39.74, -104.99}))

	// Denver to Colorado Springs is roughly 63 miles as the crow flies.
	assert.InDelta(t, 63, DistanceMiles(Point{39.7392, -104.9903}, Point{38.8339, -104.8214}), 2)
}

func TestNearest_NotNearestByLatitude(t *testing.T) {
	locations := []Location{
		at("same-latitude", 40.0, -100.0),
		at("north", 40.5, -105.0),
		at("south-west", 39.2, -105.6),
	}

	got, err := Nearest(Point{Latitude: 40.0, Longitude: -105.0}, locations)
	require.NoError(t, err)
	assert.Equal(t, "north", got.ID)
}

func TestNearest_PicksMinimumOfThree(t *testing.T) {
	locations := []Location{
		at("a", 39.7960, -104.9780),
		at("b", 39.6610, -104.8280),
		at("c", 39.5501, -105.7821),
	}

	cases := []struct {
		point Point
		want  string
	}{
		{Point{39.80, -104.98}, "a"},
		{Point{39.65, -104.80}, "b"},
		{Point{39.55, -105.70}, "c"},
	}
	for _, tc := range cases {
		got, dist, err := NearestWithDistance(tc.point, locations)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.ID)
		for _, other := range locations {
			assert.LessOrEqual(t, dist, DistanceMiles(tc.point, other.Point()))
		}
	}
}

func TestNearest_TieGoesToFirst(t *testing.T) {
	locations := []Location{at("west", 0, -1), at("east", 0, 1)}

	got, err := Nearest(Point{0, 0}, locations)
	require.NoError(t, err)
	assert.Equal(t, "west", got.ID)

	got, err = Nearest(Point{0, 0}, []Location{locations[1], locations[0]})
	require.NoError(t, err)
	assert.Equal(t, "east", got.ID)
}

func TestNearest_Errors(t *testing.T) {
	_, err := Nearest(Point{40, -105}, nil)
	assert.ErrorIs(t, err, ErrNoSuppliersAvailable)

	bad := []Point{
		{math.NaN(), 0},
		{0, math.Inf(-1)},
		{91, 0},
		{0, -180.5},
	}
	for _, p := range bad {
		_, err := Nearest(p, []Location{at("a", 0, 0)})
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
		assert.ErrorIs(t, err, pricing.ErrInvalidInput)
	}
}

func TestLocator(t *testing.T) {
	locations := []Location{at("a", 10, 10), at("b", 20, 20)}
	l := NewLocator(locations)
	locations[0].ID = "mutated"

	assert.Equal(t, 2, l.Len())

	got, err := l.Nearest(Point{11, 11})
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	b, err := l.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 20.0, b.Latitude)

	_, err = l.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all := l.All()
	all[1].ID = "changed"
	again, _ := l.Get("b")
	assert.Equal(t, "b", again.ID)

	_, err = NewLocator(nil).Nearest(Point{0, 0})
	assert.ErrorIs(t, err, ErrNoSuppliersAvailable)
}

func TestLocator_PricingIsNotShared(t *testing.T) {
	priced := at("a", 10, 10)
	priced.Pricing.PricePerYard = map[string]decimal.Decimal{"3000": decimal.NewFromInt(150)}
	locations := []Location{priced}
	l := NewLocator(locations)

	locations[0].Pricing.PricePerYard["3000"] = decimal.NewFromInt(1)
	all := l.All()
	all[0].Pricing.PricePerYard["3000"] = decimal.NewFromInt(2)
	near, err := l.Nearest(Point{10, 10})
	require.NoError(t, err)
	near.Pricing.PricePerYard["4000"] = decimal.NewFromInt(3)

	got, err := l.Get("a")
	require.NoError(t, err)
	assert.Len(t, got.Pricing.PricePerYard, 1)
	assert.True(t, got.Pricing.PricePerYard["3000"].Equal(decimal.NewFromInt(150)))

	got.Pricing.PricePerYard["3000"] = decimal.NewFromInt(4)
	again, err := l.Get("a")
	require.NoError(t, err)
	assert.True(t, again.Pricing.PricePerYard["3000"].Equal(decimal.NewFromInt(150)))
}
