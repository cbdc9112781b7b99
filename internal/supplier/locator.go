// Package supplier holds the ready-mix supplier catalog and finds the
// supplier nearest to a delivery point.
package supplier

import (
	"errors"
	"fmt"
	"math"

	"github.com/Simplici0/readymix/internal/pricing"
)

const earthRadiusMiles = 3958.8

var (
	// ErrNoSuppliersAvailable is returned when the locator has nothing to choose from.
	ErrNoSuppliersAvailable = errors.New("no suppliers available")
	// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range coordinates.
	ErrInvalidCoordinate = fmt.Errorf("%w: coordinate", pricing.ErrInvalidInput)
	// ErrNotFound is returned by Locator.Get for unknown ids.
	ErrNotFound = errors.New("supplier not found")
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate reports whether p is a usable coordinate.
func (p Point) Validate() error {
	for _, v := range []float64{p.Latitude, p.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %v", ErrInvalidCoordinate, v)
		}
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, p.Longitude)
	}
	return nil
}

// Location is a supplier yard with its own pricing schedule.
type Location struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Address   string           `json:"address" yaml:"address"`
	Latitude  float64          `json:"latitude" yaml:"latitude"`
	Longitude float64          `json:"longitude" yaml:"longitude"`
	Pricing   pricing.Schedule `json:"pricing" yaml:"pricing"`
}

// Point returns the yard coordinate.
func (l Location) Point() Point {
	return Point{Latitude: l.Latitude, Longitude: l.Longitude}
}

// DistanceMiles returns the great-circle distance between a and b in miles.
func DistanceMiles(a, b Point) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := rad(b.Latitude - a.Latitude)
	dLon := rad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Latitude))*math.Cos(rad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMiles * c
}

// Nearest returns the location closest to point. Ties go to the earliest
// location in the slice.
func Nearest(point Point, locations []Location) (Location, error) {
	loc, _, err := NearestWithDistance(point, locations)
	return loc, err
}

// NearestWithDistance is Nearest that also reports the distance in miles.
func NearestWithDistance(point Point, locations []Location) (Location, float64, error) {
	if err := point.Validate(); err != nil {
		return Location{}, 0, err
	}
	if len(locations) == 0 {
		return Location{}, 0, ErrNoSuppliersAvailable
	}

	best := 0
	bestDistance := DistanceMiles(point, locations[0].Point())
	for i := 1; i < len(locations); i++ {
		if dist := DistanceMiles(point, locations[i].Point()); dist < bestDistance {
			best = i
			bestDistance = dist
		}
	}
	return locations[best], bestDistance, nil
}

// Locator answers nearest-supplier queries over a fixed supplier list.
// Locations go in and come out as deep copies, so neither the caller's
// slice nor a returned Location can change what the Locator holds.
type Locator struct {
	locations []Location
	byID      map[string]int
}

// NewLocator copies locations, including their pricing schedules.
func NewLocator(locations []Location) *Locator {
	l := &Locator{
		locations: cloneLocations(locations),
		byID:      make(map[string]int, len(locations)),
	}
	for i, loc := range l.locations {
		if _, dup := l.byID[loc.ID]; !dup {
			l.byID[loc.ID] = i
		}
	}
	return l
}

// Nearest returns the supplier closest to point.
func (l *Locator) Nearest(point Point) (Location, error) {
	loc, _, err := l.NearestWithDistance(point)
	return loc, err
}

// NearestWithDistance returns the supplier closest to point and its distance in miles.
func (l *Locator) NearestWithDistance(point Point) (Location, float64, error) {
	loc, dist, err := NearestWithDistance(point, l.locations)
	if err != nil {
		return Location{}, 0, err
	}
	return loc.clone(), dist, nil
}

// Get looks a supplier up by id.
func (l *Locator) Get(id string) (Location, error) {
	i, ok := l.byID[id]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return l.locations[i].clone(), nil
}

// All returns a copy of the supplier list in catalog order.
func (l *Locator) All() []Location {
	return cloneLocations(l.locations)
}

// Len returns the number of suppliers.
func (l *Locator) Len() int {
	return len(l.locations)
}

func (l Location) clone() Location {
	l.Pricing = l.Pricing.Clone()
	return l
}

func cloneLocations(locations []Location) []Location {
	out := make([]Location, len(locations))
	for i, loc := range locations {
		out[i] = loc.clone()
	}
	return out
}
