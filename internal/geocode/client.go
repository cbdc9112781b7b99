package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Simplici0/readymix/internal/supplier"
)

var (
	// ErrAddressNotFound is returned when the geocoder has no match for an address.
	ErrAddressNotFound = errors.New("address not found")
	// ErrEmptyAddress is returned before any request is made for a blank address.
	ErrEmptyAddress = errors.New("address is required")
)

// Client resolves a free-form address into coordinates.
type Client interface {
	Lookup(ctx context.Context, address string) (supplier.Point, error)
}

type client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for a Nominatim-compatible search endpoint.
func New(baseURL string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// searchResult is one match of /search?format=json. Nominatim encodes the
// coordinates as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *client) Lookup(ctx context.Context, address string) (supplier.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return supplier.Point{}, ErrEmptyAddress
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)
	endpoint := c.baseURL + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return supplier.Point{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return supplier.Point{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return supplier.Point{}, fmt.Errorf("geocode endpoint %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return supplier.Point{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return supplier.Point{}, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return supplier.Point{}, fmt.Errorf("decode geocode latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return supplier.Point{}, fmt.Errorf("decode geocode longitude %q: %w", results[0].Lon, err)
	}

	point := supplier.Point{Latitude: lat, Longitude: lon}
	if err := point.Validate(); err != nil {
		return supplier.Point{}, err
	}
	return point, nil
}
