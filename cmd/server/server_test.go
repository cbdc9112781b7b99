package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/readymix/internal/db"
	"github.com/Simplici0/readymix/internal/estimate"
	"github.com/Simplici0/readymix/internal/geocode"
	"github.com/Simplici0/readymix/internal/migrations"
	"github.com/Simplici0/readymix/internal/seed"
	"github.com/Simplici0/readymix/internal/store"
	"github.com/Simplici0/readymix/internal/supplier"
)

type fakeGeocoder struct {
	point supplier.Point
	err   error
	calls int
}

func (f *fakeGeocoder) Lookup(ctx context.Context, address string) (supplier.Point, error) {
	f.calls++
	return f.point, f.err
}

func newTestServer(t *testing.T, geocoder geocode.Client) http.Handler {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Up(ctx, database, zap.NewNop()))

	catalog, err := supplier.LoadCatalog(filepath.Join("..", "..", "internal", "supplier", "testdata", "suppliers.yaml"))
	require.NoError(t, err)
	_, err = seed.Run(ctx, database, catalog)
	require.NoError(t, err)

	st := store.New(database)
	suppliers, err := st.ListSuppliers(ctx)
	require.NoError(t, err)

	srv := &server{
		store:    st,
		locator:  supplier.NewLocator(suppliers),
		geocoder: geocoder,
		logger:   zap.NewNop(),
	}
	return srv.routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type estimateBody struct {
	SupplierSelected bool   `json:"supplier_selected"`
	Message          string `json:"message"`
	Supplier         *struct {
		ID string `json:"id"`
	} `json:"supplier"`
	DistanceMiles *decimal.Decimal `json:"distance_miles"`
	Input         struct {
		Distance decimal.Decimal `json:"distance"`
	} `json:"input"`
	Pricing struct {
		TotalCost decimal.Decimal `json:"total_cost"`
	} `json:"pricing"`
	Formatted estimate.Formatted `json:"formatted"`
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)
	rr := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestEstimate_BySupplierID(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/estimates", map[string]any{
		"supplier_id": "denver-north",
		"volume":      5.5,
		"psi":         "3000",
		"distance":    12,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[estimateBody](t, rr)
	assert.True(t, got.SupplierSelected)
	assert.Empty(t, got.Message)
	require.NotNil(t, got.Supplier)
	assert.Equal(t, "denver-north", got.Supplier.ID)
	assert.Nil(t, got.DistanceMiles)
	assert.Equal(t, "$825.00", got.Formatted.ConcreteCost)
	assert.Equal(t, "$85.00", got.Formatted.DeliveryFees)
	assert.Equal(t, "$910.00", got.Formatted.Total)
	assert.True(t, got.Pricing.TotalCost.Equal(decimal.NewFromInt(910)))
}

func TestEstimate_WithoutSupplierIsEmpty(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/estimates", map[string]any{
		"volume":           4,
		"psi":              "3000",
		"needs_pump_truck": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[estimateBody](t, rr)
	assert.False(t, got.SupplierSelected)
	assert.Equal(t, selectLocationMessage, got.Message)
	assert.Nil(t, got.Supplier)
	assert.Equal(t, "$0.00", got.Formatted.Total)
}

func TestEstimate_NearestSupplierFillsDistance(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/estimates", map[string]any{
		"latitude":  39.6610,
		"longitude": -104.8280,
		"volume":    5,
		"psi":       "4000",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[estimateBody](t, rr)
	require.NotNil(t, got.Supplier)
	assert.Equal(t, "aurora-east", got.Supplier.ID)
	require.NotNil(t, got.DistanceMiles)
	assert.True(t, got.DistanceMiles.IsZero())
	assert.True(t, got.Input.Distance.IsZero())
	assert.Equal(t, "$890.00", got.Formatted.Total)
}

func TestEstimate_ExplicitDistanceWins(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/estimates", map[string]any{
		"latitude":  39.6610,
		"longitude": -104.8280,
		"distance":  "10",
		"volume":    5,
		"psi":       "4000",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[estimateBody](t, rr)
	assert.True(t, got.Input.Distance.Equal(decimal.NewFromInt(10)))
	// 2 miles past the 8 mile base at 4.75 per mile.
	assert.Equal(t, "$9.50", got.Formatted.DistanceFee)
	assert.Equal(t, "$899.50", got.Formatted.Total)
}

func TestEstimate_AddressUsesGeocoder(t *testing.T) {
	geo := &fakeGeocoder{point: supplier.Point{Latitude: 39.80, Longitude: -104.98}}
	h := newTestServer(t, geo)

	rr := do(t, h, http.MethodPost, "/api/v1/estimates", map[string]any{
		"address": "5000 Washington St, Denver",
		"volume":  3,
		"psi":     "2500",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, geo.calls)

	got := decode[estimateBody](t, rr)
	require.NotNil(t, got.Supplier)
	assert.Equal(t, "denver-north", got.Supplier.ID)
}

func TestEstimate_Errors(t *testing.T) {
	cases := []struct {
		name     string
		geocoder geocode.Client
		body     map[string]any
		status   int
		code     string
	}{
		{
			name:   "unknown psi",
			body:   map[string]any{"supplier_id": "denver-north", "volume": 5, "psi": "9000"},
			status: http.StatusBadRequest,
			code:   "unknown_psi_class",
		},
		{
			name:   "negative volume",
			body:   map[string]any{"supplier_id": "denver-north", "volume": -1, "psi": "3000"},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "negative volume without supplier",
			body:   map[string]any{"volume": -1, "psi": "3000"},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "latitude out of range",
			body:   map[string]any{"latitude": 95, "longitude": 0, "volume": 5, "psi": "3000"},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "latitude alone",
			body:   map[string]any{"latitude": 39.7, "volume": 5, "psi": "3000"},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "unknown field",
			body:   map[string]any{"volumes": 5},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "unknown supplier",
			body:   map[string]any{"supplier_id": "nope", "volume": 5, "psi": "3000"},
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:   "address without geocoder",
			body:   map[string]any{"address": "Denver", "volume": 5, "psi": "3000"},
			status: http.StatusServiceUnavailable,
			code:   "geocoder_unavailable",
		},
		{
			name:     "address not found",
			geocoder: &fakeGeocoder{err: geocode.ErrAddressNotFound},
			body:     map[string]any{"address": "Atlantis", "volume": 5, "psi": "3000"},
			status:   http.StatusNotFound,
			code:     "address_not_found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, tc.geocoder)
			rr := do(t, h, http.MethodPost, "/api/v1/estimates", tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			assert.Equal(t, tc.code, decode[errorResponse](t, rr).Code)
		})
	}
}

func TestEstimate_RejectsOversizedNumbers(t *testing.T) {
	h := newTestServer(t, nil)

	for _, body := range []string{
		`{"supplier_id":"denver-north","volume":1e20000000,"psi":"3000"}`,
		`{"volume":1e20000000,"psi":"3000"}`,
		`{"supplier_id":"denver-north","volume":5,"psi":"3000","distance":1e-20000000}`,
		`{"supplier_id":"denver-north","volume":10001,"psi":"3000"}`,
		`{"supplier_id":"denver-north","volume":5,"psi":"3000","distance":1500}`,
	} {
		start := time.Now()
		rr := do(t, h, http.MethodPost, "/api/v1/estimates", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "invalid_input", decode[errorResponse](t, rr).Code, body)
		assert.Less(t, time.Since(start), 2*time.Second, body)
	}

	rr := do(t, h, http.MethodPost, "/api/v1/volume", `{"shape":"slab","length_ft":1e20000000,"width_ft":10,"thickness_in":4}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSuppliers_ListAndNearest(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodGet, "/api/v1/suppliers", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Suppliers []supplierResponse `json:"suppliers"`
	}](t, rr)
	require.Len(t, list.Suppliers, 2)
	assert.Equal(t, "denver-north", list.Suppliers[0].ID)
	assert.Equal(t, []string{"2500", "3000", "4000"}, list.Suppliers[0].PSIClasses)

	rr = do(t, h, http.MethodGet, "/api/v1/suppliers/nearest?lat=39.67&lon=-104.84", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	nearest := decode[nearestResponse](t, rr)
	assert.Equal(t, "aurora-east", nearest.Supplier.ID)
	assert.True(t, nearest.DistanceMiles.GreaterThan(decimal.Zero))
	assert.True(t, nearest.DistanceMiles.LessThan(decimal.NewFromInt(2)))

	rr = do(t, h, http.MethodGet, "/api/v1/suppliers/nearest", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/v1/suppliers/nearest?lat=abc&lon=1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNearest_ByAddress(t *testing.T) {
	h := newTestServer(t, &fakeGeocoder{point: supplier.Point{Latitude: 39.79, Longitude: -104.97}})

	rr := do(t, h, http.MethodGet, "/api/v1/suppliers/nearest?address=Commerce+City", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "denver-north", decode[nearestResponse](t, rr).Supplier.ID)
}

func TestVolume(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/volume", map[string]any{
		"shape":         "slab",
		"length_ft":     20,
		"width_ft":      10,
		"thickness_in":  6,
		"waste_percent": 10,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[volumeResponse](t, rr)
	assert.True(t, got.CubicYards.Equal(decimal.RequireFromString("3.70")), got.CubicYards.String())
	assert.True(t, got.OrderYards.Equal(decimal.RequireFromString("4.07")), got.OrderYards.String())

	rr = do(t, h, http.MethodPost, "/api/v1/volume", map[string]any{"shape": "pyramid"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/v1/volume", map[string]any{"shape": "slab", "length_ft": 0, "width_ft": 1, "thickness_in": 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProjects_Lifecycle(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/projects", map[string]any{"name": "Garage slab", "notes": "pour in May"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	project := decode[store.Project](t, rr)
	require.NotEmpty(t, project.ID)
	base := "/api/v1/projects/" + project.ID

	rr = do(t, h, http.MethodPost, "/api/v1/projects", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, base+"/calculations", map[string]any{
		"label":       "main pour",
		"supplier_id": "denver-north",
		"volume":      5.5,
		"psi":         "3000",
		"distance":    12,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[calculationResponse](t, rr)
	assert.Equal(t, "main pour", created.Label)
	assert.Equal(t, "denver-north", created.SupplierID)
	assert.Equal(t, "$910.00", created.Formatted.Total)

	rr = do(t, h, http.MethodPut, base+"/calculations/"+created.ID, map[string]any{
		"label":            "main pour",
		"supplier_id":      "denver-north",
		"volume":           5.5,
		"psi":              "3000",
		"distance":         12,
		"needs_pump_truck": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[calculationResponse](t, rr)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "$1,060.00", updated.Formatted.Total)

	rr = do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	detail := decode[struct {
		Project      store.Project         `json:"project"`
		Calculations []calculationResponse `json:"calculations"`
	}](t, rr)
	assert.Equal(t, 1, detail.Project.CalculationCount)
	require.Len(t, detail.Calculations, 1)
	assert.True(t, detail.Calculations[0].Input.Flags.NeedsPumpTruck)

	rr = do(t, h, http.MethodGet, "/api/v1/projects?q=garage", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Projects []store.Project `json:"projects"`
	}](t, rr)
	assert.Len(t, list.Projects, 1)

	rr = do(t, h, http.MethodPut, base+"/calculations/missing", map[string]any{"volume": 1, "psi": "3000"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCalculation_UnknownProject(t *testing.T) {
	h := newTestServer(t, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/projects/missing/calculations", map[string]any{"volume": 1, "psi": "3000"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, rr).Code)
}
