package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/readymix/internal/pricing"
	"github.com/Simplici0/readymix/internal/supplier"
	"github.com/Simplici0/readymix/internal/volume"
)

var testCatalog = filepath.Join("..", "..", "internal", "supplier", "testdata", "suppliers.yaml")

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"readymix", "--catalog", testCatalog}, args...))
	return out.String(), err
}

func TestEstimate_TextOutput(t *testing.T) {
	out, err := runApp(t, "estimate", "--supplier", "denver-north", "--volume", "5.5", "--psi", "3000", "--distance", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Front Range Ready Mix - North")
	assert.Contains(t, out, "$825.00")
	assert.Contains(t, out, "$910.00")
}

func TestEstimate_JSONNearest(t *testing.T) {
	out, err := runApp(t, "--output", "json", "estimate", "--lat", "39.6610", "--lon", "-104.8280", "--volume", "5", "--psi", "4000", "--pump")
	require.NoError(t, err)

	var got estimateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.True(t, got.SupplierSelected)
	assert.Equal(t, "aurora-east", got.SupplierID)
	assert.Equal(t, "$1,065.00", got.Formatted.Total)
	assert.True(t, got.Pricing.AdditionalServices.PumpTruckFee.Equal(decimal.NewFromInt(175)))
}

func TestEstimate_NoSupplier(t *testing.T) {
	out, err := runApp(t, "estimate", "--volume", "3", "--psi", "3000")
	require.NoError(t, err)
	assert.Contains(t, out, "No supplier selected")
	assert.Contains(t, out, "$0.00")
}

func TestEstimate_Errors(t *testing.T) {
	_, err := runApp(t, "estimate", "--volume", "lots", "--psi", "3000")
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)

	_, err = runApp(t, "estimate", "--volume", "-2", "--psi", "3000")
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)

	_, err = runApp(t, "estimate", "--volume", "2", "--psi", "3000", "--lat", "39.7")
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)

	_, err = runApp(t, "estimate", "--volume", "2", "--psi", "7000", "--supplier", "aurora-east")
	assert.ErrorIs(t, err, pricing.ErrUnknownPSIClass)

	_, err = runApp(t, "--output", "xml", "estimate", "--volume", "2", "--psi", "3000")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestNearest(t *testing.T) {
	out, err := runApp(t, "nearest", "--lat", "39.80", "--lon", "-104.98")
	require.NoError(t, err)
	assert.Contains(t, out, "denver-north")

	_, err = runApp(t, "nearest")
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)

	_, err = runApp(t, "nearest", "--lat", "120", "--lon", "0")
	assert.ErrorIs(t, err, supplier.ErrInvalidCoordinate)
}

func TestSuppliers(t *testing.T) {
	out, err := runApp(t, "suppliers")
	require.NoError(t, err)
	assert.Contains(t, out, "denver-north")
	assert.Contains(t, out, "2500, 3000, 4000")
	assert.Contains(t, out, "aurora-east")
}

func TestCatalogMissing(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"readymix", "--catalog", filepath.Join(t.TempDir(), "none.yaml"), "suppliers"})
	assert.ErrorIs(t, err, supplier.ErrCatalogNotFound)
}

func TestVolumeSlab(t *testing.T) {
	out, err := runApp(t, "--output", "json", "volume", "slab", "--length", "20", "--width", "10", "--thickness", "6", "--waste", "10")
	require.NoError(t, err)

	var got struct {
		CubicYards decimal.Decimal `json:"cubic_yards"`
		OrderYards decimal.Decimal `json:"order_yards"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.True(t, got.CubicYards.Equal(decimal.RequireFromString("3.70")))
	assert.True(t, got.OrderYards.Equal(decimal.RequireFromString("4.07")))

	_, err = runApp(t, "volume", "slab", "--length", "0", "--width", "10", "--thickness", "6")
	assert.ErrorIs(t, err, volume.ErrInvalidDimension)
}

func TestVolumeColumn(t *testing.T) {
	out, err := runApp(t, "volume", "column", "--diameter", "12", "--height", "9", "--count", "4")
	require.NoError(t, err)
	// 4 x pi x 0.5^2 x 9 = 28.27 ft3
	assert.Contains(t, out, "1.05 yd")
}
