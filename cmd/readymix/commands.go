package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/Simplici0/readymix/internal/estimate"
	"github.com/Simplici0/readymix/internal/pricing"
	"github.com/Simplici0/readymix/internal/supplier"
	"github.com/Simplici0/readymix/internal/volume"
)

func locationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "lat", Usage: "Job site latitude"},
		&cli.Float64Flag{Name: "lon", Usage: "Job site longitude"},
	}
}

// =============================================================================
// ESTIMATE COMMAND
// =============================================================================

func estimateCommand() *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Price a concrete order",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "volume", Aliases: []string{"v"}, Usage: "Cubic yards", Required: true},
			&cli.StringFlag{Name: "psi", Usage: "Strength class", Required: true},
			&cli.StringFlag{Name: "distance", Aliases: []string{"d"}, Usage: "Delivery distance in miles (defaults to the supplier distance)"},
			&cli.StringFlag{Name: "supplier", Aliases: []string{"s"}, Usage: "Supplier id (defaults to the nearest supplier)"},
			&cli.BoolFlag{Name: "pump", Usage: "Add a pump truck"},
			&cli.BoolFlag{Name: "saturday", Usage: "Saturday delivery"},
			&cli.BoolFlag{Name: "after-hours", Usage: "After-hours delivery"},
		}, locationFlags()...),
		Action: runEstimate,
	}
}

type estimateOutput struct {
	SupplierSelected bool               `json:"supplier_selected"`
	SupplierID       string             `json:"supplier_id,omitempty"`
	SupplierName     string             `json:"supplier_name,omitempty"`
	DistanceMiles    *decimal.Decimal   `json:"distance_miles,omitempty"`
	Input            pricing.Input      `json:"input"`
	Pricing          pricing.Result     `json:"pricing"`
	Formatted        estimate.Formatted `json:"formatted"`
}

func runEstimate(c *cli.Context) error {
	locator, err := loadLocator(c)
	if err != nil {
		return err
	}

	req := estimate.Request{
		PSI:        strings.TrimSpace(c.String("psi")),
		SupplierID: strings.TrimSpace(c.String("supplier")),
		Flags: pricing.Flags{
			NeedsPumpTruck:       c.Bool("pump"),
			IsSaturdayDelivery:   c.Bool("saturday"),
			IsAfterHoursDelivery: c.Bool("after-hours"),
		},
	}
	if req.Volume, err = decimalFlag(c, "volume"); err != nil {
		return err
	}
	if c.IsSet("distance") {
		d, err := decimalFlag(c, "distance")
		if err != nil {
			return err
		}
		req.Distance = &d
	}
	if req.Point, err = pointFlags(c); err != nil {
		return err
	}

	est, err := estimate.Build(locator, req)
	if err != nil {
		return err
	}

	out := estimateOutput{
		SupplierSelected: est.Pricing.SupplierSelected,
		DistanceMiles:    est.DistanceMiles,
		Input:            est.Input,
		Pricing:          est.Pricing,
		Formatted:        estimate.Format(est.Pricing),
	}
	if est.Supplier != nil {
		out.SupplierID = est.Supplier.ID
		out.SupplierName = est.Supplier.Name
	}

	return render(c, out, func(w io.Writer) {
		if !out.SupplierSelected {
			fmt.Fprintln(w, "No supplier selected. Pass --lat/--lon or --supplier to see pricing.")
			fmt.Fprintf(w, "Total:\t%s\n", out.Formatted.Total)
			return
		}
		f := out.Formatted
		fmt.Fprintf(w, "Supplier:\t%s (%s)\n", out.SupplierName, out.SupplierID)
		if out.DistanceMiles != nil {
			fmt.Fprintf(w, "Supplier distance:\t%s mi\n", out.DistanceMiles.StringFixed(2))
		}
		fmt.Fprintf(w, "Concrete:\t%s yd x %s (%s PSI)\t%s\n", est.Input.Volume, f.PricePerYard, est.Input.PSI, f.ConcreteCost)
		fmt.Fprintf(w, "Base delivery:\t\t%s\n", f.BaseDeliveryFee)
		fmt.Fprintf(w, "Small load fee:\t\t%s\n", f.SmallLoadFee)
		fmt.Fprintf(w, "Distance fee:\t%s mi\t%s\n", est.Input.Distance.StringFixed(2), f.DistanceFee)
		fmt.Fprintf(w, "Additional services:\t\t%s\n", f.AdditionalServices)
		fmt.Fprintf(w, "Total:\t\t%s\n", f.Total)
	})
}

// =============================================================================
// NEAREST / SUPPLIERS COMMANDS
// =============================================================================

func nearestCommand() *cli.Command {
	return &cli.Command{
		Name:  "nearest",
		Usage: "Find the supplier closest to a job site",
		Flags: locationFlags(),
		Action: func(c *cli.Context) error {
			locator, err := loadLocator(c)
			if err != nil {
				return err
			}
			point, err := pointFlags(c)
			if err != nil {
				return err
			}
			if point == nil {
				return fmt.Errorf("%w: --lat and --lon are required", pricing.ErrInvalidInput)
			}

			loc, miles, err := locator.NearestWithDistance(*point)
			if err != nil {
				return err
			}
			dist := decimal.NewFromFloat(miles).Round(2)

			out := struct {
				Supplier      supplier.Location `json:"supplier"`
				DistanceMiles decimal.Decimal   `json:"distance_miles"`
			}{loc, dist}
			return render(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s)\t%s mi\n", loc.Name, loc.ID, dist.StringFixed(2))
				if loc.Address != "" {
					fmt.Fprintf(w, "%s\t\n", loc.Address)
				}
			})
		},
	}
}

func suppliersCommand() *cli.Command {
	return &cli.Command{
		Name:  "suppliers",
		Usage: "List the suppliers in the catalog",
		Action: func(c *cli.Context) error {
			locator, err := loadLocator(c)
			if err != nil {
				return err
			}
			all := locator.All()
			return render(c, map[string]any{"suppliers": all}, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tPSI CLASSES")
				for _, loc := range all {
					fmt.Fprintf(w, "%s\t%s\t%s\n", loc.ID, loc.Name, strings.Join(loc.Pricing.PSIClasses(), ", "))
				}
			})
		},
	}
}

// =============================================================================
// VOLUME COMMAND
// =============================================================================

func volumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "volume",
		Usage: "Compute cubic yards for common pours",
		Subcommands: []*cli.Command{
			{
				Name:  "slab",
				Usage: "Rectangular slab",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "length", Usage: "Length in feet", Required: true},
					&cli.StringFlag{Name: "width", Usage: "Width in feet", Required: true},
					&cli.StringFlag{Name: "thickness", Usage: "Thickness in inches", Required: true},
					wasteFlag(),
				},
				Action: volumeAction([]string{"length", "width", "thickness"}, func(_ *cli.Context, v []decimal.Decimal) (decimal.Decimal, error) {
					return volume.Slab(v[0], v[1], v[2])
				}),
			},
			{
				Name:  "footing",
				Usage: "Continuous footing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "length", Usage: "Length in feet", Required: true},
					&cli.StringFlag{Name: "width", Usage: "Width in inches", Required: true},
					&cli.StringFlag{Name: "depth", Usage: "Depth in inches", Required: true},
					wasteFlag(),
				},
				Action: volumeAction([]string{"length", "width", "depth"}, func(_ *cli.Context, v []decimal.Decimal) (decimal.Decimal, error) {
					return volume.Footing(v[0], v[1], v[2])
				}),
			},
			{
				Name:  "column",
				Usage: "Round columns",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "diameter", Usage: "Diameter in inches", Required: true},
					&cli.StringFlag{Name: "height", Usage: "Height in feet", Required: true},
					&cli.IntFlag{Name: "count", Value: 1, Usage: "Number of columns"},
					wasteFlag(),
				},
				Action: volumeAction([]string{"diameter", "height"}, func(c *cli.Context, v []decimal.Decimal) (decimal.Decimal, error) {
					return volume.Column(v[0], v[1], c.Int("count"))
				}),
			},
		},
	}
}

func wasteFlag() cli.Flag {
	return &cli.StringFlag{Name: "waste", Value: "0", Usage: "Over-order allowance in percent"}
}

// volumeAction parses the named dimension flags in order and hands them to compute.
func volumeAction(dims []string, compute func(*cli.Context, []decimal.Decimal) (decimal.Decimal, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		values := make([]decimal.Decimal, 0, len(dims))
		for _, name := range dims {
			v, err := decimalFlag(c, name)
			if err != nil {
				return err
			}
			values = append(values, v)
		}

		yards, err := compute(c, values)
		if err != nil {
			return err
		}
		percent, err := decimalFlag(c, "waste")
		if err != nil {
			return err
		}
		order, err := volume.WithWaste(yards, percent)
		if err != nil {
			return err
		}

		out := struct {
			CubicYards   decimal.Decimal `json:"cubic_yards"`
			WastePercent decimal.Decimal `json:"waste_percent"`
			OrderYards   decimal.Decimal `json:"order_yards"`
		}{yards, percent, order}
		return render(c, out, func(w io.Writer) {
			fmt.Fprintf(w, "Volume:\t%s yd\n", yards.StringFixed(2))
			fmt.Fprintf(w, "Order (+%s%%):\t%s yd\n", percent, order.StringFixed(2))
		})
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func loadLocator(c *cli.Context) (*supplier.Locator, error) {
	locations, err := supplier.LoadCatalog(c.String("catalog"))
	if err != nil {
		return nil, err
	}
	return supplier.NewLocator(locations), nil
}

func decimalFlag(c *cli.Context, name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.String(name))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: --%s must be a number, got %q", pricing.ErrInvalidInput, name, raw)
	}
	return d, nil
}

func pointFlags(c *cli.Context) (*supplier.Point, error) {
	hasLat, hasLon := c.IsSet("lat"), c.IsSet("lon")
	if !hasLat && !hasLon {
		return nil, nil
	}
	if hasLat != hasLon {
		return nil, fmt.Errorf("%w: --lat and --lon must be given together", pricing.ErrInvalidInput)
	}
	p := supplier.Point{Latitude: c.Float64("lat"), Longitude: c.Float64("lon")}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func render(c *cli.Context, v any, text func(io.Writer)) error {
	switch format := c.String("output"); format {
	case "json":
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}
