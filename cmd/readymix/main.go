// readymix prices ready-mix concrete orders against a supplier catalog.
//
// Usage:
//
//	readymix estimate --volume 5.5 --psi 3000 --lat 39.74 --lon -104.99
//	readymix nearest --lat 39.74 --lon -104.99
//	readymix suppliers
//	readymix volume slab --length 20 --width 10 --thickness 4
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Simplici0/readymix/internal/logging"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "readymix",
		Usage:   "Ready-mix concrete estimates from a supplier catalog",
		Version: version,
		Writer:  out,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog",
				Aliases: []string{"c"},
				Value:   "suppliers.yaml",
				Usage:   "Path to the supplier catalog (YAML)",
				EnvVars: []string{"SUPPLIER_CATALOG"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "Output format (text, json)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},

		Before: func(c *cli.Context) error {
			logger, err := logging.New("production", c.String("log-level"))
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},

		Commands: []*cli.Command{
			estimateCommand(),
			nearestCommand(),
			suppliersCommand(),
			volumeCommand(),
		},
	}
}
