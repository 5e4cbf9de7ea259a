package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/invpulse/internal/config"
	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/inventory"
	"github.com/andresuchdata/invpulse/internal/service"
	"github.com/andresuchdata/invpulse/internal/sheet"
)

type fileReport struct {
	domain.Summary
	LowStockSKUs  []string `json:"lowStockSkus,omitempty"`
	OverstockSKUs []string `json:"overstockSkus,omitempty"`
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Summarize one or more .csv/.xlsx stock files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			marginFlag(),
			&cli.BoolFlag{
				Name:  "items",
				Usage: "List low stock and overstock SKUs per file",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Files analyzed in parallel",
				Value: runtime.NumCPU(),
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("at least one FILE is required", 2)
	}

	cfg := config.Load()
	reconciler := newReconciler(c, cfg)
	withItems := c.Bool("items")

	reports := make([]fileReport, len(paths))
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(max(1, c.Int("workers")))
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			// Each file gets its own dashboard so reports stay independent.
			dashboard := service.NewDashboard(reconciler, nil)
			snap, err := dashboard.LoadFile(ctx, filepath.Base(path), data)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", path, err)
			}

			report := fileReport{Summary: snap.Summary()}
			report.FileName = path
			if withItems {
				report.LowStockSKUs = skus(dashboard.LowStockItems())
				report.OverstockSKUs = skus(dashboard.OverstockItems())
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return printJSON(c.App.Writer, reports)
}

func skus(products []inventory.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.SKU
	}
	return out
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a .csv/.xlsx stock file to normalized CSV (first sheet only)",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output path, - for stdout (default: FILE with a .csv extension)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one FILE is required", 2)
			}
			in := c.Args().First()

			rows, err := sheet.DecodeFile(in)
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "-" {
				return sheet.WriteCSV(c.App.Writer, rows)
			}
			if out == "" {
				out = in[:len(in)-len(filepath.Ext(in))] + ".csv"
				if out == in {
					return cli.Exit("input is already CSV; pass --out", 2)
				}
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := sheet.WriteCSV(f, rows); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "wrote %d rows to %s\n", len(rows), out)
			return nil
		},
	}
}
