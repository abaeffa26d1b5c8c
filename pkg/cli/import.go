package cli

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/TechNxt05/revtrust/pkg/data"
)

var (
	importFileFlag = &cli.StringFlag{
		Name:     "file",
		Usage:    "Path to the review CSV corpus",
		Required: true,
	}

	importLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of rows to import (0 = all)",
	}

	importFreshFlag = &cli.BoolFlag{
		Name:  "fresh",
		Usage: "Clear previously imported reviews first",
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import a review CSV corpus into the local database",
		UsageText: `revtrust import --file data/reviews.csv
   revtrust import --file data/reviews.csv --fresh --limit 100000`,
		Action: cmdImport,
		Flags: []cli.Flag{
			importFileFlag,
			importLimitFlag,
			importFreshFlag,
		},
	}
)

func cmdImport(c *cli.Context) error {
	cfg := getConfig(c)

	if c.Bool(importFreshFlag.Name) {
		if err := data.ClearReviews(cfg.DB); err != nil {
			return fmt.Errorf("clearing reviews: %w", err)
		}
		slog.Info("cleared previously imported reviews")
	}

	res, err := data.ImportReviews(cfg.DB, c.String(importFileFlag.Name), c.Int(importLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("importing reviews: %w", err)
	}

	if err := encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
