package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/TechNxt05/revtrust/pkg/data"
	"github.com/TechNxt05/revtrust/pkg/oracle"
	"github.com/TechNxt05/revtrust/pkg/scan"
	"github.com/TechNxt05/revtrust/pkg/trust"
)

var (
	itemIDFlag = &cli.StringFlag{
		Name:  "id",
		Usage: "Item identifier to score (runs the resolution chain)",
	}

	reviewTextFlag = &cli.StringSliceFlag{
		Name:  "text",
		Usage: "Review text to score directly (can be specified multiple times)",
	}

	reviewFileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Path to a JSON array of reviews to score directly",
	}

	trustCmd = &cli.Command{
		Name:    "trust",
		Aliases: []string{"t"},
		Usage:   "Compute the trust score for an item or a batch of reviews",
		UsageText: `revtrust trust --id B08XYZ                      # cache -> pipeline -> scan -> neutral
   revtrust trust --text "Great!" --text "MUST BUY" # score texts directly
   revtrust trust --file reviews.json               # score structured reviews directly`,
		Action: cmdTrust,
		Flags: []cli.Flag{
			itemIDFlag,
			reviewTextFlag,
			reviewFileFlag,
		},
	}
)

func cmdTrust(c *cli.Context) error {
	cfg := getConfig(c)
	resolver := buildResolver(cfg)

	itemID := c.String(itemIDFlag.Name)
	texts := c.StringSlice(reviewTextFlag.Name)
	file := c.String(reviewFileFlag.Name)

	var res *trust.TrustResult
	switch {
	case itemID != "":
		res = resolver.GetTrust(c.Context, itemID)
	case len(texts) > 0:
		res = resolver.GetTrustForTexts(c.Context, texts)
	case file != "":
		reviews, err := readReviewsFile(file)
		if err != nil {
			return err
		}
		res = resolver.GetTrustForReviews(c.Context, reviews)
	default:
		return cli.ShowSubcommandHelp(c)
	}

	if err := encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// buildResolver wires the resolution chain from whatever capabilities
// are actually configured. Missing ones simply degrade the chain.
func buildResolver(cfg *appConfig) *trust.Resolver {
	p := &trust.Pipeline{}

	if key := getOracleKey(cfg.HomeDir); key != "" {
		client, err := oracle.New(cfg.Conf.Oracle, key)
		if err != nil {
			slog.Warn("oracle not configured", "error", err)
		} else {
			p.Classifier = client
		}
	}

	return &trust.Resolver{
		Pipeline: p,
		Cache:    &data.CacheSource{DB: cfg.DB},
		Reviews:  &data.ReviewSource{DB: cfg.DB},
		Scanner: &scan.Scanner{
			Paths:       cfg.Conf.ReviewFiles,
			RowBudget:   cfg.Conf.ScanRowBudget,
			MatchBudget: cfg.Conf.ScanMatchBudget,
		},
		AlwaysAdjudicate: cfg.Conf.AlwaysAdjudicate,
	}
}

func readReviewsFile(path string) ([]trust.Review, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reviews file %s: %w", path, err)
	}
	var reviews []trust.Review
	if err := json.Unmarshal(b, &reviews); err != nil {
		return nil, fmt.Errorf("decoding reviews file %s: %w", path, err)
	}
	return reviews, nil
}
