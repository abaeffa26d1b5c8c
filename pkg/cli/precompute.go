package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/TechNxt05/revtrust/pkg/aggregate"
	"github.com/TechNxt05/revtrust/pkg/data"
)

var (
	corpusFileFlag = &cli.StringSliceFlag{
		Name:  "file",
		Usage: "Review corpus CSV (can be specified multiple times, defaults to the configured review files)",
	}

	allowListFlag = &cli.StringFlag{
		Name:  "allow-list",
		Usage: "Path to a file with one catalog item id per line; restricts aggregation to known items",
	}

	rowBudgetFlag = &cli.IntFlag{
		Name:  "rows",
		Usage: fmt.Sprintf("Row budget per corpus file (default: %d)", aggregate.RowBudgetDefault),
	}

	cacheOutFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Also export the cache artifact as a JSON file",
	}

	precomputeCmd = &cli.Command{
		Name:    "precompute",
		Aliases: []string{"pre"},
		Usage:   "Scan the review corpus and regenerate the precomputed trust cache",
		UsageText: `revtrust precompute
   revtrust precompute --file data/reviews.csv --allow-list data/catalog.txt
   revtrust precompute --out trust_scores.json`,
		Action: cmdPrecompute,
		Flags: []cli.Flag{
			corpusFileFlag,
			allowListFlag,
			rowBudgetFlag,
			cacheOutFlag,
		},
	}
)

// PrecomputeResult is the command output summary.
type PrecomputeResult struct {
	Files    int    `json:"files" yaml:"files"`
	Rows     int    `json:"rows" yaml:"rows"`
	Items    int    `json:"items" yaml:"items"`
	Saved    int    `json:"saved" yaml:"saved"`
	Duration string `json:"duration" yaml:"duration"`
}

func cmdPrecompute(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)

	paths := c.StringSlice(corpusFileFlag.Name)
	if len(paths) == 0 {
		paths = cfg.Conf.ReviewFiles
	}

	agg := &aggregate.Aggregator{RowBudget: c.Int(rowBudgetFlag.Name)}

	if p := c.String(allowListFlag.Name); p != "" {
		allow, err := readAllowList(p)
		if err != nil {
			return fmt.Errorf("reading allow-list: %w", err)
		}
		slog.Info("restricting aggregation to known catalog items", "items", len(allow))
		agg.AllowList = allow
	}

	out, err := agg.Run(c.Context, paths)
	if err != nil {
		return fmt.Errorf("aggregating corpus: %w", err)
	}

	saved, err := data.SaveTrustResults(cfg.DB, out.Scores)
	if err != nil {
		return fmt.Errorf("saving trust cache: %w", err)
	}

	if p := c.String(cacheOutFlag.Name); p != "" {
		if err := exportCache(p, out); err != nil {
			return fmt.Errorf("exporting cache artifact: %w", err)
		}
		slog.Info("cache artifact exported", "path", p)
	}

	res := &PrecomputeResult{
		Files:    out.Files,
		Rows:     out.Rows,
		Items:    out.Items,
		Saved:    saved.Saved,
		Duration: time.Since(start).String(),
	}

	if err := encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

func readAllowList(path string) (map[string]bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	allow := make(map[string]bool)
	s := bufio.NewScanner(file)
	for s.Scan() {
		id := strings.TrimSpace(s.Text())
		if id != "" {
			allow[id] = true
		}
	}
	return allow, s.Err()
}

func exportCache(path string, out *aggregate.Result) error {
	b, err := json.MarshalIndent(out.Scores, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}
