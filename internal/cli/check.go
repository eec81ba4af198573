package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/stockwatch/pkg/alerts"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch one inventory snapshot and print the products under threshold",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("file", "", "Read the snapshot from a local YAML/JSON file")
	checkCmd.Flags().Bool("all", false, "List every product, not only alerts")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	all, _ := cmd.Flags().GetBool("all")

	logger := newLogger(cfg)
	ctx := cmd.Context()

	store, db, err := initStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := initSource(cfg, file, logger)
	if err != nil {
		return err
	}

	snapshot, err := source.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}

	settings := store.Current()
	found := alerts.Classify(snapshot, settings)
	printCheck(os.Stdout, snapshot, found, settings, all)
	return nil
}

func printCheck(out io.Writer, snapshot []model.ProductStockRecord, found []model.Alert, settings model.ThresholdSettings, all bool) {
	critical, warning := alerts.Partition(found)
	fmt.Fprintf(out, "Products: %d  Critical: %d  Warning: %d  (critical <= %d, warning <= %d)\n\n",
		len(snapshot), len(critical), len(warning), settings.CriticalThreshold, settings.WarningThreshold)

	byID := make(map[model.ProductID]model.Alert, len(found))
	for _, a := range found {
		byID[a.Product.ID] = a
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSKU\tSTOCK\tLEVEL\tLIMIT")
	fmt.Fprintln(w, "--\t----\t---\t-----\t-----\t-----")

	for _, p := range snapshot {
		a, ok := byID[p.ID]
		if !ok {
			if all {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\tok\t-\n", p.ID, p.Name, orDash(p.SKU), p.Stock)
			}
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n", p.ID, p.Name, orDash(p.SKU), p.Stock, a.Type, a.Limit)
	}
	w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
