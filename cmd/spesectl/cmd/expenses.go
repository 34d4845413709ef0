package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spesevoce/internal/backend"
	"spesevoce/internal/core"
)

var (
	listLimit      int
	totalsCategory string
	totalsDate     string
)

var addCmd = &cobra.Command{
	Use:   "add <transcript>",
	Short: "Classify a transcript and store it as an expense",
	Long: `Runs one transcript through the pipeline: classification, local
store and, when enabled, the spreadsheet mirror.

Example:
  spesectl add "кофе 3 евро"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")
		err := withBackend(cmd.Context(), func(b *backend.Backend) error {
			rec, err := b.Pipeline.ProcessTranscript(cmd.Context(), text)
			if rec.ID != "" {
				printRecords([]core.Record{rec})
			}
			return err
		})
		exitOnError(err, "failed to process transcript")
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored expenses, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		err := withBackend(cmd.Context(), func(b *backend.Backend) error {
			list := b.Records.Records()
			if listLimit > 0 && len(list) > listLimit {
				list = list[:listLimit]
			}
			printRecords(list)
			return nil
		})
		exitOnError(err, "failed to list expenses")
	},
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show totals per category, or for one category and day",
	Run: func(cmd *cobra.Command, args []string) {
		if totalsDate != "" {
			if totalsCategory == "" {
				exitOnError(fmt.Errorf("--date needs --category"), "invalid flags")
			}
			if _, err := time.Parse(core.DateLayout, totalsDate); err != nil {
				exitOnError(err, "invalid --date")
			}
		}
		err := withBackend(cmd.Context(), func(b *backend.Backend) error {
			switch {
			case totalsDate != "":
				fmt.Printf("%s %s: %s\n", totalsCategory, totalsDate,
					b.Records.TotalByCategoryAndDate(totalsCategory, totalsDate))
			case totalsCategory != "":
				fmt.Printf("%s: %s\n", totalsCategory, b.Records.TotalByCategory(totalsCategory))
			default:
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for _, c := range b.Records.Categories() {
					fmt.Fprintf(w, "%s\t%s\n", c, b.Records.TotalByCategory(c))
				}
				return w.Flush()
			}
			return nil
		})
		exitOnError(err, "failed to compute totals")
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every local expense; the spreadsheet is left untouched",
	Run: func(cmd *cobra.Command, args []string) {
		err := withBackend(cmd.Context(), func(b *backend.Backend) error {
			n := len(b.Records.Records())
			b.Records.Clear(cmd.Context())
			fmt.Printf("Cleared %d expenses\n", n)
			return nil
		})
		exitOnError(err, "failed to clear expenses")
	},
}

func printRecords(list []core.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tSUBCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\t%s\n",
			r.ID, r.Day(time.Local), r.Category, r.Subcategory,
			r.Amount.StringFixed(2), r.Currency, r.Description)
	}
	_ = w.Flush()
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many expenses")
	totalsCmd.Flags().StringVar(&totalsCategory, "category", "", "category to total")
	totalsCmd.Flags().StringVar(&totalsDate, "date", "", "day to total (YYYY-MM-DD), requires --category")
}
