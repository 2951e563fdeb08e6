package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"RiskSentinel/internal/cache"
)

var fetchDays int

var fetchCmd = &cobra.Command{
	Use:   "fetch SYMBOL",
	Short: "Print the normalized daily close series for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := newProvider(cache.NewMemoryStore()).FetchOutcome(cmd.Context(), args[0], fetchDays)
		if err != nil {
			return err
		}
		if out.PrimaryErr != nil {
			fmt.Fprintf(os.Stderr, "primary source failed: %v\n", out.PrimaryErr)
		}
		fmt.Printf("%s from %s, %d points\n", out.Series.Symbol, out.Source, out.Series.Len())
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, p := range out.Series.Points {
			fmt.Fprintf(tw, "%s\t%.6f\n", p.Time.Format(time.DateOnly), p.Close)
		}
		return tw.Flush()
	},
}

func init() {
	fetchCmd.Flags().IntVarP(&fetchDays, "days", "d", 30, "horizon in days")
}
