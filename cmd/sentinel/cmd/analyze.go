package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"RiskSentinel/internal/analysis"
	"RiskSentinel/internal/cache"
	"RiskSentinel/internal/model"
)

var (
	analyzeJSON      bool
	analyzeSymbols   []string
	analyzeBenchmark string
	analyzeDays      int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.NewMemoryStore()
		acfg, err := cfg.AnalysisConfig()
		if err != nil {
			return err
		}
		req := cfg.Request()
		if len(analyzeSymbols) > 0 {
			req.Symbols = analyzeSymbols
		}
		if cmd.Flags().Changed("benchmark") {
			req.Benchmark = analyzeBenchmark
		}
		if analyzeDays > 0 {
			req.HorizonDays = analyzeDays
		}

		report, err := analysis.New(newProvider(store), acfg).Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		return printReport(os.Stdout, report)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().StringSliceVarP(&analyzeSymbols, "symbols", "s", nil, "symbols to analyse (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeBenchmark, "benchmark", "b", "", "benchmark symbol, empty disables beta")
	analyzeCmd.Flags().IntVarP(&analyzeDays, "days", "d", 0, "horizon in days (default from config)")
}

func printReport(w io.Writer, r *model.Report) error {
	fmt.Fprintf(w, "Run %s  %s  horizon %dd  profile %s  benchmark %s\n\n",
		r.RunID, r.GeneratedAt.Format("2006-01-02 15:04 MST"), r.HorizonDays, r.Profile, orNone(r.Benchmark))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ASSET\tPRICE\t24H\tDAILY VOL\tANN VOL\tSHARPE\tBETA\tMAX DD\tVAR95\tSCORE\tRISK\t")
	for _, a := range r.Assets {
		fmt.Fprintf(tw, "%s\t%.4f\t%+.2f%%\t%.2f%%\t%.2f%%\t%s\t%s\t%.2f%%\t%.2f%%\t%.0f\t%s\t\n",
			a.Symbol, a.CurrentPrice, a.LastReturn24h*100,
			a.Volatility.DailyVolatility*100, a.Volatility.AnnualizedVolatility*100,
			a.Performance.SharpeRatio, a.Performance.Beta,
			a.Performance.MaxDrawdown*100, a.Performance.VaR95*100, a.RiskScore, a.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, a := range r.Assets {
		if len(a.RiskFactors) > 0 {
			fmt.Fprintf(w, "\n%s: %s\n  %s\n", a.Symbol, strings.Join(a.RiskFactors, "; "), a.Guidance)
		}
	}
	failed := make([]string, 0, len(r.Failures))
	for sym := range r.Failures {
		failed = append(failed, sym)
	}
	sort.Strings(failed)
	for _, sym := range failed {
		fmt.Fprintf(w, "\n%s unavailable: %s\n", sym, r.Failures[sym])
	}
	if len(r.Alerts) == 0 {
		fmt.Fprintln(w, "\nNo alerts")
		return nil
	}
	fmt.Fprintln(w, "\nAlerts:")
	for _, al := range r.Alerts {
		fmt.Fprintf(w, "  [%s] %s %s\n", al.Severity, al.Kind, al.Message)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
