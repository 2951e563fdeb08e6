// Package cmd holds the sentinel CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RiskSentinel/internal/cache"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/config"
	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/metrics"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
	offline bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "RiskSentinel - crypto portfolio risk analysis",
	Long: `RiskSentinel fetches daily prices from Binance (CoinGecko as fallback),
measures volatility and risk-adjusted performance, classifies risk and raises alerts.

Commands:
    run       daemon: scheduled analysis, Telegram bot, HTTP API
    analyze   one-shot analysis printed to stdout
    fetch     print the normalized daily series for one symbol

--offline swaps both exchanges for generated series (demos, no network).
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "serve generated prices instead of calling the exchanges")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fetchCmd)
}

func initConfig() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		c.Log.Level = "debug"
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := logger.Init(c.Logger(Version)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()
	cfg = c
	return nil
}

// openCache prefers SQLite and falls back to memory.
func openCache() cache.Store {
	if cfg.Database.SQLitePath == "" {
		return cache.NewMemoryStore()
	}
	store, err := cache.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite cache failed, using memory")
		return cache.NewMemoryStore()
	}
	return store
}

func newProvider(store cache.Store) *collector.Provider {
	if offline {
		log.Warn().Msg("offline mode: prices are generated, not fetched")
		return collector.NewProvider(collector.NewOfflineFetcher("offline"),
			collector.NewOfflineFetcher("offline-fallback"), cfg.FetchOptions(), store)
	}
	primary := collector.NewBinanceFetcher(cfg.Sources.BinanceURL, cfg.Proxy, cfg.Fetch.Timeout)
	secondary := collector.NewCoinGeckoFetcher(cfg.Sources.CoinGeckoURL, cfg.Proxy, cfg.Fetch.Timeout)
	return collector.NewProvider(primary, secondary, cfg.FetchOptions(), store)
}
