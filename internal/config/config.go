package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"RiskSentinel/internal/alert"
	"RiskSentinel/internal/analysis"
	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"telegram"`
	Sources struct {
		BinanceURL   string `yaml:"binance_url"`
		CoinGeckoURL string `yaml:"coingecko_url"`
	} `yaml:"sources"`
	Fetch struct {
		Timeout     time.Duration `yaml:"timeout"`
		Retries     int           `yaml:"retries"`
		Backoff     time.Duration `yaml:"backoff"`
		Concurrency int           `yaml:"concurrency"`
		CacheTTL    time.Duration `yaml:"cache_ttl"`
	} `yaml:"fetch"`
	Analysis struct {
		Symbols      []string              `yaml:"symbols"`
		Benchmark    string                `yaml:"benchmark"`
		HorizonDays  int                   `yaml:"horizon_days"`
		Profile      string                `yaml:"profile"`
		Thresholds   *model.RiskThresholds `yaml:"thresholds"`
		Window       int                   `yaml:"window"`
		Annualize    *bool                 `yaml:"annualize"`
		RiskFreeRate *float64              `yaml:"risk_free_rate"`
	} `yaml:"analysis"`
	Alerts struct {
		PoorSharpe        *float64 `yaml:"poor_sharpe"`
		DropThreshold     *float64 `yaml:"drop_threshold"`
		CriticalSpikeMult float64  `yaml:"critical_spike_mult"`
	} `yaml:"alerts"`
	Schedule struct {
		AnalysisCron string `yaml:"analysis_cron"`
		SummaryCron  string `yaml:"summary_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr           string        `yaml:"addr"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`
	Log struct {
		Level         string `yaml:"level"`
		Format        string `yaml:"format"`
		FileEnabled   bool   `yaml:"file_enabled"`
		Dir           string `yaml:"dir"`
		RotationSize  int    `yaml:"rotation_size_mb"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.Sources.BinanceURL = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.Sources.CoinGeckoURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RISK_PROFILE"); v != "" {
		c.Analysis.Profile = v
	}
	if v := os.Getenv("CRON_ANALYSIS"); v != "" {
		c.Schedule.AnalysisCron = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Analysis.Symbols = splitList(v)
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Sources.BinanceURL == "" {
		c.Sources.BinanceURL = collector.DefaultBinanceBaseURL
	}
	if c.Sources.CoinGeckoURL == "" {
		c.Sources.CoinGeckoURL = collector.DefaultCoinGeckoBaseURL
	}

	def := collector.DefaultFetchOptions()
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = def.Timeout
	}
	if c.Fetch.Retries == 0 {
		c.Fetch.Retries = def.Retries
	}
	if c.Fetch.Backoff == 0 {
		c.Fetch.Backoff = def.BackoffBase
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = def.Concurrency
	}
	if c.Fetch.CacheTTL == 0 {
		c.Fetch.CacheTTL = def.CacheTTL
	}

	if len(c.Analysis.Symbols) == 0 {
		c.Analysis.Symbols = collector.SupportedSymbols()
	}
	for i, s := range c.Analysis.Symbols {
		c.Analysis.Symbols[i] = collector.NormalizeSymbol(s)
	}
	if c.Analysis.Benchmark == "" {
		c.Analysis.Benchmark = "BTC"
	}
	c.Analysis.Benchmark = collector.NormalizeSymbol(c.Analysis.Benchmark)
	if c.Analysis.HorizonDays == 0 {
		c.Analysis.HorizonDays = 90
	}
	if c.Analysis.Profile == "" {
		c.Analysis.Profile = strategy.ProfileAnnualized.Name
	}
	if c.Analysis.Window == 0 {
		c.Analysis.Window = calculator.DefaultWindow
	}
	if c.Alerts.CriticalSpikeMult == 0 {
		c.Alerts.CriticalSpikeMult = alert.DefaultRules().CriticalSpikeMult
	}

	if c.Schedule.AnalysisCron == "" {
		c.Schedule.AnalysisCron = "0 5 0 * * *"
	}
	if c.Schedule.SummaryCron == "" {
		c.Schedule.SummaryCron = "0 0 8 * * 1"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/risk_sentinel.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 60 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "pretty"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.RotationSize == 0 {
		c.Log.RotationSize = 50
	}
	if c.Log.RetentionDays == 0 {
		c.Log.RetentionDays = 14
	}
}

// Validate checks that the configuration is usable. Telegram is optional but
// must be complete when either field is set.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together: %w", model.ErrInvalidConfiguration)
	}
	if c.Telegram.ChatID != "" {
		if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); err != nil {
			return fmt.Errorf("telegram.chat_id %q is not numeric: %w", c.Telegram.ChatID, model.ErrInvalidConfiguration)
		}
	}
	for _, s := range append([]string{c.Analysis.Benchmark}, c.Analysis.Symbols...) {
		if _, err := collector.LookupAsset(s); err != nil {
			return fmt.Errorf("analysis: %v (have %s): %w",
				err, strings.Join(collector.SupportedSymbols(), ", "), model.ErrInvalidConfiguration)
		}
	}
	if c.Analysis.HorizonDays < 2 {
		return fmt.Errorf("analysis.horizon_days must be at least 2: %w", model.ErrInvalidConfiguration)
	}
	if c.Analysis.Window < 2 {
		return fmt.Errorf("analysis.window must be at least 2: %w", model.ErrInvalidConfiguration)
	}
	if _, err := c.Profile(); err != nil {
		return err
	}
	if err := c.FetchOptions().Validate(); err != nil {
		return err
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.analysis_cron": c.Schedule.AnalysisCron,
		"schedule.summary_cron":  c.Schedule.SummaryCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s %q: %v: %w", name, spec, err, model.ErrInvalidConfiguration)
		}
	}
	return nil
}

// TelegramEnabled reports whether a bot is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// FetchOptions converts the fetch section for the collector.
func (c *Config) FetchOptions() collector.FetchOptions {
	return collector.FetchOptions{
		Timeout:     c.Fetch.Timeout,
		Retries:     c.Fetch.Retries,
		BackoffBase: c.Fetch.Backoff,
		Concurrency: c.Fetch.Concurrency,
		CacheTTL:    c.Fetch.CacheTTL,
	}
}

// Profile resolves the named profile with any threshold override applied.
func (c *Config) Profile() (strategy.Profile, error) {
	p, err := strategy.LookupProfile(c.Analysis.Profile)
	if err != nil {
		return strategy.Profile{}, err
	}
	if c.Analysis.Thresholds != nil {
		if err := c.Analysis.Thresholds.Validate(); err != nil {
			return strategy.Profile{}, fmt.Errorf("analysis.thresholds: %w", err)
		}
		p = p.WithThresholds(*c.Analysis.Thresholds)
	}
	return p, nil
}

func (c *Config) VolatilityOptions() calculator.VolatilityOptions {
	o := calculator.DefaultVolatilityOptions()
	o.Window = c.Analysis.Window
	if c.Analysis.Annualize != nil {
		o.Annualize = *c.Analysis.Annualize
	}
	return o
}

func (c *Config) PerformanceOptions() calculator.PerformanceOptions {
	o := calculator.DefaultPerformanceOptions()
	if c.Analysis.RiskFreeRate != nil {
		o.RiskFreeRate = *c.Analysis.RiskFreeRate
	}
	if c.Analysis.Annualize != nil {
		o.Annualize = *c.Analysis.Annualize
	}
	return o
}

func (c *Config) AlertRules() alert.Rules {
	r := alert.DefaultRules()
	if c.Alerts.PoorSharpe != nil {
		r.PoorSharpe = *c.Alerts.PoorSharpe
	}
	if c.Alerts.DropThreshold != nil {
		r.DropThreshold = *c.Alerts.DropThreshold
	}
	r.CriticalSpikeMult = c.Alerts.CriticalSpikeMult
	return r
}

// AnalysisConfig assembles the pipeline configuration.
func (c *Config) AnalysisConfig() (analysis.Config, error) {
	p, err := c.Profile()
	if err != nil {
		return analysis.Config{}, err
	}
	return analysis.Config{
		Profile:     p,
		Volatility:  c.VolatilityOptions(),
		Performance: c.PerformanceOptions(),
		Rules:       c.AlertRules(),
	}, nil
}

// Request is the default scheduled analysis request.
func (c *Config) Request() analysis.Request {
	return analysis.Request{
		Symbols:     append([]string(nil), c.Analysis.Symbols...),
		Benchmark:   c.Analysis.Benchmark,
		HorizonDays: c.Analysis.HorizonDays,
	}
}

func (c *Config) Logger(version string) logger.Config {
	return logger.Config{
		Level:         c.Log.Level,
		Format:        c.Log.Format,
		FileEnabled:   c.Log.FileEnabled,
		FilePath:      c.Log.Dir,
		RotationSize:  c.Log.RotationSize,
		RetentionDays: c.Log.RetentionDays,
		Version:       version,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
