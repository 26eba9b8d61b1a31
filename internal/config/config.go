package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "SALES_SCANNER_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	logLevelEnv     = "LOG_LEVEL"
	sitemapPathEnv  = "SITEMAP_PATH"
	outputPathEnv   = "SALES_SCANNER_OUTPUT"
	concurrencyEnv  = "SALES_SCANNER_CONCURRENCY"
	itemTimeoutEnv  = "SALES_SCANNER_ITEM_TIMEOUT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Site      SiteConfig      `yaml:"site"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Output    OutputConfig    `yaml:"output"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SiteConfig describes the crawled site and its private detail API.
type SiteConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	APIURL       string `yaml:"apiUrl"`
	SitemapPath  string `yaml:"sitemapPath"`
	DetailPath   string `yaml:"detailPath"`
	LinkSelector string `yaml:"linkSelector"`
	UserAgent    string `yaml:"userAgent"`
}

// PipelineConfig tunes the fetch stages. A quota of zero keeps every success;
// an item timeout of zero disables the per-item deadline.
type PipelineConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	ResolveQuota  int           `yaml:"resolveQuota"`
	MetadataQuota int           `yaml:"metadataQuota"`
	ItemTimeout   time.Duration `yaml:"itemTimeout"`

	// itemTimeoutSet records an explicit itemTimeout in a file, including 0s.
	itemTimeoutSet bool `yaml:"-"`
}

// OutputConfig locates the CSV artifact.
type OutputConfig struct {
	CSVPath string `yaml:"csvPath"`
}

// DatabaseConfig enables the Postgres sink when DSN is set.
type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// SchedulerConfig defines when recurring runs fire.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// MetricsConfig points at a node-exporter textfile; empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := ReadFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// ReadFile parses a YAML config file without applying defaults.
func ReadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	var explicit struct {
		Pipeline struct {
			ItemTimeout *time.Duration `yaml:"itemTimeout"`
		} `yaml:"pipeline"`
	}
	if err := yaml.Unmarshal(raw, &explicit); err == nil && explicit.Pipeline.ItemTimeout != nil {
		fileCfg.Pipeline.itemTimeoutSet = true
	}
	return fileCfg, nil
}

// Validate reports settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site.baseUrl is required"))
	}
	if c.Site.APIURL == "" {
		errs = append(errs, errors.New("site.apiUrl is required"))
	}
	if c.Pipeline.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("pipeline.concurrency must be >= 1, got %d", c.Pipeline.Concurrency))
	}
	if c.Pipeline.ResolveQuota < 0 {
		errs = append(errs, fmt.Errorf("pipeline.resolveQuota must be >= 0, got %d", c.Pipeline.ResolveQuota))
	}
	if c.Pipeline.MetadataQuota < 0 {
		errs = append(errs, fmt.Errorf("pipeline.metadataQuota must be >= 0, got %d", c.Pipeline.MetadataQuota))
	}
	if c.Pipeline.ItemTimeout < 0 {
		errs = append(errs, fmt.Errorf("pipeline.itemTimeout must be >= 0, got %s", c.Pipeline.ItemTimeout))
	}
	if c.Output.CSVPath == "" {
		errs = append(errs, errors.New("output.csvPath is required"))
	}
	return errors.Join(errs...)
}

// ResolvedCSVPath resolves the output path against the working directory.
func (o OutputConfig) ResolvedCSVPath() (string, error) {
	if filepath.IsAbs(o.CSVPath) {
		return o.CSVPath, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	return filepath.Join(wd, o.CSVPath), nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(sitemapPathEnv); v != "" {
		c.Site.SitemapPath = v
	}

	if v := os.Getenv(outputPathEnv); v != "" {
		c.Output.CSVPath = v
	}

	if v := os.Getenv(concurrencyEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.Concurrency = n
		} else {
			log.Printf("config: ignoring %s=%q: %v", concurrencyEnv, v, err)
		}
	}

	if v := os.Getenv(itemTimeoutEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Pipeline.ItemTimeout = d
		} else {
			log.Printf("config: ignoring %s=%q: %v", itemTimeoutEnv, v, err)
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Site.BaseURL != "" {
		base.Site.BaseURL = override.Site.BaseURL
	}
	if override.Site.APIURL != "" {
		base.Site.APIURL = override.Site.APIURL
	}
	if override.Site.SitemapPath != "" {
		base.Site.SitemapPath = override.Site.SitemapPath
	}
	if override.Site.DetailPath != "" {
		base.Site.DetailPath = override.Site.DetailPath
	}
	if override.Site.LinkSelector != "" {
		base.Site.LinkSelector = override.Site.LinkSelector
	}
	if override.Site.UserAgent != "" {
		base.Site.UserAgent = override.Site.UserAgent
	}

	if override.Pipeline.Concurrency != 0 {
		base.Pipeline.Concurrency = override.Pipeline.Concurrency
	}
	if override.Pipeline.ResolveQuota != 0 {
		base.Pipeline.ResolveQuota = override.Pipeline.ResolveQuota
	}
	if override.Pipeline.MetadataQuota != 0 {
		base.Pipeline.MetadataQuota = override.Pipeline.MetadataQuota
	}
	if override.Pipeline.itemTimeoutSet || override.Pipeline.ItemTimeout != 0 {
		base.Pipeline.ItemTimeout = override.Pipeline.ItemTimeout
	}

	if override.Output.CSVPath != "" {
		base.Output.CSVPath = override.Output.CSVPath
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Table != "" {
		base.Database.Table = override.Database.Table
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Metrics.Textfile != "" {
		base.Metrics.Textfile = override.Metrics.Textfile
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Site: SiteConfig{
			BaseURL:      "https://www.trulia.com",
			APIURL:       "https://origin-api.trulia.com",
			SitemapPath:  "/property-sitemap/CA/San-Diego-County-06073/92130/Carmel_Vista_Rd/",
			DetailPath:   "/app/v8/detail",
			LinkSelector: "a[class='clickable h7 ']",
			UserAgent:    "tr-src/IphoneApp tr-ver/11.0 tr-osv/12.0",
		},
		Pipeline: PipelineConfig{
			Concurrency: 5,
			ItemTimeout: 30 * time.Second,
		},
		Output:    OutputConfig{CSVPath: "homeData.csv"},
		Database:  DatabaseConfig{Table: "sale_records"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
	}
}
