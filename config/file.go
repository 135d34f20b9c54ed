package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML files. Unset keys keep their current value.
type fileConfig struct {
	PageURL        *string  `yaml:"page_url"`
	Pages          *int     `yaml:"pages"`
	ExchangeRate   *float64 `yaml:"exchange_rate"`
	Currency       *string  `yaml:"currency"`
	DelaySeconds   *float64 `yaml:"delay_seconds"`
	Timeout        *string  `yaml:"timeout"`
	UserAgent      *string  `yaml:"user_agent"`
	RespectRobots  *bool    `yaml:"respect_robots"`
	Parallelism    *int     `yaml:"parallelism"`
	MaxRetries     *int     `yaml:"max_retries"`
	RetryBackoff   *string  `yaml:"retry_backoff"`
	RetryBackoffMx *string  `yaml:"retry_backoff_max"`
	StopOnNotFound *bool    `yaml:"stop_on_not_found"`
	Output         *string  `yaml:"output"`
	Format         *string  `yaml:"format"`
	DedupeMaxSize  *int     `yaml:"dedupe_max_size"`
	MetricsAddr    *string  `yaml:"metrics_addr"`
	LogFile        *string  `yaml:"log_file"`
}

// LoadFile applies a YAML configuration file on top of cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.PageURLTemplate, fc.PageURL)
	setInt(&cfg.PageCount, fc.Pages)
	if fc.ExchangeRate != nil {
		cfg.ExchangeRate = *fc.ExchangeRate
	}
	setString(&cfg.CurrencySymbol, fc.Currency)
	if fc.DelaySeconds != nil {
		cfg.Delay = SecondsToDuration(*fc.DelaySeconds)
	}
	if err := setDuration(&cfg.Timeout, fc.Timeout, "timeout"); err != nil {
		return err
	}
	setString(&cfg.UserAgent, fc.UserAgent)
	setBool(&cfg.RespectRobotsTxt, fc.RespectRobots)
	setInt(&cfg.Parallelism, fc.Parallelism)
	setInt(&cfg.MaxRetries, fc.MaxRetries)
	if err := setDuration(&cfg.RetryBackoff, fc.RetryBackoff, "retry_backoff"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RetryBackoffMax, fc.RetryBackoffMx, "retry_backoff_max"); err != nil {
		return err
	}
	setBool(&cfg.StopOnNotFound, fc.StopOnNotFound)
	setString(&cfg.OutputFile, fc.Output)
	if fc.Format != nil {
		cfg.OutputFormat = strings.ToLower(*fc.Format)
	}
	setInt(&cfg.DedupeMaxSize, fc.DedupeMaxSize)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
	setString(&cfg.LogFile, fc.LogFile)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, key string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("config file %s: %w", key, err)
	}
	*dst = d
	return nil
}
