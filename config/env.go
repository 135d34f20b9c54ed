package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvFloat parses key as a decimal number.
func EnvFloat(key string) (float64, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvBool parses key as a boolean.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, true, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// ApplyEnv overrides cfg with SCRAPER_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v, ok := EnvString("SCRAPER_PAGE_URL"); ok {
		cfg.PageURLTemplate = v
	}
	if v, ok, err := EnvInt("SCRAPER_PAGES"); err != nil {
		return err
	} else if ok {
		cfg.PageCount = v
	}
	if v, ok, err := EnvFloat("SCRAPER_RATE"); err != nil {
		return err
	} else if ok {
		cfg.ExchangeRate = v
	}
	if v, ok := EnvString("SCRAPER_CURRENCY"); ok {
		cfg.CurrencySymbol = v
	}
	if v, ok, err := EnvFloat("SCRAPER_DELAY"); err != nil {
		return err
	} else if ok {
		cfg.Delay = SecondsToDuration(v)
	}
	if v, ok, err := EnvInt("SCRAPER_PARALLEL"); err != nil {
		return err
	} else if ok {
		cfg.Parallelism = v
	}
	if v, ok, err := EnvInt("SCRAPER_MAX_RETRIES"); err != nil {
		return err
	} else if ok {
		cfg.MaxRetries = v
	}
	if v, ok, err := EnvBool("SCRAPER_STOP_ON_404"); err != nil {
		return err
	} else if ok {
		cfg.StopOnNotFound = v
	}
	if v, ok := EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = v
	}
	if v, ok := EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(v)
	}
	if v, ok := EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := EnvString("SCRAPER_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := EnvString("SCRAPER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCRAPER_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return nil
}
