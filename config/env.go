package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "FLIGHTSCRAPE_"

// EnvString returns the trimmed value of PREFIX+key, if set and non-empty.
func EnvString(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// EnvInt parses PREFIX+key as an integer.
func EnvInt(key string) (int, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return n, true, nil
}

// EnvBool parses PREFIX+key with strconv.ParseBool.
func EnvBool(key string) (bool, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return b, true, nil
}

// EnvDuration parses PREFIX+key with time.ParseDuration.
func EnvDuration(key string) (time.Duration, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return d, true, nil
}

// ApplyEnv overlays environment overrides onto c.
func (c *Config) ApplyEnv() error {
	if v, ok := EnvString("BASE_URL"); ok {
		c.BaseURL = v
	}
	if v, ok := EnvString("OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := EnvString("OUTPUT_FORMAT"); ok {
		c.OutputFormat = strings.ToLower(v)
	}
	if v, ok := EnvString("SNAPSHOT_DIR"); ok {
		c.SnapshotDir = v
	}
	if v, ok := EnvString("METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := EnvString("USER_AGENT"); ok {
		c.UserAgent = v
	}

	if v, ok, err := EnvBool("HEADLESS"); err != nil {
		return err
	} else if ok {
		c.Headless = v
	}
	if v, ok, err := EnvBool("TEXT_EXPORT"); err != nil {
		return err
	} else if ok {
		c.TextExport = v
	}
	if v, ok, err := EnvInt("MAX_RETRIES"); err != nil {
		return err
	} else if ok {
		c.MaxRetries = v
	}
	if v, ok, err := EnvInt("DEDUPE_MAX_SIZE"); err != nil {
		return err
	} else if ok {
		c.DedupeMaxSize = v
	}
	if v, ok, err := EnvDuration("WAIT_TIMEOUT"); err != nil {
		return err
	} else if ok {
		c.WaitTimeout = v
	}
	if v, ok, err := EnvDuration("RESULTS_DELAY_MIN"); err != nil {
		return err
	} else if ok {
		c.ResultsDelayMin = v
	}
	if v, ok, err := EnvDuration("RESULTS_DELAY_MAX"); err != nil {
		return err
	} else if ok {
		c.ResultsDelayMax = v
	}
	return nil
}
