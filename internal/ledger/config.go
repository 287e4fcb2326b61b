// Package ledger provides the configuration and reference implementations of
// the external ledger accessor the reconciliation core consumes.
package ledger

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the settings a ledger accessor is constructed with. Secrets
// are never embedded in source; the CLI fills this from the environment.
type Config struct {
	URL      string
	Database string
	Username string
	Password string

	// JournalID is the journal adjustments are booked into
	JournalID int64

	// ContraAccount receives the opposite leg of every adjustment
	ContraAccount string

	Timeout time.Duration
}

// ConfigFromEnv reads the accessor settings from LEDGER_* environment
// variables. Unset variables leave zero values for Validate to catch.
func ConfigFromEnv() Config {
	cfg := Config{
		URL:           os.Getenv("LEDGER_URL"),
		Database:      os.Getenv("LEDGER_DB"),
		Username:      os.Getenv("LEDGER_USER"),
		Password:      os.Getenv("LEDGER_PASSWORD"),
		ContraAccount: os.Getenv("LEDGER_CONTRA_ACCOUNT"),
		Timeout:       30 * time.Second,
	}

	if v := os.Getenv("LEDGER_JOURNAL_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.JournalID = id
		}
	}
	if v := os.Getenv("LEDGER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

// Validate checks the settings needed to write adjustments
func (c Config) Validate() error {
	if c.ContraAccount == "" {
		return fmt.Errorf("contra account is required")
	}
	if c.JournalID <= 0 {
		return fmt.Errorf("journal id must be positive, got %d", c.JournalID)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	return nil
}
