package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EntryLine describes one line of a journal entry to be created
type EntryLine struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// LedgerAccessor defines the narrow interface the reconciliation core
// consumes on the external accounting system. Implementations own all
// transport, authentication and session concerns; every call is a synchronous
// remote call bounded by the caller's context.
type LedgerAccessor interface {
	// SearchEntries returns the ledger entries of an account within the date
	// range (inclusive). With postedOnly set, draft entries are excluded.
	SearchEntries(ctx context.Context, accountCode string, dateFrom, dateTo time.Time, postedOnly bool) ([]LedgerEntry, error)

	// CreateEntry creates a draft journal entry with the given lines and
	// returns its id (the GroupID shared by the created lines)
	CreateEntry(ctx context.Context, journalID int64, date time.Time, reference string, lines []EntryLine) (int64, error)

	// PostEntry transitions a draft journal entry to posted
	PostEntry(ctx context.Context, entryID int64) error

	// Reconcile marks a matched group of ledger entries as reconciled
	Reconcile(ctx context.Context, entryIDs []int64) error
}
