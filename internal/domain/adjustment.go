package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentLine is one side of a correcting entry
type AdjustmentLine struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// AdjustmentEntry is a synthetic two-line journal entry that forces an
// account balance to a target value. It is balanced by construction: the
// debit total always equals the credit total. Reference is deterministic for
// a given account and as-of date so repeated runs are idempotent-detectable.
type AdjustmentEntry struct {
	Date      time.Time        `json:"date"`
	Reference string           `json:"reference"`
	Amount    decimal.Decimal  `json:"amount"` // absolute correction amount
	Lines     []AdjustmentLine `json:"lines"`
}

// Balanced reports whether the debit and credit totals are exactly equal
func (a AdjustmentEntry) Balanced() bool {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range a.Lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	return totalDebit.Equal(totalCredit)
}
