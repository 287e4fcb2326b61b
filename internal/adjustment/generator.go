// Package adjustment builds the balanced correcting entries that force a
// ledger balance to match an external source of truth.
package adjustment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
)

// DefaultTolerance is 0.01 currency units
var DefaultTolerance = decimal.New(1, -2)

// Generator computes signed balance deltas and emits two-line correcting
// entries. It is pure: running it twice against an already-corrected balance
// yields nil the second time, never a duplicate adjustment.
type Generator struct {
	Tolerance decimal.Decimal
}

// NewGenerator creates a Generator. A zero tolerance defaults to 0.01.
func NewGenerator(tolerance decimal.Decimal) *Generator {
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}

	return &Generator{Tolerance: tolerance}
}

// Reference returns the deterministic, human-traceable reference string an
// adjustment for the given account and as-of date carries. Re-runs produce
// the same reference, which is what makes already-applied adjustments
// detectable.
func Reference(accountCode string, asOf time.Time) string {
	return fmt.Sprintf("BAL-ADJ/%s/%s", accountCode, asOf.Format("2006-01-02"))
}

// Build returns the correcting entry that moves currentBalance to
// targetBalance on the target account, with the opposite leg on the contra
// account. Returns nil when the balances already agree within tolerance.
func (g *Generator) Build(accountCode string, currentBalance, targetBalance decimal.Decimal, contraAccountCode string, asOf time.Time) *domain.AdjustmentEntry {
	delta := targetBalance.Sub(currentBalance)
	if delta.Abs().LessThan(g.Tolerance) {
		return nil // already aligned
	}

	amount := delta.Abs()
	description := fmt.Sprintf("Balance adjustment %s as of %s", accountCode, asOf.Format("2006-01-02"))

	target := domain.AdjustmentLine{AccountCode: accountCode, Description: description}
	contra := domain.AdjustmentLine{AccountCode: contraAccountCode, Description: description}

	if delta.IsPositive() {
		// Balance must rise: debit the target account, credit the contra
		target.Debit = amount
		contra.Credit = amount
	} else {
		target.Credit = amount
		contra.Debit = amount
	}

	return &domain.AdjustmentEntry{
		Date:      asOf,
		Reference: Reference(accountCode, asOf),
		Amount:    amount,
		Lines:     []domain.AdjustmentLine{target, contra},
	}
}
