// Package verify replays a statement's transactions against a known opening
// balance and checks that it reproduces the stated closing balance.
package verify

import (
	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
)

// RowBalance is the per-transaction cross-check of the computed running total
// against the balance the bank states after the same transaction
type RowBalance struct {
	Sequence int              `json:"sequence"`
	Amount   decimal.Decimal  `json:"amount"`
	Computed decimal.Decimal  `json:"computed"`
	Stated   *decimal.Decimal `json:"stated,omitempty"`
	Diverges bool             `json:"diverges,omitempty"`
}

// Result contains the outcome of one verification pass
type Result struct {
	ComputedClosing decimal.Decimal  `json:"computed_closing"`
	ExpectedClosing *decimal.Decimal `json:"expected_closing,omitempty"`
	Difference      decimal.Decimal  `json:"difference"`
	PerRowBalances  []RowBalance     `json:"per_row_balances"`

	// Sequence of the first row where the bank-stated balance and the
	// computed balance diverge, -1 when they never do. This pinpoints the
	// exact row causing a mismatch rather than only the aggregate delta.
	FirstDivergentRow int `json:"first_divergent_row"`

	Passed bool `json:"passed"`

	// Unverifiable is set when the opening or expected closing balance is
	// unknown (missing statement label). The replay still runs so per-row
	// data is available, but Passed can never be true.
	Unverifiable bool `json:"unverifiable,omitempty"`
}

// Verifier replays transaction lists with fixed-point decimal arithmetic.
// All comparisons use an absolute tolerance.
type Verifier struct {
	Tolerance decimal.Decimal
}

// DefaultTolerance is 0.01 currency units
var DefaultTolerance = decimal.New(1, -2)

// NewVerifier creates a Verifier. A zero tolerance defaults to 0.01.
func NewVerifier(tolerance decimal.Decimal) *Verifier {
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}

	return &Verifier{Tolerance: tolerance}
}

// Verify replays txns in file order starting from openingBalance and compares
// the result to expectedClosing. A nil opening balance makes the result
// unverifiable rather than failing; verification is reported, never
// auto-corrected here.
func (v *Verifier) Verify(openingBalance *decimal.Decimal, txns []domain.BankTransaction, expectedClosing *decimal.Decimal) Result {
	result := Result{
		ExpectedClosing:   expectedClosing,
		FirstDivergentRow: -1,
	}

	if openingBalance == nil {
		result.Unverifiable = true
		return result
	}

	running := *openingBalance
	result.PerRowBalances = make([]RowBalance, 0, len(txns))

	for _, txn := range txns {
		running = running.Add(txn.Amount)

		row := RowBalance{
			Sequence: txn.SequenceInFile,
			Amount:   txn.Amount,
			Computed: running,
			Stated:   txn.RunningBalance,
		}

		if txn.RunningBalance != nil && running.Sub(*txn.RunningBalance).Abs().GreaterThan(v.Tolerance) {
			row.Diverges = true
			if result.FirstDivergentRow < 0 {
				result.FirstDivergentRow = txn.SequenceInFile
			}
		}

		result.PerRowBalances = append(result.PerRowBalances, row)
	}

	result.ComputedClosing = running

	if expectedClosing == nil {
		result.Unverifiable = true
		return result
	}

	result.Difference = running.Sub(*expectedClosing)
	result.Passed = result.Difference.Abs().LessThanOrEqual(v.Tolerance)

	return result
}
