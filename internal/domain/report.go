package domain

import "github.com/shopspring/decimal"

// ReportSummary carries the per-account balance totals of a run
type ReportSummary struct {
	OpeningBalance         *decimal.Decimal `json:"opening_balance"`
	ClosingBalanceComputed decimal.Decimal  `json:"closing_balance_computed"`
	ClosingBalanceExpected *decimal.Decimal `json:"closing_balance_expected"`
	Delta                  decimal.Decimal  `json:"delta"`
	BalanceVerified        bool             `json:"balance_verified"`
	Unverifiable           bool             `json:"unverifiable,omitempty"`
	SkippedRows            int              `json:"skipped_rows"`
}

// ReconciliationReport aggregates the outputs of one reconciliation pass over
// a single account and period. It is assembled from the other components'
// results with no additional computation and is read-only once produced.
type ReconciliationReport struct {
	RunID       string `json:"run_id"`
	AccountCode string `json:"account_code"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	Summary ReportSummary `json:"summary"`

	MatchedGroups         []MatchPair       `json:"matched_groups"`
	NeedsReview           []ReviewGroup     `json:"needs_review,omitempty"`
	DuplicateGroups       []DuplicateGroup  `json:"duplicate_groups"`
	UnmatchedEntries      []LedgerEntry     `json:"unmatched_entries"`
	UnmatchedTransactions []BankTransaction `json:"unmatched_transactions"`
	AdjustmentsCreated    []AdjustmentEntry `json:"adjustments_created"`

	// Adjustments a dry run would have created
	AdjustmentsPlanned []AdjustmentEntry `json:"adjustments_planned,omitempty"`

	// References of adjustments found already applied by a previous run
	AdjustmentsAlreadyApplied []string `json:"adjustments_already_applied,omitempty"`
}

// MatchedCount returns the number of confirmed match pairs
func (r ReconciliationReport) MatchedCount() int {
	return len(r.MatchedGroups)
}

// UnmatchedCount returns the total number of unmatched records on both sides
func (r ReconciliationReport) UnmatchedCount() int {
	return len(r.UnmatchedEntries) + len(r.UnmatchedTransactions)
}
