package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PostingState represents the lifecycle state of a ledger entry
type PostingState string

// Posting states
const (
	StateDraft      PostingState = "draft"
	StatePosted     PostingState = "posted"
	StateReconciled PostingState = "reconciled"
)

// StateTransition is an operation that moves an entry between posting states
type StateTransition string

// State transitions
const (
	TransitionPost      StateTransition = "post"
	TransitionUnpost    StateTransition = "unpost"
	TransitionReconcile StateTransition = "reconcile"
)

// Apply returns the state reached by applying the given transition. Invalid
// transitions return an error instead of being worked around step by step.
func (s PostingState) Apply(t StateTransition) (PostingState, error) {
	switch {
	case s == StateDraft && t == TransitionPost:
		return StatePosted, nil
	case s == StatePosted && t == TransitionUnpost:
		return StateDraft, nil
	case s == StatePosted && t == TransitionReconcile:
		return StateReconciled, nil
	}

	return s, fmt.Errorf("invalid state transition: %s entry cannot %s", s, t)
}

// LedgerEntry represents a single debit or credit line read from the external
// ledger. Exactly one of Debit/Credit is non-zero in a well-formed entry.
type LedgerEntry struct {
	ID             int64           `json:"id"`
	Date           time.Time       `json:"date"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	AccountCode    string          `json:"account_code"`
	CounterpartyID *int64          `json:"counterparty_id,omitempty"`
	State          PostingState    `json:"state"`
	GroupID        int64           `json:"group_id"` // parent journal entry this line belongs to
	Reference      string          `json:"reference,omitempty"`
	Description    string          `json:"description,omitempty"`
}

// NewLedgerEntry builds a LedgerEntry and validates its invariants: both sides
// non-negative and exactly one of debit/credit non-zero.
func NewLedgerEntry(id int64, date time.Time, debit, credit decimal.Decimal, accountCode string, state PostingState) (LedgerEntry, error) {
	if debit.IsNegative() || credit.IsNegative() {
		return LedgerEntry{}, fmt.Errorf("ledger entry %d: debit and credit must be non-negative, got debit=%s credit=%s", id, debit, credit)
	}
	if debit.IsZero() == credit.IsZero() {
		return LedgerEntry{}, fmt.Errorf("ledger entry %d: exactly one of debit/credit must be non-zero, got debit=%s credit=%s", id, debit, credit)
	}

	if state == "" {
		state = StateDraft
	}

	return LedgerEntry{
		ID:          id,
		Date:        date,
		Debit:       debit,
		Credit:      credit,
		AccountCode: accountCode,
		State:       state,
	}, nil
}

// SignedAmount returns the entry's effect on its account balance
// (debit - credit). For a bank general-ledger account this has the same sign
// convention as BankTransaction.Amount: positive means money in.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}
