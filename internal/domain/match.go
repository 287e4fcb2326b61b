package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// MatchKey groups economically equivalent records for matching and duplicate
// detection. Two records with equal keys share calendar date, absolute amount
// rounded to 2 decimals, and counterparty. A record without a counterparty
// only ever groups with other counterparty-less records.
type MatchKey struct {
	Date         string `json:"date"`   // YYYY-MM-DD
	Amount       string `json:"amount"` // rounded absolute amount, 2 decimals
	Counterparty string `json:"counterparty,omitempty"`
}

// NewMatchKey builds the key for a record. counterpartyID may be nil.
func NewMatchKey(date time.Time, amount decimal.Decimal, counterpartyID *int64) MatchKey {
	key := MatchKey{
		Date:   date.Format("2006-01-02"),
		Amount: amount.Abs().Round(2).StringFixed(2),
	}
	if counterpartyID != nil {
		key.Counterparty = strconv.FormatInt(*counterpartyID, 10)
	}

	return key
}

// Less provides a deterministic ordering over keys for stable output
func (k MatchKey) Less(other MatchKey) bool {
	if k.Date != other.Date {
		return k.Date < other.Date
	}
	if k.Amount != other.Amount {
		return k.Amount < other.Amount
	}
	return k.Counterparty < other.Counterparty
}

// MatchRecord is the minimal view of a record the matching engine operates
// on. ID carries the ledger entry id (or the bank transaction's file
// sequence) and is used as the ascending tie-break order.
type MatchRecord struct {
	ID     int64           `json:"id"`
	Key    MatchKey        `json:"key"`
	Amount decimal.Decimal `json:"amount"` // signed
}

// RecordFromEntry adapts a ledger entry for the matching engine
func RecordFromEntry(e LedgerEntry) MatchRecord {
	return MatchRecord{
		ID:     e.ID,
		Key:    NewMatchKey(e.Date, e.SignedAmount(), e.CounterpartyID),
		Amount: e.SignedAmount(),
	}
}

// RecordFromBankTransaction adapts a parsed bank transaction for the matching
// engine. Bank rows carry no counterparty id, only a free-text name, so their
// keys use the nil-counterparty sentinel.
func RecordFromBankTransaction(t BankTransaction) MatchRecord {
	return MatchRecord{
		ID:     int64(t.SequenceInFile),
		Key:    NewMatchKey(t.Date, t.Amount, nil),
		Amount: t.Amount,
	}
}

// MatchPair is a confirmed pairing of two record groups sharing a MatchKey.
// Cardinality is free: two small entries may pair with one bank transaction
// as long as the sums balance. A SelfBalancing pair has one empty side whose
// counterpart nets to zero on its own (an entry plus its reversal).
type MatchPair struct {
	Key           MatchKey        `json:"key"`
	SideA         []MatchRecord   `json:"side_a"`
	SideB         []MatchRecord   `json:"side_b"`
	SumA          decimal.Decimal `json:"sum_a"`
	SumB          decimal.Decimal `json:"sum_b"`
	Difference    decimal.Decimal `json:"difference"` // |SumA - SumB|
	SelfBalancing bool            `json:"self_balancing,omitempty"`
}

// ReviewGroup is a key group whose pairing could not be resolved without an
// arbitrary tie-break that would change financial totals. It is surfaced for
// manual review, never auto-resolved.
type ReviewGroup struct {
	Key    MatchKey        `json:"key"`
	SideA  []MatchRecord   `json:"side_a"`
	SideB  []MatchRecord   `json:"side_b"`
	SumA   decimal.Decimal `json:"sum_a"`
	SumB   decimal.Decimal `json:"sum_b"`
	Reason string          `json:"reason"`
}

// MatchResult contains the outcome of one matching pass
type MatchResult struct {
	Pairs       []MatchPair   `json:"pairs"`
	NeedsReview []ReviewGroup `json:"needs_review,omitempty"`
	UnmatchedA  []MatchRecord `json:"unmatched_a,omitempty"`
	UnmatchedB  []MatchRecord `json:"unmatched_b,omitempty"`
}

// DuplicateConfidence qualifies how a duplicate group was identified
type DuplicateConfidence string

// ConfidenceExactKey means the group members share an exact MatchKey. The key
// cannot distinguish true duplicates from legitimately identical recurring
// transactions, so final judgment stays with a human reviewer.
const ConfidenceExactKey DuplicateConfidence = "exact-key-match"

// DuplicateGroup is a set of ledger entries sharing a MatchKey. The earliest
// created entry is the keeper; the rest are candidates for removal. The
// detector only classifies -- whether candidates are voided, reversed or
// deleted is the caller's decision.
type DuplicateGroup struct {
	Key                  MatchKey            `json:"key"`
	Keeper               LedgerEntry         `json:"keeper"`
	CandidatesForRemoval []LedgerEntry       `json:"candidates_for_removal"`
	Confidence           DuplicateConfidence `json:"confidence"`
}
