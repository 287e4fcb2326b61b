package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents a single data row of a parsed bank statement.
// Amount is signed: positive for credits (money in), negative for debits
// (money out). Instances are immutable once produced by the statement parser.
type BankTransaction struct {
	Date             time.Time        `json:"date"`
	ValueDate        *time.Time       `json:"value_date,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	RunningBalance   *decimal.Decimal `json:"running_balance,omitempty"` // balance stated by the bank after this transaction
	Description      string           `json:"description"`
	CounterpartyName string           `json:"counterparty_name,omitempty"`
	SequenceInFile   int              `json:"sequence_in_file"` // file order, used as tie-break
}

// StatementHeader holds the metadata block of a bank export file. Opening and
// closing balances are nil when the corresponding label was missing from the
// file; downstream verification treats a nil baseline as unverifiable.
type StatementHeader struct {
	AccountNumber    string           `json:"account_number,omitempty"`
	IBAN             string           `json:"iban,omitempty"`
	Period           string           `json:"period,omitempty"`
	Currency         string           `json:"currency,omitempty"`
	OpeningBalance   *decimal.Decimal `json:"opening_balance,omitempty"`
	ClosingBalance   *decimal.Decimal `json:"closing_balance,omitempty"`
	TransactionCount int              `json:"transaction_count,omitempty"`
}
