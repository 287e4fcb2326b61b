package ledger

import "fmt"

// AccessError wraps any failure from the ledger backend with enough context
// (account, operation, entry id) to support manual retry. The core never
// swallows or downgrades these; they abort the current account's run.
type AccessError struct {
	Account string
	Op      string
	EntryID int64
	Err     error
}

func (e *AccessError) Error() string {
	if e.EntryID != 0 {
		return fmt.Sprintf("ledger access failed: account=%s op=%s entry=%d: %v", e.Account, e.Op, e.EntryID, e.Err)
	}
	return fmt.Sprintf("ledger access failed: account=%s op=%s: %v", e.Account, e.Op, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}
