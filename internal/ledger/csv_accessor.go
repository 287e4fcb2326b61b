package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/pkg/fileutil"
)

var entryHeaderFields = []string{"id", "date", "account_code", "debit", "credit", "state", "group_id"}

// Optional columns; absent columns leave the field empty
var entryOptionalFields = []string{"counterparty_id", "reference", "description"}

// ErrReadOnly is returned by write operations on a read-only backend
var ErrReadOnly = errors.New("backend is read-only")

// CSVAccessor implements the read side of the LedgerAccessor interface on top
// of a ledger CSV export. Write operations fail with ErrReadOnly; the
// accessor exists to drive reconciliation runs (and dry-run plans) without a
// live ERP connection.
type CSVAccessor struct {
	FilePath   string
	DateFormat string
}

// NewCSVAccessor creates a CSVAccessor for the given export file
func NewCSVAccessor(filePath string, dateFormat string) *CSVAccessor {
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}

	return &CSVAccessor{
		FilePath:   filePath,
		DateFormat: dateFormat,
	}
}

// SearchEntries implements domain.LedgerAccessor
func (a *CSVAccessor) SearchEntries(ctx context.Context, accountCode string, dateFrom, dateTo time.Time, postedOnly bool) ([]domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AccessError{Account: accountCode, Op: "searchEntries", Err: err}
	}

	reader := fileutil.NewDelimitedReader(a.FilePath, ',')

	header, err := reader.ReadHeader()
	if err != nil {
		return nil, &AccessError{Account: accountCode, Op: "searchEntries", Err: fmt.Errorf("reading ledger export header: %w", err)}
	}

	columnMap, err := createHeaderMap(header, entryHeaderFields)
	if err != nil {
		return nil, &AccessError{Account: accountCode, Op: "searchEntries", Err: fmt.Errorf("mapping ledger export columns: %w", err)}
	}

	// Optional columns are mapped when present
	for _, field := range entryOptionalFields {
		if m, err := createHeaderMap(header, []string{field}); err == nil {
			columnMap[field] = m[field]
		}
	}

	var entries []domain.LedgerEntry
	rowProcessorFn := func(row []string) error {
		entry, ok := a.parseRow(row, columnMap)
		if !ok {
			return nil
		}

		if entry.AccountCode != accountCode {
			return nil
		}
		if entry.Date.Before(dateFrom) || entry.Date.After(dateTo) {
			return nil
		}
		if postedOnly && entry.State == domain.StateDraft {
			return nil
		}

		entries = append(entries, entry)
		return nil
	}

	if err := reader.ReadAndProcessByRow(rowProcessorFn); err != nil {
		return nil, &AccessError{Account: accountCode, Op: "searchEntries", Err: fmt.Errorf("processing ledger export: %w", err)}
	}

	return entries, nil
}

func (a *CSVAccessor) parseRow(row []string, columnMap map[string]int) (domain.LedgerEntry, bool) {
	get := func(field string) string {
		idx, ok := columnMap[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	id, err := strconv.ParseInt(get("id"), 10, 64)
	if err != nil {
		log.Printf("Warning: invalid ledger entry id %q, row skipped", get("id"))
		return domain.LedgerEntry{}, false
	}

	date, err := time.Parse(a.DateFormat, get("date"))
	if err != nil {
		log.Printf("Warning: invalid ledger entry date %q, row skipped", get("date"))
		return domain.LedgerEntry{}, false
	}

	debit, err := decimal.NewFromString(get("debit"))
	if err != nil {
		log.Printf("Warning: invalid debit amount %q, row skipped", get("debit"))
		return domain.LedgerEntry{}, false
	}

	credit, err := decimal.NewFromString(get("credit"))
	if err != nil {
		log.Printf("Warning: invalid credit amount %q, row skipped", get("credit"))
		return domain.LedgerEntry{}, false
	}

	groupID, _ := strconv.ParseInt(get("group_id"), 10, 64)

	entry := domain.LedgerEntry{
		ID:          id,
		Date:        date,
		Debit:       debit,
		Credit:      credit,
		AccountCode: get("account_code"),
		State:       domain.PostingState(get("state")),
		GroupID:     groupID,
		Reference:   get("reference"),
		Description: get("description"),
	}

	if v := get("counterparty_id"); v != "" {
		if cp, err := strconv.ParseInt(v, 10, 64); err == nil {
			entry.CounterpartyID = &cp
		}
	}

	return entry, true
}

// CreateEntry implements domain.LedgerAccessor. Always fails: the CSV backend
// is read-only.
func (a *CSVAccessor) CreateEntry(ctx context.Context, journalID int64, date time.Time, reference string, lines []domain.EntryLine) (int64, error) {
	return 0, &AccessError{Op: "createEntry", Err: ErrReadOnly}
}

// PostEntry implements domain.LedgerAccessor
func (a *CSVAccessor) PostEntry(ctx context.Context, entryID int64) error {
	return &AccessError{Op: "postEntry", EntryID: entryID, Err: ErrReadOnly}
}

// Reconcile implements domain.LedgerAccessor
func (a *CSVAccessor) Reconcile(ctx context.Context, entryIDs []int64) error {
	return &AccessError{Op: "reconcile", Err: ErrReadOnly}
}
