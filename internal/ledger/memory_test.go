package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/ledger"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", s, err)
	}

	return d
}

func seedEntries(t *testing.T) []domain.LedgerEntry {
	return []domain.LedgerEntry{
		{ID: 1, Date: date(t, "2024-08-05"), Debit: decimal.NewFromFloat(500.00), Credit: decimal.Zero, AccountCode: "1020", State: domain.StatePosted, GroupID: 100},
		{ID: 2, Date: date(t, "2024-08-12"), Debit: decimal.Zero, Credit: decimal.NewFromFloat(200.00), AccountCode: "1020", State: domain.StatePosted, GroupID: 101},
		{ID: 3, Date: date(t, "2024-08-20"), Debit: decimal.NewFromFloat(40.00), Credit: decimal.Zero, AccountCode: "1020", State: domain.StateDraft, GroupID: 102},
		{ID: 4, Date: date(t, "2024-08-20"), Debit: decimal.NewFromFloat(75.00), Credit: decimal.Zero, AccountCode: "1021", State: domain.StatePosted, GroupID: 103},
		{ID: 5, Date: date(t, "2024-09-02"), Debit: decimal.NewFromFloat(30.00), Credit: decimal.Zero, AccountCode: "1020", State: domain.StatePosted, GroupID: 104},
	}
}

func TestMemoryAccessor_SearchEntries(t *testing.T) {
	a := ledger.NewMemoryAccessor(seedEntries(t))
	ctx := context.Background()

	from := date(t, "2024-08-01")
	to := date(t, "2024-08-31")

	// Posted only: draft entry 3 excluded, other-account entry 4 excluded,
	// out-of-range entry 5 excluded
	entries, err := a.SearchEntries(ctx, "1020", from, to, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != 1 || entries[1].ID != 2 {
		t.Errorf("Expected entries [1 2], got [%d %d]", entries[0].ID, entries[1].ID)
	}

	// Including drafts
	entries, err = a.SearchEntries(ctx, "1020", from, to, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries including the draft, got %d", len(entries))
	}
}

func TestMemoryAccessor_CreateAndPostEntry(t *testing.T) {
	a := ledger.NewMemoryAccessor(nil)
	ctx := context.Background()

	lines := []domain.EntryLine{
		{AccountCode: "1020", Debit: decimal.NewFromFloat(100.00), Description: "adjustment"},
		{AccountCode: "9999", Credit: decimal.NewFromFloat(100.00), Description: "adjustment"},
	}

	entryID, err := a.CreateEntry(ctx, 1, date(t, "2024-08-31"), "BAL-ADJ/1020/2024-08-31", lines)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	created := a.EntriesByReference("BAL-ADJ/1020/2024-08-31")
	if len(created) != 2 {
		t.Fatalf("Expected 2 created lines, got %d", len(created))
	}
	for _, e := range created {
		if e.State != domain.StateDraft {
			t.Errorf("Expected created line %d to be draft, got %s", e.ID, e.State)
		}
		if e.GroupID != entryID {
			t.Errorf("Expected line %d to carry group id %d, got %d", e.ID, entryID, e.GroupID)
		}
	}

	if err := a.PostEntry(ctx, entryID); err != nil {
		t.Fatalf("Unexpected error posting entry: %v", err)
	}

	for _, e := range a.EntriesByReference("BAL-ADJ/1020/2024-08-31") {
		if e.State != domain.StatePosted {
			t.Errorf("Expected line %d to be posted, got %s", e.ID, e.State)
		}
	}

	// Posting twice is an invalid state transition
	err = a.PostEntry(ctx, entryID)
	if err == nil {
		t.Fatal("Expected error when posting an already-posted entry, got nil")
	}

	var accessErr *ledger.AccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("Expected AccessError, got %T", err)
	}
	if accessErr.EntryID != entryID {
		t.Errorf("Expected error to carry entry id %d, got %d", entryID, accessErr.EntryID)
	}
}

func TestMemoryAccessor_Reconcile(t *testing.T) {
	a := ledger.NewMemoryAccessor(seedEntries(t))
	ctx := context.Background()

	if err := a.Reconcile(ctx, []int64{1, 2}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, id := range []int64{1, 2} {
		e, ok := a.Entry(id)
		if !ok {
			t.Fatalf("Entry %d not found", id)
		}
		if e.State != domain.StateReconciled {
			t.Errorf("Expected entry %d to be reconciled, got %s", id, e.State)
		}
	}
}

func TestMemoryAccessor_ReconcileDraftFailsAtomically(t *testing.T) {
	a := ledger.NewMemoryAccessor(seedEntries(t))
	ctx := context.Background()

	// Entry 3 is draft: the whole call must fail and entry 1 must stay
	// untouched
	err := a.Reconcile(ctx, []int64{1, 3})
	if err == nil {
		t.Fatal("Expected error when reconciling a draft entry, got nil")
	}

	e, _ := a.Entry(1)
	if e.State != domain.StatePosted {
		t.Errorf("Expected entry 1 to remain posted after failed reconcile, got %s", e.State)
	}
}
