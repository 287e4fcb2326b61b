package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bankrecon/internal/domain"
)

// MemoryAccessor is an in-memory implementation of the LedgerAccessor
// interface. It honors the posting-state machine (draft entries must be
// posted before they can be reconciled) and serves as the test double for the
// reconciliation service.
type MemoryAccessor struct {
	entries map[int64]domain.LedgerEntry
	nextID  int64
}

// NewMemoryAccessor creates a MemoryAccessor seeded with the given entries
func NewMemoryAccessor(seed []domain.LedgerEntry) *MemoryAccessor {
	a := &MemoryAccessor{
		entries: make(map[int64]domain.LedgerEntry, len(seed)),
		nextID:  1,
	}

	for _, e := range seed {
		a.entries[e.ID] = e
		if e.ID >= a.nextID {
			a.nextID = e.ID + 1
		}
		if e.GroupID >= a.nextID {
			a.nextID = e.GroupID + 1
		}
	}

	return a
}

// SearchEntries implements domain.LedgerAccessor
func (a *MemoryAccessor) SearchEntries(ctx context.Context, accountCode string, dateFrom, dateTo time.Time, postedOnly bool) ([]domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AccessError{Account: accountCode, Op: "searchEntries", Err: err}
	}

	var result []domain.LedgerEntry
	for _, e := range a.entries {
		if e.AccountCode != accountCode {
			continue
		}
		if e.Date.Before(dateFrom) || e.Date.After(dateTo) {
			continue
		}
		if postedOnly && e.State == domain.StateDraft {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

// CreateEntry implements domain.LedgerAccessor. The created lines share a
// fresh GroupID, which is returned as the journal entry id.
func (a *MemoryAccessor) CreateEntry(ctx context.Context, journalID int64, date time.Time, reference string, lines []domain.EntryLine) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &AccessError{Op: "createEntry", Err: err}
	}
	if len(lines) == 0 {
		return 0, &AccessError{Op: "createEntry", Err: fmt.Errorf("journal entry needs at least one line")}
	}

	groupID := a.nextID
	a.nextID++

	for _, line := range lines {
		id := a.nextID
		a.nextID++

		a.entries[id] = domain.LedgerEntry{
			ID:          id,
			Date:        date,
			Debit:       line.Debit,
			Credit:      line.Credit,
			AccountCode: line.AccountCode,
			State:       domain.StateDraft,
			GroupID:     groupID,
			Reference:   reference,
			Description: line.Description,
		}
	}

	return groupID, nil
}

// PostEntry implements domain.LedgerAccessor. Transitions every line of the
// journal entry from draft to posted; an invalid transition fails the call.
func (a *MemoryAccessor) PostEntry(ctx context.Context, entryID int64) error {
	if err := ctx.Err(); err != nil {
		return &AccessError{Op: "postEntry", EntryID: entryID, Err: err}
	}

	return a.transitionGroup(entryID, domain.TransitionPost)
}

// Reconcile implements domain.LedgerAccessor. Marks the given posted entries
// as reconciled.
func (a *MemoryAccessor) Reconcile(ctx context.Context, entryIDs []int64) error {
	if err := ctx.Err(); err != nil {
		return &AccessError{Op: "reconcile", Err: err}
	}

	// Validate first so a partial failure does not leave a half-reconciled
	// group behind
	updated := make(map[int64]domain.LedgerEntry, len(entryIDs))
	for _, id := range entryIDs {
		e, ok := a.entries[id]
		if !ok {
			return &AccessError{Op: "reconcile", EntryID: id, Err: fmt.Errorf("entry not found")}
		}

		next, err := e.State.Apply(domain.TransitionReconcile)
		if err != nil {
			return &AccessError{Account: e.AccountCode, Op: "reconcile", EntryID: id, Err: err}
		}

		e.State = next
		updated[id] = e
	}

	for id, e := range updated {
		a.entries[id] = e
	}

	return nil
}

// Entry returns a stored entry by id, for tests and assertions
func (a *MemoryAccessor) Entry(id int64) (domain.LedgerEntry, bool) {
	e, ok := a.entries[id]
	return e, ok
}

// EntriesByReference returns all entries carrying the given reference,
// ordered by id
func (a *MemoryAccessor) EntriesByReference(reference string) []domain.LedgerEntry {
	var result []domain.LedgerEntry
	for _, e := range a.entries {
		if e.Reference == reference {
			result = append(result, e)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

func (a *MemoryAccessor) transitionGroup(groupID int64, t domain.StateTransition) error {
	var members []int64
	for id, e := range a.entries {
		if e.GroupID == groupID {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return &AccessError{Op: string(t), EntryID: groupID, Err: fmt.Errorf("journal entry not found")}
	}

	updated := make(map[int64]domain.LedgerEntry, len(members))
	for _, id := range members {
		e := a.entries[id]

		next, err := e.State.Apply(t)
		if err != nil {
			return &AccessError{Account: e.AccountCode, Op: string(t), EntryID: groupID, Err: err}
		}

		e.State = next
		updated[id] = e
	}

	for id, e := range updated {
		a.entries[id] = e
	}

	return nil
}
