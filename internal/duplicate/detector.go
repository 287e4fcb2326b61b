// Package duplicate flags ledger entries that appear to be posted more than
// once. The detector only classifies; it never removes anything itself,
// because ledger systems typically forbid deleting posted records and require
// a draft-then-delete or reversing-entry workflow instead.
package duplicate

import (
	"sort"

	"bankrecon/internal/domain"
)

// Detector groups ledger entries by MatchKey and reports groups with more
// than one member
type Detector struct{}

// NewDetector creates a Detector
func NewDetector() *Detector {
	return &Detector{}
}

// FindDuplicates returns one group per MatchKey shared by two or more
// entries. Within each group entries are ordered by ascending id; the
// earliest-created entry is the keeper, the rest are candidates for removal.
//
// Legitimate recurring transactions (two identical rent payments on the same
// day) are indistinguishable from true duplicates by this key alone, so every
// group carries ConfidenceExactKey and final judgment stays with a reviewer.
func (d *Detector) FindDuplicates(entries []domain.LedgerEntry) []domain.DuplicateGroup {
	byKey := make(map[domain.MatchKey][]domain.LedgerEntry)
	for _, e := range entries {
		key := domain.NewMatchKey(e.Date, e.SignedAmount(), e.CounterpartyID)
		byKey[key] = append(byKey[key], e)
	}

	var groups []domain.DuplicateGroup
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}

		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		groups = append(groups, domain.DuplicateGroup{
			Key:                  key,
			Keeper:               members[0],
			CandidatesForRemoval: members[1:],
			Confidence:           domain.ConfidenceExactKey,
		})
	}

	// Stable output order for reports and re-run comparison
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key.Less(groups[j].Key) })

	return groups
}
