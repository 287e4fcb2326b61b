// Package matcher pairs ledger entries with bank transactions (or with each
// other) by grouping both sides on a deterministic MatchKey and comparing
// group sums within a monetary tolerance.
package matcher

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
)

// DefaultTolerance is 0.01 currency units
var DefaultTolerance = decimal.New(1, -2)

// MatchCallback is invoked once per confirmed match, e.g. to trigger a
// reconciliation write on the ledger. The matching computation itself
// performs no I/O; side effects live entirely in the callback.
type MatchCallback func(pair domain.MatchPair) error

// Matcher implements key-group matching with a monetary tolerance
type Matcher struct {
	Tolerance decimal.Decimal
}

// NewMatcher creates a Matcher. A zero tolerance defaults to 0.01.
func NewMatcher(tolerance decimal.Decimal) *Matcher {
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}

	return &Matcher{Tolerance: tolerance}
}

// Match groups both record collections by MatchKey, pairs groups sharing a
// key, and classifies each pairing:
//
//   - sums within tolerance: a confirmed MatchPair, regardless of how many
//     records sit on either side (partial matches are supported)
//   - sums differ and either side has several candidates: a ReviewGroup --
//     an arbitrary tie-break could change financial totals, so the group is
//     surfaced for manual review instead
//   - sums differ between two single records: both stay unmatched
//   - a key present on one side only whose members net to zero: a
//     self-balancing pair (an entry plus its own reversal)
//
// Two follow-up passes work the leftovers: a fuzzy pass pairs single records
// whose amounts differ within tolerance, and an aggregate pass pairs
// same-day, same-counterparty groups whose sums balance even though the
// individual amounts differ (two small entries against one bank transaction).
//
// onMatch may be nil. Records within groups and the result lists are ordered
// ascending by id, earliest-created record first.
func (m *Matcher) Match(sideA, sideB []domain.MatchRecord, onMatch MatchCallback) (domain.MatchResult, error) {
	groupsA := groupByKey(sideA)
	groupsB := groupByKey(sideB)

	result := domain.MatchResult{}

	for _, key := range sortedKeys(groupsA, groupsB) {
		ga := groupsA[key]
		gb := groupsB[key]

		sumA := sumOf(ga)
		sumB := sumOf(gb)

		switch {
		case len(ga) > 0 && len(gb) > 0:
			diff := sumA.Sub(sumB).Abs()

			if diff.LessThanOrEqual(m.Tolerance) {
				pair := domain.MatchPair{
					Key:        key,
					SideA:      ga,
					SideB:      gb,
					SumA:       sumA,
					SumB:       sumB,
					Difference: diff,
				}
				if onMatch != nil {
					if err := onMatch(pair); err != nil {
						return result, fmt.Errorf("match callback for key %v: %w", key, err)
					}
				}
				result.Pairs = append(result.Pairs, pair)
				continue
			}

			if len(ga) > 1 || len(gb) > 1 {
				result.NeedsReview = append(result.NeedsReview, domain.ReviewGroup{
					Key:    key,
					SideA:  ga,
					SideB:  gb,
					SumA:   sumA,
					SumB:   sumB,
					Reason: "group sums differ beyond tolerance; pairing would require an arbitrary tie-break",
				})
				continue
			}

			result.UnmatchedA = append(result.UnmatchedA, ga...)
			result.UnmatchedB = append(result.UnmatchedB, gb...)

		case len(ga) > 0:
			if pair, ok := selfBalancing(key, ga, sumA, true); ok {
				if err := m.confirm(pair, onMatch, &result); err != nil {
					return result, err
				}
				continue
			}
			result.UnmatchedA = append(result.UnmatchedA, ga...)

		case len(gb) > 0:
			if pair, ok := selfBalancing(key, gb, sumB, false); ok {
				if err := m.confirm(pair, onMatch, &result); err != nil {
					return result, err
				}
				continue
			}
			result.UnmatchedB = append(result.UnmatchedB, gb...)
		}
	}

	if err := m.fuzzyPass(&result, onMatch); err != nil {
		return result, err
	}

	if err := m.aggregatePass(&result, onMatch); err != nil {
		return result, err
	}

	return result, nil
}

// aggregatePass pairs leftover records across different amounts: remaining
// records are grouped by date and counterparty alone, and a group pair is
// confirmed when the sums balance within tolerance. This is what lets two
// small ledger entries match one bank transaction of their combined amount.
func (m *Matcher) aggregatePass(result *domain.MatchResult, onMatch MatchCallback) error {
	if len(result.UnmatchedA) == 0 || len(result.UnmatchedB) == 0 {
		return nil
	}

	type dateKey struct {
		date         string
		counterparty string
	}

	groupsA := make(map[dateKey][]domain.MatchRecord)
	for _, r := range result.UnmatchedA {
		k := dateKey{r.Key.Date, r.Key.Counterparty}
		groupsA[k] = append(groupsA[k], r)
	}
	groupsB := make(map[dateKey][]domain.MatchRecord)
	for _, r := range result.UnmatchedB {
		k := dateKey{r.Key.Date, r.Key.Counterparty}
		groupsB[k] = append(groupsB[k], r)
	}

	matched := make(map[dateKey]bool)

	keys := make([]dateKey, 0, len(groupsA))
	for k := range groupsA {
		if _, ok := groupsB[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].counterparty < keys[j].counterparty
	})

	for _, k := range keys {
		ga := groupsA[k]
		gb := groupsB[k]

		sumA := sumOf(ga)
		sumB := sumOf(gb)
		diff := sumA.Sub(sumB).Abs()

		if diff.GreaterThan(m.Tolerance) {
			continue
		}

		sort.Slice(ga, func(i, j int) bool { return ga[i].ID < ga[j].ID })
		sort.Slice(gb, func(i, j int) bool { return gb[i].ID < gb[j].ID })

		pair := domain.MatchPair{
			Key: domain.MatchKey{
				Date:         k.date,
				Amount:       sumA.Abs().Round(2).StringFixed(2),
				Counterparty: k.counterparty,
			},
			SideA:      ga,
			SideB:      gb,
			SumA:       sumA,
			SumB:       sumB,
			Difference: diff,
		}
		if err := m.confirm(pair, onMatch, result); err != nil {
			return err
		}
		matched[k] = true
	}

	if len(matched) == 0 {
		return nil
	}

	var remainingA, remainingB []domain.MatchRecord
	for _, r := range result.UnmatchedA {
		if !matched[dateKey{r.Key.Date, r.Key.Counterparty}] {
			remainingA = append(remainingA, r)
		}
	}
	for _, r := range result.UnmatchedB {
		if !matched[dateKey{r.Key.Date, r.Key.Counterparty}] {
			remainingB = append(remainingB, r)
		}
	}
	result.UnmatchedA = remainingA
	result.UnmatchedB = remainingB

	return nil
}

// fuzzyPass pairs leftover single records whose keys differ only in amount,
// as long as date and counterparty agree and the amounts stay within
// tolerance. Candidates are taken ascending by id, earliest first.
func (m *Matcher) fuzzyPass(result *domain.MatchResult, onMatch MatchCallback) error {
	if len(result.UnmatchedA) == 0 || len(result.UnmatchedB) == 0 {
		return nil
	}

	sort.Slice(result.UnmatchedA, func(i, j int) bool { return result.UnmatchedA[i].ID < result.UnmatchedA[j].ID })
	sort.Slice(result.UnmatchedB, func(i, j int) bool { return result.UnmatchedB[i].ID < result.UnmatchedB[j].ID })

	usedB := make(map[int]bool)
	var remainingA []domain.MatchRecord

	for _, ra := range result.UnmatchedA {
		matchedIdx := -1

		for i, rb := range result.UnmatchedB {
			if usedB[i] {
				continue
			}
			if ra.Key.Date != rb.Key.Date || ra.Key.Counterparty != rb.Key.Counterparty {
				continue
			}
			if ra.Amount.Sub(rb.Amount).Abs().GreaterThan(m.Tolerance) {
				continue
			}

			matchedIdx = i
			break
		}

		if matchedIdx < 0 {
			remainingA = append(remainingA, ra)
			continue
		}

		rb := result.UnmatchedB[matchedIdx]
		usedB[matchedIdx] = true

		pair := domain.MatchPair{
			Key:        ra.Key,
			SideA:      []domain.MatchRecord{ra},
			SideB:      []domain.MatchRecord{rb},
			SumA:       ra.Amount,
			SumB:       rb.Amount,
			Difference: ra.Amount.Sub(rb.Amount).Abs(),
		}
		if err := m.confirm(pair, onMatch, result); err != nil {
			return err
		}
	}

	var remainingB []domain.MatchRecord
	for i, rb := range result.UnmatchedB {
		if !usedB[i] {
			remainingB = append(remainingB, rb)
		}
	}

	result.UnmatchedA = remainingA
	result.UnmatchedB = remainingB

	return nil
}

func (m *Matcher) confirm(pair domain.MatchPair, onMatch MatchCallback, result *domain.MatchResult) error {
	if onMatch != nil {
		if err := onMatch(pair); err != nil {
			return fmt.Errorf("match callback for key %v: %w", pair.Key, err)
		}
	}
	result.Pairs = append(result.Pairs, pair)

	return nil
}

// selfBalancing reports whether a one-sided group nets to zero by itself,
// e.g. a debit entry together with its reversal
func selfBalancing(key domain.MatchKey, group []domain.MatchRecord, sum decimal.Decimal, isSideA bool) (domain.MatchPair, bool) {
	if len(group) < 2 || !sum.IsZero() {
		return domain.MatchPair{}, false
	}

	pair := domain.MatchPair{
		Key:           key,
		SelfBalancing: true,
	}
	if isSideA {
		pair.SideA = group
		pair.SumA = sum
	} else {
		pair.SideB = group
		pair.SumB = sum
	}

	return pair, true
}

func groupByKey(records []domain.MatchRecord) map[domain.MatchKey][]domain.MatchRecord {
	groups := make(map[domain.MatchKey][]domain.MatchRecord)
	for _, r := range records {
		groups[r.Key] = append(groups[r.Key], r)
	}

	// Earliest-created record first within each group
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}

	return groups
}

func sortedKeys(groupsA, groupsB map[domain.MatchKey][]domain.MatchRecord) []domain.MatchKey {
	seen := make(map[domain.MatchKey]bool, len(groupsA)+len(groupsB))
	keys := make([]domain.MatchKey, 0, len(groupsA)+len(groupsB))

	for key := range groupsA {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for key := range groupsB {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	return keys
}

func sumOf(records []domain.MatchRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}

	return total
}
