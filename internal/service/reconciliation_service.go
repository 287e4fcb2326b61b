// Package service orchestrates one reconciliation pass per account and
// period: verify the statement, match ledger entries against bank
// transactions, detect duplicates, and plan (or execute) the corrections.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankrecon/internal/adjustment"
	"bankrecon/internal/domain"
	"bankrecon/internal/duplicate"
	"bankrecon/internal/matcher"
	"bankrecon/internal/statement"
	"bankrecon/internal/verify"
)

// Options configures a ReconciliationService
type Options struct {
	// Tolerance for balance comparison and matching, 0.01 when zero
	Tolerance decimal.Decimal

	// JournalID is the journal adjustment entries are booked into
	JournalID int64

	// ContraAccount receives the opposite leg of every adjustment
	ContraAccount string

	// DryRun plans all writes without executing any of them
	DryRun bool
}

// AccountRun is one unit of work: a single account reconciled over a single
// statement period. Runs share no mutable state; a failed run never corrupts
// the results of previously completed ones.
type AccountRun struct {
	AccountCode string
	Statement   *statement.Statement
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// PlannedRemoval is a duplicate candidate the caller may void or reverse.
// The service never removes entries itself.
type PlannedRemoval struct {
	Entry    domain.LedgerEntry `json:"entry"`
	KeeperID int64              `json:"keeper_id"`
}

// Plan lists the writes a run wants to perform. With DryRun set this is the
// whole output; otherwise it records what was executed.
type Plan struct {
	Adjustments         []domain.AdjustmentEntry `json:"adjustments"`
	AlreadyApplied      []string                 `json:"already_applied,omitempty"`
	DuplicateCandidates []PlannedRemoval         `json:"duplicate_candidates,omitempty"`
	ReconcileSets       [][]int64                `json:"reconcile_sets,omitempty"`
}

// RunResult bundles the report and the plan of one account run
type RunResult struct {
	Report *domain.ReconciliationReport
	Plan   *Plan
}

// ReconciliationService coordinates the reconciliation components over a
// ledger accessor. The computation itself is pure and in-memory; the only
// suspension points are the accessor calls.
type ReconciliationService struct {
	accessor  domain.LedgerAccessor
	verifier  *verify.Verifier
	matcher   *matcher.Matcher
	detector  *duplicate.Detector
	generator *adjustment.Generator
	opts      Options
}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService(accessor domain.LedgerAccessor, opts Options) *ReconciliationService {
	return &ReconciliationService{
		accessor:  accessor,
		verifier:  verify.NewVerifier(opts.Tolerance),
		matcher:   matcher.NewMatcher(opts.Tolerance),
		detector:  duplicate.NewDetector(),
		generator: adjustment.NewGenerator(opts.Tolerance),
		opts:      opts,
	}
}

// ReconcileAccount performs one full pass over a single account. Ledger
// access failures abort the pass and propagate; verification mismatches and
// ambiguous matches are surfaced in the report, never auto-resolved.
func (s *ReconciliationService) ReconcileAccount(ctx context.Context, run AccountRun) (*RunResult, error) {
	header := run.Statement.Header
	txns := run.Statement.Transactions

	vres := s.verifier.Verify(header.OpeningBalance, txns, header.ClosingBalance)

	entries, err := s.accessor.SearchEntries(ctx, run.AccountCode, run.PeriodStart, run.PeriodEnd, true)
	if err != nil {
		return nil, fmt.Errorf("fetching ledger entries: %w", err)
	}

	duplicates := s.detector.FindDuplicates(entries)

	sideA := make([]domain.MatchRecord, 0, len(entries))
	for _, e := range entries {
		sideA = append(sideA, domain.RecordFromEntry(e))
	}
	sideB := make([]domain.MatchRecord, 0, len(txns))
	for _, t := range txns {
		sideB = append(sideB, domain.RecordFromBankTransaction(t))
	}

	matchResult, err := s.matcher.Match(sideA, sideB, nil)
	if err != nil {
		return nil, fmt.Errorf("matching transactions: %w", err)
	}

	plan := &Plan{}
	for _, group := range duplicates {
		for _, candidate := range group.CandidatesForRemoval {
			plan.DuplicateCandidates = append(plan.DuplicateCandidates, PlannedRemoval{
				Entry:    candidate,
				KeeperID: group.Keeper.ID,
			})
		}
	}
	stateByID := make(map[int64]domain.PostingState, len(entries))
	for _, e := range entries {
		stateByID[e.ID] = e.State
	}
	for _, pair := range matchResult.Pairs {
		if ids := ledgerIDs(pair, stateByID); len(ids) > 0 {
			plan.ReconcileSets = append(plan.ReconcileSets, ids)
		}
	}

	if err := s.planAdjustment(ctx, run, entries, vres, plan); err != nil {
		return nil, err
	}

	report := s.buildReport(run, vres, matchResult, duplicates, entries, txns, plan)

	if !s.opts.DryRun {
		if err := s.execute(ctx, run, plan, report); err != nil {
			return &RunResult{Report: report, Plan: plan}, err
		}
	}

	return &RunResult{Report: report, Plan: plan}, nil
}

// ReconcileAll processes account runs strictly sequentially, one unit of
// work at a time, and stops on the first fatal error. Results of completed
// accounts are returned alongside the error.
func (s *ReconciliationService) ReconcileAll(ctx context.Context, runs []AccountRun) ([]*RunResult, error) {
	results := make([]*RunResult, 0, len(runs))

	for _, run := range runs {
		result, err := s.ReconcileAccount(ctx, run)
		if err != nil {
			if result != nil {
				results = append(results, result)
			}
			return results, fmt.Errorf("reconciling account %s: %w", run.AccountCode, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// planAdjustment computes the correcting entry that aligns the ledger
// closing balance with the bank's, unless one with the same reference
// already exists from a previous run.
func (s *ReconciliationService) planAdjustment(ctx context.Context, run AccountRun, entries []domain.LedgerEntry, vres verify.Result, plan *Plan) error {
	opening := run.Statement.Header.OpeningBalance
	if opening == nil {
		// No baseline, no defensible correction
		return nil
	}

	ledgerClosing := *opening
	for _, e := range entries {
		ledgerClosing = ledgerClosing.Add(e.SignedAmount())
	}

	target := vres.ComputedClosing
	if run.Statement.Header.ClosingBalance != nil {
		target = *run.Statement.Header.ClosingBalance
	}

	adj := s.generator.Build(run.AccountCode, ledgerClosing, target, s.opts.ContraAccount, run.PeriodEnd)
	if adj == nil {
		return nil
	}

	// Idempotence: a previous run may have created this adjustment already,
	// possibly still in draft
	existing, err := s.accessor.SearchEntries(ctx, run.AccountCode, run.PeriodStart, run.PeriodEnd, false)
	if err != nil {
		return fmt.Errorf("checking for applied adjustments: %w", err)
	}
	for _, e := range existing {
		if e.Reference == adj.Reference {
			plan.AlreadyApplied = append(plan.AlreadyApplied, adj.Reference)
			return nil
		}
	}

	plan.Adjustments = append(plan.Adjustments, *adj)

	return nil
}

// execute performs the planned writes. Writes are strictly sequential per
// account: the ledger backend may serialize postings, and a later step
// depends on the balance the previous one produced.
func (s *ReconciliationService) execute(ctx context.Context, run AccountRun, plan *Plan, report *domain.ReconciliationReport) error {
	for _, adj := range plan.Adjustments {
		lines := make([]domain.EntryLine, 0, len(adj.Lines))
		for _, l := range adj.Lines {
			lines = append(lines, domain.EntryLine{
				AccountCode: l.AccountCode,
				Debit:       l.Debit,
				Credit:      l.Credit,
				Description: l.Description,
			})
		}

		entryID, err := s.accessor.CreateEntry(ctx, s.opts.JournalID, adj.Date, adj.Reference, lines)
		if err != nil {
			return fmt.Errorf("creating adjustment %s: %w", adj.Reference, err)
		}

		if err := s.accessor.PostEntry(ctx, entryID); err != nil {
			return fmt.Errorf("posting adjustment %s: %w", adj.Reference, err)
		}

		report.AdjustmentsCreated = append(report.AdjustmentsCreated, adj)
	}
	report.AdjustmentsPlanned = nil

	for _, ids := range plan.ReconcileSets {
		if err := s.accessor.Reconcile(ctx, ids); err != nil {
			return fmt.Errorf("marking matched group as reconciled: %w", err)
		}
	}

	return nil
}

func (s *ReconciliationService) buildReport(
	run AccountRun,
	vres verify.Result,
	matchResult domain.MatchResult,
	duplicates []domain.DuplicateGroup,
	entries []domain.LedgerEntry,
	txns []domain.BankTransaction,
	plan *Plan,
) *domain.ReconciliationReport {

	entryByID := make(map[int64]domain.LedgerEntry, len(entries))
	for _, e := range entries {
		entryByID[e.ID] = e
	}
	txnBySeq := make(map[int64]domain.BankTransaction, len(txns))
	for _, t := range txns {
		txnBySeq[int64(t.SequenceInFile)] = t
	}

	report := &domain.ReconciliationReport{
		RunID:       uuid.New().String(),
		AccountCode: run.AccountCode,
		PeriodStart: run.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   run.PeriodEnd.Format("2006-01-02"),
		Summary: domain.ReportSummary{
			OpeningBalance:         run.Statement.Header.OpeningBalance,
			ClosingBalanceComputed: vres.ComputedClosing,
			ClosingBalanceExpected: run.Statement.Header.ClosingBalance,
			Delta:                  vres.Difference,
			BalanceVerified:        vres.Passed,
			Unverifiable:           vres.Unverifiable,
			SkippedRows:            run.Statement.SkippedRows,
		},
		MatchedGroups:             matchResult.Pairs,
		NeedsReview:               matchResult.NeedsReview,
		DuplicateGroups:           duplicates,
		AdjustmentsPlanned:        plan.Adjustments,
		AdjustmentsAlreadyApplied: plan.AlreadyApplied,
	}

	for _, r := range matchResult.UnmatchedA {
		if e, ok := entryByID[r.ID]; ok {
			report.UnmatchedEntries = append(report.UnmatchedEntries, e)
		}
	}
	for _, r := range matchResult.UnmatchedB {
		if t, ok := txnBySeq[r.ID]; ok {
			report.UnmatchedTransactions = append(report.UnmatchedTransactions, t)
		}
	}

	return report
}

// ledgerIDs returns the ledger-side entry ids of a pair that still need the
// reconciled flag. Entries reconciled by an earlier run are skipped so a
// re-run plans no redundant writes.
func ledgerIDs(pair domain.MatchPair, stateByID map[int64]domain.PostingState) []int64 {
	if len(pair.SideA) == 0 {
		return nil
	}
	if len(pair.SideB) == 0 && !pair.SelfBalancing {
		return nil
	}

	ids := make([]int64, 0, len(pair.SideA))
	for _, r := range pair.SideA {
		if stateByID[r.ID] == domain.StateReconciled {
			continue
		}
		ids = append(ids, r.ID)
	}

	return ids
}
