package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"

	"bankrecon/internal/domain"
)

// OutputFormatter defines the interface for rendering reconciliation reports
type OutputFormatter interface {
	Format(report *domain.ReconciliationReport) ([]byte, error)
	FileExtension() string
}

// JSONFormatter renders reports as JSON
type JSONFormatter struct {
	PrettyPrint bool
}

func NewJSONFormatter(prettyPrint bool) *JSONFormatter {
	return &JSONFormatter{
		PrettyPrint: prettyPrint,
	}
}

// Format implements the OutputFormatter interface for JSON
func (f *JSONFormatter) Format(report *domain.ReconciliationReport) ([]byte, error) {
	if f.PrettyPrint {
		return json.MarshalIndent(report, "", "  ")
	}
	return json.Marshal(report)
}

func (f *JSONFormatter) FileExtension() string {
	return "json"
}

// TextFormatter renders a human-readable summary for terminal use
type TextFormatter struct {
	// Color enables ANSI colors on the verification verdict
	Color bool
}

func NewTextFormatter(colorOutput bool) *TextFormatter {
	return &TextFormatter{Color: colorOutput}
}

// Format implements the OutputFormatter interface for plain text
func (f *TextFormatter) Format(report *domain.ReconciliationReport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Reconciliation report %s\n", report.RunID)
	fmt.Fprintf(&buf, "Account %s, period %s to %s\n\n", report.AccountCode, report.PeriodStart, report.PeriodEnd)

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	s := report.Summary
	if s.OpeningBalance != nil {
		fmt.Fprintf(w, "Opening balance\t%s\n", s.OpeningBalance.StringFixed(2))
	} else {
		fmt.Fprintf(w, "Opening balance\t(not stated)\n")
	}
	fmt.Fprintf(w, "Closing balance (computed)\t%s\n", s.ClosingBalanceComputed.StringFixed(2))
	if s.ClosingBalanceExpected != nil {
		fmt.Fprintf(w, "Closing balance (bank)\t%s\n", s.ClosingBalanceExpected.StringFixed(2))
	} else {
		fmt.Fprintf(w, "Closing balance (bank)\t(not stated)\n")
	}
	fmt.Fprintf(w, "Delta\t%s\n", s.Delta.StringFixed(2))
	fmt.Fprintf(w, "Balance check\t%s\n", f.verdict(s))
	if s.SkippedRows > 0 {
		fmt.Fprintf(w, "Skipped statement rows\t%d\n", s.SkippedRows)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Matched groups\t%d\n", len(report.MatchedGroups))
	fmt.Fprintf(w, "Needs review\t%d\n", len(report.NeedsReview))
	fmt.Fprintf(w, "Duplicate groups\t%d\n", len(report.DuplicateGroups))
	fmt.Fprintf(w, "Unmatched ledger entries\t%d\n", len(report.UnmatchedEntries))
	fmt.Fprintf(w, "Unmatched bank transactions\t%d\n", len(report.UnmatchedTransactions))

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flushing report table: %w", err)
	}

	for _, group := range report.NeedsReview {
		fmt.Fprintf(&buf, "\nReview %s %s: %d ledger vs %d bank records, %s\n",
			group.Key.Date, group.Key.Amount, len(group.SideA), len(group.SideB), group.Reason)
	}

	for _, adj := range report.AdjustmentsCreated {
		fmt.Fprintf(&buf, "\nAdjustment created: %s for %s on %s\n",
			adj.Reference, adj.Amount.StringFixed(2), adj.Date.Format("2006-01-02"))
	}
	for _, adj := range report.AdjustmentsPlanned {
		fmt.Fprintf(&buf, "\nAdjustment planned (dry run): %s for %s on %s\n",
			adj.Reference, adj.Amount.StringFixed(2), adj.Date.Format("2006-01-02"))
	}
	for _, ref := range report.AdjustmentsAlreadyApplied {
		fmt.Fprintf(&buf, "\nAdjustment already applied: %s\n", ref)
	}

	return buf.Bytes(), nil
}

func (f *TextFormatter) FileExtension() string {
	return "txt"
}

func (f *TextFormatter) verdict(s domain.ReportSummary) string {
	switch {
	case s.Unverifiable:
		if f.Color {
			return color.YellowString("UNVERIFIABLE")
		}
		return "UNVERIFIABLE"
	case s.BalanceVerified:
		if f.Color {
			return color.GreenString("PASSED")
		}
		return "PASSED"
	default:
		if f.Color {
			return color.RedString("FAILED")
		}
		return "FAILED"
	}
}
