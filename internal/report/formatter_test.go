package report_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/report"
)

func sampleReport() *domain.ReconciliationReport {
	opening := decimal.RequireFromString("1000.00")
	expected := decimal.RequireFromString("1175.50")

	return &domain.ReconciliationReport{
		RunID:       "7f3b6a2e-0000-0000-0000-000000000000",
		AccountCode: "1020",
		PeriodStart: "2024-01-01",
		PeriodEnd:   "2024-01-31",
		Summary: domain.ReportSummary{
			OpeningBalance:         &opening,
			ClosingBalanceComputed: decimal.RequireFromString("1175.50"),
			ClosingBalanceExpected: &expected,
			Delta:                  decimal.Zero,
			BalanceVerified:        true,
			SkippedRows:            2,
		},
		MatchedGroups: []domain.MatchPair{
			{Key: domain.MatchKey{Date: "2024-01-05", Amount: "50.00"}},
		},
		AdjustmentsCreated: []domain.AdjustmentEntry{
			{
				Date:      time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
				Reference: "BAL-ADJ/1020/2024-01-31",
				Amount:    decimal.RequireFromString("25.50"),
			},
		},
	}
}

func TestJSONFormatter_RoundTrip(t *testing.T) {
	formatter := report.NewJSONFormatter(false)

	data, err := formatter.Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}

	var decoded domain.ReconciliationReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.AccountCode != "1020" {
		t.Errorf("expected account 1020, got %q", decoded.AccountCode)
	}
	if !decoded.Summary.BalanceVerified {
		t.Error("expected balance_verified to survive the round trip")
	}
	if formatter.FileExtension() != "json" {
		t.Errorf("expected json extension, got %q", formatter.FileExtension())
	}
}

func TestJSONFormatter_PrettyPrint(t *testing.T) {
	compact, err := report.NewJSONFormatter(false).Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	pretty, err := report.NewJSONFormatter(true).Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}

	if !strings.Contains(string(pretty), "\n") {
		t.Error("expected indented output to span multiple lines")
	}
	if len(pretty) <= len(compact) {
		t.Error("expected indented output to be longer than compact output")
	}
}

func TestTextFormatter_Summary(t *testing.T) {
	formatter := report.NewTextFormatter(false)

	data, err := formatter.Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"Account 1020, period 2024-01-01 to 2024-01-31",
		"1175.50",
		"PASSED",
		"Skipped statement rows",
		"Adjustment created: BAL-ADJ/1020/2024-01-31 for 25.50 on 2024-01-31",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if formatter.FileExtension() != "txt" {
		t.Errorf("expected txt extension, got %q", formatter.FileExtension())
	}
}

func TestTextFormatter_UnverifiableVerdict(t *testing.T) {
	r := sampleReport()
	r.Summary.BalanceVerified = false
	r.Summary.Unverifiable = true
	r.Summary.OpeningBalance = nil
	r.Summary.ClosingBalanceExpected = nil

	data, err := report.NewTextFormatter(false).Format(r)
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "UNVERIFIABLE") {
		t.Errorf("expected UNVERIFIABLE verdict, got:\n%s", out)
	}
	if !strings.Contains(out, "(not stated)") {
		t.Errorf("expected missing balances to render as (not stated), got:\n%s", out)
	}
}
