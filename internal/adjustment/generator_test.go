package adjustment_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/adjustment"
)

func asOf(t *testing.T) time.Time {
	t.Helper()

	date, err := time.Parse("2006-01-02", "2024-08-31")
	if err != nil {
		t.Fatalf("Failed to parse date: %v", err)
	}

	return date
}

func TestGenerator_DebitsTargetWhenBalanceMustRise(t *testing.T) {
	g := adjustment.NewGenerator(decimal.Decimal{})

	adj := g.Build("1020", decimal.NewFromFloat(900.00), decimal.NewFromFloat(1000.00), "9999", asOf(t))

	if adj == nil {
		t.Fatal("Expected an adjustment, got nil")
	}

	if !adj.Amount.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("Expected amount 100.00, got %s", adj.Amount)
	}

	if !adj.Lines[0].Debit.Equal(decimal.NewFromFloat(100.00)) || !adj.Lines[0].Credit.IsZero() {
		t.Errorf("Expected target account debited by 100.00, got debit=%s credit=%s",
			adj.Lines[0].Debit, adj.Lines[0].Credit)
	}
	if adj.Lines[0].AccountCode != "1020" || adj.Lines[1].AccountCode != "9999" {
		t.Errorf("Expected accounts [1020 9999], got [%s %s]", adj.Lines[0].AccountCode, adj.Lines[1].AccountCode)
	}
	if !adj.Lines[1].Credit.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("Expected contra account credited by 100.00, got %s", adj.Lines[1].Credit)
	}
}

func TestGenerator_InvertsDirectionsWhenBalanceMustFall(t *testing.T) {
	g := adjustment.NewGenerator(decimal.Decimal{})

	adj := g.Build("1020", decimal.NewFromFloat(1000.00), decimal.NewFromFloat(962.50), "9999", asOf(t))

	if adj == nil {
		t.Fatal("Expected an adjustment, got nil")
	}

	if !adj.Lines[0].Credit.Equal(decimal.NewFromFloat(37.50)) || !adj.Lines[0].Debit.IsZero() {
		t.Errorf("Expected target account credited by 37.50, got debit=%s credit=%s",
			adj.Lines[0].Debit, adj.Lines[0].Credit)
	}
	if !adj.Lines[1].Debit.Equal(decimal.NewFromFloat(37.50)) {
		t.Errorf("Expected contra account debited by 37.50, got %s", adj.Lines[1].Debit)
	}
}

func TestGenerator_BalanceInvariant(t *testing.T) {
	g := adjustment.NewGenerator(decimal.Decimal{})

	cases := []struct{ current, target float64 }{
		{0, 100.00},
		{182573.56, 183693.12},
		{-250.75, 0},
		{1000.00, 999.99},
	}

	for _, c := range cases {
		adj := g.Build("1020", decimal.NewFromFloat(c.current), decimal.NewFromFloat(c.target), "9999", asOf(t))
		if adj == nil {
			continue
		}

		if !adj.Balanced() {
			t.Errorf("Adjustment %f -> %f is not balanced", c.current, c.target)
		}
	}
}

func TestGenerator_NoOpInsideTolerance(t *testing.T) {
	g := adjustment.NewGenerator(decimal.Decimal{})

	if adj := g.Build("1020", decimal.NewFromFloat(100.000), decimal.NewFromFloat(100.005), "9999", asOf(t)); adj != nil {
		t.Errorf("Expected nil for a difference inside tolerance, got %+v", adj)
	}

	if adj := g.Build("1020", decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.00), "9999", asOf(t)); adj != nil {
		t.Errorf("Expected nil for equal balances, got %+v", adj)
	}
}

func TestGenerator_Idempotence(t *testing.T) {
	g := adjustment.NewGenerator(decimal.Decimal{})

	current := decimal.NewFromFloat(900.00)
	target := decimal.NewFromFloat(1000.00)

	// First run produces a real entry
	first := g.Build("1020", current, target, "9999", asOf(t))
	if first == nil {
		t.Fatal("Expected an adjustment on the first run, got nil")
	}

	// Apply it: the target account balance moves by the debited amount
	corrected := current.Add(first.Lines[0].Debit).Sub(first.Lines[0].Credit)

	// Second run against the corrected balance yields nil
	second := g.Build("1020", corrected, target, "9999", asOf(t))
	if second != nil {
		t.Errorf("Expected nil on the second run, got %+v", second)
	}
}

func TestGenerator_DeterministicReference(t *testing.T) {
	g := adjustment.NewGenerator(decimal.Decimal{})

	a := g.Build("1020", decimal.NewFromFloat(1.00), decimal.NewFromFloat(2.00), "9999", asOf(t))
	b := g.Build("1020", decimal.NewFromFloat(5.00), decimal.NewFromFloat(9.00), "9999", asOf(t))

	if a.Reference != "BAL-ADJ/1020/2024-08-31" {
		t.Errorf("Unexpected reference %s", a.Reference)
	}
	if a.Reference != b.Reference {
		t.Errorf("Expected the same account and as-of date to produce the same reference, got %s and %s",
			a.Reference, b.Reference)
	}
}
