package verify_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/verify"
)

func txn(seq int, amount float64, stated *float64) domain.BankTransaction {
	date, _ := time.Parse("2006-01-02", "2024-08-15")

	t := domain.BankTransaction{
		Date:           date,
		Amount:         decimal.NewFromFloat(amount),
		SequenceInFile: seq,
	}
	if stated != nil {
		d := decimal.NewFromFloat(*stated)
		t.RunningBalance = &d
	}

	return t
}

func ptr(f float64) *float64 { return &f }

func TestVerifier_RoundTrip(t *testing.T) {
	v := verify.NewVerifier(decimal.Decimal{})

	opening := decimal.NewFromFloat(1000.00)
	expected := decimal.NewFromFloat(1262.50)

	txns := []domain.BankTransaction{
		txn(0, 500.00, nil),
		txn(1, -200.00, nil),
		txn(2, -37.50, nil),
	}

	result := v.Verify(&opening, txns, &expected)

	if !result.Passed {
		t.Error("Expected verification to pass")
	}

	if !result.ComputedClosing.Equal(decimal.NewFromFloat(1262.50)) {
		t.Errorf("Expected computed closing 1262.50, got %s", result.ComputedClosing)
	}

	if !result.Difference.IsZero() {
		t.Errorf("Expected difference 0.00, got %s", result.Difference)
	}

	if result.FirstDivergentRow != -1 {
		t.Errorf("Expected no divergent row, got %d", result.FirstDivergentRow)
	}
}

func TestVerifier_StatementScenario(t *testing.T) {
	v := verify.NewVerifier(decimal.Decimal{})

	opening := decimal.NewFromFloat(182573.56)
	expected := decimal.NewFromFloat(183693.12)

	txns := []domain.BankTransaction{
		txn(0, -50.00, ptr(182523.56)),
		txn(1, 1200.00, ptr(183723.56)),
		txn(2, -30.44, ptr(183693.12)),
	}

	result := v.Verify(&opening, txns, &expected)

	if !result.Passed {
		t.Errorf("Expected verification to pass, difference = %s", result.Difference)
	}

	if !result.ComputedClosing.Equal(decimal.NewFromFloat(183693.12)) {
		t.Errorf("Expected computed closing 183693.12, got %s", result.ComputedClosing)
	}
}

func TestVerifier_PinpointsFirstDivergentRow(t *testing.T) {
	v := verify.NewVerifier(decimal.Decimal{})

	opening := decimal.NewFromFloat(100.00)
	expected := decimal.NewFromFloat(240.00)

	// The bank states 160.00 after row 1, but the computed total is 150.00:
	// row 1 is where the statement goes wrong
	txns := []domain.BankTransaction{
		txn(0, 50.00, ptr(150.00)),
		txn(1, 0.00, ptr(160.00)),
		txn(2, 90.00, ptr(250.00)),
	}

	result := v.Verify(&opening, txns, &expected)

	if result.Passed {
		t.Error("Expected verification to fail")
	}

	if result.FirstDivergentRow != 1 {
		t.Errorf("Expected first divergent row 1, got %d", result.FirstDivergentRow)
	}

	if !result.PerRowBalances[1].Diverges {
		t.Error("Expected row 1 to be flagged as divergent")
	}
	if result.PerRowBalances[0].Diverges {
		t.Error("Expected row 0 not to be flagged")
	}
}

func TestVerifier_ToleranceBoundary(t *testing.T) {
	v := verify.NewVerifier(decimal.Decimal{})

	opening := decimal.NewFromFloat(0)

	// Differing by exactly the tolerance passes
	expected := decimal.NewFromFloat(100.01)
	result := v.Verify(&opening, []domain.BankTransaction{txn(0, 100.00, nil)}, &expected)
	if !result.Passed {
		t.Error("Expected difference of exactly the tolerance to pass")
	}

	// Differing by more than the tolerance fails
	expected = decimal.NewFromFloat(100.02)
	result = v.Verify(&opening, []domain.BankTransaction{txn(0, 100.00, nil)}, &expected)
	if result.Passed {
		t.Error("Expected difference above the tolerance to fail")
	}
}

func TestVerifier_NilBaselineIsUnverifiable(t *testing.T) {
	v := verify.NewVerifier(decimal.Decimal{})

	expected := decimal.NewFromFloat(100.00)
	result := v.Verify(nil, []domain.BankTransaction{txn(0, 100.00, nil)}, &expected)

	if !result.Unverifiable {
		t.Error("Expected nil opening balance to be unverifiable")
	}
	if result.Passed {
		t.Error("Expected unverifiable result not to pass")
	}

	// Known opening but no stated closing: the replay still runs
	opening := decimal.NewFromFloat(50.00)
	result = v.Verify(&opening, []domain.BankTransaction{txn(0, 25.00, nil)}, nil)

	if !result.Unverifiable {
		t.Error("Expected nil expected closing to be unverifiable")
	}
	if !result.ComputedClosing.Equal(decimal.NewFromFloat(75.00)) {
		t.Errorf("Expected computed closing 75.00, got %s", result.ComputedClosing)
	}
}
