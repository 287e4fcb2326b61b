package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"bankrecon/internal/ledger"
	"bankrecon/internal/report"
	"bankrecon/internal/service"
	"bankrecon/internal/statement"
)

const dateFormat = "2006-01-02"

func main() {
	// Command-line flags
	var (
		statementFile     string
		ledgerFile        string
		accountCode       string
		startDateStr      string
		endDateStr        string
		statementDateFmt  string
		ledgerDateFmt     string
		contraAccount     string
		journalID         int64
		toleranceStr      string
		dryRun            bool
		outputFormat      string
		outputFile        string
		prettyPrint       bool
		colorOutput       bool
	)

	flag.StringVar(&statementFile, "statement", "", "Path to the bank statement export (semicolon-delimited CSV)")
	flag.StringVar(&ledgerFile, "ledger", "", "Path to the ledger entries CSV file")
	flag.StringVar(&accountCode, "account", "", "Ledger account code to reconcile")
	flag.StringVar(&startDateStr, "start-date", "", "Start of the statement period (YYYY-MM-DD)")
	flag.StringVar(&endDateStr, "end-date", "", "End of the statement period (YYYY-MM-DD)")
	flag.StringVar(&statementDateFmt, "statement-date-format", "02/01/2006", "Date layout used in the statement file")
	flag.StringVar(&ledgerDateFmt, "ledger-date-format", dateFormat, "Date layout used in the ledger CSV file")
	flag.StringVar(&contraAccount, "contra-account", "", "Contra account for adjustment entries (overrides LEDGER_CONTRA_ACCOUNT)")
	flag.Int64Var(&journalID, "journal", 0, "Journal id for adjustment entries (overrides LEDGER_JOURNAL_ID)")
	flag.StringVar(&toleranceStr, "tolerance", "0.01", "Maximum amount difference to treat balances and matches as equal")
	flag.BoolVar(&dryRun, "dry-run", false, "Plan all writes without executing any of them")
	flag.StringVar(&outputFormat, "format", "json", "Output format: json or text")
	flag.StringVar(&outputFile, "output", "", "Path to output file (if empty, writes to stdout)")
	flag.BoolVar(&prettyPrint, "pretty", true, "Pretty print JSON output")
	flag.BoolVar(&colorOutput, "color", true, "Colorize the text verdict")

	flag.Parse()

	// Connection settings and credentials come from the environment, never
	// from flags or source
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	cfg := ledger.ConfigFromEnv()
	if contraAccount != "" {
		cfg.ContraAccount = contraAccount
	}
	if journalID != 0 {
		cfg.JournalID = journalID
	}

	// Validate required flags
	if statementFile == "" {
		exitWithError("Bank statement file path is required")
	}
	if ledgerFile == "" {
		exitWithError("Ledger CSV file path is required")
	}
	if accountCode == "" {
		exitWithError("Account code is required")
	}
	if startDateStr == "" {
		exitWithError("Start date is required")
	}
	if endDateStr == "" {
		exitWithError("End date is required")
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(fmt.Sprintf("Invalid ledger configuration: %v", err))
	}

	// Parse dates
	startDate, err := time.Parse(dateFormat, startDateStr)
	if err != nil {
		exitWithError(fmt.Sprintf("Invalid start date format: %v", err))
	}

	endDate, err := time.Parse(dateFormat, endDateStr)
	if err != nil {
		exitWithError(fmt.Sprintf("Invalid end date format: %v", err))
	}

	if endDate.Before(startDate) {
		exitWithError("End date must be after start date")
	}

	tolerance, err := decimal.NewFromString(toleranceStr)
	if err != nil || tolerance.IsNegative() {
		exitWithError(fmt.Sprintf("Invalid tolerance: %s", toleranceStr))
	}

	// Parse the bank statement
	f, err := os.Open(statementFile)
	if err != nil {
		exitWithError(fmt.Sprintf("Failed to open statement file: %v", err))
	}

	parser := statement.NewParser(statementDateFmt)
	stmt, err := parser.Parse(f)
	f.Close()
	if err != nil {
		exitWithError(fmt.Sprintf("Failed to parse statement: %v", err))
	}
	if stmt.SkippedRows > 0 {
		log.Printf("Warning: skipped %d unparsable statement rows", stmt.SkippedRows)
	}

	accessor := ledger.NewCSVAccessor(ledgerFile, ledgerDateFmt)
	if dryRun {
		log.Printf("Dry run: no entries will be created, posted or reconciled")
	} else {
		// The CSV backend cannot take writes; planned adjustments will fail
		// at execution time
		log.Printf("Warning: ledger CSV files are read-only, use -dry-run to inspect the plan")
	}

	reconciliationService := service.NewReconciliationService(accessor, service.Options{
		Tolerance:     tolerance,
		JournalID:     cfg.JournalID,
		ContraAccount: cfg.ContraAccount,
		DryRun:        dryRun,
	})

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	result, err := reconciliationService.ReconcileAccount(ctx, service.AccountRun{
		AccountCode: accountCode,
		Statement:   stmt,
		PeriodStart: startDate,
		PeriodEnd:   endDate,
	})
	if err != nil {
		exitWithError(fmt.Sprintf("Reconciliation failed: %v", err))
	}

	// Format the output
	var formatter report.OutputFormatter
	switch outputFormat {
	case "json":
		formatter = report.NewJSONFormatter(prettyPrint)
	case "text":
		formatter = report.NewTextFormatter(colorOutput && outputFile == "")
	default:
		exitWithError(fmt.Sprintf("Unsupported output format: %s", outputFormat))
		return
	}

	output, err := formatter.Format(result.Report)
	if err != nil {
		exitWithError(fmt.Sprintf("Failed to format output: %v", err))
	}

	// Output the result
	if outputFile != "" {
		// If no extension is provided, add the formatter's default extension
		if !strings.Contains(outputFile, ".") {
			outputFile = fmt.Sprintf("%s.%s", outputFile, formatter.FileExtension())
		}

		err := os.WriteFile(outputFile, output, 0644)
		if err != nil {
			exitWithError(fmt.Sprintf("Failed to write output file: %v", err))
		}

	} else {
		fmt.Println(string(output))
	}
}

func exitWithError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Run with -h flag for usage information.\n")
	os.Exit(1)
}
