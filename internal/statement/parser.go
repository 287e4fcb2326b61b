// Package statement parses semicolon-delimited bank account exports into a
// metadata header and an ordered list of transactions.
//
// The expected layout is a fixed metadata block (account number, IBAN,
// period, opening balance labeled "Anfangssaldo:", closing balance labeled
// "Schlusssaldo:", currency, transaction count), followed by a column header
// row and one row per transaction. Numeric fields may carry apostrophe
// thousands separators and either a decimal comma or point.
package statement

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/pkg/fileutil"
)

const defaultDateFormat = "02/01/2006"

// ParseError reports a statement file that could not be parsed at all: the
// metadata block or the column header row is missing or malformed. Row-level
// problems never produce a ParseError; those rows are skipped and counted.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("statement parse error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("statement parse error: %s", e.Msg)
}

// Statement is the parsed form of one bank export file
type Statement struct {
	Header       domain.StatementHeader
	Transactions []domain.BankTransaction
	SkippedRows  int // data rows dropped because of an unparsable date or amount
}

// Metadata labels, matched case-insensitively with or without the colon
var metadataLabels = map[string]string{
	"kontonummer":          "account",
	"account number":       "account",
	"iban":                 "iban",
	"periode":              "period",
	"period":               "period",
	"anfangssaldo":         "opening",
	"schlusssaldo":         "closing",
	"währung":              "currency",
	"waehrung":             "currency",
	"currency":             "currency",
	"anzahl transaktionen": "count",
	"transaction count":    "count",
}

// Column aliases of the transaction table. The export is bilingual depending
// on the portal language the download was made with.
var columnAliases = map[string][]string{
	"date":         {"abschlussdatum", "buchungsdatum", "datum", "date", "booking date"},
	"valueDate":    {"valutadatum", "valuta", "value date"},
	"currency":     {"währung", "waehrung", "currency"},
	"debit":        {"belastung", "debit"},
	"credit":       {"gutschrift", "credit"},
	"balance":      {"saldo", "balance"},
	"description":  {"beschreibung", "buchungstext", "description", "text"},
	"counterparty": {"auftraggeber", "empfänger", "gegenpartei", "counterparty"},
}

var requiredColumns = []string{"date", "debit", "credit", "description"}

// Parser parses bank export files
type Parser struct {
	DateFormat string
}

// NewParser creates a Parser. An empty dateFormat defaults to DD/MM/YYYY.
func NewParser(dateFormat string) *Parser {
	if dateFormat == "" {
		dateFormat = defaultDateFormat
	}

	return &Parser{DateFormat: dateFormat}
}

// Parse reads a full bank export from rd and returns the parsed statement. A
// missing opening or closing balance label degrades to a nil balance in the
// header; only an unrecognizable metadata block or a missing column header
// row is fatal.
func (p *Parser) Parse(rd io.Reader) (*Statement, error) {
	reader := fileutil.NewRowReader(rd, ';')

	stmt := &Statement{}
	var columnMap map[string]int
	line := 0
	labelsSeen := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading statement row: %w", err)
		}
		line++

		if columnMap == nil {
			// Still in the metadata block, or on the column header row
			if m, ok := mapColumns(row); ok {
				columnMap = m
				continue
			}

			if p.parseMetadataRow(row, &stmt.Header) {
				labelsSeen++
			}
			continue
		}

		p.parseDataRow(row, line, columnMap, stmt)
	}

	if columnMap == nil {
		return nil, &ParseError{Msg: "no transaction column header row found"}
	}
	if labelsSeen == 0 {
		return nil, &ParseError{Msg: "no metadata block found before the column header row"}
	}

	return stmt, nil
}

// parseMetadataRow interprets one "Label:;value" row of the metadata block.
// Returns true when the label was recognized.
func (p *Parser) parseMetadataRow(row []string, header *domain.StatementHeader) bool {
	if len(row) == 0 {
		return false
	}

	label := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(row[0]), ":"))
	field, ok := metadataLabels[label]
	if !ok {
		return false
	}

	value := firstNonEmpty(row[1:])

	switch field {
	case "account":
		header.AccountNumber = value
	case "iban":
		header.IBAN = value
	case "period":
		header.Period = value
	case "currency":
		header.Currency = value
	case "count":
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			header.TransactionCount = n
		}
	case "opening":
		if d, err := parseAmount(value); err == nil {
			header.OpeningBalance = &d
		} else {
			log.Printf("Warning: unparsable opening balance %q, statement is unverifiable", value)
		}
	case "closing":
		if d, err := parseAmount(value); err == nil {
			header.ClosingBalance = &d
		} else {
			log.Printf("Warning: unparsable closing balance %q, statement is unverifiable", value)
		}
	}

	return true
}

// parseDataRow parses one transaction row. Rows with an unparsable date or
// amount are skipped and counted, never silently dropped.
func (p *Parser) parseDataRow(row []string, line int, columnMap map[string]int, stmt *Statement) {
	get := func(field string) string {
		idx, ok := columnMap[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	if isBlankRow(row) {
		return
	}

	dateStr := get("date")
	if dateStr == "" {
		log.Printf("Warning: line %d: empty date, row skipped", line)
		stmt.SkippedRows++
		return
	}

	txDate, err := time.Parse(p.DateFormat, dateStr)
	if err != nil {
		log.Printf("Warning: line %d: invalid date %q, row skipped", line, dateStr)
		stmt.SkippedRows++
		return
	}

	debit, err := parseAmount(get("debit"))
	if err != nil {
		log.Printf("Warning: line %d: invalid debit amount %q, row skipped", line, get("debit"))
		stmt.SkippedRows++
		return
	}

	credit, err := parseAmount(get("credit"))
	if err != nil {
		log.Printf("Warning: line %d: invalid credit amount %q, row skipped", line, get("credit"))
		stmt.SkippedRows++
		return
	}

	txn := domain.BankTransaction{
		Date:             txDate,
		Amount:           credit.Sub(debit),
		Description:      get("description"),
		CounterpartyName: get("counterparty"),
		SequenceInFile:   len(stmt.Transactions),
	}

	if vd := get("valueDate"); vd != "" {
		if d, err := time.Parse(p.DateFormat, vd); err == nil {
			txn.ValueDate = &d
		}
	}

	// The bank-stated running balance is trusted as ground truth when the
	// column is present; the amount above is the independent cross-check.
	if bal := get("balance"); bal != "" {
		if d, err := parseAmount(bal); err == nil {
			txn.RunningBalance = &d
		} else {
			log.Printf("Warning: line %d: invalid running balance %q, ignored", line, bal)
		}
	}

	stmt.Transactions = append(stmt.Transactions, txn)
}

// mapColumns tries to interpret a row as the transaction column header.
// Returns the column map when all required columns are present.
func mapColumns(row []string) (map[string]int, bool) {
	columnMap := make(map[string]int)

	for field, aliases := range columnAliases {
		for i, cell := range row {
			cell = strings.ToLower(strings.TrimSpace(cell))
			found := false
			for _, alias := range aliases {
				if cell == alias {
					columnMap[field] = i
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}

	for _, field := range requiredColumns {
		if _, ok := columnMap[field]; !ok {
			return nil, false
		}
	}

	return columnMap, true
}

// parseAmount converts a locale-formatted numeric field to a decimal.
// Apostrophe thousands separators are removed and a decimal comma is
// normalized to a point. An empty field parses to zero (an empty debit or
// credit cell means "no amount on this side").
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "") // typographic apostrophe
	s = strings.ReplaceAll(s, " ", "")

	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			// Both separators present: the last one is the decimal separator
			if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
				s = strings.ReplaceAll(s, ".", "")
				s = strings.Replace(s, ",", ".", 1)
			} else {
				s = strings.ReplaceAll(s, ",", "")
			}
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	if strings.EqualFold(s, "nan") {
		return decimal.Zero, fmt.Errorf("field is NaN")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	return d, nil
}

func firstNonEmpty(cells []string) string {
	for _, c := range cells {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
