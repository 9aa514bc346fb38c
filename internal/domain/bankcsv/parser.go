// Package bankcsv parses heterogeneous bank CSV exports into credit
// transactions for reconciliation.
//
// Banks do not agree on column names, ordering, date formats or amount
// notation, so the parser detects columns by keyword instead of
// position and tries a ladder of date formats. Only strictly positive
// amounts (money received) become transactions; debits and refunds are
// dropped during parsing rather than surfaced as errors.
package bankcsv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parser turns raw CSV text into transactions according to a Policy.
type Parser struct {
	policy Policy
}

// NewParser creates a parser with the given column-detection policy.
func NewParser(policy Policy) *Parser {
	return &Parser{policy: policy}
}

// Parse parses CSV text (header row plus data rows) into transactions,
// preserving input row order. It fails with a *ParseError when the
// input has fewer than two lines, when neither a date nor an amount
// column can be identified, or when a date string matches no known
// format.
func (p *Parser) Parse(csvText string) ([]Transaction, error) {
	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	if len(lines) < 2 {
		return nil, &ParseError{Reason: "CSV file is empty or invalid"}
	}

	headers := splitLine(lines[0])
	for i, h := range headers {
		headers[i] = strings.ToLower(h)
	}

	dateIdx := detectColumn(headers, p.policy.DateKeywords)
	amountIdx := detectColumn(headers, p.policy.AmountKeywords)
	descIdx := detectColumn(headers, p.policy.DescriptionKeywords)
	refIdx := detectColumn(headers, p.policy.ReferenceKeywords)

	if dateIdx == -1 || amountIdx == -1 {
		return nil, &ParseError{Reason: "required columns (date, amount) not found in CSV"}
	}

	var txns []Transaction
	for _, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		values := splitLine(line)
		dateStr := field(values, dateIdx)
		amountStr := field(values, amountIdx)
		if dateStr == "" || amountStr == "" {
			continue
		}

		amount, ok := p.normalizeAmount(amountStr)
		if !ok || !amount.IsPositive() {
			continue
		}

		date, err := parseDate(dateStr)
		if err != nil {
			return nil, err
		}

		txns = append(txns, Transaction{
			Date:        date,
			Amount:      amount,
			Description: field(values, descIdx),
			Reference:   field(values, refIdx),
			RawLine:     line,
		})
	}

	return txns, nil
}

// detectColumn returns the index of the first header cell containing
// any of the keywords, scanning cells left to right, or -1.
func detectColumn(headers []string, keywords []string) int {
	for i, h := range headers {
		for _, kw := range keywords {
			if strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}

// splitLine is a quote-aware comma split. A double quote toggles quoted
// mode; commas inside quotes are preserved. Surrounding quotes are
// stripped and fields trimmed.
func splitLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())

	for i, f := range fields {
		fields[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(f), `"`))
	}
	return fields
}

func field(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return strings.TrimSpace(values[idx])
}

// normalizeAmount strips currency symbols, thousands separators and
// whitespace, and treats a parenthesized value as negative (accounting
// notation). Values that still fail to parse are reported as not-ok so
// the caller can skip the row.
func (p *Parser) normalizeAmount(s string) (decimal.Decimal, bool) {
	cleaned := s
	for _, sym := range p.policy.CurrencySymbols {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.Join(strings.Fields(cleaned), "")

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true
}

// dateLayouts is the primary format ladder, tried in order. DD/MM is
// preferred over MM/DD for the target market.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

// fallbackLayouts covers formats occasionally seen in exports when the
// primary ladder misses.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, ok := parseTwoDigitYear(s); ok {
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Reason: fmt.Sprintf("unable to parse date: %s", s)}
}

// parseTwoDigitYear handles DD/MM/YY with a fixed pivot: years below 50
// land in the 2000s, the rest in the 1900s.
func parseTwoDigitYear(s string) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[2]) != 2 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	if year < 50 {
		year += 2000
	} else {
		year += 1900
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
