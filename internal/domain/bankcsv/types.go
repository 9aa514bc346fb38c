package bankcsv

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one credit row parsed from a bank CSV export.
// Immutable once parsed; RawLine keeps the original row for audit.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	RawLine     string          `json:"raw_line"`
}

// Policy controls column detection and amount normalization.
// Bank exports vary by institution and locale, so the keyword sets and
// currency symbols are configuration rather than constants.
type Policy struct {
	DateKeywords        []string
	AmountKeywords      []string
	DescriptionKeywords []string
	ReferenceKeywords   []string
	CurrencySymbols     []string
}

// DefaultPolicy returns the stock column-detection policy.
func DefaultPolicy() Policy {
	return Policy{
		DateKeywords:        []string{"date", "transaction date", "value date"},
		AmountKeywords:      []string{"amount", "credit", "debit", "withdrawal"},
		DescriptionKeywords: []string{"description", "narration", "particulars", "details"},
		ReferenceKeywords:   []string{"reference", "ref", "transaction id", "cheque"},
		CurrencySymbols:     []string{"₹", "$"},
	}
}

// ParseError marks a CSV upload as unusable: empty input, missing
// required columns, or a date no known format accepts. It is fatal to
// the whole upload; no partial result accompanies it.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return e.Reason
}
