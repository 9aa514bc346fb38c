package scoring

import "github.com/shopspring/decimal"

// Config holds the scoring weights and cutoffs. The stock values are
// product decisions carried over from the original matching behavior;
// they are kept here as tunables rather than constants so deployments
// can adjust them without touching the algorithm.
type Config struct {
	AmountWeight        int
	InvoiceNumberWeight int
	ClientNameWeight    int
	DateWeight          int

	// AmountTolerancePct is the tolerance band as a fraction of the
	// invoice total. The band is always derived from the invoice, not
	// the transaction, so a given invoice scores consistently no
	// matter which transaction is tested against it.
	AmountTolerancePct decimal.Decimal

	// Confidence cutoffs on the 0-100 total.
	HighCutoff   int
	MediumCutoff int
	LowCutoff    int
}

// DefaultConfig returns the stock weights (40/30/20/10), a 5% amount
// tolerance band and the 85/65/30 confidence cutoffs.
func DefaultConfig() Config {
	return Config{
		AmountWeight:        40,
		InvoiceNumberWeight: 30,
		ClientNameWeight:    20,
		DateWeight:          10,
		AmountTolerancePct:  decimal.NewFromFloat(0.05),
		HighCutoff:          85,
		MediumCutoff:        65,
		LowCutoff:           30,
	}
}

// Confidence is the coarse bucket derived from a numeric score.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Dimension is one scored dimension with its weighted contribution.
type Dimension struct {
	Score    int     `json:"score"`
	Weight   int     `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Breakdown holds the per-dimension scores behind a total.
type Breakdown struct {
	Amount        Dimension `json:"amount"`
	InvoiceNumber Dimension `json:"invoiceNumber"`
	ClientName    Dimension `json:"clientName"`
	DateRange     Dimension `json:"dateRange"`
}

// Result is the outcome of scoring one transaction against one invoice.
type Result struct {
	Total      int        `json:"total"`
	Confidence Confidence `json:"confidence"`
	Breakdown  Breakdown  `json:"breakdown"`
}
