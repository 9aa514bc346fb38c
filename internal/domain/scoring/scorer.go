// Package scoring computes a weighted 0-100 confidence score between a
// bank transaction and a candidate invoice.
//
// Four dimensions contribute: amount closeness, invoice number found in
// the transaction text, client name found in the transaction text, and
// date proximity to the invoice's issue or due date. Weights sum to
// 100, so each dimension's weighted contribution is score/100*weight
// and the total is the rounded sum. Scoring is a pure function of its
// inputs.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvoice/reconcile-backend/internal/domain/bankcsv"
	"github.com/finvoice/reconcile-backend/internal/domain/billing"
)

// Scorer scores transactions against invoices using a fixed Config.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given config.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the weighted total, confidence bucket and breakdown
// for one transaction/invoice pair. The caller is expected to have
// already established that the invoice has an outstanding balance.
func (s *Scorer) Score(tx bankcsv.Transaction, inv *billing.Invoice) Result {
	searchText := strings.ToLower(tx.Description + " " + tx.Reference)

	amount := s.amountScore(tx.Amount, inv.Total)
	invoiceNum := s.invoiceNumberScore(searchText, inv.InvoiceNumber)
	clientName := s.clientNameScore(searchText, inv.Client.Name)
	dateRange := s.dateScore(tx.Date, inv.IssueDate, inv.DueDate)

	breakdown := Breakdown{
		Amount:        weighted(amount, s.cfg.AmountWeight),
		InvoiceNumber: weighted(invoiceNum, s.cfg.InvoiceNumberWeight),
		ClientName:    weighted(clientName, s.cfg.ClientNameWeight),
		DateRange:     weighted(dateRange, s.cfg.DateWeight),
	}

	sum := breakdown.Amount.Weighted +
		breakdown.InvoiceNumber.Weighted +
		breakdown.ClientName.Weighted +
		breakdown.DateRange.Weighted
	total := int(math.Round(sum))

	return Result{
		Total:      total,
		Confidence: s.confidence(total),
		Breakdown:  breakdown,
	}
}

func weighted(score, weight int) Dimension {
	return Dimension{
		Score:    score,
		Weight:   weight,
		Weighted: float64(score) / 100 * float64(weight),
	}
}

func (s *Scorer) confidence(total int) Confidence {
	switch {
	case total >= s.cfg.HighCutoff:
		return ConfidenceHigh
	case total >= s.cfg.MediumCutoff:
		return ConfidenceMedium
	case total >= s.cfg.LowCutoff:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// amountScore compares the transaction amount against the invoice
// total. The tolerance band is a fraction of the invoice total; bands
// widen from exact match out to twice the tolerance.
func (s *Scorer) amountScore(txAmount, invoiceTotal decimal.Decimal) int {
	diff := txAmount.Sub(invoiceTotal).Abs()
	tolerance := invoiceTotal.Mul(s.cfg.AmountTolerancePct)

	switch {
	case diff.IsZero():
		return 100
	case diff.LessThanOrEqual(tolerance.Mul(decimal.NewFromFloat(0.2))):
		return 95
	case diff.LessThanOrEqual(tolerance):
		return 80
	case diff.LessThanOrEqual(tolerance.Mul(decimal.NewFromInt(2))):
		return 50
	default:
		return 0
	}
}

// invoiceNumberScore looks for the invoice number in the transaction's
// description+reference text. A verbatim hit scores full; otherwise any
// hyphen-delimited segment longer than two characters scores a partial.
func (s *Scorer) invoiceNumberScore(searchText, invoiceNumber string) int {
	invoiceNum := strings.ToLower(invoiceNumber)
	if invoiceNum == "" {
		return 0
	}
	if strings.Contains(searchText, invoiceNum) {
		return 100
	}

	for _, part := range strings.Split(invoiceNum, "-") {
		if len(part) > 2 && strings.Contains(searchText, part) {
			return 80
		}
	}
	return 0
}

// clientNameScore looks for the client name in the transaction text,
// falling back to per-word matching over words longer than two
// characters. Names shorter than three characters never score.
func (s *Scorer) clientNameScore(searchText, clientName string) int {
	name := strings.ToLower(strings.TrimSpace(clientName))
	if len(name) < 3 {
		return 0
	}
	if strings.Contains(searchText, name) {
		return 100
	}

	var words []string
	for _, w := range strings.Fields(name) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(searchText, w) {
			matched++
		}
	}

	switch {
	case len(words) > 0 && matched == len(words):
		return 90
	case matched == len(words)-1 && matched > 0:
		return 70
	case matched > 0:
		return 40
	default:
		return 0
	}
}

// dateScore scores proximity of the transaction date to whichever of
// the invoice's issue and due dates is closer.
func (s *Scorer) dateScore(txDate, issueDate, dueDate time.Time) int {
	daysIssue := math.Abs(txDate.Sub(issueDate).Hours() / 24)
	daysDue := math.Abs(txDate.Sub(dueDate).Hours() / 24)
	days := math.Min(daysIssue, daysDue)

	switch {
	case days <= 1:
		return 100
	case days <= 7:
		return 85
	case days <= 14:
		return 60
	case days <= 30:
		return 40
	case days <= 90:
		return 20
	default:
		return 0
	}
}
