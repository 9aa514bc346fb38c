package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvoice/reconcile-backend/internal/application/service"
	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/matching"
	"github.com/finvoice/reconcile-backend/internal/domain/scoring"
)

// UploadResponse is the raw parse-and-match result.
type UploadResponse struct {
	Success          bool                        `json:"success"`
	TransactionCount int                         `json:"transactionCount"`
	Matches          []matching.TransactionMatch `json:"matches"`
}

// MatchesResponse is the review-friendly variant with flattened
// suggestion summaries.
type MatchesResponse struct {
	Success          bool             `json:"success"`
	TransactionCount int              `json:"transactionCount"`
	AutoMatchedCount int              `json:"autoMatchedCount"`
	Matches          []FormattedMatch `json:"matches"`
}

// FormattedMatch is one transaction with flattened suggestions.
type FormattedMatch struct {
	Transaction   TransactionSummary  `json:"transaction"`
	BestMatch     *SuggestionSummary  `json:"bestMatch"`
	Suggestions   []SuggestionSummary `json:"suggestions"`
	IsAutoMatched bool                `json:"isAutoMatched"`
}

// TransactionSummary is the transaction without its raw CSV line.
type TransactionSummary struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// SuggestionSummary flattens a candidate for the review UI.
type SuggestionSummary struct {
	InvoiceID     int64              `json:"invoiceId"`
	InvoiceNumber string             `json:"invoiceNumber"`
	ClientName    string             `json:"clientName"`
	InvoiceAmount decimal.Decimal    `json:"invoiceAmount"`
	Score         int                `json:"score"`
	Confidence    scoring.Confidence `json:"confidence"`
	Outstanding   decimal.Decimal    `json:"outstanding"`
	Breakdown     scoring.Breakdown  `json:"breakdown"`
}

// RecordPaymentResponse confirms a single recorded payment.
type RecordPaymentResponse struct {
	Success   bool            `json:"success"`
	Payment   billing.Payment `json:"payment"`
	NewStatus billing.Status  `json:"newStatus"`
}

// ToMatchesResponse flattens a match report for the review UI.
func ToMatchesResponse(report *service.MatchReport) MatchesResponse {
	resp := MatchesResponse{
		Success:          true,
		TransactionCount: report.TransactionCount,
		AutoMatchedCount: report.AutoMatchedCount,
		Matches:          make([]FormattedMatch, 0, len(report.Matches)),
	}

	for _, m := range report.Matches {
		fm := FormattedMatch{
			Transaction: TransactionSummary{
				Date:        m.Transaction.Date,
				Amount:      m.Transaction.Amount,
				Description: m.Transaction.Description,
				Reference:   m.Transaction.Reference,
			},
			Suggestions:   make([]SuggestionSummary, 0, len(m.Suggestions)),
			IsAutoMatched: m.IsAutoMatched,
		}
		for _, s := range m.Suggestions {
			fm.Suggestions = append(fm.Suggestions, toSuggestionSummary(s))
		}
		if m.BestMatch != nil {
			best := toSuggestionSummary(*m.BestMatch)
			fm.BestMatch = &best
		}
		resp.Matches = append(resp.Matches, fm)
	}

	return resp
}

func toSuggestionSummary(c matching.Candidate) SuggestionSummary {
	return SuggestionSummary{
		InvoiceID:     c.Invoice.ID,
		InvoiceNumber: c.Invoice.InvoiceNumber,
		ClientName:    c.Invoice.Client.Name,
		InvoiceAmount: c.Invoice.Total,
		Score:         c.Score,
		Confidence:    c.Confidence,
		Outstanding:   c.Outstanding,
		Breakdown:     c.Breakdown,
	}
}
