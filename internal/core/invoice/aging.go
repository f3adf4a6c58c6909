package invoice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Aging bucket names, keyed by days overdue.
const (
	BucketCurrent = "current"
	Bucket31To60  = "31_60"
	Bucket61To90  = "61_90"
	BucketOver90  = "over_90"
)

// BucketTotals accumulates outstanding amounts per aging bucket.
type BucketTotals struct {
	Current    decimal.Decimal `json:"current"`
	Days31To60 decimal.Decimal `json:"31_60"`
	Days61To90 decimal.Decimal `json:"61_90"`
	Over90     decimal.Decimal `json:"over_90"`
	Total      decimal.Decimal `json:"total"`
}

func (b *BucketTotals) add(bucket string, amount decimal.Decimal) {
	switch bucket {
	case Bucket31To60:
		b.Days31To60 = b.Days31To60.Add(amount)
	case Bucket61To90:
		b.Days61To90 = b.Days61To90.Add(amount)
	case BucketOver90:
		b.Over90 = b.Over90.Add(amount)
	default:
		b.Current = b.Current.Add(amount)
	}
	b.Total = b.Total.Add(amount)
}

// PartyAging is one party's bucketed outstanding balance.
type PartyAging struct {
	PartyID   string `json:"party_id"`
	PartyCode string `json:"party_code"`
	PartyName string `json:"party_name"`
	BucketTotals
}

// AgingLine is one outstanding invoice in the report detail.
type AgingLine struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PartyID       string          `json:"party_id"`
	PartyCode     string          `json:"party_code"`
	PartyName     string          `json:"party_name"`
	InvoiceDate   string          `json:"invoice_date"`
	DueDate       string          `json:"due_date"`
	Outstanding   decimal.Decimal `json:"outstanding_amount"`
	DaysOverdue   int             `json:"days_overdue"`
	Bucket        string          `json:"bucket"`
}

// AgingReport buckets every outstanding invoice by how far past due it
// is on the report date.
type AgingReport struct {
	AsOfDate string              `json:"as_of_date"`
	Kind     storage.InvoiceKind `json:"kind"`
	Summary  BucketTotals        `json:"summary"`
	Parties  []*PartyAging       `json:"parties"`
	Invoices []*AgingLine        `json:"invoices"`
}

// bucketFor classifies a days-overdue value. Invoices not yet due count
// as current.
func bucketFor(days int) string {
	switch {
	case days <= 30:
		return BucketCurrent
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// Aging builds the report for asOf. Detail rows keep the repository
// order, party name then due date ascending.
func (s *Service) Aging(ctx context.Context, identity auth.Identity, asOf time.Time) (*AgingReport, error) {
	asOf = dateOf(asOf)
	outstanding, err := s.store.Invoices().OutstandingInvoices(ctx, s.kind, identity.CompanyID)
	if err != nil {
		return nil, err
	}

	report := &AgingReport{
		AsOfDate: asOf.Format("2006-01-02"),
		Kind:     s.kind,
		Parties:  []*PartyAging{},
		Invoices: []*AgingLine{},
	}
	byParty := map[string]*PartyAging{}

	for _, inv := range outstanding {
		days := int(asOf.Sub(dateOf(inv.DueDate)) / (24 * time.Hour))
		bucket := bucketFor(days)
		amount := inv.Outstanding()

		report.Summary.add(bucket, amount)
		party, ok := byParty[inv.PartyID]
		if !ok {
			party = &PartyAging{PartyID: inv.PartyID, PartyCode: inv.PartyCode, PartyName: inv.PartyName}
			byParty[inv.PartyID] = party
			report.Parties = append(report.Parties, party)
		}
		party.add(bucket, amount)

		report.Invoices = append(report.Invoices, &AgingLine{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			PartyID:       inv.PartyID,
			PartyCode:     inv.PartyCode,
			PartyName:     inv.PartyName,
			InvoiceDate:   inv.InvoiceDate.Format("2006-01-02"),
			DueDate:       inv.DueDate.Format("2006-01-02"),
			Outstanding:   amount,
			DaysOverdue:   days,
			Bucket:        bucket,
		})
	}
	return report, nil
}
