package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-labs/akuntansid/internal/storage"
)

func TestBucketFor(t *testing.T) {
	cases := map[int]string{
		-10: BucketCurrent,
		0:   BucketCurrent,
		30:  BucketCurrent,
		31:  Bucket31To60,
		60:  Bucket31To60,
		61:  Bucket61To90,
		90:  Bucket61To90,
		91:  BucketOver90,
		400: BucketOver90,
	}
	for days, want := range cases {
		assert.Equal(t, want, bucketFor(days), "days=%d", days)
	}
}

func TestAgingReport(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})

	// Due 2024-06-15, fully outstanding.
	recent := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-06-15", Subtotal: d("100"),
	})
	_, err := svc.Approve(ctx, testIdentity, recent.ID, ApproveInput{})
	require.NoError(t, err)

	// Due 2024-03-01, 300 invoiced with 100 already paid.
	old := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-2",
		InvoiceDate: "2024-02-01", DueDate: "2024-03-01", Subtotal: d("300"),
	})
	_, err = svc.Approve(ctx, testIdentity, old.ID, ApproveInput{})
	require.NoError(t, err)
	_, err = svc.Pay(ctx, testIdentity, old.ID, PaymentInput{
		Amount: d("100"), PaymentDate: "2024-05-01", Method: "TRANSFER",
	})
	require.NoError(t, err)

	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	report, err := svc.Aging(ctx, testIdentity, asOf)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-30", report.AsOfDate)
	assert.Equal(t, storage.KindVendor, report.Kind)

	// 15 days overdue vs 121 days overdue.
	assert.True(t, report.Summary.Current.Equal(d("100")))
	assert.True(t, report.Summary.Days31To60.IsZero())
	assert.True(t, report.Summary.Days61To90.IsZero())
	assert.True(t, report.Summary.Over90.Equal(d("200")))
	assert.True(t, report.Summary.Total.Equal(d("300")))

	require.Len(t, report.Parties, 1)
	assert.Equal(t, "V-1", report.Parties[0].PartyCode)
	assert.True(t, report.Parties[0].Total.Equal(d("300")))

	// Detail sorted by (party_name, due_date asc): the March invoice
	// comes first.
	require.Len(t, report.Invoices, 2)
	assert.Equal(t, "INV-2", report.Invoices[0].InvoiceNumber)
	assert.Equal(t, 121, report.Invoices[0].DaysOverdue)
	assert.Equal(t, BucketOver90, report.Invoices[0].Bucket)
	assert.True(t, report.Invoices[0].Outstanding.Equal(d("200")))
	assert.Equal(t, "INV-1", report.Invoices[1].InvoiceNumber)
	assert.Equal(t, 15, report.Invoices[1].DaysOverdue)
	assert.Equal(t, BucketCurrent, report.Invoices[1].Bucket)
}

func TestAgingExcludesSettledAndCancelled(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})

	paid := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-05-01", DueDate: "2024-05-15", Subtotal: d("100"),
	})
	_, err := svc.Approve(ctx, testIdentity, paid.ID, ApproveInput{})
	require.NoError(t, err)
	_, err = svc.Pay(ctx, testIdentity, paid.ID, PaymentInput{
		Amount: d("100"), PaymentDate: "2024-05-20", Method: "TRANSFER",
	})
	require.NoError(t, err)

	cancelled := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-2",
		InvoiceDate: "2024-05-01", DueDate: "2024-05-15", Subtotal: d("100"),
	})
	_, err = svc.Cancel(ctx, testIdentity, cancelled.ID)
	require.NoError(t, err)

	report, err := svc.Aging(ctx, testIdentity, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, report.Invoices)
	assert.Empty(t, report.Parties)
	assert.True(t, report.Summary.Total.IsZero())
}

func TestAgingGroupsByParty(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	// Names chosen so sort order differs from creation order.
	zebra := mustParty(t, svc, PartyInput{Code: "V-1", Name: "Zebra Logistik"})
	anggrek := mustParty(t, svc, PartyInput{Code: "V-2", Name: "Anggrek Niaga"})

	for _, tc := range []struct {
		party  *storage.Party
		number string
		due    string
	}{
		{zebra, "INV-1", "2024-05-01"},
		{anggrek, "INV-2", "2024-05-20"},
		{anggrek, "INV-3", "2024-05-10"},
	} {
		inv := mustInvoice(t, svc, InvoiceInput{
			PartyID: tc.party.ID, InvoiceNumber: tc.number,
			InvoiceDate: "2024-04-01", DueDate: tc.due, Subtotal: d("50"),
		})
		_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
		require.NoError(t, err)
	}

	report, err := svc.Aging(ctx, testIdentity, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, report.Parties, 2)
	assert.Equal(t, "Anggrek Niaga", report.Parties[0].PartyName)
	assert.True(t, report.Parties[0].Total.Equal(d("100")))
	assert.Equal(t, "Zebra Logistik", report.Parties[1].PartyName)
	assert.True(t, report.Parties[1].Total.Equal(d("50")))

	require.Len(t, report.Invoices, 3)
	assert.Equal(t, "INV-3", report.Invoices[0].InvoiceNumber)
	assert.Equal(t, "INV-2", report.Invoices[1].InvoiceNumber)
	assert.Equal(t, "INV-1", report.Invoices[2].InvoiceNumber)
}
