package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/storage"
	"github.com/saldo-labs/akuntansid/internal/storage/memory"
)

var testIdentity = auth.Identity{UserID: "user-1", CompanyID: "co-1", Email: "akun@saldo.id"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeJournals struct {
	entries []EntryRequest
	err     error
}

func (f *fakeJournals) CreateEntry(ctx context.Context, identity auth.Identity, in EntryRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.entries = append(f.entries, in)
	return fmt.Sprintf("entry-%d", len(f.entries)), nil
}

func newTestService(t *testing.T, kind storage.InvoiceKind) (*Service, *fakeJournals, *memory.Manager) {
	t.Helper()
	store := memory.NewManager()
	journals := &fakeJournals{}
	svc := NewService(store, kind, journals, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc, journals, store
}

func mustParty(t *testing.T, svc *Service, in PartyInput) *storage.Party {
	t.Helper()
	party, err := svc.CreateParty(context.Background(), testIdentity, in)
	require.NoError(t, err)
	return party
}

func mustInvoice(t *testing.T, svc *Service, in InvoiceInput) *View {
	t.Helper()
	inv, err := svc.CreateInvoice(context.Background(), testIdentity, in)
	require.NoError(t, err)
	return inv
}

func TestCreatePartyValidation(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	_, err := svc.CreateParty(ctx, testIdentity, PartyInput{Code: "V-1", Name: "PT Maju", NPWP: "123"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateParty(ctx, testIdentity, PartyInput{Code: "V-1", Name: "PT Maju", Phone: "12345"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	limit := d("1000000")
	_, err = svc.CreateParty(ctx, testIdentity, PartyInput{Code: "V-1", Name: "PT Maju", CreditLimit: &limit})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err), "credit limit is a customer-only field")
}

func TestCreatePartyNormalizesNPWP(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju", NPWP: "01.234.567.8-901.234"})
	assert.Equal(t, "012345678901234", party.NPWP)
	assert.True(t, party.Active)
}

func TestCreatePartyDuplicateCode(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	_, err := svc.CreateParty(ctx, testIdentity, PartyInput{Code: "V-1", Name: "PT Mundur"})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// Same code under another company is fine.
	other := auth.Identity{UserID: "user-9", CompanyID: "co-9"}
	_, err = svc.CreateParty(ctx, other, PartyInput{Code: "V-1", Name: "PT Lain"})
	require.NoError(t, err)
}

func TestCustomerCreditLimit(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindCustomer)

	limit := d("5000000")
	party := mustParty(t, svc, PartyInput{Code: "C-1", Name: "PT Pelanggan", CreditLimit: &limit})
	require.True(t, party.CreditLimit.Valid)
	assert.True(t, party.CreditLimit.Decimal.Equal(limit))
}

func TestUpdatePartyMutableFieldsOnly(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})

	name := "PT Maju Bersama"
	inactive := false
	updated, err := svc.UpdateParty(ctx, testIdentity, party.ID, PartyUpdateInput{Name: &name, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "PT Maju Bersama", updated.Name)
	assert.False(t, updated.Active)
	assert.Equal(t, "V-1", updated.Code)

	empty := ""
	_, err = svc.UpdateParty(ctx, testIdentity, party.ID, PartyUpdateInput{Name: &empty})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})

	cases := []struct {
		name string
		in   InvoiceInput
	}{
		{"due before invoice date", InvoiceInput{
			PartyID: party.ID, InvoiceNumber: "INV-1",
			InvoiceDate: "2024-06-01", DueDate: "2024-05-01", Subtotal: d("100"),
		}},
		{"negative subtotal", InvoiceInput{
			PartyID: party.ID, InvoiceNumber: "INV-1",
			InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("-100"),
		}},
		{"negative tax", InvoiceInput{
			PartyID: party.ID, InvoiceNumber: "INV-1",
			InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100"), TaxAmount: d("-11"),
		}},
		{"bad date", InvoiceInput{
			PartyID: party.ID, InvoiceNumber: "INV-1",
			InvoiceDate: "01/06/2024", DueDate: "2024-07-01", Subtotal: d("100"),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateInvoice(ctx, testIdentity, tc.in)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}

	// Unknown party.
	_, err := svc.CreateInvoice(ctx, testIdentity, InvoiceInput{
		PartyID: "nope", InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateInvoiceComputesTotal(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01",
		Subtotal: d("450450.45"), TaxAmount: d("49549.55"),
	})

	assert.Equal(t, storage.InvoiceDraft, inv.Status)
	assert.True(t, inv.TotalAmount.Equal(d("500000")))
	assert.True(t, inv.OutstandingAmount.Equal(d("500000")))
	assert.True(t, inv.PaidAmount.IsZero())
}

func TestCreateInvoiceDuplicateNumberPerParty(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	other := mustParty(t, svc, PartyInput{Code: "V-2", Name: "PT Mundur"})

	in := InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100"),
	}
	mustInvoice(t, svc, in)

	_, err := svc.CreateInvoice(ctx, testIdentity, in)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// The same number under another party is allowed.
	in.PartyID = other.ID
	_, err = svc.CreateInvoice(ctx, testIdentity, in)
	require.NoError(t, err)
}

func TestApproveCreatesLinkedJournalEntry(t *testing.T) {
	svc, journals, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01",
		Subtotal: d("1000000"), TaxAmount: d("110000"),
	})

	approved, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{CreateJournalEntry: true})
	require.NoError(t, err)
	assert.Equal(t, storage.InvoiceApproved, approved.Status)
	require.NotNil(t, approved.JournalEntryID)
	assert.Equal(t, "entry-1", *approved.JournalEntryID)

	require.Len(t, journals.entries, 1)
	entry := journals.entries[0]
	assert.Equal(t, "2024-06-01", entry.EntryDate)
	assert.Equal(t, "INV-1", entry.Reference)
	require.Len(t, entry.Lines, 3)

	// Debit expense and input VAT, credit accounts payable.
	assert.Equal(t, codeOtherExpense, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].DebitAmount.Equal(d("1000000")))
	assert.Equal(t, codeVATIn, entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].DebitAmount.Equal(d("110000")))
	assert.Equal(t, codeAccountsPayable, entry.Lines[2].AccountCode)
	assert.True(t, entry.Lines[2].CreditAmount.Equal(d("1110000")))
}

func TestApproveReceivableJournalEntry(t *testing.T) {
	svc, journals, _ := newTestService(t, storage.KindCustomer)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "C-1", Name: "PT Pelanggan"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01",
		Subtotal: d("2000000"), TaxAmount: d("220000"),
	})

	_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{CreateJournalEntry: true})
	require.NoError(t, err)

	require.Len(t, journals.entries, 1)
	entry := journals.entries[0]
	require.Len(t, entry.Lines, 3)

	// Debit accounts receivable, credit revenue and output VAT.
	assert.Equal(t, codeAccountsReceivable, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].DebitAmount.Equal(d("2220000")))
	assert.Equal(t, codeSalesRevenue, entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].CreditAmount.Equal(d("2000000")))
	assert.Equal(t, codeVATOut, entry.Lines[2].AccountCode)
	assert.True(t, entry.Lines[2].CreditAmount.Equal(d("220000")))
}

func TestApproveOnlyFromDraft(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100"),
	})

	_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestPaymentLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("500000"),
	})
	_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.NoError(t, err)

	paid, err := svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("300000"), PaymentDate: "2024-06-10", Method: "TRANSFER",
	})
	require.NoError(t, err)
	assert.Equal(t, storage.InvoicePartiallyPaid, paid.Status)
	assert.True(t, paid.PaidAmount.Equal(d("300000")))
	assert.True(t, paid.OutstandingAmount.Equal(d("200000")))

	// Paying more than the 200,000 outstanding is a conflict.
	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("250000"), PaymentDate: "2024-06-11", Method: "TRANSFER",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	paid, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("200000"), PaymentDate: "2024-06-12", Method: "TRANSFER",
	})
	require.NoError(t, err)
	assert.Equal(t, storage.InvoicePaid, paid.Status)
	assert.True(t, paid.OutstandingAmount.IsZero())
}

func TestPayRejectsBadAmountsAndStatuses(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100000"),
	})

	_, err := svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("0"), PaymentDate: "2024-06-10", Method: "TRANSFER",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// DRAFT invoices cannot receive payments.
	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("100000"), PaymentDate: "2024-06-10", Method: "TRANSFER",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	_, err = svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.NoError(t, err)
	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("100000"), PaymentDate: "2024-06-10", Method: "TRANSFER",
	})
	require.NoError(t, err)

	// Neither can PAID ones.
	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("1"), PaymentDate: "2024-06-11", Method: "TRANSFER",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestPayCreatesCashJournalEntry(t *testing.T) {
	svc, journals, _ := newTestService(t, storage.KindCustomer)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "C-1", Name: "PT Pelanggan"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100000"),
	})
	_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.NoError(t, err)

	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("100000"), PaymentDate: "2024-06-10", Method: "TRANSFER",
		CreateJournalEntry: true,
	})
	require.NoError(t, err)

	require.Len(t, journals.entries, 1)
	entry := journals.entries[0]
	assert.Equal(t, "2024-06-10", entry.EntryDate)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, codeCash, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].DebitAmount.Equal(d("100000")))
	assert.Equal(t, codeAccountsReceivable, entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].CreditAmount.Equal(d("100000")))
}

func TestReversePayment(t *testing.T) {
	svc, _, store := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("500000"),
	})
	_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.NoError(t, err)

	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("300000"), PaymentDate: "2024-06-10", Method: "TRANSFER",
	})
	require.NoError(t, err)
	paid, err := svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("200000"), PaymentDate: "2024-06-12", Method: "TRANSFER",
	})
	require.NoError(t, err)
	require.Equal(t, storage.InvoicePaid, paid.Status)

	// Only the most recent payment may be reversed.
	payments, err := svc.ListPayments(ctx, testIdentity.CompanyID, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	first := payments[0]
	if first.Amount.Equal(d("200000")) {
		first = payments[1]
	}
	_, err = svc.ReversePayment(ctx, testIdentity, inv.ID, ReversePaymentInput{PaymentID: first.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	reversed, err := svc.ReversePayment(ctx, testIdentity, inv.ID, ReversePaymentInput{})
	require.NoError(t, err)
	assert.Equal(t, storage.InvoicePartiallyPaid, reversed.Status)
	assert.True(t, reversed.PaidAmount.Equal(d("300000")))

	reversed, err = svc.ReversePayment(ctx, testIdentity, inv.ID, ReversePaymentInput{})
	require.NoError(t, err)
	assert.Equal(t, storage.InvoiceApproved, reversed.Status)
	assert.True(t, reversed.PaidAmount.IsZero())

	// Nothing left to reverse.
	_, err = svc.ReversePayment(ctx, testIdentity, inv.ID, ReversePaymentInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// The reversed rows stay on record; the sum of non-reversed
	// payments always matches paid_amount.
	payments, err = store.Invoices().ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	active := decimal.Zero
	for _, p := range payments {
		if !p.Reversed {
			active = active.Add(p.Amount)
		}
	}
	assert.True(t, active.IsZero())
}

func TestCancelInvoice(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100000"),
	})

	cancelled, err := svc.Cancel(ctx, testIdentity, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.InvoiceCancelled, cancelled.Status)

	// Terminal: no further transitions.
	_, err = svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	_, err = svc.Cancel(ctx, testIdentity, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestCancelRejectedOncePaid(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100000"),
	})
	_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.NoError(t, err)
	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("50000"), PaymentDate: "2024-06-10", Method: "TRANSFER",
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, testIdentity, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestCustomerOverdueIsDerived(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindCustomer)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "C-1", Name: "PT Pelanggan"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-04-01", DueDate: "2024-05-01", Subtotal: d("100000"),
	})
	_, err := svc.Approve(ctx, testIdentity, inv.ID, ApproveInput{})
	require.NoError(t, err)

	// Due 2024-05-01, today 2024-06-01: displayed overdue, stored
	// status untouched.
	view, err := svc.GetInvoice(ctx, testIdentity.CompanyID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, view.DisplayStatus)
	assert.Equal(t, storage.InvoiceApproved, view.Status)

	// Paying it clears the label.
	_, err = svc.Pay(ctx, testIdentity, inv.ID, PaymentInput{
		Amount: d("100000"), PaymentDate: "2024-06-01", Method: "TRANSFER",
	})
	require.NoError(t, err)
	view, err = svc.GetInvoice(ctx, testIdentity.CompanyID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.InvoicePaid, view.DisplayStatus)
}

func TestVendorInvoiceNeverShowsOverdue(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-04-01", DueDate: "2024-05-01", Subtotal: d("100000"),
	})

	view, err := svc.GetInvoice(ctx, testIdentity.CompanyID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.InvoiceDraft, view.DisplayStatus)
}

func TestCompanyIsolation(t *testing.T) {
	svc, _, _ := newTestService(t, storage.KindVendor)
	ctx := context.Background()

	party := mustParty(t, svc, PartyInput{Code: "V-1", Name: "PT Maju"})
	inv := mustInvoice(t, svc, InvoiceInput{
		PartyID: party.ID, InvoiceNumber: "INV-1",
		InvoiceDate: "2024-06-01", DueDate: "2024-07-01", Subtotal: d("100000"),
	})

	other := auth.Identity{UserID: "user-9", CompanyID: "co-9"}
	_, err := svc.GetInvoice(ctx, other.CompanyID, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Pay(ctx, other, inv.ID, PaymentInput{
		Amount: d("1"), PaymentDate: "2024-06-10", Method: "TRANSFER",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
