package cli

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saldo-labs/akuntansid/internal/config"
	"github.com/saldo-labs/akuntansid/internal/core/coa"
	"github.com/saldo-labs/akuntansid/internal/core/invoice"
	"github.com/saldo-labs/akuntansid/internal/core/ledger"
	"github.com/saldo-labs/akuntansid/internal/core/tax"
	"github.com/saldo-labs/akuntansid/internal/storage"
	"github.com/saldo-labs/akuntansid/internal/storage/postgres"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Start the chart of accounts service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStateful(config.ServiceAccounts,
			[]string{postgres.SchemaAccounts, postgres.SchemaAudit},
			func(store *postgres.Manager, log zerolog.Logger) func(chi.Router) {
				return coa.NewHandler(coa.NewService(store, log)).Routes
			})
	},
}

// The ledger service shares the accounts tables: journal lines reference
// accounts and the trial balance joins against them.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Start the general ledger service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStateful(config.ServiceLedger,
			[]string{postgres.SchemaAccounts, postgres.SchemaLedger, postgres.SchemaAudit},
			func(store *postgres.Manager, log zerolog.Logger) func(chi.Router) {
				return ledger.NewHandler(ledger.NewService(store, log)).Routes
			})
	},
}

var payablesCmd = &cobra.Command{
	Use:   "payables",
	Short: "Start the accounts payable service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoiceService(config.ServicePayables, storage.KindVendor, postgres.SchemaPayables)
	},
}

var receivablesCmd = &cobra.Command{
	Use:   "receivables",
	Short: "Start the accounts receivable service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoiceService(config.ServiceReceivables, storage.KindCustomer, postgres.SchemaReceivables)
	},
}

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Start the tax calculation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStateful(config.ServiceTax,
			[]string{postgres.SchemaTax, postgres.SchemaAudit},
			func(store *postgres.Manager, log zerolog.Logger) func(chi.Router) {
				return tax.NewHandler(tax.NewService(store, log)).Routes
			})
	},
}

// runInvoiceService starts the payable or receivable side. When a ledger
// URL is configured the service posts journal entries for approvals and
// payments; without one those requests fail with a DEPENDENCY error.
func runInvoiceService(service string, kind storage.InvoiceKind, schemaGroup string) error {
	cfg, err := loadConfig(service)
	if err != nil {
		return err
	}

	var journals invoice.Journals
	if url, ok := cfg.Services.URL(config.ServiceLedger); ok {
		journals = invoice.NewLedgerClient(url)
	}

	return runStatefulWith(cfg, []string{schemaGroup, postgres.SchemaAudit},
		func(store *postgres.Manager, log zerolog.Logger) func(chi.Router) {
			return invoice.NewHandler(invoice.NewService(store, kind, journals, log)).Routes
		})
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(payablesCmd)
	rootCmd.AddCommand(receivablesCmd)
	rootCmd.AddCommand(taxCmd)
}
