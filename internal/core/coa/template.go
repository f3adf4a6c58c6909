package coa

import "github.com/saldo-labs/akuntansid/internal/storage"

type templateAccount struct {
	code        string
	name        string
	accountType storage.AccountType
}

// indonesianTemplate is the standard chart installed for new companies.
// Codes follow the common Indonesian convention: 1xxx assets, 2xxx
// liabilities, 3xxx equity, 4xxx revenue, 5xxx cost of sales, 6xxx
// operating expenses, 8xxx other expenses.
var indonesianTemplate = []templateAccount{
	{"1000", "Kas", storage.AccountAsset},
	{"1010", "Kas Kecil", storage.AccountAsset},
	{"1100", "Bank", storage.AccountAsset},
	{"1200", "Piutang Usaha", storage.AccountAsset},
	{"1210", "Piutang Lain-lain", storage.AccountAsset},
	{"1300", "Persediaan", storage.AccountAsset},
	{"1400", "PPN Masukan", storage.AccountAsset},
	{"1410", "Uang Muka PPh 25", storage.AccountAsset},
	{"1500", "Biaya Dibayar di Muka", storage.AccountAsset},
	{"1700", "Peralatan", storage.AccountAsset},
	{"1710", "Kendaraan", storage.AccountAsset},
	{"1790", "Akumulasi Penyusutan", storage.AccountAsset},

	{"2000", "Hutang Usaha", storage.AccountLiability},
	{"2100", "Hutang Bank", storage.AccountLiability},
	{"2200", "PPN Keluaran", storage.AccountLiability},
	{"2210", "Hutang PPh 21", storage.AccountLiability},
	{"2220", "Hutang PPh 23", storage.AccountLiability},
	{"2230", "Hutang PPh 29", storage.AccountLiability},
	{"2300", "Hutang Gaji", storage.AccountLiability},

	{"3000", "Modal Disetor", storage.AccountEquity},
	{"3100", "Laba Ditahan", storage.AccountEquity},
	{"3200", "Prive", storage.AccountEquity},

	{"4000", "Pendapatan Penjualan", storage.AccountRevenue},
	{"4100", "Pendapatan Jasa", storage.AccountRevenue},
	{"4900", "Pendapatan Lain-lain", storage.AccountRevenue},

	{"5000", "Harga Pokok Penjualan", storage.AccountExpense},

	{"6000", "Beban Gaji", storage.AccountExpense},
	{"6100", "Beban Sewa", storage.AccountExpense},
	{"6200", "Beban Listrik dan Air", storage.AccountExpense},
	{"6300", "Beban Telepon dan Internet", storage.AccountExpense},
	{"6400", "Beban Perlengkapan Kantor", storage.AccountExpense},
	{"6500", "Beban Penyusutan", storage.AccountExpense},
	{"6600", "Beban Transportasi", storage.AccountExpense},
	{"6900", "Beban Operasional Lainnya", storage.AccountExpense},

	{"8000", "Beban Bunga", storage.AccountExpense},
	{"8100", "Beban Pajak", storage.AccountExpense},
}
