package summary_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/domain"
	"docwatch/internal/summary"
)

func analysis(t *testing.T, raw string) domain.Analysis {
	t.Helper()
	var a domain.Analysis
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	return a
}

func val(t *testing.T, p *float64) float64 {
	t.Helper()
	require.NotNil(t, p)
	return *p
}

func TestBuild_KindDispatch(t *testing.T) {
	tests := []struct {
		docType string
		want    any
	}{
		{"bank_statement", &summary.BankSummary{}},
		{"Bank Statement", &summary.BankSummary{}},
		{"annual-accounts", &summary.FinancialsSummary{}},
		{"payslip", &summary.PayslipSummary{}},
		{"passport", &summary.IDSummary{}},
		{"utility_bill", &summary.AddressSummary{}},
		{"tax_return", &summary.GenericSummary{}},
		{"", &summary.GenericSummary{}},
	}
	for _, tt := range tests {
		t.Run(tt.docType, func(t *testing.T) {
			s := summary.Build(tt.docType, nil, nil)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestBuild_BankStructuredBeatsAliasesAndLabels(t *testing.T) {
	a := analysis(t, `{
		"summary": "Healthy account",
		"risk_score": 0,
		"structured": {
			"opening_balance": "£1,200.00",
			"closingBalance": 0,
			"total_credits": "(80,000)",
			"transactions": [{}, {}, {}]
		},
		"opening_balance": 999
	}`)
	fields := []domain.Field{
		{Label: "Opening Balance", Value: "5"},
		{Label: "Account Holder", Value: "Jane Doe"},
	}

	s, ok := summary.Build("bank_statement", a, fields).(*summary.BankSummary)
	require.True(t, ok)
	assert.Equal(t, domain.DocKindBank, s.Kind())
	assert.Equal(t, "Healthy account", s.Narrative)
	assert.Equal(t, 0.0, val(t, s.RiskScore))
	assert.Equal(t, 1200.0, val(t, s.OpeningBalance))
	assert.Equal(t, 0.0, val(t, s.ClosingBalance))
	assert.Equal(t, -80000.0, val(t, s.TotalInflows))
	assert.Nil(t, s.TotalOutflows)
	assert.Equal(t, 3, s.TransactionCount)
	assert.Equal(t, "Jane Doe", s.AccountHolder)
}

func TestBuild_LegacyRootAliases(t *testing.T) {
	a := analysis(t, `{"grossPay": "3,000", "net": "2,250.50", "paye": "450", "employer": "Acme Ltd"}`)

	s, ok := summary.Build("payslip", a, nil).(*summary.PayslipSummary)
	require.True(t, ok)
	assert.Equal(t, 3000.0, val(t, s.GrossPay))
	assert.Equal(t, 2250.5, val(t, s.NetPay))
	assert.Equal(t, 450.0, val(t, s.Tax))
	assert.Equal(t, "Acme Ltd", s.EmployerName)
	assert.Nil(t, s.Pension)
}

func TestBuild_SkipsUnparsableForLaterSource(t *testing.T) {
	a := analysis(t, `{"structured": {"revenue": "N/A", "turnover": "1.5m?"}}`)
	fields := []domain.Field{{Label: "revenue", Value: "250000"}}

	s, ok := summary.Build("financials", a, fields).(*summary.FinancialsSummary)
	require.True(t, ok)
	assert.Equal(t, 250000.0, val(t, s.Revenue))
}

func TestBuild_IDFromFieldsOnly(t *testing.T) {
	fields := []domain.Field{
		{Label: "Full Name", Value: "A. Person"},
		{Label: "DOB", Value: "1990-01-01"},
		{Label: "expiry_date", Value: "2030-05-01"},
	}
	s, ok := summary.Build("passport", nil, fields).(*summary.IDSummary)
	require.True(t, ok)
	assert.Equal(t, "A. Person", s.FullName)
	assert.Equal(t, "1990-01-01", s.DateOfBirth)
	assert.Equal(t, "2030-05-01", s.ExpiryDate)
	assert.Empty(t, s.DocumentNumber)
}

func TestBuild_GenericListsScalars(t *testing.T) {
	a := analysis(t, `{"structured": {"zeta": 0, "alpha": "x", "nested": {"a": 1}, "list": [1]}}`)
	fields := []domain.Field{{Label: "Reference", Value: "R-1"}}

	s := summary.Build("something_else", a, fields)
	rows := s.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[0].Label)
	assert.Equal(t, "x", rows[0].Text)
	assert.Equal(t, "zeta", rows[1].Label)
	assert.Equal(t, 0.0, val(t, rows[1].Number))
	assert.Equal(t, "Reference", rows[2].Label)
}

func TestRows_MissingValuesStayVisible(t *testing.T) {
	s := summary.Build("payslip", nil, nil)
	rows := s.Rows()
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.True(t, r.Missing(), r.Label)
	}
}

func TestTransactionCount(t *testing.T) {
	assert.Equal(t, 0, summary.TransactionCount(nil))
	assert.Equal(t, 0, summary.TransactionCount(analysis(t, `{"structured":{"transactions":[]}}`)))
	assert.Equal(t, 2, summary.TransactionCount(analysis(t, `{"structured":{"bankTransactions":[1,2]}}`)))
	assert.Equal(t, 7, summary.TransactionCount(analysis(t, `{"structured":{"transaction_count":"7"}}`)))
	assert.Equal(t, 1, summary.TransactionCount(analysis(t, `{"transactions":[{}],"transactionCount":9}`)))
}
