// Package summary projects a canonical analysis onto typed, per-document-kind
// summaries, ratios and scores.
package summary

import (
	"sort"

	"docwatch/internal/domain"
	"docwatch/internal/numeric"
)

// Row is one labelled attribute, either text or a number. A row with neither
// is a missing value.
type Row struct {
	Label  string   `json:"label"`
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

// Missing reports whether the row carries no value.
func (r Row) Missing() bool {
	return r.Text == "" && r.Number == nil
}

func textRow(label, v string) Row { return Row{Label: label, Text: v} }
func numRow(label string, v *float64) Row { return Row{Label: label, Number: v} }

// Summary is the tagged union of per-kind summaries.
type Summary interface {
	Kind() domain.DocKind
	Rows() []Row
}

// Header carries the attributes shared by every summary kind.
type Header struct {
	Type      domain.DocKind `json:"kind"`
	DocType   string         `json:"docType,omitempty"`
	Narrative string         `json:"summary,omitempty"`
	RiskScore *float64       `json:"riskScore,omitempty"`
}

// Kind returns the document kind.
func (h Header) Kind() domain.DocKind { return h.Type }

// BankSummary holds account details, statement period and cash flow totals.
type BankSummary struct {
	Header
	AccountHolder    string   `json:"accountHolder,omitempty"`
	BankName         string   `json:"bankName,omitempty"`
	AccountNumber    string   `json:"accountNumber,omitempty"`
	SortCode         string   `json:"sortCode,omitempty"`
	PeriodStart      string   `json:"periodStart,omitempty"`
	PeriodEnd        string   `json:"periodEnd,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	OpeningBalance   *float64 `json:"openingBalance"`
	ClosingBalance   *float64 `json:"closingBalance"`
	TotalInflows     *float64 `json:"totalInflows"`
	TotalOutflows    *float64 `json:"totalOutflows"`
	AverageBalance   *float64 `json:"averageBalance"`
	TransactionCount int      `json:"transactionCount"`
}

// Rows lists the bank attributes in display order.
func (s *BankSummary) Rows() []Row {
	count := float64(s.TransactionCount)
	return []Row{
		textRow("Account holder", s.AccountHolder),
		textRow("Bank", s.BankName),
		textRow("Account number", s.AccountNumber),
		textRow("Sort code", s.SortCode),
		textRow("Period start", s.PeriodStart),
		textRow("Period end", s.PeriodEnd),
		textRow("Currency", s.Currency),
		numRow("Opening balance", s.OpeningBalance),
		numRow("Closing balance", s.ClosingBalance),
		numRow("Total inflows", s.TotalInflows),
		numRow("Total outflows", s.TotalOutflows),
		numRow("Average balance", s.AverageBalance),
		numRow("Transactions", &count),
	}
}

// FinancialsSummary holds headline balance-sheet and P&L figures.
type FinancialsSummary struct {
	Header
	CompanyName        string   `json:"companyName,omitempty"`
	PeriodEnd          string   `json:"periodEnd,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	Revenue            *float64 `json:"revenue"`
	CostOfSales        *float64 `json:"costOfSales"`
	GrossProfit        *float64 `json:"grossProfit"`
	OperatingProfit    *float64 `json:"operatingProfit"`
	EBITDA             *float64 `json:"ebitda"`
	NetProfit          *float64 `json:"netProfit"`
	InterestExpense    *float64 `json:"interestExpense"`
	TotalAssets        *float64 `json:"totalAssets"`
	TotalLiabilities   *float64 `json:"totalLiabilities"`
	Equity             *float64 `json:"equity"`
	CurrentAssets      *float64 `json:"currentAssets"`
	CurrentLiabilities *float64 `json:"currentLiabilities"`
	Inventory          *float64 `json:"inventory"`
	Cash               *float64 `json:"cash"`
}

// Rows lists the financial figures in display order.
func (s *FinancialsSummary) Rows() []Row {
	return []Row{
		textRow("Company", s.CompanyName),
		textRow("Period end", s.PeriodEnd),
		textRow("Currency", s.Currency),
		numRow("Revenue", s.Revenue),
		numRow("Cost of sales", s.CostOfSales),
		numRow("Gross profit", s.GrossProfit),
		numRow("Operating profit", s.OperatingProfit),
		numRow("EBITDA", s.EBITDA),
		numRow("Net profit", s.NetProfit),
		numRow("Interest expense", s.InterestExpense),
		numRow("Total assets", s.TotalAssets),
		numRow("Total liabilities", s.TotalLiabilities),
		numRow("Equity", s.Equity),
		numRow("Current assets", s.CurrentAssets),
		numRow("Current liabilities", s.CurrentLiabilities),
		numRow("Inventory", s.Inventory),
		numRow("Cash", s.Cash),
	}
}

// PayslipSummary holds employer, employee and pay figures.
type PayslipSummary struct {
	Header
	EmployeeName      string   `json:"employeeName,omitempty"`
	EmployerName      string   `json:"employerName,omitempty"`
	PayDate           string   `json:"payDate,omitempty"`
	PayPeriod         string   `json:"payPeriod,omitempty"`
	Currency          string   `json:"currency,omitempty"`
	GrossPay          *float64 `json:"grossPay"`
	NetPay            *float64 `json:"netPay"`
	Tax               *float64 `json:"tax"`
	NationalInsurance *float64 `json:"nationalInsurance"`
	Pension           *float64 `json:"pension"`
	YearToDateGross   *float64 `json:"yearToDateGross"`
}

// Rows lists the payslip attributes in display order.
func (s *PayslipSummary) Rows() []Row {
	return []Row{
		textRow("Employee", s.EmployeeName),
		textRow("Employer", s.EmployerName),
		textRow("Pay date", s.PayDate),
		textRow("Pay period", s.PayPeriod),
		textRow("Currency", s.Currency),
		numRow("Gross pay", s.GrossPay),
		numRow("Net pay", s.NetPay),
		numRow("Tax", s.Tax),
		numRow("National insurance", s.NationalInsurance),
		numRow("Pension", s.Pension),
		numRow("Year-to-date gross", s.YearToDateGross),
	}
}

// IDSummary holds identity document details.
type IDSummary struct {
	Header
	FullName       string `json:"fullName,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	IssueDate      string `json:"issueDate,omitempty"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	IssuingCountry string `json:"issuingCountry,omitempty"`
	Subtype        string `json:"subtype,omitempty"`
}

// Rows lists the identity attributes in display order.
func (s *IDSummary) Rows() []Row {
	return []Row{
		textRow("Full name", s.FullName),
		textRow("Document number", s.DocumentNumber),
		textRow("Date of birth", s.DateOfBirth),
		textRow("Issue date", s.IssueDate),
		textRow("Expiry date", s.ExpiryDate),
		textRow("Nationality", s.Nationality),
		textRow("Issuing country", s.IssuingCountry),
		textRow("Document type", s.Subtype),
	}
}

// AddressSummary holds the name, address and issuer of a proof of address.
type AddressSummary struct {
	Header
	FullName  string `json:"fullName,omitempty"`
	Address   string `json:"address,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	IssueDate string `json:"issueDate,omitempty"`
	Issuer    string `json:"issuer,omitempty"`
	Subtype   string `json:"subtype,omitempty"`
}

// Rows lists the address attributes in display order.
func (s *AddressSummary) Rows() []Row {
	return []Row{
		textRow("Full name", s.FullName),
		textRow("Address", s.Address),
		textRow("Postcode", s.Postcode),
		textRow("Issue date", s.IssueDate),
		textRow("Issuer", s.Issuer),
		textRow("Document type", s.Subtype),
	}
}

// GenericSummary lists the scalar entries of structured plus the flat fields.
type GenericSummary struct {
	Header
	Attributes []Row `json:"attributes"`
}

func (s *GenericSummary) Rows() []Row { return s.Attributes }

// KindOf maps the many spellings of a document type onto a DocKind.
func KindOf(docType string) domain.DocKind {
	return domain.KindOf(docType)
}

// Build projects analysis and the envelope's flat fields onto the summary for
// docType's kind. A nil analysis still yields a summary built from fields.
func Build(docType string, analysis domain.Analysis, fields []domain.Field) Summary {
	src := source{analysis: analysis, fields: fields}
	h := Header{
		Type:      KindOf(docType),
		DocType:   docType,
		Narrative: analysis.Summary(),
		RiskScore: src.number(field("risk_score", "riskScore", "overall_risk_score")),
	}

	switch h.Type {
	case domain.DocKindBank:
		return buildBank(h, src)
	case domain.DocKindFinancials:
		return buildFinancials(h, src)
	case domain.DocKindPayslip:
		return buildPayslip(h, src)
	case domain.DocKindID:
		return buildID(h, src)
	case domain.DocKindAddress:
		return buildAddress(h, src)
	default:
		return buildGeneric(h, src)
	}
}

var currency = field("currency", "currency_code", "ccy")

func buildBank(h Header, src source) *BankSummary {
	return &BankSummary{
		Header:           h,
		AccountHolder:    src.text(field("account_holder", "account_name", "holder_name", "customer_name", "name").label("Account Name", "Name")),
		BankName:         src.text(field("bank_name", "bank", "institution", "institution_name").label("Bank")),
		AccountNumber:    src.text(field("account_number", "account_no", "acct_number", "iban").label("Account No")),
		SortCode:         src.text(field("sort_code", "routing_number", "ifsc", "bsb")),
		PeriodStart:      src.text(field("period_start", "statement_start", "start_date", "from_date", "statement_period.start")),
		PeriodEnd:        src.text(field("period_end", "statement_end", "end_date", "to_date", "statement_period.end")),
		Currency:         src.text(currency),
		OpeningBalance:   src.number(field("opening_balance", "start_balance", "balance_start", "previous_balance", "balance_brought_forward").label("Balance brought forward")),
		ClosingBalance:   src.number(field("closing_balance", "end_balance", "balance_end", "ending_balance", "balance_carried_forward").label("Balance carried forward")),
		TotalInflows:     src.number(field("total_inflows", "total_credits", "credits_total", "money_in", "paid_in").label("Total credits", "Money in")),
		TotalOutflows:    src.number(field("total_outflows", "total_debits", "debits_total", "money_out", "paid_out").label("Total debits", "Money out")),
		AverageBalance:   src.number(field("average_balance", "avg_balance", "mean_balance")),
		TransactionCount: TransactionCount(src.analysis),
	}
}

func buildFinancials(h Header, src source) *FinancialsSummary {
	return &FinancialsSummary{
		Header:             h,
		CompanyName:        src.text(field("company_name", "entity_name", "business_name", "company").label("Company")),
		PeriodEnd:          src.text(field("period_end", "year_end", "financial_year_end", "accounts_date")),
		Currency:           src.text(currency),
		Revenue:            src.number(field("revenue", "turnover", "sales", "total_revenue").label("Turnover")),
		CostOfSales:        src.number(field("cost_of_sales", "cogs", "cost_of_goods_sold")),
		GrossProfit:        src.number(field("gross_profit")),
		OperatingProfit:    src.number(field("operating_profit", "ebit", "operating_income")),
		EBITDA:             src.number(field("ebitda")),
		NetProfit:          src.number(field("net_profit", "profit_after_tax", "net_income", "profit_for_the_year")),
		InterestExpense:    src.number(field("interest_expense", "finance_costs", "interest_payable")),
		TotalAssets:        src.number(field("total_assets")),
		TotalLiabilities:   src.number(field("total_liabilities")),
		Equity:             src.number(field("equity", "net_assets", "shareholders_funds", "total_equity")),
		CurrentAssets:      src.number(field("current_assets", "total_current_assets")),
		CurrentLiabilities: src.number(field("current_liabilities", "total_current_liabilities", "creditors_due_within_one_year")),
		Inventory:          src.number(field("inventory", "stock", "stocks")),
		Cash:               src.number(field("cash", "cash_at_bank", "cash_and_equivalents", "cash_at_bank_and_in_hand")),
	}
}

func buildPayslip(h Header, src source) *PayslipSummary {
	return &PayslipSummary{
		Header:            h,
		EmployeeName:      src.text(field("employee_name", "employee", "name").label("Employee")),
		EmployerName:      src.text(field("employer_name", "employer", "company_name").label("Employer")),
		PayDate:           src.text(field("pay_date", "payment_date", "date")),
		PayPeriod:         src.text(field("pay_period", "period", "tax_period")),
		Currency:          src.text(currency),
		GrossPay:          src.number(field("gross_pay", "gross", "total_gross", "gross_salary", "total_payments").label("Gross")),
		NetPay:            src.number(field("net_pay", "net", "take_home", "net_salary").label("Net", "Take home pay")),
		Tax:               src.number(field("tax", "income_tax", "paye", "tax_paid").label("PAYE", "Income tax")),
		NationalInsurance: src.number(field("national_insurance", "ni", "ni_contribution", "employee_ni").label("NI")),
		Pension:           src.number(field("pension", "pension_contribution", "employee_pension")),
		YearToDateGross:   src.number(field("ytd_gross", "year_to_date_gross", "gross_ytd", "taxable_pay_ytd").label("Gross YTD", "Year to date gross")),
	}
}

func buildID(h Header, src source) *IDSummary {
	return &IDSummary{
		Header:         h,
		FullName:       src.text(field("full_name", "name", "holder_name", "surname_and_given_names").label("Name")),
		DocumentNumber: src.text(field("document_number", "passport_number", "licence_number", "license_number", "id_number").label("Passport No", "Licence number")),
		DateOfBirth:    src.text(field("date_of_birth", "dob", "birth_date").label("DOB")),
		IssueDate:      src.text(field("issue_date", "date_of_issue", "issued_on")),
		ExpiryDate:     src.text(field("expiry_date", "expiration_date", "date_of_expiry", "valid_until").label("Expiry")),
		Nationality:    src.text(field("nationality", "citizenship")),
		IssuingCountry: src.text(field("issuing_country", "country", "issuer_country", "country_of_issue")),
		Subtype:        src.text(field("document_subtype", "id_type", "document_kind")),
	}
}

func buildAddress(h Header, src source) *AddressSummary {
	return &AddressSummary{
		Header:    h,
		FullName:  src.text(field("full_name", "name", "account_holder", "customer_name").label("Name")),
		Address:   src.text(field("address", "full_address", "address_line", "service_address", "billing_address")),
		Postcode:  src.text(field("postcode", "postal_code", "zip", "zip_code")),
		IssueDate: src.text(field("issue_date", "bill_date", "statement_date", "date")),
		Issuer:    src.text(field("issuer", "provider", "supplier", "company_name").label("Provider")),
		Subtype:   src.text(field("document_subtype", "bill_type")),
	}
}

func buildGeneric(h Header, src source) *GenericSummary {
	rows := []Row{}
	structured := src.analysis.Structured()
	keys := make([]string, 0, len(structured))
	for k := range structured {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if r, ok := scalarRow(humanize(k), structured[k]); ok {
			rows = append(rows, r)
		}
	}
	for _, f := range src.fields {
		if r, ok := scalarRow(f.Label, f.Value); ok {
			rows = append(rows, r)
		}
	}
	return &GenericSummary{Header: h, Attributes: rows}
}

func scalarRow(label string, v any) (Row, bool) {
	switch v.(type) {
	case map[string]any, []any, nil:
		return Row{}, false
	case float64, float32, int, int64, int32:
		return numRow(label, numeric.Ptr(v)), true
	}
	text := domain.Text(v)
	if text == "" {
		return Row{}, false
	}
	return textRow(label, text), true
}
