package summary

import (
	"sort"

	"docwatch/internal/domain"
	"docwatch/internal/numeric"
)

// Ratios is the tagged union of per-kind ratio sets.
type Ratios interface {
	Kind() domain.DocKind
	Rows() []Row
}

// FinancialRatios are balance-sheet and P&L ratios. Margins are fractions.
type FinancialRatios struct {
	Type          domain.DocKind `json:"kind"`
	CurrentRatio  *float64       `json:"currentRatio"`
	QuickRatio    *float64       `json:"quickRatio"`
	DebtToEquity  *float64       `json:"debtToEquity"`
	GrossMargin   *float64       `json:"grossMargin"`
	NetMargin     *float64       `json:"netMargin"`
	InterestCover *float64       `json:"interestCover"`
}

func (r *FinancialRatios) Kind() domain.DocKind { return r.Type }

// Rows lists the financial ratios in display order.
func (r *FinancialRatios) Rows() []Row {
	return []Row{
		numRow("Current ratio", r.CurrentRatio),
		numRow("Quick ratio", r.QuickRatio),
		numRow("Debt to equity", r.DebtToEquity),
		numRow("Gross margin", r.GrossMargin),
		numRow("Net margin", r.NetMargin),
		numRow("Interest cover", r.InterestCover),
	}
}

// BankRatios are cash flow measures derived from a statement.
type BankRatios struct {
	Type               domain.DocKind `json:"kind"`
	NetCashFlow        *float64       `json:"netCashFlow"`
	InflowOutflowRatio *float64       `json:"inflowOutflowRatio"`
	AverageBalance     *float64       `json:"averageBalance"`
	OverdraftDays      *float64       `json:"overdraftDays"`
	ReturnedPayments   *float64       `json:"returnedPayments"`
}

func (r *BankRatios) Kind() domain.DocKind { return r.Type }

// Rows lists the bank ratios in display order.
func (r *BankRatios) Rows() []Row {
	return []Row{
		numRow("Net cash flow", r.NetCashFlow),
		numRow("Inflow / outflow", r.InflowOutflowRatio),
		numRow("Average balance", r.AverageBalance),
		numRow("Overdraft days", r.OverdraftDays),
		numRow("Returned payments", r.ReturnedPayments),
	}
}

// PayslipRatios relate net pay and deductions to gross pay. Rates are fractions.
type PayslipRatios struct {
	Type             domain.DocKind `json:"kind"`
	NetToGross       *float64       `json:"netToGross"`
	EffectiveTaxRate *float64       `json:"effectiveTaxRate"`
}

func (r *PayslipRatios) Kind() domain.DocKind { return r.Type }

// Rows lists the payslip ratios in display order.
func (r *PayslipRatios) Rows() []Row {
	return []Row{
		numRow("Net to gross", r.NetToGross),
		numRow("Effective tax rate", r.EffectiveTaxRate),
	}
}

// NoRatios is used for kinds that carry no ratios (id, address).
type NoRatios struct {
	Type domain.DocKind `json:"kind"`
}

func (r *NoRatios) Kind() domain.DocKind { return r.Type }
func (r *NoRatios) Rows() []Row          { return nil }

// GenericRatios lists every numeric entry of the ratios map, sorted by key.
type GenericRatios struct {
	Type   domain.DocKind `json:"kind"`
	Values []Row          `json:"values"`
}

func (r *GenericRatios) Kind() domain.DocKind { return r.Type }
func (r *GenericRatios) Rows() []Row          { return r.Values }

// ProjectRatios reads the ratios for docType's kind from analysis. A ratio the
// backend did not report is derived from s when its inputs are present.
func ProjectRatios(docType string, analysis domain.Analysis, s Summary) Ratios {
	src := source{analysis: analysis}
	kind := KindOf(docType)

	switch kind {
	case domain.DocKindFinancials:
		r := &FinancialRatios{
			Type:          kind,
			CurrentRatio:  src.number(ratio("current_ratio")),
			QuickRatio:    src.number(ratio("quick_ratio", "acid_test")),
			DebtToEquity:  src.number(ratio("debt_to_equity", "gearing", "debt_equity")),
			GrossMargin:   src.number(ratio("gross_margin", "gross_profit_margin")),
			NetMargin:     src.number(ratio("net_margin", "net_profit_margin")),
			InterestCover: src.number(ratio("interest_cover", "interest_coverage")),
		}
		if fs, ok := s.(*FinancialsSummary); ok {
			r.derive(fs)
		}
		return r
	case domain.DocKindBank:
		r := &BankRatios{
			Type:               kind,
			NetCashFlow:        src.number(ratio("net_cash_flow", "net_flow")),
			InflowOutflowRatio: src.number(ratio("inflow_outflow_ratio", "credit_debit_ratio")),
			AverageBalance:     src.number(ratio("average_balance", "avg_balance")),
			OverdraftDays:      src.number(ratio("overdraft_days", "days_overdrawn")),
			ReturnedPayments:   src.number(ratio("returned_payments", "returned_items", "bounced_payments")),
		}
		if bs, ok := s.(*BankSummary); ok {
			r.derive(bs)
		}
		return r
	case domain.DocKindPayslip:
		r := &PayslipRatios{
			Type:             kind,
			NetToGross:       src.number(ratio("net_to_gross", "net_gross_ratio")),
			EffectiveTaxRate: src.number(ratio("effective_tax_rate", "tax_rate")),
		}
		if ps, ok := s.(*PayslipSummary); ok {
			r.derive(ps)
		}
		return r
	case domain.DocKindID, domain.DocKindAddress:
		return &NoRatios{Type: kind}
	default:
		return &GenericRatios{Type: kind, Values: numericEntries(analysis)}
	}
}

func (r *FinancialRatios) derive(s *FinancialsSummary) {
	fill(&r.CurrentRatio, div(s.CurrentAssets, s.CurrentLiabilities))
	if s.Inventory != nil {
		fill(&r.QuickRatio, div(sub(s.CurrentAssets, s.Inventory), s.CurrentLiabilities))
	}
	fill(&r.DebtToEquity, div(s.TotalLiabilities, s.Equity))
	fill(&r.GrossMargin, div(s.GrossProfit, s.Revenue))
	fill(&r.NetMargin, div(s.NetProfit, s.Revenue))
	fill(&r.InterestCover, div(s.OperatingProfit, s.InterestExpense))
}

func (r *BankRatios) derive(s *BankSummary) {
	fill(&r.NetCashFlow, sub(s.TotalInflows, s.TotalOutflows))
	fill(&r.InflowOutflowRatio, div(s.TotalInflows, s.TotalOutflows))
	fill(&r.AverageBalance, s.AverageBalance)
}

func (r *PayslipRatios) derive(s *PayslipSummary) {
	fill(&r.NetToGross, div(s.NetPay, s.GrossPay))
	fill(&r.EffectiveTaxRate, div(s.Tax, s.GrossPay))
}

func fill(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		*dst = v
	}
}

func div(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	v := *a / *b
	return &v
}

func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

func numericEntries(analysis domain.Analysis) []Row {
	m := analysis.Ratios()
	if m == nil {
		m = domain.Object(analysis.Structured()["ratios"])
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := []Row{}
	for _, k := range keys {
		if v := numeric.Ptr(m[k]); v != nil {
			rows = append(rows, numRow(humanize(k), v))
		}
	}
	return rows
}
