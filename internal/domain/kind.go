package domain

import "strings"

var kindAliases = map[string]DocKind{
	"bank":                 DocKindBank,
	"bank_statement":       DocKindBank,
	"bank_statements":      DocKindBank,
	"bankstatement":        DocKindBank,
	"statement_of_account": DocKindBank,
	"financials":           DocKindFinancials,
	"financial_statement":  DocKindFinancials,
	"financial_statements": DocKindFinancials,
	"annual_accounts":      DocKindFinancials,
	"accounts":             DocKindFinancials,
	"management_accounts":  DocKindFinancials,
	"payslip":              DocKindPayslip,
	"pay_slip":             DocKindPayslip,
	"payslips":             DocKindPayslip,
	"salary_slip":          DocKindPayslip,
	"pay_stub":             DocKindPayslip,
	"id":                   DocKindID,
	"id_document":          DocKindID,
	"identity_document":    DocKindID,
	"identity":             DocKindID,
	"passport":             DocKindID,
	"driving_licence":      DocKindID,
	"driving_license":      DocKindID,
	"drivers_license":      DocKindID,
	"national_id":          DocKindID,
	"proof_of_address":     DocKindAddress,
	"address":              DocKindAddress,
	"address_proof":        DocKindAddress,
	"utility_bill":         DocKindAddress,
	"council_tax_bill":     DocKindAddress,
	"proof_of_residence":   DocKindAddress,
}

// KindOf maps the many spellings of a document type onto a DocKind.
// Unrecognized or empty types map to DocKindGeneric.
func KindOf(docType string) DocKind {
	key := strings.ToLower(strings.TrimSpace(docType))
	key = strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(key)
	if k, ok := kindAliases[key]; ok {
		return k
	}
	return DocKindGeneric
}
