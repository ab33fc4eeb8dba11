package summary

import (
	"docwatch/internal/domain"
	"docwatch/internal/numeric"
)

var transactionListPaths = []string{
	"structured.transactions",
	"structured.bank_transactions",
	"structured.bankTransactions",
	"transactions",
}

var transactionCountPaths = []string{
	"structured.transaction_count",
	"structured.transactionCount",
	"transaction_count",
	"transactionCount",
}

// TransactionCount returns the number of parsed bank transactions. A list
// wins over a declared count; nothing found counts as zero.
func TransactionCount(analysis domain.Analysis) int {
	for _, p := range transactionListPaths {
		if v, ok := domain.Lookup(analysis, p); ok {
			if list, isList := v.([]any); isList {
				return len(list)
			}
		}
	}
	for _, p := range transactionCountPaths {
		if v, ok := domain.Lookup(analysis, p); ok {
			if n, isNum := numeric.Coerce(v); isNum && n > 0 {
				return int(n)
			}
		}
	}
	return 0
}
