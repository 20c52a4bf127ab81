package shared

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders a monetary amount for display, pt-BR style.
// Amounts are kept as exact decimals internally; formatting happens only here.
func FormatBRL(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return brPrinter.Sprintf("R$ %.2f", f)
}
