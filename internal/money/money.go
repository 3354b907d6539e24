// Package money formats amounts in the storefront's fixed currency. The
// locale and currency are a regional configuration (Peruvian soles with es-PE
// grouping rules), not negotiable per request.
package money

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Code is the ISO 4217 currency code for all displayed amounts.
const Code = "PEN"

var (
	unit    = currency.MustParseISO(Code)
	printer = message.NewPrinter(language.MustParse("es-PE"))
)

// Format renders an amount with the currency symbol and es-PE digit rules,
// e.g. 1249.5 -> "S/ 1,249.50".
func Format(amount float64) string {
	return printer.Sprint(currency.NarrowSymbol(unit.Amount(amount)))
}
