package web

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with two decimals, a comma as decimal mark
// and spaces between thousands: 1234.5 -> "1 234,50 PLN".
func FormatAmount(amount decimal.Decimal, currency string) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() && fixed != "0.00" {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)

	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}

// plainAmount is what a form may submit: up to 15 whole digits and at most
// two decimals. Exponents and signs are not accepted.
var plainAmount = regexp.MustCompile(`^\d{1,15}([.,]\d{1,2})?$`)

// parseAmount accepts "12.50", "12,50" and "1 250,00". Anything else
// becomes zero, which every ledger operation declines.
func parseAmount(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if !plainAmount.MatchString(cleaned) {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(cleaned, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return amount
}
