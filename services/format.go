package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEUR formats an amount in French notation: thousands grouped by
// spaces, a decimal comma, exactly 2 decimal places and a trailing euro
// sign (e.g., 1 234 567,89 €).
func FormatEUR(amount decimal.Decimal) string {
	return FormatAmount(amount, 2) + " €"
}

// FormatAmount formats amount with places decimals in French notation.
func FormatAmount(amount decimal.Decimal, places int32) string {
	negative := amount.IsNegative()
	raw := amount.Abs().StringFixed(places)

	intPart, decPart, _ := strings.Cut(raw, ".")
	result := applyThousandsGrouping(intPart)
	if decPart != "" {
		result += "," + decPart
	}
	if negative && strings.Trim(raw, "0.") != "" {
		result = "-" + result
	}
	return result
}

// FormatQuantity trims trailing zeros: 12 stays "12", 12.5 becomes "12,5",
// and 374.766 keeps three decimals.
func FormatQuantity(qty float64) string {
	s := decimal.NewFromFloat(qty).Round(3).String()
	places := 0
	if _, frac, ok := strings.Cut(s, "."); ok {
		places = len(frac)
	}
	return FormatAmount(decimal.RequireFromString(s), int32(places))
}

// applyThousandsGrouping inserts a space every 3 digits from the right.
func applyThousandsGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatMoney formats amount for currency; euros get the euro sign, other
// currencies their ISO code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if currency == "" || strings.EqualFold(currency, "EUR") {
		return FormatEUR(amount)
	}
	return FormatAmount(amount, 2) + " " + strings.ToUpper(currency)
}
