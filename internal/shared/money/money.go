package money

import "fmt"

// Format renders a minor-unit amount with its currency symbol.
func Format(currency string, cents int64) string {
	major := float64(cents) / 100.0
	switch currency {
	case "USD":
		return fmt.Sprintf("$%.2f", major)
	case "EUR":
		return fmt.Sprintf("€%.2f", major)
	case "DZD":
		return fmt.Sprintf("%.2f DA", major)
	default:
		return fmt.Sprintf("%.2f %s", major, currency)
	}
}
