package aggregate

import "fmt"

// Dimension names a grouping key for Engine.Summary.
type Dimension string

const (
	ByCategory      Dimension = "category"
	ByPaymentMethod Dimension = "payment-method"
	ByTheme         Dimension = "theme"
)

func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case ByCategory, ByPaymentMethod, ByTheme:
		return Dimension(s), nil
	case "paymentMethod", "payment_method":
		return ByPaymentMethod, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}
