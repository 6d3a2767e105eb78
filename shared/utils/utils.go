package utils

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// FormatMoney renders an amount display-rounded to two decimal places.
func FormatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
