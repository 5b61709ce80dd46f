package cart

import "github.com/shopspring/decimal"

// Total sums price times quantity over items.
func Total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

// FormatTotal renders Total rounded to two decimals, e.g. "23.51".
func FormatTotal(items []LineItem) string {
	return Total(items).StringFixed(2)
}

// Count is the number of units across all line items.
func Count(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
