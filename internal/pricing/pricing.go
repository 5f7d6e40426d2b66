// Package pricing projects a twelve month price series from a seed price.
package pricing

import (
	"github.com/shopspring/decimal"

	"customerapp/internal/apperr"
)

// MonthCount is the length of every projected series.
const MonthCount = 12

var (
	quarterly = decimal.RequireFromString("0.988")
	doubling  = decimal.NewFromInt(2)
)

// Months returns the constant month axis 1..12.
func Months() []int {
	months := make([]int, MonthCount)
	for i := range months {
		months[i] = i + 1
	}
	return months
}

// Project folds the seed through the monthly recurrence: every third month
// the running value decays by 1.2%, the other months it doubles. The value is
// rounded to two places at each step and the rounded value feeds the next one.
func Project(seed decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, MonthCount)
	value := seed
	for i := 1; i <= MonthCount; i++ {
		if i%3 == 0 {
			value = value.Mul(quarterly)
		} else {
			value = value.Mul(doubling)
		}
		value = value.Round(2)
		out = append(out, value)
	}
	return out
}

// ProjectPrices seeds the projection with the first price of the list.
func ProjectPrices(prices []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(prices) == 0 {
		return nil, apperr.ErrNoProducts
	}
	return Project(prices[0]), nil
}
