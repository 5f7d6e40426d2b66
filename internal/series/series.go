// Package series converts the dashboard's numeric sequences to and from the
// JSON array text stored in the dashboards table.
package series

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"customerapp/internal/apperr"
	"customerapp/internal/pricing"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const nullElement = "null"

var (
	errAbsent  = errors.New("value is absent")
	errBadAxis = errors.New("month axis is not 1..12")
)

// Encode renders s as a JSON array. A nil sequence encodes as "[]".
func Encode[T any](s []T) (string, error) {
	if s == nil {
		s = []T{}
	}
	return json.MarshalToString(s)
}

// Decode parses text produced by Encode. Empty, null or malformed input
// fails with *apperr.MalformedSeriesError naming field, and so does an
// array holding a null element.
func Decode[T any](field, text string) ([]T, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == nullElement {
		return nil, &apperr.MalformedSeriesError{Field: field, Cause: errAbsent}
	}
	var raw []jsoniter.RawMessage
	if err := json.UnmarshalFromString(trimmed, &raw); err != nil {
		return nil, &apperr.MalformedSeriesError{Field: field, Cause: err}
	}
	out := make([]T, len(raw))
	for i, elem := range raw {
		if strings.TrimSpace(string(elem)) == nullElement {
			return nil, &apperr.MalformedSeriesError{Field: field, Cause: fmt.Errorf("element %d: %w", i, errAbsent)}
		}
		if err := json.Unmarshal(elem, &out[i]); err != nil {
			return nil, &apperr.MalformedSeriesError{Field: field, Cause: fmt.Errorf("element %d: %w", i, err)}
		}
	}
	return out, nil
}

// EncodeMonths encodes the month index axis.
func EncodeMonths(months []int) (string, error) {
	return Encode(months)
}

// DecodeMonths decodes the month index axis. Anything other than exactly
// 1..12 in order is malformed.
func DecodeMonths(field, text string) ([]int, error) {
	months, err := Decode[int](field, text)
	if err != nil {
		return nil, err
	}
	if len(months) != pricing.MonthCount {
		return nil, &apperr.MalformedSeriesError{Field: field, Cause: errBadAxis}
	}
	for i, m := range months {
		if m != i+1 {
			return nil, &apperr.MalformedSeriesError{Field: field, Cause: errBadAxis}
		}
	}
	return months, nil
}

// EncodePrices writes decimals as bare JSON numbers so the column stays a
// plain array of numbers.
func EncodePrices(prices []decimal.Decimal) (string, error) {
	nums := make([]jsoniter.Number, len(prices))
	for i, p := range prices {
		nums[i] = jsoniter.Number(p.String())
	}
	return Encode(nums)
}

// DecodePrices decodes a JSON array of numbers into decimals.
func DecodePrices(field, text string) ([]decimal.Decimal, error) {
	return Decode[decimal.Decimal](field, text)
}
