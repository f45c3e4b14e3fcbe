// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package analytics

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one result-set row keyed by column name.
//
// Column lookup is case-insensitive. Accessors never fail: a missing or
// malformed value degrades to zero or the empty string, so one bad cell never
// fails a whole refresh.
type Row map[string]any

// Value returns the raw value of a column.
func (r Row) Value(column string) (any, bool) {
	if v, ok := r[column]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}

// Decimal returns a column as a decimal, zero when absent or non-numeric.
func (r Row) Decimal(column string) decimal.Decimal {
	v, _ := r.Value(column)
	return ToDecimal(v)
}

// Int returns a column as an int, zero when absent or non-numeric.
func (r Row) Int(column string) int {
	v, _ := r.Value(column)
	return ToInt(v)
}

// String returns a column as text, empty when absent.
func (r Row) String(column string) string {
	v, _ := r.Value(column)
	return ToString(v)
}

// ToDecimal converts a driver value to a decimal.
func ToDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero
		}
		return *n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat32(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int8:
		return decimal.NewFromInt(int64(n))
	case int16:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt32(n)
	case int64:
		return decimal.NewFromInt(n)
	case uint8:
		return decimal.NewFromInt(int64(n))
	case uint16:
		return decimal.NewFromInt(int64(n))
	case uint32:
		return decimal.NewFromInt(int64(n))
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
	case *big.Int:
		if n == nil {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(n, 0)
	case bool:
		return decimal.Zero
	case []byte:
		return parseDecimal(string(n))
	case string:
		return parseDecimal(n)
	case fmt.Stringer:
		return parseDecimal(n.String())
	default:
		return parseDecimal(fmt.Sprint(n))
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ToInt converts a driver value to an int. Fractional numbers are truncated;
// text must be a plain integer.
func ToInt(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return 0
		}
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case decimal.Decimal:
		return int(n.IntPart())
	case *big.Int:
		if n == nil || !n.IsInt64() {
			return 0
		}
		return int(n.Int64())
	case []byte:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	default:
		return parseInt(fmt.Sprint(n))
	}
}

func parseInt(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

// ToString converts a driver value to display text. Decimals are rendered
// without trailing zeros; DATE values as YYYY-MM-DD.
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case decimal.Decimal:
		return s.String()
	case time.Time:
		if s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 && s.Nanosecond() == 0 {
			return s.Format(time.DateOnly)
		}
		return s.Format(time.DateTime)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}
