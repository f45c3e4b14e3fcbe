// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package series

import (
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
	hundred  = decimal.NewFromInt(100)
)

// FormatCompact renders an amount with a K, M or B suffix.
//
// The scaled value is rounded half away from zero to two decimal places and
// trailing zeros are dropped: 1234.5 → "1.23K", 2_000_000 → "2M", 999.999 →
// "1000". Negative amounts keep a leading "-" unless they round to zero.
func FormatCompact(n decimal.Decimal) string {
	abs := n.Abs()

	var val decimal.Decimal
	suffix := ""
	switch {
	case abs.GreaterThanOrEqual(billion):
		val, suffix = abs.DivRound(billion, 2), "B"
	case abs.GreaterThanOrEqual(million):
		val, suffix = abs.DivRound(million, 2), "M"
	case abs.GreaterThanOrEqual(thousand):
		val, suffix = abs.DivRound(thousand, 2), "K"
	default:
		val = abs.Round(2)
	}

	core := val.String()
	if n.IsNegative() && !val.IsZero() {
		return "-" + core + suffix
	}
	return core + suffix
}

// FormatPercent renders part/whole as a percentage with at most one decimal
// place and a "%" suffix. A zero whole yields "0%".
func FormatPercent(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0%"
	}
	pct := part.DivRound(whole, 6).Mul(hundred).Round(1)
	return stripNegativeZero(pct.String()) + "%"
}

// ChangePercent renders the relative change from prev to cur as a
// percentage with at most one decimal place, without a "%" suffix.
// A zero prev yields "0".
func ChangePercent(cur, prev decimal.Decimal) string {
	if prev.IsZero() {
		return "0"
	}
	pct := cur.Sub(prev).DivRound(prev, 4).Mul(hundred).Round(1)
	return stripNegativeZero(pct.String())
}

func stripNegativeZero(s string) string {
	if s == "-0" {
		return "0"
	}
	return s
}
