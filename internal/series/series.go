// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package series shapes raw analytical rows into dashboard series.
//
// Everything here is a pure function over decimals and strings; there is no
// I/O and no shared state, so the functions are safe for concurrent use.
package series

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/retailpulse/internal/models"
)

// foldThreshold is the amount at or below which an hourly bucket is merged
// into a neighbour.
var foldThreshold = decimal.NewFromInt(400)

// dailyLayouts are tried in order; the first one that parses wins.
var dailyLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"20060102",
}

var hourPattern = regexp.MustCompile(`\d{1,2}`)

// Bucket is a labelled amount as returned by the daily and hourly result sets.
type Bucket struct {
	Label  string
	Amount decimal.Decimal
}

// DailyPoints converts daily buckets into points labelled with the
// three-letter English day of week. Labels that match no known date layout
// are kept verbatim; blank labels become "". Input order is preserved.
func DailyPoints(rows []Bucket) []models.Point {
	out := make([]models.Point, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Point{
			Label:   DayOfWeek(r.Label),
			Amount:  r.Amount,
			Display: FormatCompact(r.Amount),
		})
	}
	return out
}

// DayOfWeek returns "Mon".."Sun" for a date label, the label itself when it
// does not parse, or "" for a blank label.
func DayOfWeek(label string) string {
	s := strings.TrimSpace(label)
	if s == "" {
		return ""
	}
	for _, layout := range dailyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Weekday().String()[:3]
		}
	}
	return label
}

// ParseHour extracts the hour from a label such as "14", "14:00" or "H09".
// It returns -1 when the label has no digits or the hour is outside 0-23.
func ParseHour(label string) int {
	m := hourPattern.FindString(label)
	if m == "" {
		return -1
	}
	h, err := strconv.Atoi(m)
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}

type hourBin struct {
	hour   int
	label  string
	amount decimal.Decimal
}

// HourlyCompressed shapes hourly buckets for charting.
//
// Buckets with an unparseable hour are discarded, the rest are stably sorted
// by hour and buckets of exactly zero are dropped. Walking in hour order, a
// bucket of at most 400 is folded into the next remaining bucket; the last
// one folds back into the previous kept bucket, or stays on its own when
// nothing was kept. Labels are preserved, displays recomputed.
func HourlyCompressed(rows []Bucket) []models.Point {
	bins := make([]hourBin, 0, len(rows))
	for _, r := range rows {
		label := strings.TrimSpace(r.Label)
		h := ParseHour(label)
		if h < 0 {
			continue
		}
		bins = append(bins, hourBin{hour: h, label: label, amount: r.Amount})
	}
	slices.SortStableFunc(bins, func(a, b hourBin) int { return a.hour - b.hour })

	nonZero := bins[:0]
	for _, b := range bins {
		if !b.amount.IsZero() {
			nonZero = append(nonZero, b)
		}
	}
	if len(nonZero) == 0 {
		return []models.Point{}
	}

	kept := make([]hourBin, 0, len(nonZero))
	for i := range nonZero {
		cur := nonZero[i]
		if cur.amount.GreaterThan(foldThreshold) {
			kept = append(kept, cur)
			continue
		}
		switch {
		case i+1 < len(nonZero):
			nonZero[i+1].amount = nonZero[i+1].amount.Add(cur.amount)
		case len(kept) > 0:
			kept[len(kept)-1].amount = kept[len(kept)-1].amount.Add(cur.amount)
		default:
			kept = append(kept, cur)
		}
	}

	out := make([]models.Point, 0, len(kept))
	for _, b := range kept {
		out = append(out, models.Point{Label: b.label, Amount: b.amount, Display: FormatCompact(b.amount)})
	}
	return out
}
