// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package refresh

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// searchYears bounds Next; expressions such as "0 0 30 2 *" never match.
const searchYears = 5

type cronField struct {
	name     string
	min, max int
}

var cronFields = [5]cronField{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 7},
}

// Schedule is a parsed 5-field cron expression:
//
//	minute hour day-of-month month day-of-week
//
// Each field accepts "*", "n", "n-m", comma lists and "/step" on any of
// those. Day-of-week 7 is Sunday, like 0. When both day fields are
// restricted, a day matches if either does.
type Schedule struct {
	expr string

	minute uint64
	hour   uint64
	dom    uint64
	month  uint64
	dow    uint64

	domAny bool
	dowAny bool
}

// ParseSchedule parses a 5-field cron expression.
//
// Examples:
//   - "0 * * * *": every hour on the hour
//   - "*/15 7-22 * * *": every quarter hour between 07:00 and 22:45
//   - "30 6 * * 1-5": weekdays at 06:30
func ParseSchedule(expr string) (*Schedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != len(cronFields) {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(parts))
	}

	var masks [5]uint64
	for i, f := range cronFields {
		m, err := parseCronField(parts[i], f.min, f.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field %q: %w", f.name, parts[i], err)
		}
		masks[i] = m
	}

	// Sunday may be written as 7.
	if masks[4]&(1<<7) != 0 {
		masks[4] = (masks[4] &^ (1 << 7)) | 1
	}

	return &Schedule{
		expr:   strings.Join(parts, " "),
		minute: masks[0],
		hour:   masks[1],
		dom:    masks[2],
		month:  masks[3],
		dow:    masks[4],
		domAny: bits.OnesCount64(masks[2]) == 31,
		dowAny: bits.OnesCount64(masks[4]) == 7,
	}, nil
}

// String returns the normalized expression.
func (s *Schedule) String() string {
	return s.expr
}

// Next returns the first matching minute strictly after after, evaluated in
// loc (UTC when nil). It returns the zero time when nothing matches within
// the search window.
func (s *Schedule) Next(after time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := after.In(loc)
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc).Add(time.Minute)
	limit := t.AddDate(searchYears, 0, 0)

	for t.Before(limit) {
		switch {
		case !has(s.month, int(t.Month())):
			t = forward(t, time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc))
		case !s.dayMatches(t):
			t = forward(t, time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc))
		case !has(s.hour, t.Hour()):
			t = forward(t, time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc))
		case !has(s.minute, t.Minute()):
			t = t.Add(time.Minute)
		default:
			return t
		}
	}
	return time.Time{}
}

func (s *Schedule) dayMatches(t time.Time) bool {
	domMatch := has(s.dom, t.Day())
	dowMatch := has(s.dow, int(t.Weekday()))
	switch {
	case s.domAny && s.dowAny:
		return true
	case s.domAny:
		return dowMatch
	case s.dowAny:
		return domMatch
	default:
		return domMatch || dowMatch
	}
}

// forward guards against wall-clock jumps around DST changes mapping a
// candidate back onto or before the current one.
func forward(cur, next time.Time) time.Time {
	if next.After(cur) {
		return next
	}
	return cur.Add(time.Minute)
}

func has(mask uint64, v int) bool {
	return mask&(1<<uint(v)) != 0
}

// parseCronField turns one comma separated field into a bit mask.
func parseCronField(field string, lo, hi int) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		m, err := parseCronPart(part, lo, hi)
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	return mask, nil
}

func parseCronPart(part string, lo, hi int) (uint64, error) {
	if part == "" {
		return 0, fmt.Errorf("empty list element")
	}

	step := 1
	base, s, stepped := strings.Cut(part, "/")
	if stepped {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step %q", s)
		}
		step = n
		part = base
	}

	var start, end int
	switch {
	case part == "*":
		start, end = lo, hi
	case strings.Contains(part, "-"):
		a, b, _ := strings.Cut(part, "-")
		var err error
		if start, err = atoiInRange(a, lo, hi); err != nil {
			return 0, err
		}
		if end, err = atoiInRange(b, lo, hi); err != nil {
			return 0, err
		}
		if start > end {
			return 0, fmt.Errorf("range %d-%d is reversed", start, end)
		}
	default:
		v, err := atoiInRange(part, lo, hi)
		if err != nil {
			return 0, err
		}
		start, end = v, v
		// "n/step" runs from n to the end of the range.
		if stepped {
			end = hi
		}
	}

	var mask uint64
	for v := start; v <= end; v += step {
		mask |= 1 << uint(v)
	}
	return mask, nil
}

func atoiInRange(s string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("value %d out of range %d-%d", v, lo, hi)
	}
	return v, nil
}
