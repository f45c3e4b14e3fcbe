// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package series

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/retailpulse/internal/models"
)

// StoreRevenue is one row of the per-store result set.
type StoreRevenue struct {
	Store    string
	LastYear decimal.Decimal
	ThisYear decimal.Decimal
}

// StoreComparison maps per-store rows to comparison entries in input order.
// Store names are trimmed; duplicates are kept.
func StoreComparison(rows []StoreRevenue) []models.StoreCompare {
	out := make([]models.StoreCompare, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.StoreCompare{
			Store:           strings.TrimSpace(r.Store),
			LastYear:        r.LastYear,
			ThisYear:        r.ThisYear,
			LastYearDisplay: FormatCompact(r.LastYear),
			ThisYearDisplay: FormatCompact(r.ThisYear),
		})
	}
	return out
}

// TopStoreStats summarizes how the reported top store sits among all stores.
type TopStoreStats struct {
	ContributionPct string          // top store revenue / total revenue
	VsPyPct         string          // this year vs last year for the ranked store
	Rank            int             // 1-based, 0 when the store could not be ranked
	GapToSecond     decimal.Decimal // #1 minus #2 by this year, only when Rank == 1
	Top3Summary     string          // "1) A: 16.7K; 2) B: 12.3K; 3) C: 9.9K"
}

// RankLabel returns the rank as text, or "n/a" when unranked.
func (s TopStoreStats) RankLabel() string {
	if s.Rank <= 0 {
		return "n/a"
	}
	return strconv.Itoa(s.Rank)
}

// AnalyzeTopStore ranks stores by this-year revenue and locates the reported
// top store among them.
//
// The store is matched by case-insensitive name. When no name matches and
// topStoreRevenue is positive, the store whose this-year revenue is closest
// to topStoreRevenue is used instead (first minimum wins).
func AnalyzeTopStore(rows []StoreRevenue, topStoreName string, topStoreRevenue, totalRevenue decimal.Decimal) TopStoreStats {
	list := make([]StoreRevenue, 0, len(rows))
	for _, r := range rows {
		r.Store = strings.TrimSpace(r.Store)
		list = append(list, r)
	}
	slices.SortStableFunc(list, func(a, b StoreRevenue) int { return b.ThisYear.Cmp(a.ThisYear) })

	rank := rankByName(list, strings.TrimSpace(topStoreName))
	if rank == 0 && len(list) > 0 && topStoreRevenue.IsPositive() {
		rank = rankByProximity(list, topStoreRevenue)
	}

	gap := decimal.Zero
	if rank == 1 && len(list) >= 2 {
		gap = list[0].ThisYear.Sub(list[1].ThisYear)
	}

	vsPy := "n/a"
	if rank > 0 {
		e := list[rank-1]
		switch {
		case e.LastYear.IsPositive():
			vsPy = FormatPercent(e.ThisYear.Sub(e.LastYear), e.LastYear)
		case e.ThisYear.IsPositive():
			vsPy = "100%"
		default:
			vsPy = "0%"
		}
	}

	contrib := "0%"
	if totalRevenue.IsPositive() {
		contrib = FormatPercent(topStoreRevenue, totalRevenue)
	}

	return TopStoreStats{
		ContributionPct: contrib,
		VsPyPct:         vsPy,
		Rank:            rank,
		GapToSecond:     gap,
		Top3Summary:     top3(list),
	}
}

func rankByName(list []StoreRevenue, name string) int {
	for i, e := range list {
		if strings.EqualFold(e.Store, name) {
			return i + 1
		}
	}
	return 0
}

func rankByProximity(list []StoreRevenue, target decimal.Decimal) int {
	best := -1
	var bestDiff decimal.Decimal
	for i, e := range list {
		diff := e.ThisYear.Sub(target).Abs()
		if best < 0 || diff.LessThan(bestDiff) {
			best, bestDiff = i, diff
		}
	}
	return best + 1
}

func top3(list []StoreRevenue) string {
	var sb strings.Builder
	for i, e := range list[:min(3, len(list))] {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(") ")
		sb.WriteString(e.Store)
		sb.WriteString(": ")
		sb.WriteString(FormatCompact(e.ThisYear))
	}
	return sb.String()
}
