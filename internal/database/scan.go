// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package database

import (
	"database/sql"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/retailpulse/internal/analytics"
)

// scanRows reads every row of the current result set into column-keyed maps.
// An empty set yields an empty, non-nil slice.
func scanRows(rows *sql.Rows) ([]analytics.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([]analytics.Row, 0)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r := make(analytics.Row, len(cols))
		for i, c := range cols {
			r[c] = normalizeValue(vals[i])
			vals[i] = nil
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// normalizeValue converts driver specific types into ones analytics.Row
// understands. Byte slices are copied because the driver may reuse them.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case duckdb.Decimal:
		if x.Value == nil {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(x.Value, -int32(x.Scale))
	case *duckdb.Decimal:
		if x == nil {
			return nil
		}
		return normalizeValue(*x)
	case []byte:
		return string(x)
	default:
		return v
	}
}
