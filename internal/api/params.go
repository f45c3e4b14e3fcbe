// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/retailpulse/internal/validation"
)

type dashboardParams struct {
	Refresh string `param:"refresh" validate:"omitempty,boolean"`
	ForDate string `param:"forDate" validate:"omitempty,fordate"`
}

type storeKpiParams struct {
	StoreID string `param:"storeId" validate:"required,number,max=9"`
	Refresh string `param:"refresh" validate:"omitempty,boolean"`
	ForDate string `param:"forDate" validate:"omitempty,fordate"`
}

// readOptions are the parsed common query parameters of a read.
type readOptions struct {
	refresh bool
	forDate *time.Time
}

// forced reports whether the read bypasses the cache. A forDate read never
// refreshes the current payload, so only plain refresh=true counts.
func (o readOptions) forced() bool {
	return o.refresh && o.forDate == nil
}

func (h *Handler) parseReadOptions(refresh, forDate string) (readOptions, error) {
	var opts readOptions
	if refresh != "" {
		v, err := strconv.ParseBool(refresh)
		if err != nil {
			return opts, err
		}
		opts.refresh = v
	}
	if forDate != "" {
		t, err := validation.ParseDate(forDate, h.loc)
		if err != nil {
			return opts, err
		}
		opts.forDate = &t
	}
	return opts, nil
}

// bindDashboard validates and parses the dashboard query. On failure the
// 400 response has been written and ok is false.
func (h *Handler) bindDashboard(rw *ResponseWriter, r *http.Request) (opts readOptions, ok bool) {
	q := r.URL.Query()
	p := dashboardParams{Refresh: q.Get("refresh"), ForDate: q.Get("forDate")}
	if !writeValidation(rw, &p) {
		return opts, false
	}
	opts, err := h.parseReadOptions(p.Refresh, p.ForDate)
	if err != nil {
		rw.BadRequest(err.Error())
		return opts, false
	}
	return opts, true
}

func (h *Handler) bindStoreKpi(rw *ResponseWriter, r *http.Request) (storeID int, opts readOptions, ok bool) {
	q := r.URL.Query()
	p := storeKpiParams{
		StoreID: chi.URLParam(r, "storeId"),
		Refresh: q.Get("refresh"),
		ForDate: q.Get("forDate"),
	}
	if !writeValidation(rw, &p) {
		return 0, opts, false
	}
	storeID, err := strconv.Atoi(p.StoreID)
	if err != nil {
		rw.BadRequest("storeId must be a non-negative integer")
		return 0, opts, false
	}
	opts, err = h.parseReadOptions(p.Refresh, p.ForDate)
	if err != nil {
		rw.BadRequest(err.Error())
		return 0, opts, false
	}
	return storeID, opts, true
}

func writeValidation(rw *ResponseWriter, params interface{}) bool {
	verr := validation.ValidateStruct(params)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	rw.ValidationError(apiErr.Message, apiErr.Details)
	return false
}
