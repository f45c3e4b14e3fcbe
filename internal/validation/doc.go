// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package validation checks HTTP request parameters with go-playground/validator.

Handlers copy raw query and path values into a small struct tagged with the
parameter name and the rules it must satisfy, then call ValidateStruct:

	type dashboardParams struct {
	    Refresh string `param:"refresh" validate:"omitempty,boolean"`
	    ForDate string `param:"forDate" validate:"omitempty,fordate"`
	}

	if verr := validation.ValidateStruct(&p); verr != nil {
	    apiErr := verr.ToAPIError()
	    // render 400 with apiErr.Code, apiErr.Message and apiErr.Details
	}

A single validator instance is shared; it caches struct metadata and is safe
for concurrent use. ParseDate is the parser behind the "fordate" rule and is
what handlers use to turn an accepted value into a time.Time in the
configured zone.
*/
package validation
