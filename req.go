// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"net/http"
	"net/url"
	"time"
)

// HeaderVSessionID scopes provider requests to a tenant
const HeaderVSessionID = "VSessionId"

// Req holds request-specific options applied via functional modifiers
//
// The method, path and payload are passed directly to the client methods.
//
// Example:
//
//	res, err := client.Get(ctx, "/device",
//	    catalystwan.Query("personality", "vedge"),
//	    catalystwan.Timeout(30*time.Second))
type Req struct {
	// Timeout is the per-attempt timeout
	// Overrides client default timeout if set
	Timeout time.Duration

	// Query holds explicit query parameters
	Query url.Values

	// Params is flattened into query parameters (map, url.Values or struct)
	Params any

	// Header holds extra request headers
	Header http.Header

	// NoRetry disables retries for transient failures
	NoRetry bool

	// operation labels logs, metrics and errors ("raw" for ad-hoc requests)
	operation string
}

// Input carries the arguments of an endpoint invocation
type Input struct {
	// Path holds the values for the path template placeholders
	Path map[string]string

	// Payload is the request body, nil for endpoints without payload
	Payload any

	// Params is flattened into query parameters (map, url.Values or struct)
	Params any
}
