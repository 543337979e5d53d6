// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/gjson"
)

var (
	// ErrNoSession is returned by an Authenticator that has no credentials to apply.
	ErrNoSession = errors.New("no session credentials available")

	// ErrSessionExpired is returned when the controller answers an API call with
	// its login page instead of data.
	ErrSessionExpired = errors.New("session expired: controller returned login page")
)

// APIError represents a failed HTTP call against the controller
type APIError struct {
	// Operation is the endpoint operation ID, or "raw" for ad-hoc requests
	Operation string

	// Method and Path of the failed request (path is relative to the base path)
	Method string
	Path   string

	// StatusCode is the HTTP status code, 0 when no response was received
	StatusCode int

	// Errors parsed from the controller error body
	Errors []ErrorModel

	// Human-readable error message
	Message string

	// InternalMsg contains detailed error information for internal logging
	InternalMsg string

	// Number of retry attempts made
	Retries int

	// IsTransient indicates if the error is transient and was retried
	IsTransient bool

	// Err is the underlying transport error, if any
	Err error
}

// Error implements the error interface
func (e *APIError) Error() string {
	status := ""
	if e.StatusCode > 0 {
		status = fmt.Sprintf(" (status: %d)", e.StatusCode)
	}
	if e.Retries > 0 {
		return fmt.Sprintf("catalystwan: %s failed: %s%s (retries: %d)", e.Operation, e.Message, status, e.Retries)
	}
	return fmt.Sprintf("catalystwan: %s failed: %s%s", e.Operation, e.Message, status)
}

// DetailedError returns the full error message including internal details
//
// This should only be used in secure logging contexts where sensitive information
// disclosure is acceptable (e.g., server-side logs, debug output).
//
// Example:
//
//	var apiErr *catalystwan.APIError
//	if errors.As(err, &apiErr) {
//	    log.Debug(apiErr.DetailedError()) // internal logging
//	}
func (e *APIError) DetailedError() string {
	if e.InternalMsg == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s [%s %s] (internal: %s)", e.Error(), e.Method, e.Path, e.InternalMsg)
}

// Unwrap returns the underlying transport error
func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorModel represents one error reported by the controller.
//
// vManage reports errors as {"error": {"message": ..., "details": ..., "code": ..., "type": ...}}.
type ErrorModel struct {
	// Code is the controller error code (e.g. "USER0006")
	Code string

	// Message is the error message
	Message string

	// Details contains additional error information
	Details string

	// Type is the controller error type (e.g. "error")
	Type string
}

// parseErrorModels extracts controller error models from a response body
func parseErrorModels(body []byte) []ErrorModel {
	if len(body) == 0 {
		return nil
	}
	if gjson.ValidBytes(body) {
		e := gjson.GetBytes(body, "error")
		if e.Exists() {
			return []ErrorModel{{
				Code:    e.Get("code").String(),
				Message: e.Get("message").String(),
				Details: e.Get("details").String(),
				Type:    e.Get("type").String(),
			}}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256] + "..."
	}
	return []ErrorModel{{Message: msg}}
}

// TransientError defines patterns for detecting transient errors that should be retried
type TransientError struct {
	// StatusCode is the HTTP status code to match
	StatusCode int
}

// TransientErrors defines the list of HTTP status codes that trigger automatic retry
//
// NOTE: 500 is intentionally excluded. The controller returns 500 for many
// permanent failures (invalid payloads, missing references), and retrying
// those only delays the error.
var TransientErrors = []TransientError{
	// Rate limiting
	{StatusCode: http.StatusTooManyRequests},

	// Upstream application server restarting
	{StatusCode: http.StatusBadGateway},

	// Service temporarily unavailable (cluster sync, upgrade)
	{StatusCode: http.StatusServiceUnavailable},

	// Gateway timeout
	{StatusCode: http.StatusGatewayTimeout},
}

// EndpointError reports a mistake in an endpoint declaration or in the arguments
// an endpoint is invoked with.
type EndpointError struct {
	// Endpoint is the "Group.Name" of the offending endpoint
	Endpoint string

	// Message describes the problem
	Message string
}

// Error implements the error interface
func (e *EndpointError) Error() string {
	return fmt.Sprintf("catalystwan: endpoint %s: %s", e.Endpoint, e.Message)
}

// VersionError is returned by strict endpoints called against an unsupported API version.
type VersionError struct {
	Endpoint  string
	Supported string
	Current   *semver.Version
}

// Error implements the error interface
func (e *VersionError) Error() string {
	return fmt.Sprintf("catalystwan: %s is only supported for API versions %s, controller runs %s",
		e.Endpoint, e.Supported, e.Current)
}

// ViewError is returned by strict endpoints called from a session view they do not allow.
type ViewError struct {
	Endpoint string
	Allowed  []SessionType
	Current  SessionType
}

// Error implements the error interface
func (e *ViewError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, v := range e.Allowed {
		allowed[i] = string(v)
	}
	return fmt.Sprintf("catalystwan: %s is only allowed for views [%s], current view is %s",
		e.Endpoint, strings.Join(allowed, ", "), e.Current)
}

// ValidationError wraps a response model that failed validation.
type ValidationError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalystwan: %s returned invalid data: %v", e.Endpoint, e.Err)
}

// Unwrap returns the validation error
func (e *ValidationError) Unwrap() error {
	return e.Err
}
