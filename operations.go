// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// Input validation constants
const (
	// MaxPayloadSize is the maximum size for a request body in bytes (50MB)
	MaxPayloadSize = 50 * 1024 * 1024

	// MaxResponseSize is the maximum size of a response body read into memory (200MB)
	MaxResponseSize = 200 * 1024 * 1024
)

// rawOperation labels requests that are not issued through a registry endpoint
const rawOperation = "raw"

// validatePath validates a request path relative to the base path
//
// Checks:
//   - Path starts with "/"
//   - Path length does not exceed MaxPathLength
//   - Path does not contain malicious patterns (null bytes, path traversal)
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if path[0] != '/' {
		return fmt.Errorf("path must start with '/': %s", truncatePath(path))
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("path exceeds maximum length of %d characters: %s", MaxPathLength, truncatePath(path))
	}
	return checkPathSecurity(path)
}

// truncatePath truncates a path for error messages
//
// Returns the first 100 characters of the path followed by "..." if longer.
func truncatePath(path string) string {
	if len(path) <= 100 {
		return path
	}
	return path[:100] + "..."
}

// Request sends an HTTP request to path, relative to the base path.
//
// The body is encoded with Encode: strings and byte slices are sent raw,
// Body and other values as JSON, PreparedPayload implementations as they
// prepare themselves. A nil body sends no payload.
//
// Reads run concurrently. Mutating methods are serialized.
// Context timeout follows priority:
//  1. Request-specific timeout (via Timeout modifier)
//  2. Context deadline (if already set)
//  3. Client.OperationTimeout (fallback default)
//
// Example:
//
//	res, err := client.Request(ctx, http.MethodPost, "/tenant/bulk/async", tenants)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Get("id").String())
//
// Returns Res with status, headers, body and any controller errors.
func (c *Client) Request(ctx context.Context, method, path string, body any, mods ...func(*Req)) (Res, error) {
	method = strings.ToUpper(method)
	if err := ValidateMethod(method); err != nil {
		return Res{OK: false, Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("request: %w", err)
	}
	if err := validatePath(path); err != nil {
		return Res{OK: false, Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("request: %w", err)
	}

	payload, err := Encode(body)
	if err != nil {
		return Res{OK: false, Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("request: %w", err)
	}

	req := &Req{operation: rawOperation}
	for _, mod := range mods {
		mod(req)
	}
	return c.do(ctx, method, path, payload, req)
}

// Get performs a GET request
//
// Example:
//
//	res, err := client.Get(ctx, "/device", catalystwan.Query("personality", "vedge"))
func (c *Client) Get(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Request(ctx, http.MethodGet, path, nil, mods...)
}

// Post performs a POST request with body
func (c *Client) Post(ctx context.Context, path string, body any, mods ...func(*Req)) (Res, error) {
	return c.Request(ctx, http.MethodPost, path, body, mods...)
}

// Put performs a PUT request with body
func (c *Client) Put(ctx context.Context, path string, body any, mods ...func(*Req)) (Res, error) {
	return c.Request(ctx, http.MethodPut, path, body, mods...)
}

// Delete performs a DELETE request without body
func (c *Client) Delete(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, mods...)
}

// do executes a request with retry logic
//
// PRECONDITION: method and path are validated, payload is encoded.
func (c *Client) do(ctx context.Context, method, path string, payload Prepared, req *Req) (Res, error) {
	op := req.operation
	if op == "" {
		op = rawOperation
	}
	apiErr := func(msg string, err error) *APIError {
		return &APIError{Operation: op, Method: method, Path: path, Message: msg, InternalMsg: errString(err), Err: err}
	}

	if err := checkContextCancellation(ctx); err != nil {
		return Res{OK: false, Errors: []ErrorModel{{Message: err.Error()}}}, apiErr("context canceled", err)
	}
	if len(payload.Data) > MaxPayloadSize {
		err := fmt.Errorf("payload size exceeds maximum of %d bytes (got %d bytes)", MaxPayloadSize, len(payload.Data))
		return Res{OK: false, Errors: []ErrorModel{{Message: err.Error()}}}, apiErr(err.Error(), nil)
	}

	c.mu.RLock()
	closed := c.closed
	auth := c.auth
	c.mu.RUnlock()
	if closed {
		return Res{OK: false, Errors: []ErrorModel{{Message: "client closed"}}}, apiErr("client closed", nil)
	}

	query, err := buildQuery(req)
	if err != nil {
		return Res{OK: false, Errors: []ErrorModel{{Message: err.Error()}}}, apiErr("invalid query parameters", err)
	}
	target := c.URL + c.BasePath + path
	if query != "" {
		target += "?" + query
	}

	// Serialize writes; the controller rejects concurrent configuration changes
	if isMutating(method) {
		select {
		case c.writeSlot <- struct{}{}:
			defer func() { <-c.writeSlot }()
		case <-ctx.Done():
			c.logger.Debug(ctx, "canceled while waiting for write slot",
				"operation", op,
				"method", method)
			return Res{OK: false, Errors: []ErrorModel{{Message: ctx.Err().Error()}}},
				apiErr("context canceled while waiting for pending write", ctx.Err())
		}
	}

	_, callerDeadline := ctx.Deadline()
	if !callerDeadline {
		totalTimeout := c.calculateTotalTimeout()

		c.logger.Debug(ctx, "applying total timeout budget",
			"totalTimeout", totalTimeout.String(),
			"operationTimeout", c.OperationTimeout.String(),
			"maxRetries", c.MaxRetries,
			"operation", op)

		var parentCancel context.CancelFunc
		ctx, parentCancel = context.WithTimeout(ctx, totalTimeout)
		defer parentCancel()
	}

	c.logger.Debug(ctx, "vManage request",
		"operation", op,
		"method", method,
		"path", path,
		"query", query)
	if len(payload.Data) > 0 && payload.ContentType == ContentTypeJSON {
		c.logger.Debug(ctx, "vManage request body",
			"operation", op,
			"body", c.prepareJSONForLogging(string(payload.Data)))
	}

	maxRetries := c.MaxRetries
	if req.NoRetry {
		maxRetries = 0
	}

	start := time.Now()
	var res Res
	var lastErr error
	transient := false
	attempt := 0

	for ; attempt <= maxRetries; attempt++ {
		if err := checkContextCancellation(ctx); err != nil {
			c.logger.Debug(ctx, "request canceled",
				"operation", op,
				"attempt", attempt,
				"error", err.Error())
			lastErr = err
			break
		}

		attemptCtx, attemptCancel := c.createAttemptContext(ctx, req, callerDeadline)
		res, lastErr = c.roundTrip(attemptCtx, auth, method, target, payload, req)
		attemptCancel()

		transient = false
		if lastErr != nil {
			transient = c.isTransportError(ctx, lastErr)
		} else if !res.OK {
			transient = c.checkTransientStatus(res.StatusCode)
		}

		if !transient || attempt >= maxRetries {
			break
		}

		backoff := c.Backoff(attempt)
		c.metrics.retry(op)
		c.logger.Warn(ctx, "transient error, retrying",
			"operation", op,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"backoff", backoff,
			"status", res.StatusCode,
			"error", errString(lastErr))

		select {
		case <-time.After(backoff):
			continue
		case <-ctx.Done():
			c.logger.Debug(ctx, "request canceled during backoff",
				"operation", op,
				"attempt", attempt+1)
			lastErr = fmt.Errorf("context canceled during backoff: %w", ctx.Err())
		}
		break
	}
	if attempt > maxRetries {
		attempt = maxRetries
	}

	c.metrics.observe(op, method, res.StatusCode, time.Since(start))

	if lastErr != nil {
		c.logger.Error(ctx, "vManage request failed",
			"operation", op,
			"method", method,
			"path", path,
			"error", lastErr.Error())
		e := apiErr("request failed", lastErr)
		e.Retries = attempt
		e.IsTransient = transient
		if errors.Is(lastErr, ErrNoSession) {
			e.Message = "no session credentials"
		}
		return Res{OK: false, Errors: []ErrorModel{{Message: lastErr.Error()}}}, e
	}

	if isLoginRedirect(res) {
		if auth != nil {
			auth.Clear()
		}
		c.logger.Warn(ctx, "vManage session expired",
			"operation", op,
			"status", res.StatusCode)
		e := apiErr("session expired", ErrSessionExpired)
		e.StatusCode = res.StatusCode
		e.Retries = attempt
		res.OK = false
		res.Errors = []ErrorModel{{Message: ErrSessionExpired.Error()}}
		return res, e
	}

	if !res.OK {
		res.Errors = parseErrorModels(res.Body)
		if res.StatusCode == http.StatusUnauthorized && auth != nil {
			auth.Clear()
		}
		msg := http.StatusText(res.StatusCode)
		if len(res.Errors) > 0 && res.Errors[0].Message != "" {
			msg = res.Errors[0].Message
		}
		c.logger.Error(ctx, "vManage request failed",
			"operation", op,
			"method", method,
			"path", path,
			"status", res.StatusCode,
			"message", msg)
		return res, &APIError{
			Operation:   op,
			Method:      method,
			Path:        path,
			StatusCode:  res.StatusCode,
			Errors:      res.Errors,
			Message:     msg,
			InternalMsg: errorDetails(res.Errors),
			Retries:     attempt,
			IsTransient: transient,
		}
	}

	c.logger.Debug(ctx, "vManage response",
		"operation", op,
		"status", res.StatusCode,
		"bytes", len(res.Body))
	if res.ContentType() == ContentTypeJSON && len(res.Body) > 0 {
		c.logger.Debug(ctx, "vManage response body",
			"operation", op,
			"body", c.prepareJSONForLogging(string(res.Body)))
	}

	return res, nil
}

// roundTrip performs a single HTTP exchange
func (c *Client) roundTrip(ctx context.Context, auth Auth, method, target string, payload Prepared, req *Req) (Res, error) {
	var body io.Reader
	if payload.Data != nil {
		body = bytes.NewReader(payload.Data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Res{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", ContentTypeJSON)
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	if payload.ContentType != "" {
		httpReq.Header.Set("Content-Type", payload.ContentType)
	}
	for k, v := range payload.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if auth != nil {
		if err := auth.Apply(ctx, httpReq); err != nil {
			return Res{}, err
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Res{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return Res{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > MaxResponseSize {
		return Res{}, fmt.Errorf("response body exceeds maximum of %d bytes", MaxResponseSize)
	}

	return Res{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}

// buildQuery merges explicit query values and flattened params
func buildQuery(req *Req) (string, error) {
	values := url.Values{}
	for k, vs := range req.Query {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	if req.Params != nil {
		flat, err := flattenParams(req.Params)
		if err != nil {
			return "", err
		}
		for k, vs := range flat {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
	}
	return values.Encode(), nil
}

// isLoginRedirect reports whether the controller answered with its login page
// instead of API data, which happens when the session has expired.
func isLoginRedirect(res Res) bool {
	if res.StatusCode >= 300 && res.StatusCode < 400 {
		return true
	}
	if res.OK && res.ContentType() == "text/html" {
		return bytes.Contains(res.Body, []byte("j_security_check"))
	}
	return false
}

// checkTransientStatus checks if an HTTP status code is in TransientErrors
func (c *Client) checkTransientStatus(code int) bool {
	for _, pattern := range TransientErrors {
		if pattern.StatusCode == code {
			c.logger.Debug(context.Background(), "Status matches transient pattern",
				"status", code)
			return true
		}
	}
	return false
}

// isTransportError checks if a transport error is worth retrying
//
// Transport errors include timeouts, refused or reset connections and
// connections closed mid-response. Errors caused by the caller's context
// ending are never retried.
func (c *Client) isTransportError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrNoSession) {
		return false
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
	case errors.Is(err, context.DeadlineExceeded):
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
	default:
		return false
	}

	c.logger.Debug(context.Background(), "Transport error detected",
		"error", err.Error())
	return true
}

// calculateTotalTimeout calculates the total timeout budget for an operation
//
// Formula: OperationTimeout + sum(Backoff(0), Backoff(1), ..., Backoff(MaxRetries))
//
// Example:
//
//	OperationTimeout = 60s
//	MaxRetries = 3
//	BackoffMinDelay = 1s
//	BackoffDelayFactor = 2.0
//
//	Total timeout = 60s + 1s + 2s + 4s + 8s = 75s
func (c *Client) calculateTotalTimeout() time.Duration {
	totalBackoff := time.Duration(0)
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		totalBackoff += c.Backoff(attempt)
	}
	return c.OperationTimeout + totalBackoff
}

// checkContextCancellation checks if context is canceled or deadline exceeded
//
// This is a non-blocking check used before retry attempts to avoid wasted work.
func checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// createAttemptContext creates a new context for a single retry attempt with timeout
//
// Timeout priority model:
//  1. Request-specific timeout (req.Timeout > 0) - highest priority
//  2. Caller context deadline - medium priority
//  3. Client default timeout (c.OperationTimeout) - fallback
//
// Caller MUST call the returned cancel function after the attempt completes.
func (c *Client) createAttemptContext(ctx context.Context, req *Req, callerDeadline bool) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		if req.Timeout < time.Second {
			c.logger.Warn(ctx, "request timeout is very short (may not complete)",
				"timeout", req.Timeout.String())
		} else if req.Timeout > 10*time.Minute {
			c.logger.Warn(ctx, "request timeout is very long (may delay error detection)",
				"timeout", req.Timeout.String())
		}
		return context.WithTimeout(ctx, req.Timeout)
	}

	if callerDeadline {
		if deadline, ok := ctx.Deadline(); ok {
			c.logger.Debug(ctx, "using existing context deadline",
				"remaining", time.Until(deadline).String(),
				"source", "context")
		}
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.OperationTimeout)
}

// errorDetails joins controller error details for internal logging
func errorDetails(errs []ErrorModel) string {
	var parts []string
	for _, e := range errs {
		switch {
		case e.Code != "" && e.Details != "":
			parts = append(parts, e.Code+": "+e.Details)
		case e.Details != "":
			parts = append(parts, e.Details)
		case e.Code != "":
			parts = append(parts, e.Code)
		}
	}
	return strings.Join(parts, "; ")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
