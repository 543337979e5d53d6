// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Client configuration options using the functional options pattern

// Authenticator sets the authenticator that decorates every request with
// session credentials
//
// Example:
//
//	client, _ := catalystwan.NewClient("https://vmanage.example.com",
//	    catalystwan.Authenticator(catalystwan.NewSessionAuth(jsessionID, xsrfToken)))
func Authenticator(auth Auth) func(*Client) {
	return func(c *Client) {
		c.auth = auth
	}
}

// TLSCA sets the PEM CA bundle used to verify the controller certificate
//
// The file is checked when the client is created and loaded into the
// transport's root CA pool.
func TLSCA(caPath string) func(*Client) {
	return func(c *Client) {
		c.tlsCA = caPath
	}
}

// VerifyCertificate enables or disables TLS certificate verification (default: true)
//
// WARNING: Disabling certificate verification makes the connection vulnerable
// to Man-in-the-Middle attacks. Only use this in lab environments.
func VerifyCertificate(verify bool) func(*Client) {
	return func(c *Client) {
		c.VerifyCertificate = verify
	}
}

// OperationTimeout sets the per-attempt timeout (default: 60s)
func OperationTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.OperationTimeout = duration
	}
}

// MaxRetries sets the maximum number of retry attempts for transient errors (default: 3)
func MaxRetries(retries int) func(*Client) {
	return func(c *Client) {
		c.MaxRetries = retries
	}
}

// BackoffMinDelay sets the minimum backoff delay (default: 1s)
func BackoffMinDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMinDelay = duration
	}
}

// BackoffMaxDelay sets the maximum backoff delay (default: 60s)
func BackoffMaxDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMaxDelay = duration
	}
}

// BackoffDelayFactor sets the backoff multiplication factor (default: 2.0)
func BackoffDelayFactor(factor float64) func(*Client) {
	return func(c *Client) {
		c.BackoffDelayFactor = factor
	}
}

// APIVersion presets the controller version, e.g. "20.12.1".
//
// Normally the version is learned from Server(). Presetting it enables version
// checks without the extra round trip. An unparsable version fails NewClient.
func APIVersion(version string) func(*Client) {
	return func(c *Client) {
		c.apiVersionRaw = version
	}
}

// SessionView presets the session view used for tenancy checks
func SessionView(view SessionType) func(*Client) {
	return func(c *Client) {
		c.session = view
	}
}

// ValidateResponses enables validation of decoded response models that
// implement validation.Validatable (default: false)
func ValidateResponses(enabled bool) func(*Client) {
	return func(c *Client) {
		c.ValidateResponses = enabled
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// All JSON content logged at Debug level is redacted to remove sensitive data
// (passwords, secrets, keys, tokens).
//
// Example:
//
//	logger := catalystwan.NewSlogLogger(slog.Default())
//	client, _ := catalystwan.NewClient("https://vmanage.example.com",
//	    catalystwan.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs
// (default: true)
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// WithMetrics registers request metrics with reg
//
// Collectors already registered by another client on the same registerer are
// reused, so several clients may share one registry.
func WithMetrics(reg prometheus.Registerer) func(*Client) {
	return func(c *Client) {
		c.metricsRegisterer = reg
	}
}

// HTTPClient replaces the underlying HTTP client.
//
// TLS options are ignored when a custom client is supplied.
func HTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// UserAgent sets the User-Agent header
func UserAgent(ua string) func(*Client) {
	return func(c *Client) {
		c.UserAgent = ua
	}
}

// Request modifiers for individual operations

// Timeout returns a request modifier that sets a custom timeout for each attempt.
//
// The timeout priority model is:
//  1. Request-specific timeout (this modifier) - highest priority
//  2. Context deadline (if already set) - medium priority
//  3. Client.OperationTimeout - fallback default
//
// Example:
//
//	res, err := client.Get(ctx, "/template/device/config/exportcsv",
//	    catalystwan.Timeout(5*time.Minute))
func Timeout(duration time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = duration
	}
}

// Query adds a query parameter
func Query(key, value string) func(*Req) {
	return func(req *Req) {
		if req.Query == nil {
			req.Query = url.Values{}
		}
		req.Query.Add(key, value)
	}
}

// Params sets query parameters from a map[string]string, url.Values or a struct.
//
// Structs are flattened through their JSON tags. Null and empty values are
// omitted.
func Params(params any) func(*Req) {
	return func(req *Req) {
		req.Params = params
	}
}

// Header sets a request header
func Header(key, value string) func(*Req) {
	return func(req *Req) {
		if req.Header == nil {
			req.Header = http.Header{}
		}
		req.Header.Set(key, value)
	}
}

// VSession scopes a provider request to a tenant using a VSessionId obtained
// from TenantManagement.VSessionID
func VSession(id string) func(*Req) {
	return Header(HeaderVSessionID, id)
}

// NoRetry disables retries for this request
func NoRetry() func(*Req) {
	return func(req *Req) {
		req.NoRetry = true
	}
}
