// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Default client configuration values
const (
	DefaultMaxRetries         = 3
	DefaultBackoffMinDelay    = 1 * time.Second
	DefaultBackoffMaxDelay    = 60 * time.Second
	DefaultBackoffDelayFactor = 2
	DefaultOperationTimeout   = 60 * time.Second
	DefaultVerifyCertificate  = true
	DefaultPrettyPrintLogs    = true
	DefaultUserAgent          = "go-catalystwan"
)

// Security limits for JSON processing and logging
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024 // 1MB limit to prevent ReDoS attacks
	MaxSensitiveFields    = 1000            // Max redaction operations to prevent DoS
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// sensitiveKeys are JSON field names whose values never reach the logs.
// Matching is case-insensitive on the key suffix, so "tenantPassword" and
// "apiKey" are covered as well.
var sensitiveKeys = []string{"password", "secret", "key", "community", "token", "auth"}

// defaultRedactionPatterns contains regex patterns for redacting sensitive data in logs
var defaultRedactionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"([A-Za-z0-9_-]*password)"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"([A-Za-z0-9_-]*secret)"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"([A-Za-z0-9_-]*key)"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"([A-Za-z0-9_-]*community)"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"([A-Za-z0-9_-]*token)"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"(auth)"\s*:\s*"[^"]*"`),
}

// Client is a vManage REST API client
//
// A Client is safe for concurrent use. Reads run in parallel; mutating
// requests (POST, PUT, PATCH, DELETE) are serialized, since the controller
// locks its configuration database per write.
type Client struct {
	// httpClient performs the requests
	httpClient *http.Client

	// RWMutex to synchronize access to mutable state
	mu sync.RWMutex

	// writeSlot holds one token while a mutating request is in flight
	writeSlot chan struct{}

	// URL is the controller base URL (scheme://host[:port])
	URL string

	// BasePath is prepended to every request path
	BasePath string

	auth  Auth
	tlsCA string // unexported for security

	// VerifyCertificate enables TLS certificate verification
	VerifyCertificate bool

	// Timeout configuration
	OperationTimeout time.Duration

	// Retry configuration
	MaxRetries         int
	BackoffMinDelay    time.Duration
	BackoffMaxDelay    time.Duration
	BackoffDelayFactor float64

	// UserAgent is sent with every request
	UserAgent string

	// ValidateResponses runs Validate() on decoded response models
	ValidateResponses bool

	// Controller state learned from Server() or preset by options
	apiVersion    *semver.Version
	apiVersionRaw string
	session       SessionType
	server        *ServerInfo

	// Logging configuration
	logger            Logger
	prettyPrintLogs   bool
	redactionPatterns []*regexp.Regexp

	// Metrics
	metricsRegisterer prometheus.Registerer
	metrics           *clientMetrics

	closed bool
}

// NewClient creates a new vManage client for the controller at baseURL
//
// No request is sent at construction. Use Server() or Ping() to learn the
// controller version and tenancy mode, which enable endpoint support checks.
//
// Example:
//
//	client, err := catalystwan.NewClient(
//	    "https://vmanage.example.com",
//	    catalystwan.Authenticator(catalystwan.NewSessionAuth(jsessionID, xsrfToken)),
//	    catalystwan.VerifyCertificate(false),
//	    catalystwan.MaxRetries(5),
//	)
//	if err != nil {
//	    log.Fatal(err)  // Configuration error
//	}
//	defer client.Close()
//
//	if _, err := client.Server(ctx); err != nil {
//	    log.Fatal(err)  // Connection or session error
//	}
//
// Returns a configured Client or an error if configuration validation fails.
func NewClient(baseURL string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		URL:                strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		BasePath:           BasePath,
		VerifyCertificate:  DefaultVerifyCertificate,
		OperationTimeout:   DefaultOperationTimeout,
		MaxRetries:         DefaultMaxRetries,
		BackoffMinDelay:    DefaultBackoffMinDelay,
		BackoffMaxDelay:    DefaultBackoffMaxDelay,
		BackoffDelayFactor: DefaultBackoffDelayFactor,
		UserAgent:          DefaultUserAgent,
		logger:             &NoOpLogger{},
		prettyPrintLogs:    DefaultPrettyPrintLogs,
		redactionPatterns:  defaultRedactionPatterns,
		writeSlot:          make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(client)
	}

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	if client.apiVersionRaw != "" {
		v, err := ParseAPIVersion(client.apiVersionRaw)
		if err != nil {
			return nil, err
		}
		client.apiVersion = v
	}

	if client.httpClient == nil {
		hc, err := client.newHTTPClient()
		if err != nil {
			return nil, err
		}
		client.httpClient = hc
	}

	if client.metricsRegisterer != nil {
		m, err := newClientMetrics(client.metricsRegisterer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		client.metrics = m
	}

	client.logger.Info(context.Background(), "vManage client created",
		"url", client.URL,
		"base_path", client.BasePath)

	return client, nil
}

// newHTTPClient builds the HTTP client from the TLS configuration
func (c *Client) newHTTPClient() (*http.Client, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !c.VerifyCertificate, //nolint:gosec // explicit opt-in via VerifyCertificate(false)
	}
	if c.tlsCA != "" {
		pem, err := os.ReadFile(c.tlsCA)
		if err != nil {
			return nil, fmt.Errorf("failed to read TLS CA file %s: %w", filepath.Base(c.tlsCA), err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("TLS CA file %s contains no PEM certificates", filepath.Base(c.tlsCA))
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return &http.Client{
		Transport: transport,
		// The controller answers expired sessions with a redirect to its login
		// page. Surface the redirect instead of following it.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// Close releases idle connections and clears the session credentials
//
// Thread-safe: safe to call multiple times (subsequent calls are no-ops).
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.auth != nil {
		c.auth.Clear()
	}
	c.httpClient.CloseIdleConnections()

	c.logger.Info(context.Background(), "vManage client closed",
		"url", c.URL)

	return nil
}

// APIVersion returns the controller version, nil if unknown
func (c *Client) APIVersion() *semver.Version {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiVersion
}

// Session returns the session view, "" if unknown
func (c *Client) Session() SessionType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Logger returns the client's logger, for helpers that log on the client's behalf
func (c *Client) Logger() Logger {
	return c.logger
}

// ServerInfo returns a copy of the last Server() result, nil if never fetched
func (c *Client) ServerInfo() *ServerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.server == nil {
		return nil
	}
	info := *c.server
	info.Roles = append([]string(nil), c.server.Roles...)
	return &info
}

// ServerInfo is the "/client/server" response
type ServerInfo struct {
	PlatformVersion string   `json:"platformVersion"`
	TenancyMode     string   `json:"tenancyMode"`
	UserMode        string   `json:"userMode"`
	VSessionID      string   `json:"VSessionId,omitempty"`
	User            string   `json:"user"`
	Roles           []string `json:"roles"`
	CSRFToken       string   `json:"CSRFToken,omitempty"`
	Locale          string   `json:"locale,omitempty"`
	ServerTime      int64    `json:"serverTime,omitempty"`
	ViewMode        string   `json:"viewMode,omitempty"`
}

// SessionType derives the session view from tenancy mode, user mode and
// VSessionId.
func (s ServerInfo) SessionType() SessionType {
	switch {
	case strings.EqualFold(s.TenancyMode, "SingleTenant"):
		return SingleTenantView
	case strings.EqualFold(s.UserMode, "tenant"):
		return TenantView
	case s.VSessionID != "":
		return ProviderAsTenantView
	default:
		return ProviderView
	}
}

// Server retrieves the controller server information and records the API
// version and session view on the client
//
// Example:
//
//	info, err := client.Server(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("vManage %s (%s)\n", info.PlatformVersion, client.Session())
func (c *Client) Server(ctx context.Context) (ServerInfo, error) {
	res, err := c.Get(ctx, "/client/server")
	if err != nil {
		return ServerInfo{}, err
	}
	data := res.Get("data")
	if !data.Exists() {
		return ServerInfo{}, fmt.Errorf("server info: response has no data")
	}
	var info ServerInfo
	if err := json.Unmarshal([]byte(data.Raw), &info); err != nil {
		return ServerInfo{}, fmt.Errorf("server info: %w", err)
	}

	var version *semver.Version
	if info.PlatformVersion != "" {
		version, err = ParseAPIVersion(info.PlatformVersion)
		if err != nil {
			c.logger.Warn(ctx, "unparsable platform version",
				"version", info.PlatformVersion,
				"error", err.Error())
		}
	}

	c.mu.Lock()
	if version != nil {
		c.apiVersion = version
	}
	c.session = info.SessionType()
	c.server = &info
	c.mu.Unlock()

	c.logger.Info(ctx, "vManage server info",
		"version", info.PlatformVersion,
		"tenancy_mode", info.TenancyMode,
		"session", string(info.SessionType()))

	return info, nil
}

// Ping verifies connectivity and session validity by retrieving the server info
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Server(ctx)
	return err
}

// Backoff calculates the backoff delay for retry attempt using exponential backoff with jitter
//
// The formula is: delay = min(minDelay * (factor ^ attempt) + jitter, maxDelay)
// where jitter is a cryptographically secure random value in [0, delay * 0.1].
//
// If crypto/rand fails, falls back to timestamp-based jitter to prevent
// thundering herd.
func (c *Client) Backoff(attempt int) time.Duration {
	delay := float64(c.BackoffMinDelay) * math.Pow(c.BackoffDelayFactor, float64(attempt))

	if math.IsInf(delay, 1) || delay > float64(c.BackoffMaxDelay) {
		delay = float64(c.BackoffMaxDelay)
	}

	baseDelay := delay

	jitterMax := int64(delay * 0.1)
	var jitterVal int64
	if jitterMax > 0 {
		var jitterBytes [8]byte
		if _, err := rand.Read(jitterBytes[:]); err == nil {
			//nolint:gosec // G115: explicitly masked to prevent overflow
			jitterVal = int64(binary.BigEndian.Uint64(jitterBytes[:]) & 0x7FFFFFFFFFFFFFFF)
			jitterVal = jitterVal % jitterMax
			delay += float64(jitterVal)
		} else {
			timestamp := time.Now().UnixNano()
			jitterVal = (timestamp%jitterMax + jitterMax) % jitterMax
			delay += float64(jitterVal)

			c.logger.Warn(context.Background(), "crypto/rand failed, using timestamp-based jitter",
				"error", err.Error(),
				"attempt", attempt,
				"jitter_ms", time.Duration(jitterVal).Milliseconds())
		}
	}

	finalDelay := time.Duration(delay)

	c.logger.Debug(context.Background(), "Backoff calculated",
		"attempt", attempt,
		"base_delay_ms", time.Duration(baseDelay).Milliseconds(),
		"jitter_ms", time.Duration(jitterVal).Milliseconds(),
		"final_delay_ms", finalDelay.Milliseconds())

	return finalDelay
}

// prepareJSONForLogging redacts sensitive data and formats JSON for logging
//
//  1. Validates JSON size to prevent ReDoS attacks (max 1MB)
//  2. Checks sensitive field count to prevent DoS (max 1000 fields)
//  3. Redacts sensitive data (passwords, secrets, keys, community strings, tokens)
//  4. Pretty-prints JSON if prettyPrintLogs is enabled
//
// Returns the processed JSON string safe for logging.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	lower := strings.ToLower(jsonStr)
	sensitiveCount := 0
	for _, key := range sensitiveKeys {
		sensitiveCount += strings.Count(lower, key+`"`)
	}

	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		} else {
			c.logger.Debug(context.Background(), "JSON pretty-print failed, using raw redacted output",
				"error", err.Error())
		}
	}

	return redacted
}

// redactSensitiveData replaces sensitive values in JSON with [REDACTED]
//
// Handles flexible whitespace around colons and keeps the original key name,
// e.g. "tenantPassword":"x" becomes "tenantPassword":"[REDACTED]".
func (c *Client) redactSensitiveData(json string) string {
	result := json
	for _, pattern := range c.redactionPatterns {
		result = pattern.ReplaceAllString(result, `"$1":"[REDACTED]"`)
	}
	return result
}

// validateConfig validates client configuration
//
// Validates:
//   - URL is absolute http(s) with a host
//   - Positive timeouts
//   - Retry params (MaxRetries >= 0, BackoffMinDelay > 0, BackoffMaxDelay > BackoffMinDelay)
//   - BackoffDelayFactor >= 1.0
//   - TLS CA file exists (if provided)
//
// Returns an error if validation fails.
func (c *Client) validateConfig() error {
	if c.URL == "" {
		return fmt.Errorf("controller URL cannot be empty")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid controller URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid controller URL scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("controller URL has no host: %q", c.URL)
	}
	if u.Path != "" || u.RawQuery != "" {
		return fmt.Errorf("controller URL must not contain a path or query: %q", c.URL)
	}

	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base path must start with '/': %q", c.BasePath)
	}

	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got: %v", c.OperationTimeout)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got: %d", c.MaxRetries)
	}
	if c.BackoffMinDelay <= 0 {
		return fmt.Errorf("backoff min delay must be positive, got: %v", c.BackoffMinDelay)
	}
	if c.BackoffMaxDelay <= c.BackoffMinDelay {
		return fmt.Errorf("backoff max delay (%v) must be greater than min delay (%v)",
			c.BackoffMaxDelay, c.BackoffMinDelay)
	}
	if c.BackoffDelayFactor < 1.0 {
		return fmt.Errorf("backoff delay factor must be >= 1.0, got: %f", c.BackoffDelayFactor)
	}

	if c.session != "" {
		if _, err := ParseSessionType(string(c.session)); err != nil {
			return err
		}
	}

	if !c.VerifyCertificate && u.Scheme == "https" {
		c.logger.Warn(context.Background(), "TLS certificate verification disabled",
			"url", c.URL,
			"security_risk", "Man-in-the-Middle attacks possible",
			"recommendation", "Use only in lab environments")
	}

	if u.Scheme == "http" {
		c.logger.Warn(context.Background(), "plain HTTP - connection is not encrypted",
			"url", c.URL,
			"security_risk", "Session cookies transmitted in clear text",
			"recommendation", "Use https for production controllers")
	}

	if c.tlsCA != "" {
		if _, err := os.Stat(c.tlsCA); err != nil {
			c.logger.Debug(context.Background(), "TLS CA validation failed",
				"path", c.tlsCA,
				"error", err.Error())
			filename := filepath.Base(c.tlsCA)
			return fmt.Errorf("TLS CA file not found: %s", filename)
		}
	}

	if c.auth == nil {
		c.logger.Warn(context.Background(), "No authenticator configured",
			"url", c.URL,
			"message", "controller will reject API calls")
	}

	return nil
}
