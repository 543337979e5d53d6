// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package config loads the command line client configuration.
//
// Values are layered, lowest precedence first:
//  1. defaults (New)
//  2. YAML file, from the --config flag or CATALYSTWAN_CONFIG
//  3. environment variables with prefix CATALYSTWAN_ (CATALYSTWAN_URL, ...)
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	catalystwan "github.com/netascode/go-catalystwan"
	"golang.org/x/oauth2"
)

// EnvPrefix prefixes all configuration environment variables
const EnvPrefix = "CATALYSTWAN_"

// EnvConfigFile names the environment variable holding the config file path
const EnvConfigFile = EnvPrefix + "CONFIG"

// Sentinel errors for errors.Is
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config is the controller connection configuration
type Config struct {
	// URL of the controller, e.g. https://vmanage.example.com
	URL string `koanf:"url"`

	// SessionCookie is the JSESSIONID of an established session
	SessionCookie string `koanf:"session_cookie"`

	// XSRFToken belongs to the session
	XSRFToken string `koanf:"xsrf_token"`

	// Token is a bearer token, used instead of a session cookie when set
	Token string `koanf:"token"`

	VerifyTLS  bool          `koanf:"verify_tls"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`

	// APIVersion presets the controller version, skipping version discovery
	APIVersion string `koanf:"api_version"`

	// View presets the session view (provider, tenant, provider-as-tenant, single-tenant)
	View string `koanf:"view"`

	// LogLevel controls verbosity: debug, info, warn, error
	LogLevel string `koanf:"log_level"`
}

// New returns a Config with defaults
func New() *Config {
	return &Config{
		VerifyTLS:  catalystwan.DefaultVerifyCertificate,
		Timeout:    catalystwan.DefaultOperationTimeout,
		MaxRetries: catalystwan.DefaultMaxRetries,
		LogLevel:   "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (or
// CATALYSTWAN_CONFIG when path is empty) and the environment.
func Load(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CATALYSTWAN_SESSION_COOKIE -> session_cookie
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoadConfig, err)
	}
	// The config file path is not a setting
	k.Delete("config")

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate implements validation.Validatable
func (c *Config) Validate() error {
	views := make([]any, len(catalystwan.SessionTypes))
	for i, v := range catalystwan.SessionTypes {
		views[i] = string(v)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, validation.By(controllerURL)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&c.View, validation.In(views...)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.SessionCookie, validation.When(c.Token == "",
			validation.Required.Error("is required unless a token is set"))),
	)
}

func controllerURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// ClientOptions translates the configuration into client options
func (c *Config) ClientOptions(logger catalystwan.Logger) []func(*catalystwan.Client) {
	opts := []func(*catalystwan.Client){
		catalystwan.VerifyCertificate(c.VerifyTLS),
		catalystwan.OperationTimeout(c.Timeout),
		catalystwan.MaxRetries(c.MaxRetries),
	}
	if c.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"})
		opts = append(opts, catalystwan.Authenticator(catalystwan.NewTokenAuth(src)))
	} else if c.SessionCookie != "" {
		opts = append(opts, catalystwan.Authenticator(catalystwan.NewSessionAuth(c.SessionCookie, c.XSRFToken)))
	}
	if c.APIVersion != "" {
		opts = append(opts, catalystwan.APIVersion(c.APIVersion))
	}
	if c.View != "" {
		opts = append(opts, catalystwan.SessionView(catalystwan.SessionType(c.View)))
	}
	if logger != nil {
		opts = append(opts, catalystwan.WithLogger(logger))
	}
	return opts
}

// NewClient creates a controller client from the configuration
func (c *Config) NewClient(logger catalystwan.Logger) (*catalystwan.Client, error) {
	return catalystwan.NewClient(c.URL, c.ClientOptions(logger)...)
}
