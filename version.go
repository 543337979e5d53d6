// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SessionType is the view a session operates in. Some endpoints are only
// meaningful for a given tenancy mode.
type SessionType string

const (
	// ProviderView is a multi-tenant provider session
	ProviderView SessionType = "provider"

	// TenantView is a tenant session on a multi-tenant controller
	TenantView SessionType = "tenant"

	// ProviderAsTenantView is a provider session scoped to one tenant via VSessionId
	ProviderAsTenantView SessionType = "provider-as-tenant"

	// SingleTenantView is a session on a single-tenant controller
	SingleTenantView SessionType = "single-tenant"
)

// SessionTypes lists every known session view
var SessionTypes = []SessionType{ProviderView, TenantView, ProviderAsTenantView, SingleTenantView}

// ParseSessionType converts a view name into a SessionType.
func ParseSessionType(name string) (SessionType, error) {
	st := SessionType(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(SessionTypes, st) {
		return st, nil
	}
	return "", fmt.Errorf("unknown session view: %q", name)
}

// ParseAPIVersion parses a controller version string.
//
// Controller versions may carry four numeric components (e.g. "20.12.3.1");
// only major.minor.patch is significant for endpoint support, so anything
// beyond the third component is dropped.
func ParseAPIVersion(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty API version")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	v, err := semver.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, fmt.Errorf("invalid API version %q: %w", s, err)
	}
	return v, nil
}

// checkSupport verifies the endpoint is supported by the controller version
// and allowed for the current session view. Unknown version or view passes.
// Mismatches are logged, or returned as errors for strict endpoints.
func (c *Client) checkSupport(ctx context.Context, ep *Endpoint) error {
	current := c.APIVersion()
	if current != nil && ep.constraint != nil && !ep.constraint.Check(current) {
		if ep.Strict {
			return &VersionError{Endpoint: ep.FullName(), Supported: ep.Versions, Current: current}
		}
		c.logger.Warn(ctx, "endpoint not supported by controller version",
			"endpoint", ep.FullName(),
			"supported", ep.Versions,
			"current", current.String())
	}

	view := c.Session()
	if view != "" && len(ep.Views) > 0 && !slices.Contains(ep.Views, view) {
		if ep.Strict {
			return &ViewError{Endpoint: ep.FullName(), Allowed: ep.Views, Current: view}
		}
		c.logger.Warn(ctx, "endpoint not allowed for current session view",
			"endpoint", ep.FullName(),
			"allowed", viewNames(ep.Views),
			"current", string(view))
	}
	return nil
}

func viewNames(views []SessionType) string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
