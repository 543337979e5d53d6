// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestParseAPIVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "20.12.1", want: "20.12.1"},
		{in: "20.9", want: "20.9.0"},
		{in: "20.12.3.1", want: "20.12.3"},
		{in: " 20.4.2 ", want: "20.4.2"},
		{in: "", wantErr: true},
		{in: "latest", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseAPIVersion(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAPIVersion(%q) = %v, want error", tt.in, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIVersion(%q) error = %v", tt.in, err)
			}
			if v.String() != tt.want {
				t.Errorf("ParseAPIVersion(%q) = %s, want %s", tt.in, v, tt.want)
			}
		})
	}
}

func TestParseSessionType(t *testing.T) {
	for _, st := range SessionTypes {
		got, err := ParseSessionType(" " + string(st) + " ")
		if err != nil || got != st {
			t.Errorf("ParseSessionType(%q) = %q, %v", st, got, err)
		}
	}
	if got, err := ParseSessionType("Provider"); err != nil || got != ProviderView {
		t.Errorf("ParseSessionType(Provider) = %q, %v", got, err)
	}
	if _, err := ParseSessionType("admin"); err == nil {
		t.Error("ParseSessionType(admin) error = nil")
	}
}

func TestServerInfoSessionType(t *testing.T) {
	tests := []struct {
		name string
		info ServerInfo
		want SessionType
	}{
		{"single tenant", ServerInfo{TenancyMode: "SingleTenant"}, SingleTenantView},
		{"tenant", ServerInfo{TenancyMode: "MultiTenant", UserMode: "tenant"}, TenantView},
		{"provider as tenant", ServerInfo{TenancyMode: "MultiTenant", UserMode: "provider", VSessionID: "vs"}, ProviderAsTenantView},
		{"provider", ServerInfo{TenancyMode: "MultiTenant", UserMode: "provider"}, ProviderView},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.SessionType(); got != tt.want {
				t.Errorf("SessionType() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestCheckSupport tests version and view checks for strict and lenient endpoints
func TestCheckSupport(t *testing.T) {
	newEP := func(strict bool) *Endpoint {
		opts := []EndpointOption{Versions(">=20.12"), Views(ProviderView)}
		if strict {
			opts = append(opts, Strict())
		}
		ep := NewEndpoint("G", "N", http.MethodGet, "/x", opts...)
		if _, err := NewRegistry().Register(ep); err != nil {
			t.Fatal(err)
		}
		return ep
	}

	tests := []struct {
		name     string
		version  string
		view     SessionType
		strict   bool
		wantErr  any
		wantWarn bool
	}{
		{name: "unknown state passes", strict: true},
		{name: "supported", version: "20.12.1", view: ProviderView, strict: true},
		{name: "old version strict", version: "20.9.1", strict: true, wantErr: &VersionError{}},
		{name: "old version lenient", version: "20.9.1", wantWarn: true},
		{name: "wrong view strict", view: TenantView, strict: true, wantErr: &ViewError{}},
		{name: "wrong view lenient", view: TenantView, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			opts := []func(*Client){WithLogger(logger), SessionView(tt.view)}
			if tt.version != "" {
				opts = append(opts, APIVersion(tt.version))
			}
			c, err := NewClient("https://vmanage.example.com", opts...)
			if err != nil {
				t.Fatal(err)
			}
			logger.reset()

			err = c.checkSupport(context.Background(), newEP(tt.strict))
			switch want := tt.wantErr.(type) {
			case *VersionError:
				if !errors.As(err, &want) {
					t.Errorf("checkSupport() error = %v, want *VersionError", err)
				}
			case *ViewError:
				if !errors.As(err, &want) {
					t.Errorf("checkSupport() error = %v, want *ViewError", err)
				}
			default:
				if err != nil {
					t.Errorf("checkSupport() error = %v", err)
				}
			}
			if got := logger.count("WARN") > 0; got != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v (%v)", got, tt.wantWarn, logger.messages())
			}
		})
	}
}
