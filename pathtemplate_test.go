// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"strings"
	"testing"
)

func TestParsePathTemplate(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantParams []string
		wantErr    string
	}{
		{name: "static", path: "/tenant", wantParams: []string{}},
		{name: "one placeholder", path: "/tenant/{tenantId}/vsmart", wantParams: []string{"tenantId"}},
		{
			name:       "adjacent segments",
			path:       "/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}/{parcelId}",
			wantParams: []string{"profileId", "parcelType", "parcelId"},
		},
		{name: "placeholder inside segment", path: "/device/{uuid}.json", wantParams: []string{"uuid"}},
		{name: "relative", path: "tenant", wantErr: "must start with '/'"},
		{name: "empty", path: "", wantErr: "must start with '/'"},
		{name: "unclosed", path: "/tenant/{tenantId", wantErr: "unclosed"},
		{name: "unmatched", path: "/tenant/tenantId}", wantErr: "unmatched"},
		{name: "nested", path: "/tenant/{ten{ant}Id}", wantErr: "nested"},
		{name: "empty name", path: "/tenant/{}", wantErr: "invalid placeholder name"},
		{name: "bad name", path: "/tenant/{tenant id}", wantErr: "invalid placeholder name"},
		{name: "duplicate", path: "/a/{id}/b/{id}", wantErr: "duplicate placeholder"},
		{name: "traversal", path: "/a/../b", wantErr: "traversal"},
		{name: "null byte", path: "/a\x00b", wantErr: "null byte"},
		{name: "too long", path: "/" + strings.Repeat("a", MaxPathLength), wantErr: "maximum length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParsePathTemplate(tt.path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParsePathTemplate(%q) error = %v, want %q", tt.path, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePathTemplate(%q) error = %v", tt.path, err)
			}
			got := tmpl.Placeholders()
			if len(got) != len(tt.wantParams) {
				t.Fatalf("Placeholders() = %v, want %v", got, tt.wantParams)
			}
			for i := range got {
				if got[i] != tt.wantParams[i] {
					t.Errorf("Placeholders()[%d] = %q, want %q", i, got[i], tt.wantParams[i])
				}
			}
			if tmpl.String() != tt.path {
				t.Errorf("String() = %q, want %q", tmpl.String(), tt.path)
			}
		})
	}
}

func TestPathTemplateExpand(t *testing.T) {
	tmpl, err := ParsePathTemplate("/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    map[string]string
		want    string
		wantErr string
	}{
		{
			name: "simple",
			args: map[string]string{"profileId": "p1", "parcelType": "security-fqdn"},
			want: "/v1/feature-profile/sdwan/policy-object/p1/security-fqdn",
		},
		{
			name: "value spanning segments",
			args: map[string]string{"profileId": "p1", "parcelType": "unified/url-filtering"},
			want: "/v1/feature-profile/sdwan/policy-object/p1/unified/url-filtering",
		},
		{
			name: "escaped",
			args: map[string]string{"profileId": "a b?c", "parcelType": "x#y"},
			want: "/v1/feature-profile/sdwan/policy-object/a%20b%3Fc/x%23y",
		},
		{
			name:    "missing",
			args:    map[string]string{"profileId": "p1"},
			wantErr: `missing path argument "parcelType"`,
		},
		{
			name:    "empty value",
			args:    map[string]string{"profileId": "", "parcelType": "x"},
			wantErr: "cannot be empty",
		},
		{
			name:    "unknown",
			args:    map[string]string{"profileId": "p1", "parcelType": "x", "other": "y"},
			wantErr: "unknown path arguments [other]",
		},
		{
			name:    "traversal in value",
			args:    map[string]string{"profileId": "..", "parcelType": "x"},
			wantErr: "invalid path segment",
		},
		{
			name:    "empty segment in value",
			args:    map[string]string{"profileId": "p1", "parcelType": "a//b"},
			wantErr: "invalid path segment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmpl.Expand(tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expand() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}
