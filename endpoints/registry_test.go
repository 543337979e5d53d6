// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	catalystwan "github.com/netascode/go-catalystwan"
)

// newTestAPI starts a fake controller and returns the endpoint groups bound to it
func newTestAPI(t *testing.T, handler http.HandlerFunc, opts ...func(*catalystwan.Client)) (*API, *catalystwan.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := []func(*catalystwan.Client){
		catalystwan.Authenticator(catalystwan.NewSessionAuth("sess", "xsrf")),
		catalystwan.BackoffMinDelay(time.Millisecond),
		catalystwan.BackoffMaxDelay(5 * time.Millisecond),
	}
	client, err := catalystwan.NewClient(srv.URL, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return New(client), client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestRegistryIsValid(t *testing.T) {
	if err := Registry.Validate(); err != nil {
		t.Fatalf("Registry.Validate() error = %v", err)
	}
	if Registry.Len() < 30 {
		t.Errorf("Registry.Len() = %d, want all declared endpoints", Registry.Len())
	}
}

func TestRegistryLookup(t *testing.T) {
	tests := []struct {
		method, path string
		want         *catalystwan.Endpoint
	}{
		{"GET", "/tenant", GetAllTenants},
		{"post", "/tenant", CreateTenant},
		{"POST", "/tenant/bulk/async", CreateTenantAsyncBulk},
		{"DELETE", "/tenant/bulk/async", DeleteTenantAsyncBulk},
		{"GET", "/device/action/status/{taskId}", GetTaskStatus},
		{"GET", "/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}", GetPolicyObjectParcels},
	}
	for _, tt := range tests {
		got, ok := Registry.Lookup(tt.method, tt.path)
		if !ok || got != tt.want {
			t.Errorf("Lookup(%s %s) = %v, %v", tt.method, tt.path, got, ok)
		}
	}
	if ep, ok := Registry.ByName("TenantManagement", "GetVSessionID"); !ok || ep != GetVSessionID {
		t.Errorf("ByName() = %v, %v", ep, ok)
	}
	if _, ok := Registry.Lookup("GET", "/tenant/unknown"); ok {
		t.Error("Lookup() found an undeclared endpoint")
	}
}

func TestRegistryMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Registry.WriteMarkdown(&buf); err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"| POST /dataservice/tenant/bulk/async | >=20.4 | TenantManagement.CreateTenantAsyncBulk | []Tenant | TenantTaskID | provider |",
		"| GET /dataservice/client/server |  | Server.GetServerInfo |  | ServerInfo |  |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing row %q", want)
		}
	}
}

func TestNew(t *testing.T) {
	client, err := catalystwan.NewClient("https://vmanage.example.com")
	if err != nil {
		t.Fatal(err)
	}
	api := New(client)
	if api.TenantManagement == nil || api.Tasks == nil || api.PolicyObjects == nil ||
		api.DeviceInventory == nil || api.Templates == nil || api.Configuration == nil ||
		api.Statistics == nil || api.Server == nil || api.DisasterRecovery == nil {
		t.Errorf("New() left groups unset: %+v", api)
	}
}
