// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/netascode/go-catalystwan/endpoints"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEndpointsCommand(t *testing.T) {
	out, err := run(t, "endpoints")
	if err != nil {
		t.Fatalf("endpoints error = %v", err)
	}
	if !strings.Contains(out, "**catalystwan endpoints**") {
		t.Errorf("missing table header:\n%s", out)
	}
	if !strings.Contains(out, "GET /dataservice/tenant |") {
		t.Errorf("missing GET /tenant row:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "ENDPOINTS.md")
	if _, err := run(t, "endpoints", "-o", path); err != nil {
		t.Fatalf("endpoints -o error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Error("file output differs from stdout output")
	}
}

func TestEndpointsCheck(t *testing.T) {
	out, err := run(t, "endpoints", "--check")
	if err != nil {
		t.Fatalf("endpoints --check error = %v", err)
	}
	if !strings.Contains(out, "endpoints OK") {
		t.Errorf("output = %q", out)
	}
}

func TestConformCommand(t *testing.T) {
	doc := `openapi: 3.0.1
info:
  title: vManage
  version: "20.12"
paths:
  /dataservice/tenant:
    get:
      responses:
        "200":
          description: OK
`
	path := filepath.Join(t.TempDir(), "apidocs.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "conform", "--spec", path)
	if !errors.Is(err, errFindings) {
		t.Fatalf("conform error = %v, want errFindings", err)
	}
	if strings.Contains(out, "TenantManagement.GetAllTenants:") {
		t.Errorf("documented endpoint reported:\n%s", out)
	}
	if !strings.Contains(out, "TenantManagement.CreateTenant:") {
		t.Errorf("undocumented endpoint not reported:\n%s", out)
	}

	if _, err := run(t, "conform"); err == nil {
		t.Error("conform without --spec succeeded")
	}
}

func TestServerCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dataservice/client/server" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"platformVersion":"20.12.1","tenancyMode":"SingleTenant","user":"admin"}}`))
	}))
	defer server.Close()

	t.Setenv("CATALYSTWAN_CONFIG", "")
	t.Setenv("CATALYSTWAN_URL", server.URL)
	t.Setenv("CATALYSTWAN_TOKEN", "tok")

	out, err := run(t, "server", "--log-level", "debug")
	if err != nil {
		t.Fatalf("server error = %v", err)
	}
	if !strings.Contains(out, `"platformVersion": "20.12.1"`) {
		t.Errorf("output = %s", out)
	}
}

func TestTenantsCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"acme","orgName":"ACME Inc","subDomain":"acme.example.com","tenantId":"t1","state":"READY"}]`))
	}))
	defer server.Close()

	t.Setenv("CATALYSTWAN_CONFIG", "")
	t.Setenv("CATALYSTWAN_URL", server.URL)
	t.Setenv("CATALYSTWAN_SESSION_COOKIE", "sess")

	out, err := run(t, "tenants")
	if err != nil {
		t.Fatalf("tenants error = %v", err)
	}
	if !strings.Contains(out, "acme.example.com") || !strings.Contains(out, "TENANT ID") {
		t.Errorf("output = %s", out)
	}
}

func TestTaskWaitCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"status":"Success","host-name":"edge1"}],"summary":{"status":"done","count":{"Success":1}}}`))
	}))
	defer server.Close()

	t.Setenv("CATALYSTWAN_CONFIG", "")
	t.Setenv("CATALYSTWAN_URL", server.URL)
	t.Setenv("CATALYSTWAN_TOKEN", "tok")

	out, err := run(t, "task", "wait", "task-1", "--interval", "10ms", "--timeout", "1s")
	if err != nil {
		t.Fatalf("task wait error = %v", err)
	}
	if !strings.Contains(out, `"status": "done"`) {
		t.Errorf("output = %s", out)
	}
	if endpoints.DefaultPollInterval <= 0 {
		t.Error("DefaultPollInterval must be positive")
	}
}

func TestConnectRequiresConfig(t *testing.T) {
	t.Setenv("CATALYSTWAN_CONFIG", "")
	t.Setenv("CATALYSTWAN_URL", "")
	if _, err := run(t, "server"); err == nil {
		t.Error("server without configuration succeeded")
	}
}
