// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package catalystwan provides a declarative client for the Cisco Catalyst SD-WAN
// Manager (vManage) REST API.
//
// Every supported operation is described once as an Endpoint: HTTP method, path
// template below /dataservice, optional payload type, optional return type, supported
// API versions and the session views (tenancy modes) it is valid for. Endpoints are
// collected in a Registry and invoked through a Client, which handles transport,
// retry with exponential backoff, JSON encoding/decoding and log redaction.
//
// # Quick Start
//
// Create a client with a pre-established session and call an endpoint:
//
//	client, err := catalystwan.NewClient(
//	    "https://vmanage.example.com:8443",
//	    catalystwan.Authenticator(catalystwan.NewSessionAuth(jsessionID, xsrfToken)),
//	    catalystwan.VerifyCertificate(false),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	info, err := client.Server(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Platform version:", info.PlatformVersion)
//
// # Declaring Endpoints
//
// Endpoints are static data. A package typically declares them once and registers
// them in a shared Registry:
//
//	var reg = catalystwan.NewRegistry()
//
//	var getTenants = reg.MustRegister(catalystwan.NewEndpoint(
//	    "TenantManagement", "GetAllTenants", http.MethodGet, "/tenant",
//	    catalystwan.ReturnsSeq[Tenant](),
//	    catalystwan.Views(catalystwan.ProviderView),
//	))
//
//	tenants, err := catalystwan.CallSeq[Tenant](ctx, client, getTenants, catalystwan.Input{})
//
// Path placeholders are written in braces and must be declared with PathArgs:
//
//	var updateTenant = reg.MustRegister(catalystwan.NewEndpoint(
//	    "TenantManagement", "UpdateTenant", http.MethodPut, "/tenant/{tenantId}",
//	    catalystwan.Payload[TenantUpdateRequest](),
//	    catalystwan.Returns[Tenant](),
//	    catalystwan.PathArgs("tenantId"),
//	))
//
// The ready-made endpoint tables live in the endpoints sub-package.
//
// # JSON Manipulation
//
// Use the Body builder for ad-hoc payloads and gjson paths on responses:
//
//	body := catalystwan.Body{}.
//	    Set("name", "corp-prefixes").
//	    Set("data.entries.0.ipv4Address.value", "10.0.0.0")
//
//	res, err := client.Post(ctx, "/v1/feature-profile/sdwan/policy-object/"+id+"/security-data-ip-prefix", body)
//	parcelID := res.Get("parcelId").String()
//
// # Error Handling
//
// Failed HTTP calls return *APIError carrying the status code and the error
// models reported by the controller. Transient failures (connection errors,
// timeouts, HTTP 429/502/503/504) are retried automatically:
//
//	var apiErr *catalystwan.APIError
//	if errors.As(err, &apiErr) {
//	    fmt.Printf("status=%d retries=%d\n", apiErr.StatusCode, apiErr.Retries)
//	}
//
// # Concurrency
//
// The Client is safe for concurrent use. Read requests run in parallel, while
// mutating requests (POST, PUT, PATCH, DELETE) are serialized.
//
// # Logging
//
// Logging is disabled by default. Enable it with WithLogger; request and
// response bodies logged at Debug level are redacted of passwords, secrets,
// keys and tokens.
package catalystwan
