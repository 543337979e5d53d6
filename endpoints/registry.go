// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package endpoints declares the supported vManage API operations and wraps
// them in typed API groups.
//
// All declarations are registered in Registry at package initialisation:
//
//	client, _ := catalystwan.NewClient(url, catalystwan.Authenticator(auth))
//	api := endpoints.New(client)
//
//	tenants, err := api.TenantManagement.Get(ctx)
//
// Every declaration is also exported, so it can be invoked directly:
//
//	tenants, err := catalystwan.CallSeq[endpoints.Tenant](ctx, client,
//	    endpoints.GetAllTenants, catalystwan.Input{})
package endpoints

import (
	catalystwan "github.com/netascode/go-catalystwan"
)

// Registry holds every endpoint declared by this package
var Registry = catalystwan.NewRegistry()

func register(ep *catalystwan.Endpoint) *catalystwan.Endpoint {
	return Registry.MustRegister(ep)
}

// API bundles the endpoint groups for one client
type API struct {
	TenantManagement *TenantManagement
	DisasterRecovery *DisasterRecovery
	Server           *Server
	DeviceInventory  *DeviceInventory
	Templates        *Templates
	PolicyObjects    *PolicyObjectFeatureProfile
	Configuration    *Configuration
	Statistics       *Statistics
	Tasks            *Tasks
}

// New creates all endpoint groups on top of client
func New(client *catalystwan.Client) *API {
	return &API{
		TenantManagement: &TenantManagement{client: client},
		DisasterRecovery: &DisasterRecovery{client: client},
		Server:           &Server{client: client},
		DeviceInventory:  &DeviceInventory{client: client},
		Templates:        &Templates{client: client},
		PolicyObjects:    &PolicyObjectFeatureProfile{client: client},
		Configuration:    &Configuration{client: client},
		Statistics:       &Statistics{client: client},
		Tasks:            &Tasks{client: client},
	}
}

// Header is the metadata block vManage adds to list responses
type Header struct {
	GeneratedOn int64 `json:"generatedOn"`
}
