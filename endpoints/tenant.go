// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	catalystwan "github.com/netascode/go-catalystwan"
)

const groupTenantManagement = "TenantManagement"

// Tenant is a tenant of a multi-tenant controller
type Tenant struct {
	Name                             string `json:"name"`
	Desc                             string `json:"desc"`
	OrgName                          string `json:"orgName"`
	SubDomain                        string `json:"subDomain"`
	WANEdgeForecast                  int    `json:"wanEdgeForecast,omitempty"`
	EdgeConnectorEnable              bool   `json:"edgeConnectorEnable,omitempty"`
	EdgeConnectorSystemIP            string `json:"edgeConnectorSystemIp,omitempty"`
	EdgeConnectorTunnelInterfaceName string `json:"edgeConnectorTunnelInterfaceName,omitempty"`
	TenantID                         string `json:"tenantId,omitempty"`
	FlakeID                          int    `json:"flakeId,omitempty"`
	State                            string `json:"state,omitempty"`
	Mode                             string `json:"mode,omitempty"`
	CreatedAt                        int64  `json:"createdAt,omitempty"`

	VSmarts []string `json:"vSmarts,omitempty"`
}

// Validate implements validation.Validatable
func (t Tenant) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&t.OrgName, validation.Required),
		validation.Field(&t.SubDomain, validation.Required),
		validation.Field(&t.Desc, validation.Length(0, 256)),
		validation.Field(&t.WANEdgeForecast, validation.Min(0)),
	)
}

// TenantTaskID identifies an asynchronous tenant operation
type TenantTaskID struct {
	ID string `json:"id"`
}

// TenantUpdateRequest changes the mutable attributes of a tenant
type TenantUpdateRequest struct {
	TenantID                         string `json:"tenantId"`
	SubDomain                        string `json:"subDomain"`
	Desc                             string `json:"desc"`
	WANEdgeForecast                  int    `json:"wanEdgeForecast"`
	EdgeConnectorEnable              bool   `json:"edgeConnectorEnable"`
	EdgeConnectorSystemIP            string `json:"edgeConnectorSystemIp,omitempty"`
	EdgeConnectorTunnelInterfaceName string `json:"edgeConnectorTunnelInterfaceName,omitempty"`
}

// Validate implements validation.Validatable
func (r TenantUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TenantID, validation.Required),
		validation.Field(&r.SubDomain, validation.Required),
	)
}

// TenantBulkDeleteRequest deletes several tenants asynchronously
type TenantBulkDeleteRequest struct {
	Password     string   `json:"password"`
	TenantIDList []string `json:"tenantIdList"`
}

// DeleteTenantRequest deletes a single tenant
type DeleteTenantRequest struct {
	Password string `json:"password"`
}

// ControlStatus counts tenant control connections
type ControlStatus struct {
	ControlUp   int `json:"controlUp"`
	ControlDown int `json:"controlDown"`
	Partial     int `json:"partial"`
}

// SiteHealth counts tenant sites by connectivity
type SiteHealth struct {
	FullConnectivity    int `json:"fullConnectivity"`
	PartialConnectivity int `json:"partialConnectivity"`
	NoConnectivity      int `json:"noConnectivity"`
}

// VEdgeHealth counts tenant edges by health
type VEdgeHealth struct {
	Normal  int `json:"normal"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// VSmartStatus counts tenant controllers by state
type VSmartStatus struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// TenantStatus is the health summary of one tenant
type TenantStatus struct {
	TenantID      string        `json:"tenantId"`
	TenantName    string        `json:"tenantName"`
	ControlStatus ControlStatus `json:"controlStatus"`
	SiteHealth    SiteHealth    `json:"siteHealth"`
	VEdgeHealth   VEdgeHealth   `json:"vEdgeHealth"`
	VSmartStatus  VSmartStatus  `json:"vSmartStatus"`
}

// VSmartTenantCapacity is the tenant capacity of one vSmart
type VSmartTenantCapacity struct {
	VSmartUUID          string `json:"vSmartUuid"`
	TotalTenantCapacity int    `json:"totalTenantCapacity"`
	CurrentTenantCount  int    `json:"currentTenantCount"`
}

// VSmartTenantMap maps vSmart UUIDs to the tenants they host
type VSmartTenantMap struct {
	Data map[string][]Tenant `json:"data"`
}

// VSmartPlacementUpdateRequest moves a tenant between vSmarts
type VSmartPlacementUpdateRequest struct {
	SrcVSmartUUID  string `json:"srcvSmartUuid"`
	DestVSmartUUID string `json:"destvSmartUuid"`
}

// Validate implements validation.Validatable
func (r VSmartPlacementUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SrcVSmartUUID, validation.Required),
		validation.Field(&r.DestVSmartUUID, validation.Required),
	)
}

// VSessionID scopes provider requests to a tenant
type VSessionID struct {
	VSessionID string `json:"VSessionId"`
}

var providerOnly = catalystwan.Views(catalystwan.ProviderView)

// Tenant management endpoints
var (
	GetAllTenants = register(catalystwan.NewEndpoint(groupTenantManagement, "GetAllTenants",
		http.MethodGet, "/tenant",
		catalystwan.ReturnsSeq[Tenant](),
		providerOnly))

	CreateTenant = register(catalystwan.NewEndpoint(groupTenantManagement, "CreateTenant",
		http.MethodPost, "/tenant",
		catalystwan.Payload[Tenant](),
		catalystwan.Returns[Tenant](),
		providerOnly))

	CreateTenantAsyncBulk = register(catalystwan.NewEndpoint(groupTenantManagement, "CreateTenantAsyncBulk",
		http.MethodPost, "/tenant/bulk/async",
		catalystwan.PayloadSeq[Tenant](),
		catalystwan.Returns[TenantTaskID](),
		catalystwan.Versions(">=20.4"),
		providerOnly))

	DeleteTenantAsyncBulk = register(catalystwan.NewEndpoint(groupTenantManagement, "DeleteTenantAsyncBulk",
		http.MethodDelete, "/tenant/bulk/async",
		catalystwan.Payload[TenantBulkDeleteRequest](),
		catalystwan.Returns[TenantTaskID](),
		catalystwan.Versions(">=20.4"),
		providerOnly))

	UpdateTenant = register(catalystwan.NewEndpoint(groupTenantManagement, "UpdateTenant",
		http.MethodPut, "/tenant/{tenantId}",
		catalystwan.Payload[TenantUpdateRequest](),
		catalystwan.Returns[Tenant](),
		catalystwan.PathArgs("tenantId"),
		providerOnly))

	DeleteTenant = register(catalystwan.NewEndpoint(groupTenantManagement, "DeleteTenant",
		http.MethodPost, "/tenant/{tenantId}/delete",
		catalystwan.Payload[DeleteTenantRequest](),
		catalystwan.PathArgs("tenantId"),
		providerOnly))

	GetAllTenantStatuses = register(catalystwan.NewEndpoint(groupTenantManagement, "GetAllTenantStatuses",
		http.MethodGet, "/tenantstatus",
		catalystwan.ReturnsSeq[TenantStatus](),
		catalystwan.ResponseKey("data"),
		providerOnly))

	GetTenantHostingCapacityOnVSmarts = register(catalystwan.NewEndpoint(groupTenantManagement, "GetTenantHostingCapacityOnVSmarts",
		http.MethodGet, "/tenant/vsmart/capacity",
		catalystwan.ReturnsSeq[VSmartTenantCapacity](),
		catalystwan.ResponseKey("data"),
		providerOnly))

	GetTenantVSmartMapping = register(catalystwan.NewEndpoint(groupTenantManagement, "GetTenantVSmartMapping",
		http.MethodGet, "/tenant/vsmart",
		catalystwan.Returns[VSmartTenantMap](),
		providerOnly))

	UpdateTenantVSmartPlacement = register(catalystwan.NewEndpoint(groupTenantManagement, "UpdateTenantVSmartPlacement",
		http.MethodPut, "/tenant/{tenantId}/vsmart",
		catalystwan.Payload[VSmartPlacementUpdateRequest](),
		catalystwan.PathArgs("tenantId"),
		providerOnly))

	GetVSessionID = register(catalystwan.NewEndpoint(groupTenantManagement, "GetVSessionID",
		http.MethodPost, "/tenant/{tenantId}/vsessionid",
		catalystwan.Returns[VSessionID](),
		catalystwan.PathArgs("tenantId"),
		catalystwan.Views(catalystwan.ProviderView, catalystwan.ProviderAsTenantView)))
)

// TenantManagement manages tenants of a multi-tenant controller
type TenantManagement struct {
	client *catalystwan.Client
}

// Get lists all tenants
func (api *TenantManagement) Get(ctx context.Context) ([]Tenant, error) {
	return catalystwan.CallSeq[Tenant](ctx, api.client, GetAllTenants, catalystwan.Input{})
}

// CreateOne creates a single tenant synchronously
func (api *TenantManagement) CreateOne(ctx context.Context, tenant Tenant) (Tenant, error) {
	if err := tenant.Validate(); err != nil {
		return Tenant{}, fmt.Errorf("invalid tenant: %w", err)
	}
	return catalystwan.Call[Tenant](ctx, api.client, CreateTenant, catalystwan.Input{Payload: tenant})
}

// Create creates tenants asynchronously and returns the task to wait for
func (api *TenantManagement) Create(ctx context.Context, tenants []Tenant) (*Task, error) {
	if len(tenants) == 0 {
		return nil, fmt.Errorf("tenants cannot be empty")
	}
	for i, t := range tenants {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("invalid tenant at index %d: %w", i, err)
		}
	}
	id, err := catalystwan.Call[TenantTaskID](ctx, api.client, CreateTenantAsyncBulk, catalystwan.Input{Payload: tenants})
	if err != nil {
		return nil, err
	}
	return NewTask(api.client, id.ID), nil
}

// Update changes a tenant identified by req.TenantID
func (api *TenantManagement) Update(ctx context.Context, req TenantUpdateRequest) (Tenant, error) {
	if err := req.Validate(); err != nil {
		return Tenant{}, fmt.Errorf("invalid tenant update: %w", err)
	}
	return catalystwan.Call[Tenant](ctx, api.client, UpdateTenant, catalystwan.Input{
		Path:    map[string]string{"tenantId": req.TenantID},
		Payload: req,
	})
}

// Delete removes tenants asynchronously. password is the provider password
// the controller requires to confirm the deletion.
func (api *TenantManagement) Delete(ctx context.Context, tenantIDs []string, password string) (*Task, error) {
	if len(tenantIDs) == 0 {
		return nil, fmt.Errorf("tenant IDs cannot be empty")
	}
	id, err := catalystwan.Call[TenantTaskID](ctx, api.client, DeleteTenantAsyncBulk, catalystwan.Input{
		Payload: TenantBulkDeleteRequest{Password: password, TenantIDList: tenantIDs},
	})
	if err != nil {
		return nil, err
	}
	return NewTask(api.client, id.ID), nil
}

// DeleteOne removes a single tenant synchronously
func (api *TenantManagement) DeleteOne(ctx context.Context, tenantID, password string) error {
	return catalystwan.CallNoContent(ctx, api.client, DeleteTenant, catalystwan.Input{
		Path:    map[string]string{"tenantId": tenantID},
		Payload: DeleteTenantRequest{Password: password},
	})
}

// GetStatuses returns the health summary of all tenants
func (api *TenantManagement) GetStatuses(ctx context.Context) ([]TenantStatus, error) {
	return catalystwan.CallSeq[TenantStatus](ctx, api.client, GetAllTenantStatuses, catalystwan.Input{})
}

// GetHostingCapacityOnVSmarts returns the tenant capacity of every vSmart
func (api *TenantManagement) GetHostingCapacityOnVSmarts(ctx context.Context) ([]VSmartTenantCapacity, error) {
	return catalystwan.CallSeq[VSmartTenantCapacity](ctx, api.client, GetTenantHostingCapacityOnVSmarts, catalystwan.Input{})
}

// GetVSmartMapping returns which vSmarts host which tenants
func (api *TenantManagement) GetVSmartMapping(ctx context.Context) (VSmartTenantMap, error) {
	return catalystwan.Call[VSmartTenantMap](ctx, api.client, GetTenantVSmartMapping, catalystwan.Input{})
}

// UpdateVSmartPlacement moves a tenant from one vSmart to another
func (api *TenantManagement) UpdateVSmartPlacement(ctx context.Context, tenantID, srcVSmartUUID, dstVSmartUUID string) error {
	req := VSmartPlacementUpdateRequest{SrcVSmartUUID: srcVSmartUUID, DestVSmartUUID: dstVSmartUUID}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid vSmart placement: %w", err)
	}
	return catalystwan.CallNoContent(ctx, api.client, UpdateTenantVSmartPlacement, catalystwan.Input{
		Path:    map[string]string{"tenantId": tenantID},
		Payload: req,
	})
}

// VSessionID returns a VSessionId that scopes provider requests to the
// tenant; pass it with catalystwan.VSession.
func (api *TenantManagement) VSessionID(ctx context.Context, tenantID string) (string, error) {
	res, err := catalystwan.Call[VSessionID](ctx, api.client, GetVSessionID, catalystwan.Input{
		Path: map[string]string{"tenantId": tenantID},
	})
	if err != nil {
		return "", err
	}
	return res.VSessionID, nil
}
