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

const groupTemplates = "Templates"

// DeviceTemplateInfo is a row of the device template list
type DeviceTemplateInfo struct {
	TemplateID          string `json:"templateId"`
	TemplateName        string `json:"templateName"`
	TemplateDescription string `json:"templateDescription"`
	DeviceType          string `json:"deviceType"`
	DeviceRole          string `json:"deviceRole,omitempty"`
	ConfigType          string `json:"configType"`
	FactoryDefault      bool   `json:"factoryDefault"`
	DevicesAttached     int    `json:"devicesAttached"`
	TemplateAttached    int    `json:"templateAttached"`
	LastUpdatedBy       string `json:"lastUpdatedBy"`
	LastUpdatedOn       int64  `json:"lastUpdatedOn"`
}

// GeneralTemplate references a feature template from a device template
type GeneralTemplate struct {
	TemplateID   string            `json:"templateId,omitempty"`
	TemplateType string            `json:"templateType"`
	Name         string            `json:"name,omitempty"`
	SubTemplates []GeneralTemplate `json:"subTemplates,omitempty"`
}

// Validate implements validation.Validatable
func (g GeneralTemplate) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.TemplateType, validation.Required),
		validation.Field(&g.SubTemplates),
	)
}

// DeviceTemplate is a feature-based device template
type DeviceTemplate struct {
	TemplateName        string            `json:"templateName"`
	TemplateDescription string            `json:"templateDescription"`
	DeviceType          string            `json:"deviceType"`
	DeviceRole          string            `json:"deviceRole,omitempty"`
	ConfigType          string            `json:"configType,omitempty"`
	FactoryDefault      bool              `json:"factoryDefault"`
	PolicyID            string            `json:"policyId"`
	SecurityPolicyID    string            `json:"securityPolicyId,omitempty"`
	GeneralTemplates    []GeneralTemplate `json:"generalTemplates"`
}

// Validate implements validation.Validatable
func (t DeviceTemplate) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.TemplateName, validation.Required, validation.Length(1, 128)),
		validation.Field(&t.TemplateDescription, validation.Required),
		validation.Field(&t.DeviceType, validation.Required),
		validation.Field(&t.GeneralTemplates),
	)
}

// TemplateID identifies a created template
type TemplateID struct {
	TemplateID string `json:"templateId"`
}

// Template endpoints
var (
	ListDeviceTemplates = register(catalystwan.NewEndpoint(groupTemplates, "ListDeviceTemplates",
		http.MethodGet, "/template/device",
		catalystwan.ReturnsSeq[DeviceTemplateInfo](),
		catalystwan.ResponseKey("data")))

	GetDeviceTemplate = register(catalystwan.NewEndpoint(groupTemplates, "GetDeviceTemplate",
		http.MethodGet, "/template/device/object/{templateId}",
		catalystwan.Returns[DeviceTemplate](),
		catalystwan.PathArgs("templateId")))

	CreateDeviceTemplate = register(catalystwan.NewEndpoint(groupTemplates, "CreateDeviceTemplate",
		http.MethodPost, "/template/device/feature",
		catalystwan.Payload[DeviceTemplate](),
		catalystwan.Returns[TemplateID]()))

	DeleteDeviceTemplate = register(catalystwan.NewEndpoint(groupTemplates, "DeleteDeviceTemplate",
		http.MethodDelete, "/template/device/{templateId}",
		catalystwan.PathArgs("templateId")))

	ExportDeviceTemplatesCSV = register(catalystwan.NewEndpoint(groupTemplates, "ExportDeviceTemplatesCSV",
		http.MethodGet, "/template/device/config/exportcsv",
		catalystwan.Returns[[]byte]()))
)

// Templates manages device templates
type Templates struct {
	client *catalystwan.Client
}

// List returns all device templates
func (api *Templates) List(ctx context.Context) ([]DeviceTemplateInfo, error) {
	return catalystwan.CallSeq[DeviceTemplateInfo](ctx, api.client, ListDeviceTemplates, catalystwan.Input{})
}

// Get returns a device template definition
func (api *Templates) Get(ctx context.Context, templateID string) (DeviceTemplate, error) {
	return catalystwan.Call[DeviceTemplate](ctx, api.client, GetDeviceTemplate, catalystwan.Input{
		Path: map[string]string{"templateId": templateID},
	})
}

// Create creates a feature-based device template and returns its ID
func (api *Templates) Create(ctx context.Context, tmpl DeviceTemplate) (string, error) {
	if err := tmpl.Validate(); err != nil {
		return "", fmt.Errorf("invalid device template: %w", err)
	}
	id, err := catalystwan.Call[TemplateID](ctx, api.client, CreateDeviceTemplate, catalystwan.Input{Payload: tmpl})
	if err != nil {
		return "", err
	}
	return id.TemplateID, nil
}

// Delete removes a device template
func (api *Templates) Delete(ctx context.Context, templateID string) error {
	return catalystwan.CallNoContent(ctx, api.client, DeleteDeviceTemplate, catalystwan.Input{
		Path: map[string]string{"templateId": templateID},
	})
}

// ExportCSV downloads the device template variables as CSV
func (api *Templates) ExportCSV(ctx context.Context) ([]byte, error) {
	return catalystwan.CallBytes(ctx, api.client, ExportDeviceTemplatesCSV, catalystwan.Input{})
}
