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

// Device categories accepted by ListDeviceDetails
const (
	DeviceCategoryVEdges      = "vedges"
	DeviceCategoryControllers = "controllers"
)

// Device is a row of the device inventory
type Device struct {
	DeviceID      string `json:"deviceId"`
	SystemIP      string `json:"system-ip"`
	HostName      string `json:"host-name"`
	Reachability  string `json:"reachability"`
	Status        string `json:"status"`
	Personality   string `json:"personality"`
	DeviceType    string `json:"device-type"`
	UUID          string `json:"uuid"`
	Version       string `json:"version"`
	SiteID        string `json:"site-id"`
	DeviceModel   string `json:"device-model"`
	State         string `json:"state"`
	BoardSerial   string `json:"board-serial,omitempty"`
	LocalSystemIP string `json:"local-system-ip,omitempty"`
}

// Validate implements validation.Validatable
func (d Device) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.DeviceID, validation.Required),
		validation.Field(&d.UUID, validation.Required),
	)
}

// Reachable reports whether the controller can reach the device
func (d Device) Reachable() bool {
	return d.Reachability == "reachable"
}

// DeviceDetails is a row of the system device list
type DeviceDetails struct {
	UUID                string `json:"uuid"`
	DeviceIP            string `json:"deviceIP,omitempty"`
	HostName            string `json:"host-name,omitempty"`
	DeviceModel         string `json:"deviceModel"`
	ChassisNumber       string `json:"chasisNumber,omitempty"`
	SerialNumber        string `json:"serialNumber,omitempty"`
	ConfigStatusMessage string `json:"configStatusMessage,omitempty"`
	Personality         string `json:"personality,omitempty"`
	Reachability        string `json:"reachability,omitempty"`
	TemplateID          string `json:"templateId,omitempty"`
	Template            string `json:"template,omitempty"`
	Version             string `json:"version,omitempty"`
	DeviceState         string `json:"deviceState,omitempty"`
	ValidityState       string `json:"validity,omitempty"`
	ManageConnection    string `json:"manageConnectionState,omitempty"`
}

// Device inventory endpoints
var (
	ListDevices = register(catalystwan.NewEndpoint("DeviceInventory", "ListDevices",
		http.MethodGet, "/device",
		catalystwan.ReturnsSeq[Device](),
		catalystwan.ResponseKey("data")))

	ListDeviceDetails = register(catalystwan.NewEndpoint("DeviceInventory", "ListDeviceDetails",
		http.MethodGet, "/system/device/{deviceCategory}",
		catalystwan.ReturnsSeq[DeviceDetails](),
		catalystwan.ResponseKey("data"),
		catalystwan.PathArgs("deviceCategory")))
)

// DeviceQuery filters the device inventory
type DeviceQuery struct {
	Personality  string `json:"personality,omitempty"`
	Reachability string `json:"reachability,omitempty"`
	SiteID       string `json:"site-id,omitempty"`
	DeviceType   string `json:"device-type,omitempty"`
}

// DeviceInventory reads the device inventory
type DeviceInventory struct {
	client *catalystwan.Client
}

// List returns all devices known to the controller, optionally filtered
func (api *DeviceInventory) List(ctx context.Context, query *DeviceQuery) ([]Device, error) {
	in := catalystwan.Input{}
	if query != nil {
		in.Params = query
	}
	return catalystwan.CallSeq[Device](ctx, api.client, ListDevices, in)
}

// Details returns the system device list of a category ("vedges" or "controllers")
func (api *DeviceInventory) Details(ctx context.Context, category string) ([]DeviceDetails, error) {
	err := validation.Validate(category,
		validation.Required,
		validation.In(DeviceCategoryVEdges, DeviceCategoryControllers))
	if err != nil {
		return nil, fmt.Errorf("invalid device category %q: %w", category, err)
	}
	return catalystwan.CallSeq[DeviceDetails](ctx, api.client, ListDeviceDetails, catalystwan.Input{
		Path: map[string]string{"deviceCategory": category},
	})
}
