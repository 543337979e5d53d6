// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	catalystwan "github.com/netascode/go-catalystwan"
)

// ClusterInfoDevice is one controller of a disaster recovery cluster
type ClusterInfoDevice struct {
	Hostname         string `json:"host-name"`
	DeviceIP         string `json:"deviceIP"`
	State            string `json:"state"`
	IsCurrentVManage bool   `json:"isCurrentVManage"`
}

// Validate implements validation.Validatable
func (d ClusterInfoDevice) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Hostname, validation.Required),
		validation.Field(&d.DeviceIP, validation.Required),
	)
}

// ClusterInfo lists the primary and secondary clusters
type ClusterInfo struct {
	Primary   []ClusterInfoDevice `json:"primary"`
	Secondary []ClusterInfoDevice `json:"secondary"`
}

// Validate implements validation.Validatable
func (c ClusterInfo) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Primary),
		validation.Field(&c.Secondary),
	)
}

// Current returns the controller that served the request, if listed
func (c ClusterInfo) Current() (ClusterInfoDevice, bool) {
	for _, group := range [][]ClusterInfoDevice{c.Primary, c.Secondary} {
		for _, d := range group {
			if d.IsCurrentVManage {
				return d, true
			}
		}
	}
	return ClusterInfoDevice{}, false
}

// GetClusterInfo reads the disaster recovery cluster layout
var GetClusterInfo = register(catalystwan.NewEndpoint("DisasterRecovery", "GetClusterInfo",
	http.MethodGet, "/disasterrecovery/clusterInfo",
	catalystwan.Returns[ClusterInfo](),
	catalystwan.ResponseKey("clusterInfo")))

// DisasterRecovery reads disaster recovery configuration
type DisasterRecovery struct {
	client *catalystwan.Client
}

// GetClusterInfo returns the primary and secondary cluster members
func (api *DisasterRecovery) GetClusterInfo(ctx context.Context) (ClusterInfo, error) {
	return catalystwan.Call[ClusterInfo](ctx, api.client, GetClusterInfo, catalystwan.Input{})
}
