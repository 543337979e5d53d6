// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"net/http"

	catalystwan "github.com/netascode/go-catalystwan"
)

// Configuration and statistics endpoints
var (
	GetRunningConfig = register(catalystwan.NewEndpoint("Configuration", "GetRunningConfig",
		http.MethodGet, "/template/config/running/{deviceId}",
		catalystwan.Returns[string](),
		catalystwan.PathArgs("deviceId")))

	GetStatisticsSettingsStatus = register(catalystwan.NewEndpoint("Statistics", "GetSettingsStatus",
		http.MethodGet, "/statistics/settings/status",
		catalystwan.Returns[map[string]any]()))
)

// Configuration reads device configuration
type Configuration struct {
	client *catalystwan.Client
}

// RunningConfig returns the running configuration of a device as text
func (api *Configuration) RunningConfig(ctx context.Context, deviceID string) (string, error) {
	return catalystwan.CallText(ctx, api.client, GetRunningConfig, catalystwan.Input{
		Path: map[string]string{"deviceId": deviceID},
	})
}

// Statistics reads statistics collection settings
type Statistics struct {
	client *catalystwan.Client
}

// SettingsStatus returns the enablement state of each statistics type
func (api *Statistics) SettingsStatus(ctx context.Context) (map[string]any, error) {
	return catalystwan.CallMap(ctx, api.client, GetStatisticsSettingsStatus, catalystwan.Input{})
}
