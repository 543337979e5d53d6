// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"net/http"

	catalystwan "github.com/netascode/go-catalystwan"
)

// AboutInfo is the "/client/about" response
type AboutInfo struct {
	Title              string `json:"title"`
	Version            string `json:"version"`
	ApplicationVersion string `json:"applicationVersion"`
	ApplicationServer  string `json:"applicationServer"`
	Copyright          string `json:"copyright"`
	Time               string `json:"time"`
	TimeZone           string `json:"timeZone"`
}

// Server endpoints
var (
	GetServerInfo = register(catalystwan.NewEndpoint("Server", "GetServerInfo",
		http.MethodGet, "/client/server",
		catalystwan.Returns[catalystwan.ServerInfo](),
		catalystwan.ResponseKey("data")))

	GetAbout = register(catalystwan.NewEndpoint("Server", "GetAbout",
		http.MethodGet, "/client/about",
		catalystwan.Returns[AboutInfo](),
		catalystwan.ResponseKey("data")))
)

// Server reads controller identity
type Server struct {
	client *catalystwan.Client
}

// Info returns the server information without updating client state. Use
// Client.Server to also record version and session view.
func (api *Server) Info(ctx context.Context) (catalystwan.ServerInfo, error) {
	return catalystwan.Call[catalystwan.ServerInfo](ctx, api.client, GetServerInfo, catalystwan.Input{})
}

// About returns the controller version banner
func (api *Server) About(ctx context.Context) (AboutInfo, error) {
	return catalystwan.Call[AboutInfo](ctx, api.client, GetAbout, catalystwan.Input{})
}
