// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"net/http"
	"testing"
)

func TestDeviceInventory(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dataservice/device":
			if got := r.URL.Query().Get("personality"); got != "vedge" {
				t.Errorf("personality = %q", got)
			}
			if r.URL.Query().Has("site-id") {
				t.Error("empty filter sent")
			}
			writeJSON(w, http.StatusOK, `{"header":{},"data":[{"deviceId":"1.1.1.1","uuid":"u1","host-name":"vedge1","reachability":"reachable","personality":"vedge"},{"deviceId":"1.1.1.2","uuid":"u2","reachability":"unreachable"}]}`)
		case "/dataservice/system/device/vedges":
			writeJSON(w, http.StatusOK, `{"data":[{"uuid":"C8K-1","deviceModel":"vedge-C8000V","chasisNumber":"C8K-1"}]}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	devices, err := api.DeviceInventory.List(ctx, &DeviceQuery{Personality: "vedge"})
	if err != nil || len(devices) != 2 {
		t.Fatalf("List() = %+v, %v", devices, err)
	}
	if !devices[0].Reachable() || devices[1].Reachable() || devices[0].HostName != "vedge1" {
		t.Errorf("devices = %+v", devices)
	}

	details, err := api.DeviceInventory.Details(ctx, DeviceCategoryVEdges)
	if err != nil || len(details) != 1 || details[0].ChassisNumber != "C8K-1" {
		t.Fatalf("Details() = %+v, %v", details, err)
	}
	if _, err := api.DeviceInventory.Details(ctx, "routers"); err == nil {
		t.Error("Details() accepted an unknown category")
	}
}

func TestTemplates(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /dataservice/template/device":
			writeJSON(w, http.StatusOK, `{"data":[{"templateId":"tpl-1","templateName":"branch","deviceType":"vedge-C8000V","devicesAttached":2}]}`)
		case "GET /dataservice/template/device/object/tpl-1":
			writeJSON(w, http.StatusOK, `{"templateName":"branch","templateDescription":"Branch","deviceType":"vedge-C8000V","generalTemplates":[{"templateId":"f1","templateType":"cisco_system"}]}`)
		case "POST /dataservice/template/device/feature":
			writeJSON(w, http.StatusOK, `{"templateId":"tpl-2"}`)
		case "DELETE /dataservice/template/device/tpl-2":
			w.WriteHeader(http.StatusOK)
		case "GET /dataservice/template/device/config/exportcsv":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte("csv-deviceId,csv-host-name\n"))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	list, err := api.Templates.List(ctx)
	if err != nil || len(list) != 1 || list[0].DevicesAttached != 2 {
		t.Fatalf("List() = %+v, %v", list, err)
	}
	tmpl, err := api.Templates.Get(ctx, "tpl-1")
	if err != nil || len(tmpl.GeneralTemplates) != 1 {
		t.Fatalf("Get() = %+v, %v", tmpl, err)
	}

	tmpl.TemplateName = "branch-copy"
	id, err := api.Templates.Create(ctx, tmpl)
	if err != nil || id != "tpl-2" {
		t.Fatalf("Create() = %q, %v", id, err)
	}
	invalid := tmpl
	invalid.GeneralTemplates = []GeneralTemplate{{TemplateID: "f1"}}
	if _, err := api.Templates.Create(ctx, invalid); err == nil {
		t.Error("Create() accepted a general template without type")
	}

	if err := api.Templates.Delete(ctx, "tpl-2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	csv, err := api.Templates.ExportCSV(ctx)
	if err != nil || string(csv) != "csv-deviceId,csv-host-name\n" {
		t.Fatalf("ExportCSV() = %q, %v", csv, err)
	}
}

func TestConfigurationAndStatistics(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dataservice/template/config/running/1.1.1.1":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("system\n host-name vedge1\n"))
		case "/dataservice/statistics/settings/status":
			writeJSON(w, http.StatusOK, `{"dpi":"enable","approute":"disable"}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	cfg, err := api.Configuration.RunningConfig(ctx, "1.1.1.1")
	if err != nil || cfg != "system\n host-name vedge1\n" {
		t.Errorf("RunningConfig() = %q, %v", cfg, err)
	}
	status, err := api.Statistics.SettingsStatus(ctx)
	if err != nil || status["dpi"] != "enable" || status["approute"] != "disable" {
		t.Errorf("SettingsStatus() = %v, %v", status, err)
	}
}

func TestServerAndCluster(t *testing.T) {
	api, client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dataservice/client/server":
			writeJSON(w, http.StatusOK, `{"data":{"platformVersion":"20.12.1","tenancyMode":"SingleTenant","user":"admin"}}`)
		case "/dataservice/client/about":
			writeJSON(w, http.StatusOK, `{"data":{"title":"Cisco Catalyst SD-WAN Manager","version":"20.12.1"}}`)
		case "/dataservice/disasterrecovery/clusterInfo":
			writeJSON(w, http.StatusOK, `{"clusterInfo":{"primary":[{"host-name":"vm1","deviceIP":"10.0.0.1","isCurrentVManage":true}],"secondary":[{"host-name":"vm2","deviceIP":"10.0.1.1"}]}}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	info, err := api.Server.Info(ctx)
	if err != nil || info.PlatformVersion != "20.12.1" {
		t.Fatalf("Info() = %+v, %v", info, err)
	}
	if client.APIVersion() != nil {
		t.Error("Server.Info() updated the client state")
	}
	about, err := api.Server.About(ctx)
	if err != nil || about.Version != "20.12.1" {
		t.Fatalf("About() = %+v, %v", about, err)
	}

	cluster, err := api.DisasterRecovery.GetClusterInfo(ctx)
	if err != nil {
		t.Fatalf("GetClusterInfo() error = %v", err)
	}
	current, ok := cluster.Current()
	if !ok || current.Hostname != "vm1" {
		t.Errorf("Current() = %+v, %v", current, ok)
	}
	if err := cluster.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (ClusterInfo{Primary: []ClusterInfoDevice{{Hostname: "vm1"}}}).Validate(); err == nil {
		t.Error("Validate() accepted a member without IP")
	}
}
