// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestEncode(t *testing.T) {
	var nilTenant *testTenant
	tests := []struct {
		name        string
		payload     any
		wantData    string
		wantType    string
		wantNilBody bool
	}{
		{name: "nil", payload: nil, wantNilBody: true},
		{name: "typed nil", payload: nilTenant, wantNilBody: true},
		{name: "struct", payload: testTenant{Name: "acme"}, wantData: `{"name":"acme"}`, wantType: ContentTypeJSON},
		{name: "slice", payload: []testTenant{{Name: "a"}}, wantData: `[{"name":"a"}]`, wantType: ContentTypeJSON},
		{name: "empty body", payload: Body{}, wantData: `{}`, wantType: ContentTypeJSON},
		{name: "body", payload: Body{}.Set("name", "acme"), wantData: `{"name":"acme"}`, wantType: ContentTypeJSON},
		{name: "string", payload: "hostname vedge1", wantData: "hostname vedge1", wantType: ContentTypeText},
		{name: "bytes", payload: []byte{0x1, 0x2}, wantData: "\x01\x02", wantType: ContentTypeOctetStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.payload)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if tt.wantNilBody {
				if got.Data != nil || got.ContentType != "" {
					t.Errorf("Encode() = %+v, want no body", got)
				}
				return
			}
			if string(got.Data) != tt.wantData {
				t.Errorf("Data = %q, want %q", got.Data, tt.wantData)
			}
			if got.ContentType != tt.wantType {
				t.Errorf("ContentType = %q, want %q", got.ContentType, tt.wantType)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	if _, err := Encode(Body{}.Set("", "bad")); err == nil {
		t.Error("Encode() accepted a body with an error")
	}
	if _, err := Encode(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("Encode() accepted an unencodable value")
	}
	if _, err := Encode(FilePayload{Filename: "a.csv"}); err == nil || !strings.Contains(err.Error(), "no content") {
		t.Errorf("Encode() error = %v", err)
	}
}

func TestFilePayload(t *testing.T) {
	p := FilePayload{
		Filename: "templates.csv",
		Content:  strings.NewReader("csv-deviceId,csv-host-name\n"),
		Fields:   map[string]string{"validate": "true"},
	}
	prepared, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(prepared.ContentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("ContentType = %q (%v)", prepared.ContentType, err)
	}
	r := multipart.NewReader(strings.NewReader(string(prepared.Data)), params["boundary"])
	parts := map[string]string{}
	filenames := map[string]string{}
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		data, _ := io.ReadAll(part)
		parts[part.FormName()] = string(data)
		filenames[part.FormName()] = part.FileName()
	}
	if parts["validate"] != "true" {
		t.Errorf("field validate = %q", parts["validate"])
	}
	if parts["file"] != "csv-deviceId,csv-host-name\n" || filenames["file"] != "templates.csv" {
		t.Errorf("file part = %q (%q)", parts["file"], filenames["file"])
	}
}

func TestDecodeObject(t *testing.T) {
	res := jsonRes(`{"data":{"name":"acme","tenantId":"t1"}}`)
	got, err := DecodeObject[testTenant](res, "data")
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}
	if got != (testTenant{Name: "acme", TenantID: "t1"}) {
		t.Errorf("DecodeObject() = %+v", got)
	}

	whole, err := DecodeObject[map[string]any](res, "")
	if err != nil || whole["data"] == nil {
		t.Errorf("DecodeObject(whole) = %v, %v", whole, err)
	}

	if _, err := DecodeObject[testTenant](res, "missing"); err == nil || !strings.Contains(err.Error(), `no "missing" key`) {
		t.Errorf("missing key error = %v", err)
	}
	if _, err := DecodeObject[testTenant](jsonRes(`not json`), ""); err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Errorf("invalid JSON error = %v", err)
	}
	if _, err := DecodeObject[testTenant](jsonRes(`{"data":[1]}`), "data"); err == nil {
		t.Error("DecodeObject() decoded an array into a struct")
	}
}

func TestDecodeSequence(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		key     string
		want    []testTenant
		wantErr bool
	}{
		{name: "array", body: `[{"name":"a"},{"name":"b"}]`, want: []testTenant{{Name: "a"}, {Name: "b"}}},
		{name: "keyed array", body: `{"data":[{"name":"a"}]}`, key: "data", want: []testTenant{{Name: "a"}}},
		{name: "single object", body: `{"data":{"name":"a"}}`, key: "data", want: []testTenant{{Name: "a"}}},
		{name: "null", body: `{"data":null}`, key: "data", want: []testTenant{}},
		{name: "empty array", body: `[]`, want: []testTenant{}},
		{name: "scalar", body: `{"data":5}`, key: "data", wantErr: true},
		{name: "bad element", body: `[1,2]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSequence[testTenant](jsonRes(tt.body), tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeSequence() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeSequence() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCheckPayload(t *testing.T) {
	single := NewEndpoint("TenantManagement", "UpdateTenant", http.MethodPut, "/tenant/{tenantId}",
		Payload[testTenant](), PathArgs("tenantId"))
	seq := NewEndpoint("TenantManagement", "CreateBulk", http.MethodPost, "/tenant/bulk/async",
		PayloadSeq[testTenant]())
	none := NewEndpoint("TenantManagement", "GetAllTenants", http.MethodGet, "/tenant")

	tests := []struct {
		name    string
		ep      *Endpoint
		payload any
		wantErr string
	}{
		{name: "value", ep: single, payload: testTenant{}},
		{name: "pointer", ep: single, payload: &testTenant{}},
		{name: "body", ep: single, payload: Body{}},
		{name: "prepared", ep: single, payload: FilePayload{}},
		{name: "missing", ep: single, payload: nil, wantErr: "payload of type testTenant is required"},
		{name: "wrong type", ep: single, payload: testTaskID{}, wantErr: "payload must be testTenant"},
		{name: "slice for single", ep: single, payload: []testTenant{}, wantErr: "payload must be testTenant"},
		{name: "slice", ep: seq, payload: []testTenant{{}}},
		{name: "pointer slice", ep: seq, payload: []*testTenant{{}}},
		{name: "single for slice", ep: seq, payload: testTenant{}, wantErr: "payload must be []testTenant"},
		{name: "no payload", ep: none, payload: nil},
		{name: "unexpected", ep: none, payload: testTenant{}, wantErr: "takes no payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPayload(tt.ep, tt.payload)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("checkPayload() error = %v", err)
				}
				return
			}
			var epErr *EndpointError
			if !errors.As(err, &epErr) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("checkPayload() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckReturn(t *testing.T) {
	ep := NewEndpoint("TenantManagement", "GetAllTenants", http.MethodGet, "/tenant", ReturnsSeq[testTenant]())
	if err := checkReturn(ep, reflect.TypeFor[testTenant](), true); err != nil {
		t.Errorf("checkReturn() error = %v", err)
	}
	err := checkReturn(ep, reflect.TypeFor[testTenant](), false)
	if err == nil || !strings.Contains(err.Error(), "endpoint returns []testTenant, called as testTenant") {
		t.Errorf("checkReturn() error = %v", err)
	}
	noContent := NewEndpoint("TenantManagement", "DeleteTenant", http.MethodDelete, "/tenant/{tenantId}", PathArgs("tenantId"))
	err = checkReturn(noContent, reflect.TypeFor[string](), false)
	if err == nil || !strings.Contains(err.Error(), "endpoint returns no content") {
		t.Errorf("checkReturn() error = %v", err)
	}
	if err := checkReturn(nil, reflect.TypeFor[string](), false); err == nil {
		t.Error("checkReturn(nil) succeeded")
	}
}

// validatedTenant fails validation without a name
type validatedTenant struct {
	Name string `json:"name"`
}

func (v validatedTenant) Validate() error {
	return validation.ValidateStruct(&v, validation.Field(&v.Name, validation.Required))
}

// TestCallHelpers tests the typed call helpers against a fake controller
func TestCallHelpers(t *testing.T) {
	reg := NewRegistry()
	getTenant := reg.MustRegister(NewEndpoint("TenantManagement", "GetTenant", http.MethodGet, "/tenant/{tenantId}",
		Returns[testTenant](), PathArgs("tenantId")))
	listTenants := reg.MustRegister(NewEndpoint("TenantManagement", "GetAllTenants", http.MethodGet, "/tenant",
		ReturnsSeq[testTenant](), ResponseKey("data")))
	createBulk := reg.MustRegister(NewEndpoint("TenantManagement", "CreateBulk", http.MethodPost, "/tenant/bulk/async",
		PayloadSeq[testTenant](), Returns[testTaskID](), RequestHeader("X-Request-Source", "sdk")))
	running := reg.MustRegister(NewEndpoint("Configuration", "GetRunningConfig", http.MethodGet, "/template/config/running/{deviceId}",
		Returns[string](), PathArgs("deviceId")))
	export := reg.MustRegister(NewEndpoint("Templates", "ExportCSV", http.MethodGet, "/template/device/config/exportcsv",
		Returns[[]byte]()))
	status := reg.MustRegister(NewEndpoint("Statistics", "GetSettingsStatus", http.MethodGet, "/statistics/settings/status",
		Returns[map[string]any]()))
	deleteTenant := reg.MustRegister(NewEndpoint("TenantManagement", "DeleteTenant", http.MethodDelete, "/tenant/{tenantId}",
		PathArgs("tenantId")))

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.EscapedPath() {
		case "GET /dataservice/tenant/t%201":
			writeJSON(w, http.StatusOK, `{"name":"acme","tenantId":"t 1"}`)
		case "GET /dataservice/tenant":
			if r.URL.Query().Get("orgName") != "acme" {
				t.Errorf("query = %q", r.URL.RawQuery)
			}
			writeJSON(w, http.StatusOK, `{"data":[{"name":"a"},{"name":"b"}]}`)
		case "POST /dataservice/tenant/bulk/async":
			if r.Header.Get("X-Request-Source") != "sdk" {
				t.Errorf("endpoint header = %q", r.Header.Get("X-Request-Source"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `[{"name":"acme"}]` {
				t.Errorf("body = %s", body)
			}
			writeJSON(w, http.StatusOK, `{"id":"task-1"}`)
		case "GET /dataservice/template/config/running/dev1":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("hostname vedge1\n"))
		case "GET /dataservice/template/device/config/exportcsv":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte("a,b\n"))
		case "GET /dataservice/statistics/settings/status":
			writeJSON(w, http.StatusOK, `{"dpi":"enable"}`)
		case "DELETE /dataservice/tenant/t1":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	tenant, err := Call[testTenant](ctx, client, getTenant, Input{Path: map[string]string{"tenantId": "t 1"}})
	if err != nil || tenant.Name != "acme" {
		t.Errorf("Call() = %+v, %v", tenant, err)
	}

	tenants, err := CallSeq[testTenant](ctx, client, listTenants, Input{Params: map[string]string{"orgName": "acme"}})
	if err != nil || len(tenants) != 2 {
		t.Errorf("CallSeq() = %+v, %v", tenants, err)
	}

	task, err := Call[testTaskID](ctx, client, createBulk, Input{Payload: []testTenant{{Name: "acme"}}})
	if err != nil || task.ID != "task-1" {
		t.Errorf("Call(post) = %+v, %v", task, err)
	}

	text, err := CallText(ctx, client, running, Input{Path: map[string]string{"deviceId": "dev1"}})
	if err != nil || text != "hostname vedge1\n" {
		t.Errorf("CallText() = %q, %v", text, err)
	}

	data, err := CallBytes(ctx, client, export, Input{})
	if err != nil || string(data) != "a,b\n" {
		t.Errorf("CallBytes() = %q, %v", data, err)
	}

	m, err := CallMap(ctx, client, status, Input{})
	if err != nil || m["dpi"] != "enable" {
		t.Errorf("CallMap() = %v, %v", m, err)
	}

	if err := CallNoContent(ctx, client, deleteTenant, Input{Path: map[string]string{"tenantId": "t1"}}); err != nil {
		t.Errorf("CallNoContent() error = %v", err)
	}
}

func TestCallErrors(t *testing.T) {
	reg := NewRegistry()
	getTenant := reg.MustRegister(NewEndpoint("TenantManagement", "GetTenant", http.MethodGet, "/tenant/{tenantId}",
		Returns[testTenant](), PathArgs("tenantId")))
	unregistered := NewEndpoint("TenantManagement", "Orphan", http.MethodGet, "/orphan", Returns[testTenant]())

	requests := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeJSON(w, http.StatusOK, `{"name":"acme"}`)
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() error
		wantErr string
	}{
		{
			name: "wrong return type",
			call: func() error {
				_, err := CallSeq[testTenant](ctx, client, getTenant, Input{Path: map[string]string{"tenantId": "t1"}})
				return err
			},
			wantErr: "called as []testTenant",
		},
		{
			name: "missing path argument",
			call: func() error {
				_, err := Call[testTenant](ctx, client, getTenant, Input{})
				return err
			},
			wantErr: `missing path argument "tenantId"`,
		},
		{
			name: "unknown path argument",
			call: func() error {
				_, err := Call[testTenant](ctx, client, getTenant, Input{Path: map[string]string{"tenantId": "t1", "x": "y"}})
				return err
			},
			wantErr: "unknown path arguments",
		},
		{
			name: "unregistered",
			call: func() error {
				_, err := Call[testTenant](ctx, client, unregistered, Input{})
				return err
			},
			wantErr: "endpoint is not registered",
		},
		{
			name: "unexpected payload",
			call: func() error {
				_, err := Call[testTenant](ctx, client, getTenant, Input{Path: map[string]string{"tenantId": "t1"}, Payload: testTenant{}})
				return err
			},
			wantErr: "takes no payload",
		},
		{
			name: "no content on returning endpoint",
			call: func() error {
				return CallNoContent(ctx, client, getTenant, Input{Path: map[string]string{"tenantId": "t1"}})
			},
			wantErr: "called without result",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var epErr *EndpointError
			if !errors.As(err, &epErr) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want EndpointError containing %q", err, tt.wantErr)
			}
		})
	}
	if requests != 0 {
		t.Errorf("%d requests sent for invalid calls", requests)
	}
}

func TestCallResponseValidation(t *testing.T) {
	reg := NewRegistry()
	lenient := reg.MustRegister(NewEndpoint("TenantManagement", "GetAllTenants", http.MethodGet, "/tenant",
		ReturnsSeq[validatedTenant]()))
	strict := reg.MustRegister(NewEndpoint("TenantManagement", "GetTenant", http.MethodGet, "/tenant/{tenantId}",
		Returns[validatedTenant](), PathArgs("tenantId"), Strict()))

	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dataservice/tenant" {
			writeJSON(w, http.StatusOK, `[{"name":"a"},{"name":""}]`)
			return
		}
		writeJSON(w, http.StatusOK, `{"name":""}`)
	}
	ctx := context.Background()
	in := Input{Path: map[string]string{"tenantId": "t1"}}

	t.Run("disabled", func(t *testing.T) {
		client, logger := newTestClient(t, handler)
		if _, err := Call[validatedTenant](ctx, client, strict, in); err != nil {
			t.Errorf("Call() error = %v", err)
		}
		if logger.contains("failed validation") {
			t.Error("validation ran while disabled")
		}
	})

	t.Run("lenient", func(t *testing.T) {
		client, logger := newTestClient(t, handler, ValidateResponses(true))
		got, err := CallSeq[validatedTenant](ctx, client, lenient, Input{})
		if err != nil || len(got) != 2 {
			t.Fatalf("CallSeq() = %v, %v", got, err)
		}
		if !logger.contains("response model failed validation") {
			t.Error("validation failure not logged")
		}
	})

	t.Run("strict", func(t *testing.T) {
		client, _ := newTestClient(t, handler, ValidateResponses(true))
		_, err := Call[validatedTenant](ctx, client, strict, in)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Endpoint != "TenantManagement.GetTenant" {
			t.Errorf("Call() error = %v, want *ValidationError", err)
		}
	})
}
