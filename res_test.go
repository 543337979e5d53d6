// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"net/http"
	"testing"
)

func jsonRes(body string) Res {
	return Res{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json;charset=UTF-8"}},
		Body:       []byte(body),
		OK:         true,
	}
}

func TestResGet(t *testing.T) {
	res := jsonRes(`{"header":{"generatedOn":1700000000000},"data":[{"deviceId":"10.0.0.1","host-name":"edge1"},{"deviceId":"10.0.0.2","host-name":"edge2"}]}`)

	tests := []struct {
		path string
		want string
	}{
		{"data.0.deviceId", "10.0.0.1"},
		{"data.1.host-name", "edge2"},
		{"data.#", "2"},
		{"header.generatedOn", "1700000000000"},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := res.Get(tt.path).String(); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	if (Res{}).Get("data").Exists() {
		t.Error("Get on empty body returned a value")
	}
}

func TestResJSON(t *testing.T) {
	if got := jsonRes(`{"a":1}`).JSON(); got != `{"a":1}` {
		t.Errorf("JSON() = %q", got)
	}
	if got := jsonRes(`hostname edge1`).JSON(); got != "" {
		t.Errorf("JSON() of text body = %q, want empty", got)
	}
}

func TestResTextBytes(t *testing.T) {
	res := Res{Body: []byte("system\n host-name edge1\n")}
	if res.Text() != "system\n host-name edge1\n" {
		t.Errorf("Text() = %q", res.Text())
	}
	if string(res.Bytes()) != res.Text() {
		t.Error("Bytes() differs from Text()")
	}
}

func TestResMap(t *testing.T) {
	m, err := jsonRes(`{"interface":"enable","app-route":"disable"}`).Map()
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if m["interface"] != "enable" || len(m) != 2 {
		t.Errorf("Map() = %v", m)
	}

	empty, err := (Res{}).Map()
	if err != nil || len(empty) != 0 {
		t.Errorf("Map() of empty body = %v, %v", empty, err)
	}

	if _, err := jsonRes(`[1,2]`).Map(); err == nil {
		t.Error("Map() of array succeeded")
	}
}

func TestResContentType(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"application/json;charset=UTF-8", "application/json"},
		{"Text/HTML; charset=utf-8", "text/html"},
		{"application/octet-stream", "application/octet-stream"},
		{"", ""},
	}
	for _, tt := range tests {
		res := Res{Header: http.Header{}}
		if tt.header != "" {
			res.Header.Set("Content-Type", tt.header)
		}
		if got := res.ContentType(); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
