// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Res represents a controller HTTP response
type Res struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Header holds the response headers
	Header http.Header

	// Body is the raw response body
	Body []byte

	// OK indicates if the operation succeeded (2xx status)
	OK bool

	// Errors contains the controller error models of a failed response
	Errors []ErrorModel
}

// Get retrieves a value from the JSON response body using a gjson path.
//
// Example paths:
//   - "data.0.deviceId" - first device ID of a list response
//   - "data.#" - number of entries
//   - "header.generatedOn" - response generation time
//
// Example:
//
//	res, err := client.Get(ctx, "/device")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range res.Get("data").Array() {
//	    fmt.Println(d.Get("host-name").String())
//	}
func (r Res) Get(path string) gjson.Result {
	if len(r.Body) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Body, path)
}

// JSON returns the body as a string if it is valid JSON, otherwise "".
func (r Res) JSON() string {
	if !gjson.ValidBytes(r.Body) {
		return ""
	}
	return string(r.Body)
}

// Text returns the body as a string
func (r Res) Text() string {
	return string(r.Body)
}

// Bytes returns the raw body
func (r Res) Bytes() []byte {
	return r.Body
}

// Map decodes a JSON object body into a map
func (r Res) Map() (map[string]any, error) {
	out := map[string]any{}
	if len(r.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return out, nil
}

// ContentType returns the media type of the response without parameters
func (r Res) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}
