// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"fmt"
	"net/http"
	"strings"
)

// Content types used by the payload codec
const (
	// ContentTypeJSON is used for models, maps, sequences and Body payloads
	ContentTypeJSON = "application/json"

	// ContentTypeText is used for raw string payloads
	ContentTypeText = "text/plain"

	// ContentTypeOctetStream is used for raw byte payloads
	ContentTypeOctetStream = "application/octet-stream"
)

// ValidMethods contains the HTTP methods an endpoint may declare
var ValidMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// ValidateMethod checks if the HTTP method is one of ValidMethods
//
// Example:
//
//	if err := catalystwan.ValidateMethod("GET"); err != nil {
//	    log.Fatal(err)
//	}
func ValidateMethod(method string) error {
	for _, valid := range ValidMethods {
		if method == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid method: %q (valid values: %s)", method, strings.Join(ValidMethods, ", "))
}

// isMutating reports whether requests with method change controller state
func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
