// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Body is an immutable JSON payload builder backed by sjson.
//
// Every method returns a new Body. The first error sticks and turns all
// later calls into no-ops, so a chain is checked once with Err or String.
// A Body is accepted anywhere a payload is and is sent as application/json.
//
// Example:
//
//	body := catalystwan.Body{}.
//	    Set("name", "tenant1").
//	    Set("orgName", "Acme").
//	    Set("subDomain", "tenant1.acme.com").
//	    Set("wanEdgeForecast", 10)
//
//	res, err := client.Post(ctx, "/tenant", body)
type Body struct {
	str string
	err error
}

// BodyFrom starts a Body from the JSON encoding of a model, so single
// fields can be patched before sending.
//
//	body := catalystwan.BodyFrom(tmpl).Delete("policyId").Set("templateName", "branch-v2")
func BodyFrom(v any) Body {
	data, err := json.Marshal(v)
	if err != nil {
		return Body{err: fmt.Errorf("BodyFrom(%T): %w", v, err)}
	}
	return Body{str: string(data)}
}

func (b Body) apply(op, path string, fn func() (string, error)) Body {
	if b.err != nil {
		return b
	}
	result, err := fn()
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("%s(%q): %w", op, path, err)}
	}
	return Body{str: result}
}

// Set sets value at a dot-notation path (e.g. "data.basic.name", "tenantIdList.0")
func (b Body) Set(path string, value any) Body {
	return b.apply("Set", path, func() (string, error) {
		return sjson.Set(b.str, path, value)
	})
}

// SetRaw embeds an already serialized JSON fragment, e.g. a parcel
// definition exported from another controller.
func (b Body) SetRaw(path, rawJSON string) Body {
	return b.apply("SetRaw", path, func() (string, error) {
		return sjson.SetRaw(b.str, path, rawJSON)
	})
}

// Delete removes the value at path
func (b Body) Delete(path string) Body {
	return b.apply("Delete", path, func() (string, error) {
		return sjson.Delete(b.str, path)
	})
}

// Get queries the built JSON with gjson syntax. It returns an empty result
// when the Body is in an error state.
func (b Body) Get(path string) gjson.Result {
	if b.err != nil {
		return gjson.Result{}
	}
	return gjson.Get(b.str, path)
}

// String returns the JSON text and the first build error
func (b Body) String() (string, error) {
	return b.str, b.err
}

// Err returns the first build error
func (b Body) Err() error {
	return b.err
}

// Res returns the JSON text, or "" if building failed. Check Err first.
func (b Body) Res() string {
	if b.err != nil {
		return ""
	}
	return b.str
}

// Bytes returns the JSON as a byte slice and the first build error
func (b Body) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []byte(b.str), nil
}

// MarshalJSON lets a Body be embedded in a model field. An empty Body
// encodes as {}.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.str == "" {
		return []byte("{}"), nil
	}
	return []byte(b.str), nil
}
