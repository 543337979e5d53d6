// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"reflect"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tidwall/gjson"
)

// Prepared holds a payload ready to be sent
type Prepared struct {
	// Data is the request body, nil for no body
	Data []byte

	// ContentType is sent as the Content-Type header when set
	ContentType string

	// Headers are additional request headers
	Headers map[string]string
}

// PreparedPayload is implemented by payloads that encode themselves, such as
// multipart uploads. Endpoints accept them regardless of the declared
// payload type.
type PreparedPayload interface {
	Prepare() (Prepared, error)
}

// Encode serializes a request payload
//
//   - nil: no body
//   - string: sent raw as text/plain
//   - []byte: sent raw as application/octet-stream
//   - Body: sent as JSON ("{}" when empty)
//   - PreparedPayload: whatever Prepare returns
//   - anything else: encoding/json (omitempty tags leave out unset fields)
func Encode(payload any) (Prepared, error) {
	if isNil(payload) {
		return Prepared{}, nil
	}
	switch p := payload.(type) {
	case PreparedPayload:
		prepared, err := p.Prepare()
		if err != nil {
			return Prepared{}, fmt.Errorf("failed to prepare payload: %w", err)
		}
		return prepared, nil
	case Body:
		data, err := p.Bytes()
		if err != nil {
			return Prepared{}, fmt.Errorf("invalid body: %w", err)
		}
		if len(data) == 0 {
			data = []byte("{}")
		}
		return Prepared{Data: data, ContentType: ContentTypeJSON}, nil
	case string:
		return Prepared{Data: []byte(p), ContentType: ContentTypeText}, nil
	case []byte:
		return Prepared{Data: p, ContentType: ContentTypeOctetStream}, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Prepared{}, fmt.Errorf("failed to encode payload of type %T: %w", payload, err)
	}
	return Prepared{Data: data, ContentType: ContentTypeJSON}, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// FilePayload uploads a file as multipart/form-data, e.g. a template or
// software image import.
type FilePayload struct {
	// Field is the form field name of the file (default "file")
	Field string

	// Filename is reported to the controller
	Filename string

	// Content is read once when the payload is prepared
	Content io.Reader

	// Fields are additional form fields
	Fields map[string]string
}

// Prepare implements PreparedPayload
func (f FilePayload) Prepare() (Prepared, error) {
	if f.Content == nil {
		return Prepared{}, fmt.Errorf("file payload has no content")
	}
	field := f.Field
	if field == "" {
		field = "file"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range f.Fields {
		if err := w.WriteField(k, v); err != nil {
			return Prepared{}, err
		}
	}
	part, err := w.CreateFormFile(field, f.Filename)
	if err != nil {
		return Prepared{}, err
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return Prepared{}, fmt.Errorf("failed to read file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return Prepared{}, err
	}
	return Prepared{Data: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

// flattenParams converts query parameters into url.Values
//
// Structs are encoded through their JSON tags first. Null values and empty
// strings are omitted; arrays become repeated keys; nested objects are sent
// as raw JSON.
func flattenParams(params any) (url.Values, error) {
	values := url.Values{}
	switch p := params.(type) {
	case url.Values:
		for k, vs := range p {
			values[k] = append([]string(nil), vs...)
		}
		return values, nil
	case map[string]string:
		for k, v := range p {
			if v != "" {
				values.Set(k, v)
			}
		}
		return values, nil
	}

	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params of type %T: %w", params, err)
	}
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return nil, fmt.Errorf("params must encode to a JSON object, got %T", params)
	}
	obj.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.Null:
		case value.IsArray():
			for _, item := range value.Array() {
				if item.Type != gjson.Null {
					values.Add(key.String(), paramString(item))
				}
			}
		default:
			if s := paramString(value); s != "" {
				values.Set(key.String(), s)
			}
		}
		return true
	})
	return values, nil
}

func paramString(v gjson.Result) string {
	if v.Type == gjson.JSON {
		return v.Raw
	}
	return v.String()
}

// selectKey returns the JSON value at key, or the whole body when key is empty
func selectKey(res Res, key string) (gjson.Result, error) {
	if !gjson.ValidBytes(res.Body) {
		return gjson.Result{}, fmt.Errorf("response is not valid JSON")
	}
	if key == "" {
		return gjson.ParseBytes(res.Body), nil
	}
	v := gjson.GetBytes(res.Body, key)
	if !v.Exists() {
		return gjson.Result{}, fmt.Errorf("response has no %q key", key)
	}
	return v, nil
}

// DecodeObject decodes the value at key (whole body when key is empty) into T
//
// Example:
//
//	res, _ := client.Get(ctx, "/client/server")
//	info, err := catalystwan.DecodeObject[catalystwan.ServerInfo](res, "data")
func DecodeObject[T any](res Res, key string) (T, error) {
	var out T
	v, err := selectKey(res, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(v.Raw), &out); err != nil {
		return out, fmt.Errorf("failed to decode %T: %w", out, err)
	}
	return out, nil
}

// DecodeSequence decodes the value at key into []T.
//
// A JSON array decodes element-wise, a single object becomes a one-element
// slice and null becomes an empty slice.
func DecodeSequence[T any](res Res, key string) ([]T, error) {
	v, err := selectKey(res, key)
	if err != nil {
		return nil, err
	}
	switch {
	case v.Type == gjson.Null:
		return []T{}, nil
	case v.IsArray():
		out := []T{}
		if err := json.Unmarshal([]byte(v.Raw), &out); err != nil {
			var zero T
			return nil, fmt.Errorf("failed to decode []%T: %w", zero, err)
		}
		return out, nil
	case v.IsObject():
		var item T
		if err := json.Unmarshal([]byte(v.Raw), &item); err != nil {
			return nil, fmt.Errorf("failed to decode %T: %w", item, err)
		}
		return []T{item}, nil
	default:
		return nil, fmt.Errorf("expected JSON array or object, got %s", v.Type)
	}
}

// invoke sends the request declared by ep
func (c *Client) invoke(ctx context.Context, ep *Endpoint, in Input, mods []func(*Req)) (Res, error) {
	if ep == nil {
		return Res{}, &EndpointError{Endpoint: "<nil>", Message: "endpoint cannot be nil"}
	}
	if ep.template.raw == "" {
		return Res{}, &EndpointError{Endpoint: ep.FullName(), Message: "endpoint is not registered"}
	}
	if err := c.checkSupport(ctx, ep); err != nil {
		return Res{}, err
	}
	if err := checkPayload(ep, in.Payload); err != nil {
		return Res{}, err
	}

	path, err := ep.template.Expand(in.Path)
	if err != nil {
		return Res{}, &EndpointError{Endpoint: ep.FullName(), Message: err.Error()}
	}

	payload, err := Encode(in.Payload)
	if err != nil {
		return Res{}, &EndpointError{Endpoint: ep.FullName(), Message: err.Error()}
	}

	req := &Req{operation: ep.OperationID(), Params: in.Params}
	for k, v := range ep.Headers {
		Header(k, v)(req)
	}
	for _, mod := range mods {
		mod(req)
	}
	return c.do(ctx, ep.Method, path, payload, req)
}

// checkPayload verifies the payload matches the declared payload type
func checkPayload(ep *Endpoint, payload any) error {
	spec := ep.Payload
	if isNil(payload) {
		if spec.Present {
			return &EndpointError{Endpoint: ep.FullName(), Message: fmt.Sprintf("payload of type %s is required", spec.Name())}
		}
		return nil
	}
	if !spec.Present {
		return &EndpointError{Endpoint: ep.FullName(), Message: fmt.Sprintf("endpoint takes no payload, got %T", payload)}
	}
	switch payload.(type) {
	case Body, PreparedPayload:
		return nil
	}

	t := reflect.TypeOf(payload)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if spec.Sequence {
		if t.Kind() == reflect.Slice && derefType(t.Elem()) == spec.Type {
			return nil
		}
	} else if t == spec.Type {
		return nil
	}
	return &EndpointError{
		Endpoint: ep.FullName(),
		Message:  fmt.Sprintf("payload must be %s, got %T", spec.Name(), payload),
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// checkReturn verifies the caller's type argument matches the declared return
func checkReturn(ep *Endpoint, t reflect.Type, sequence bool) error {
	if ep == nil {
		return &EndpointError{Endpoint: "<nil>", Message: "endpoint cannot be nil"}
	}
	spec := ep.Return
	if spec.Present && spec.Sequence == sequence && spec.Type == t {
		return nil
	}
	want := "no content"
	if spec.Present {
		want = spec.Name()
	}
	got := typeName(t)
	if sequence {
		got = "[]" + got
	}
	return &EndpointError{
		Endpoint: ep.FullName(),
		Message:  fmt.Sprintf("endpoint returns %s, called as %s", want, got),
	}
}

// validateResponse runs Validate on decoded models when ValidateResponses is
// enabled. Failures are returned for strict endpoints and logged otherwise.
func (c *Client) validateResponse(ctx context.Context, ep *Endpoint, values ...any) error {
	if !c.ValidateResponses {
		return nil
	}
	for i, v := range values {
		m, ok := v.(validation.Validatable)
		if !ok {
			continue
		}
		if err := m.Validate(); err != nil {
			if ep.Strict {
				return &ValidationError{Endpoint: ep.FullName(), Err: err}
			}
			c.logger.Warn(ctx, "response model failed validation",
				"endpoint", ep.FullName(),
				"index", i,
				"error", err.Error())
		}
	}
	return nil
}

// Call invokes an endpoint that returns a single object of type T
//
// Example:
//
//	info, err := catalystwan.Call[ClusterInfo](ctx, client, GetClusterInfo, catalystwan.Input{})
func Call[T any](ctx context.Context, c *Client, ep *Endpoint, in Input, mods ...func(*Req)) (T, error) {
	var zero T
	if err := checkReturn(ep, reflect.TypeFor[T](), false); err != nil {
		return zero, err
	}
	res, err := c.invoke(ctx, ep, in, mods)
	if err != nil {
		return zero, err
	}
	out, err := DecodeObject[T](res, ep.ResponseKey)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", ep.FullName(), err)
	}
	if err := c.validateResponse(ctx, ep, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// CallSeq invokes an endpoint that returns a collection of T
func CallSeq[T any](ctx context.Context, c *Client, ep *Endpoint, in Input, mods ...func(*Req)) ([]T, error) {
	if err := checkReturn(ep, reflect.TypeFor[T](), true); err != nil {
		return nil, err
	}
	res, err := c.invoke(ctx, ep, in, mods)
	if err != nil {
		return nil, err
	}
	out, err := DecodeSequence[T](res, ep.ResponseKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep.FullName(), err)
	}
	items := make([]any, len(out))
	for i := range out {
		items[i] = &out[i]
	}
	if err := c.validateResponse(ctx, ep, items...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallText invokes an endpoint that returns a bare string
func CallText(ctx context.Context, c *Client, ep *Endpoint, in Input, mods ...func(*Req)) (string, error) {
	if err := checkReturn(ep, reflect.TypeFor[string](), false); err != nil {
		return "", err
	}
	res, err := c.invoke(ctx, ep, in, mods)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// CallBytes invokes an endpoint that returns raw bytes, e.g. a file export
func CallBytes(ctx context.Context, c *Client, ep *Endpoint, in Input, mods ...func(*Req)) ([]byte, error) {
	if err := checkReturn(ep, bytesType, false); err != nil {
		return nil, err
	}
	res, err := c.invoke(ctx, ep, in, mods)
	if err != nil {
		return nil, err
	}
	return res.Bytes(), nil
}

// CallMap invokes an endpoint that returns an unmodelled JSON object
func CallMap(ctx context.Context, c *Client, ep *Endpoint, in Input, mods ...func(*Req)) (map[string]any, error) {
	if err := checkReturn(ep, reflect.TypeFor[map[string]any](), false); err != nil {
		return nil, err
	}
	res, err := c.invoke(ctx, ep, in, mods)
	if err != nil {
		return nil, err
	}
	out, err := DecodeObject[map[string]any](res, ep.ResponseKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep.FullName(), err)
	}
	return out, nil
}

// CallNoContent invokes an endpoint without response body
func CallNoContent(ctx context.Context, c *Client, ep *Endpoint, in Input, mods ...func(*Req)) error {
	if ep != nil && ep.Return.Present {
		return &EndpointError{
			Endpoint: ep.FullName(),
			Message:  fmt.Sprintf("endpoint returns %s, called without result", ep.Return.Name()),
		}
	}
	_, err := c.invoke(ctx, ep, in, mods)
	return err
}
