// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
)

// BasePath is the URL prefix shared by all controller API endpoints
const BasePath = "/dataservice"

// forbiddenPlaceholders are reserved for the payload and query parameters
var forbiddenPlaceholders = []string{"payload", "params"}

// TypeSpec describes the payload or return type of an endpoint
type TypeSpec struct {
	// Present is false for endpoints without payload or without response body
	Present bool

	// Sequence marks a collection ([]Type)
	Sequence bool

	// Type is the element type
	Type reflect.Type
}

// Name renders the type as it appears in documentation
func (t TypeSpec) Name() string {
	if !t.Present || t.Type == nil {
		return ""
	}
	name := typeName(t.Type)
	if t.Sequence {
		return "[]" + name
	}
	return name
}

func typeName(t reflect.Type) string {
	switch {
	case t == bytesType:
		return "[]byte"
	case t.Name() != "":
		return t.Name()
	default:
		return t.String()
	}
}

var (
	bytesType = reflect.TypeOf([]byte(nil))
	bodyType  = reflect.TypeOf(Body{})
)

// Endpoint is one row of the endpoint registry
type Endpoint struct {
	// Group is the API group the operation belongs to (e.g. "TenantManagement")
	Group string

	// Name is the operation name within the group (e.g. "GetAllTenants")
	Name string

	// Method is the HTTP method
	Method string

	// Path is the path template relative to BasePath
	Path string

	// Payload and Return describe the request and response shapes
	Payload TypeSpec
	Return  TypeSpec

	// ResponseKey selects the JSON key holding modelled data (e.g. "data").
	// Empty means the whole response body.
	ResponseKey string

	// Versions is a version constraint such as ">=20.4", empty for any version
	Versions string

	// Views lists the session views the endpoint is valid for, empty for all
	Views []SessionType

	// Strict turns version and view mismatches into errors instead of warnings
	Strict bool

	// Headers are sent with every request to this endpoint
	Headers map[string]string

	// PathArgs are the path arguments of the operation signature
	PathArgs []string

	template   PathTemplate
	constraint *semver.Constraints
}

// EndpointOption configures an Endpoint
type EndpointOption func(*Endpoint)

// NewEndpoint declares an endpoint. The declaration is checked when it is
// registered.
func NewEndpoint(group, name, method, path string, opts ...EndpointOption) *Endpoint {
	ep := &Endpoint{
		Group:  group,
		Name:   name,
		Method: strings.ToUpper(method),
		Path:   path,
	}
	for _, opt := range opts {
		opt(ep)
	}
	return ep
}

// Payload declares a request body of type T
func Payload[T any]() EndpointOption {
	return func(ep *Endpoint) {
		ep.Payload = TypeSpec{Present: true, Type: reflect.TypeFor[T]()}
	}
}

// PayloadSeq declares a request body that is a JSON array of T
func PayloadSeq[T any]() EndpointOption {
	return func(ep *Endpoint) {
		ep.Payload = TypeSpec{Present: true, Sequence: true, Type: reflect.TypeFor[T]()}
	}
}

// Returns declares a response body of type T
func Returns[T any]() EndpointOption {
	return func(ep *Endpoint) {
		ep.Return = TypeSpec{Present: true, Type: reflect.TypeFor[T]()}
	}
}

// ReturnsSeq declares a response body that is a collection of T
func ReturnsSeq[T any]() EndpointOption {
	return func(ep *Endpoint) {
		ep.Return = TypeSpec{Present: true, Sequence: true, Type: reflect.TypeFor[T]()}
	}
}

// ResponseKey selects the JSON key modelled data is parsed from
func ResponseKey(key string) EndpointOption {
	return func(ep *Endpoint) {
		ep.ResponseKey = key
	}
}

// Versions restricts the endpoint to controller versions matching constraint
func Versions(constraint string) EndpointOption {
	return func(ep *Endpoint) {
		ep.Versions = constraint
	}
}

// Views restricts the endpoint to the given session views
func Views(views ...SessionType) EndpointOption {
	return func(ep *Endpoint) {
		ep.Views = append(ep.Views, views...)
	}
}

// Strict makes version and view mismatches fail the call
func Strict() EndpointOption {
	return func(ep *Endpoint) {
		ep.Strict = true
	}
}

// RequestHeader adds a header sent with every request to the endpoint
func RequestHeader(key, value string) EndpointOption {
	return func(ep *Endpoint) {
		if ep.Headers == nil {
			ep.Headers = map[string]string{}
		}
		ep.Headers[key] = value
	}
}

// PathArgs declares the path arguments of the operation signature. Each one
// must match a placeholder of the path template and vice versa.
func PathArgs(names ...string) EndpointOption {
	return func(ep *Endpoint) {
		ep.PathArgs = append(ep.PathArgs, names...)
	}
}

// FullName returns "Group.Name"
func (ep *Endpoint) FullName() string {
	if ep.Group == "" {
		return ep.Name
	}
	return ep.Group + "." + ep.Name
}

// OperationID returns the snake_case operation identifier used in metrics and logs
func (ep *Endpoint) OperationID() string {
	if ep.Group == "" {
		return strcase.ToSnake(ep.Name)
	}
	return strcase.ToSnake(ep.Group) + "." + strcase.ToSnake(ep.Name)
}

// Key returns the "METHOD path" identity of the endpoint
func (ep *Endpoint) Key() string {
	return ep.Method + " " + ep.Path
}

// Template returns the parsed path template (valid after registration)
func (ep *Endpoint) Template() PathTemplate {
	return ep.template
}

// check validates the declaration and returns the parsed template and
// version constraint. It does not modify ep, so it is safe on endpoints
// that are already in use.
func (ep *Endpoint) check() (PathTemplate, *semver.Constraints, error) {
	fail := func(format string, args ...any) (PathTemplate, *semver.Constraints, error) {
		return PathTemplate{}, nil, &EndpointError{Endpoint: ep.FullName(), Message: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(ep.Name) == "" {
		return fail("name cannot be empty")
	}
	if err := ValidateMethod(ep.Method); err != nil {
		return fail("%v", err)
	}

	tmpl, err := ParsePathTemplate(ep.Path)
	if err != nil {
		return fail("%v", err)
	}

	placeholders := tmpl.Placeholders()
	for _, p := range placeholders {
		if slices.Contains(forbiddenPlaceholders, p) {
			return fail("placeholder name %q is reserved in %s", p, ep.Path)
		}
	}
	var missing, unused []string
	for _, p := range placeholders {
		if !slices.Contains(ep.PathArgs, p) {
			missing = append(missing, p)
		}
	}
	for _, a := range ep.PathArgs {
		if !slices.Contains(placeholders, a) {
			unused = append(unused, a)
		}
	}
	if len(missing) > 0 {
		return fail("missing path arguments %v to format path %s", missing, ep.Path)
	}
	if len(unused) > 0 {
		return fail("path arguments %v are not used to format path %s", unused, ep.Path)
	}

	if err := checkTypeSpec(ep.Payload, ep.Method == http.MethodGet); err != nil {
		return fail("payload: %v", err)
	}
	if err := checkTypeSpec(ep.Return, false); err != nil {
		return fail("return: %v", err)
	}

	var constraint *semver.Constraints
	if ep.Versions != "" {
		constraint, err = semver.NewConstraint(ep.Versions)
		if err != nil {
			return fail("invalid version constraint %q: %v", ep.Versions, err)
		}
	}
	for _, v := range ep.Views {
		if !slices.Contains(SessionTypes, v) {
			return fail("unknown session view %q", v)
		}
	}

	return tmpl, constraint, nil
}

// checkTypeSpec accepts structs, strings, byte slices and string-keyed maps.
// Sequences must hold structs.
func checkTypeSpec(spec TypeSpec, isGet bool) error {
	if !spec.Present {
		return nil
	}
	if isGet {
		return fmt.Errorf("GET endpoints cannot declare a request body")
	}
	t := spec.Type
	if t == nil {
		return fmt.Errorf("type is nil")
	}
	if spec.Sequence {
		if t.Kind() != reflect.Struct {
			return fmt.Errorf("sequence element must be a struct, got %s", t)
		}
		return nil
	}
	switch {
	case t.Kind() == reflect.Struct:
		return nil
	case t.Kind() == reflect.String:
		return nil
	case t == bytesType:
		return nil
	case t.Kind() == reflect.Map && t.Key().Kind() == reflect.String:
		return nil
	default:
		return fmt.Errorf("unsupported type %s (want struct, string, []byte or map[string]T)", t)
	}
}

// Registry is the static table of endpoints. It is filled once, usually from
// package-level declarations, and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]*Endpoint
	byName map[string]*Endpoint
	order  []*Endpoint
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byKey:  map[string]*Endpoint{},
		byName: map[string]*Endpoint{},
	}
}

// Register validates ep and adds it to the registry.
//
// Returns *EndpointError if the declaration is invalid or if the method+path
// pair or the Group.Name is already registered.
func (r *Registry) Register(ep *Endpoint) (*Endpoint, error) {
	if ep == nil {
		return nil, &EndpointError{Endpoint: "<nil>", Message: "endpoint cannot be nil"}
	}
	tmpl, constraint, err := ep.check()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[ep.Key()]; ok {
		return nil, &EndpointError{
			Endpoint: ep.FullName(),
			Message:  fmt.Sprintf("%s already registered by %s", ep.Key(), existing.FullName()),
		}
	}
	if _, ok := r.byName[ep.FullName()]; ok {
		return nil, &EndpointError{Endpoint: ep.FullName(), Message: "operation name already registered"}
	}
	// An endpoint shared by several registries is prepared once; later
	// registrations must not write to an endpoint that may be in use.
	if ep.template.raw == "" {
		ep.template = tmpl
		ep.constraint = constraint
	}
	r.byKey[ep.Key()] = ep
	r.byName[ep.FullName()] = ep
	r.order = append(r.order, ep)
	return ep, nil
}

// MustRegister is like Register but panics on error. It is meant for
// package-level endpoint tables, where an invalid declaration is a bug.
func (r *Registry) MustRegister(ep *Endpoint) *Endpoint {
	registered, err := r.Register(ep)
	if err != nil {
		panic(err)
	}
	return registered
}

// Lookup finds an endpoint by method and path template
func (r *Registry) Lookup(method, path string) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.byKey[strings.ToUpper(method)+" "+path]
	return ep, ok
}

// ByName finds an endpoint by group and operation name
func (r *Registry) ByName(group, name string) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := name
	if group != "" {
		key = group + "." + name
	}
	ep, ok := r.byName[key]
	return ep, ok
}

// Len returns the number of registered endpoints
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns the endpoints sorted by path, then method
func (r *Registry) All() []*Endpoint {
	r.mu.RLock()
	out := make([]*Endpoint, len(r.order))
	copy(out, r.order)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Validate re-checks every registered endpoint and the uniqueness of
// method+path pairs and operation names. All problems are reported at once.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result *multierror.Error
	keys := map[string]string{}
	names := map[string]bool{}
	for _, ep := range r.order {
		if _, _, err := ep.check(); err != nil {
			result = multierror.Append(result, err)
		}
		if owner, ok := keys[ep.Key()]; ok {
			result = multierror.Append(result, &EndpointError{
				Endpoint: ep.FullName(),
				Message:  fmt.Sprintf("%s already declared by %s", ep.Key(), owner),
			})
		}
		keys[ep.Key()] = ep.FullName()
		if names[ep.FullName()] {
			result = multierror.Append(result, &EndpointError{
				Endpoint: ep.FullName(),
				Message:  "operation name declared more than once",
			})
		}
		names[ep.FullName()] = true
	}
	return result.ErrorOrNil()
}
