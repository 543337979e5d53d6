// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package conformance compares the endpoint registry with a controller
// OpenAPI document.
//
// vManage publishes its API description under /apidocs. Loading it and
// running Check reports every registered endpoint whose method and path the
// controller does not document, which usually means a typo in a path
// template or an endpoint removed in the running release.
package conformance

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	catalystwan "github.com/netascode/go-catalystwan"
	"github.com/pb33f/libopenapi"
	v2 "github.com/pb33f/libopenapi/datamodel/high/v2"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// Kind classifies a finding
type Kind string

const (
	// MissingPath means the document has no path matching the endpoint
	MissingPath Kind = "missing-path"

	// MissingMethod means the path exists but not with the endpoint's method
	MissingMethod Kind = "missing-method"
)

// Finding is a registry entry absent from the document
type Finding struct {
	Endpoint string
	Method   string
	Path     string
	Kind     Kind
}

// String renders the finding as one line
func (f Finding) String() string {
	switch f.Kind {
	case MissingMethod:
		return fmt.Sprintf("%s: %s %s: path documented without method %s", f.Endpoint, f.Method, f.Path, f.Method)
	default:
		return fmt.Sprintf("%s: %s %s: path not documented", f.Endpoint, f.Method, f.Path)
	}
}

// Document is the set of operations an OpenAPI document declares
type Document struct {
	Title   string
	Version string

	// ops maps normalized paths to their methods
	ops map[string]map[string]bool
}

var placeholder = regexp.MustCompile(`\{[^{}]*\}`)

// Normalize strips the base path and parameter names so that templates
// written with different parameter names compare equal
func Normalize(path string) string {
	path = strings.TrimPrefix(path, catalystwan.BasePath)
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return placeholder.ReplaceAllString(path, "{}")
}

// LoadFile reads an OpenAPI document (JSON or YAML) from disk
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	return Load(data)
}

// Load parses an OpenAPI 3 or Swagger 2 document
func Load(data []byte) (*Document, error) {
	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	if info := doc.GetSpecInfo(); info != nil && strings.HasPrefix(info.Version, "2") {
		model, err := doc.BuildV2Model()
		if err != nil {
			return nil, fmt.Errorf("failed to build v2 model: %v", err)
		}
		return fromV2(&model.Model), nil
	}

	model, err := doc.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("failed to build v3 model: %v", err)
	}
	return fromV3(&model.Model), nil
}

func fromV3(m *v3.Document) *Document {
	d := &Document{ops: map[string]map[string]bool{}}
	if m.Info != nil {
		d.Title = m.Info.Title
		d.Version = m.Info.Version
	}
	if m.Paths == nil || m.Paths.PathItems == nil {
		return d
	}
	for pair := m.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
		item := pair.Value()
		if item == nil {
			continue
		}
		d.add(pair.Key(), map[string]bool{
			"GET":     item.Get != nil,
			"POST":    item.Post != nil,
			"PUT":     item.Put != nil,
			"PATCH":   item.Patch != nil,
			"DELETE":  item.Delete != nil,
			"HEAD":    item.Head != nil,
			"OPTIONS": item.Options != nil,
		})
	}
	return d
}

func fromV2(m *v2.Swagger) *Document {
	d := &Document{ops: map[string]map[string]bool{}}
	if m.Info != nil {
		d.Title = m.Info.Title
		d.Version = m.Info.Version
	}
	if m.Paths == nil || m.Paths.PathItems == nil {
		return d
	}
	base := strings.TrimRight(m.BasePath, "/")
	for pair := m.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
		item := pair.Value()
		if item == nil {
			continue
		}
		d.add(base+pair.Key(), map[string]bool{
			"GET":     item.Get != nil,
			"POST":    item.Post != nil,
			"PUT":     item.Put != nil,
			"PATCH":   item.Patch != nil,
			"DELETE":  item.Delete != nil,
			"HEAD":    item.Head != nil,
			"OPTIONS": item.Options != nil,
		})
	}
	return d
}

func (d *Document) add(path string, methods map[string]bool) {
	key := Normalize(path)
	set := d.ops[key]
	if set == nil {
		set = map[string]bool{}
		d.ops[key] = set
	}
	for m, ok := range methods {
		if ok {
			set[m] = true
		}
	}
}

// Len returns the number of documented operations
func (d *Document) Len() int {
	n := 0
	for _, set := range d.ops {
		n += len(set)
	}
	return n
}

// Has reports whether the document declares method on path
func (d *Document) Has(method, path string) bool {
	return d.ops[Normalize(path)][strings.ToUpper(method)]
}

// Check returns a finding for every registry entry the document does not
// declare, sorted like Registry.All
func (d *Document) Check(reg *catalystwan.Registry) []Finding {
	var findings []Finding
	for _, ep := range reg.All() {
		set, ok := d.ops[Normalize(ep.Path)]
		switch {
		case !ok:
			findings = append(findings, Finding{Endpoint: ep.FullName(), Method: ep.Method, Path: ep.Path, Kind: MissingPath})
		case !set[ep.Method]:
			findings = append(findings, Finding{Endpoint: ep.FullName(), Method: ep.Method, Path: ep.Path, Kind: MissingMethod})
		}
	}
	return findings
}

// Undeclared lists the documented operations that the registry does not
// cover, as "METHOD path" with normalized paths. Useful when extending the
// registry for a new controller release.
func (d *Document) Undeclared(reg *catalystwan.Registry) []string {
	covered := map[string]bool{}
	for _, ep := range reg.All() {
		covered[ep.Method+" "+Normalize(ep.Path)] = true
	}
	var out []string
	for path, set := range d.ops {
		for m := range set {
			if key := m + " " + path; !covered[key] {
				out = append(out, key)
			}
		}
	}
	sort.Strings(out)
	return out
}
