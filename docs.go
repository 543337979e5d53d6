// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// markdownColumns are the endpoint table columns
var markdownColumns = []string{
	"HTTP request",
	"Supported Versions",
	"Method",
	"Payload Type",
	"Return Type",
	"Tenancy Mode",
}

// WriteMarkdown writes the registry as a Markdown table, one row per
// endpoint, sorted by path and method.
//
// Example:
//
//	f, _ := os.Create("ENDPOINTS.md")
//	defer f.Close()
//	if err := endpoints.Registry.WriteMarkdown(f); err != nil {
//	    log.Fatal(err)
//	}
func (r *Registry) WriteMarkdown(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "**catalystwan endpoints** (%d)\n\n", r.Len())
	writeRow(bw, markdownColumns)
	sep := make([]string, len(markdownColumns))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(bw, sep)

	for _, ep := range r.All() {
		writeRow(bw, []string{
			ep.Method + " " + BasePath + ep.Path,
			ep.Versions,
			ep.FullName(),
			ep.Payload.Name(),
			ep.Return.Name(),
			viewNames(ep.Views),
		})
	}
	return bw.Flush()
}

// writeRow writes one table row, escaping pipes in cell values
func writeRow(w io.Writer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
}
