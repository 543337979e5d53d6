// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/netascode/go-catalystwan/conformance"
	"github.com/netascode/go-catalystwan/endpoints"
	"github.com/spf13/cobra"
)

// errFindings fails the conform command after its findings were printed
var errFindings = errors.New("conformance findings")

func newEndpointsCmd() *cobra.Command {
	var output string
	var check bool
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Print the endpoint table as Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if check {
				if err := endpoints.Registry.Validate(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d endpoints OK\n", endpoints.Registry.Len())
				return nil
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return endpoints.Registry.WriteMarkdown(w)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the table to a file instead of stdout")
	cmd.Flags().BoolVar(&check, "check", false, "validate the registry instead of printing it")
	return cmd
}

func newConformCmd() *cobra.Command {
	var spec string
	var undeclared bool
	cmd := &cobra.Command{
		Use:   "conform",
		Short: "Check the endpoint registry against a controller OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := conformance.LoadFile(spec)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if undeclared {
				for _, op := range doc.Undeclared(endpoints.Registry) {
					fmt.Fprintln(out, op)
				}
			}

			findings := doc.Check(endpoints.Registry)
			for _, f := range findings {
				fmt.Fprintln(out, f)
			}
			if len(findings) > 0 {
				fmt.Fprintf(out, "%d of %d endpoints not found in %s %s\n",
					len(findings), endpoints.Registry.Len(), doc.Title, doc.Version)
				return errFindings
			}
			fmt.Fprintf(out, "all %d endpoints found in %s %s\n", endpoints.Registry.Len(), doc.Title, doc.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "OpenAPI document (JSON or YAML)")
	cmd.Flags().BoolVar(&undeclared, "undeclared", false, "also list documented operations missing from the registry")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}
