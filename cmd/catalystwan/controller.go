// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/netascode/go-catalystwan/endpoints"
	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Print controller server information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.Server(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newTenantsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "List tenants (provider view)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, api, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			tenants, err := api.TenantManagement.Get(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), tenants)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tORGANIZATION\tSUBDOMAIN\tTENANT ID\tSTATE")
			for _, t := range tenants {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.OrgName, t.SubDomain, t.TenantID, t.State)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect asynchronous controller tasks",
	}

	var interval, timeout time.Duration
	wait := &cobra.Command{
		Use:   "wait ID",
		Short: "Poll a task until it completes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, api, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			data, err := api.Tasks.Get(args[0]).Wait(cmd.Context(),
				endpoints.PollInterval(interval),
				endpoints.PollTimeout(timeout))
			if perr := printJSON(cmd.OutOrStdout(), data.Summary); perr != nil {
				return perr
			}
			return err
		},
	}
	wait.Flags().DurationVar(&interval, "interval", endpoints.DefaultPollInterval, "poll interval")
	wait.Flags().DurationVar(&timeout, "timeout", endpoints.DefaultPollTimeout, "give up after this long")

	cmd.AddCommand(wait)
	return cmd
}
