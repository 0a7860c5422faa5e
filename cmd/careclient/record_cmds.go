package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jrsteele09/care-portal/apiclient"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/records"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func kindArg(args []string) (records.Kind, error) {
	return records.ParseKind(strings.ToLower(args[0]))
}

func listCmd(a *app) *cobra.Command {
	var opts apiclient.ListOptions

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List records of a kind (patients, evaluations, appointments, messages, forum)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			page, err := a.client.ListRecords(cmd.Context(), string(kind), opts)
			if err != nil {
				return err
			}
			return a.printJSON(page)
		},
	}
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Records to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum records to return, 0 for the server default")
	return cmd
}

func getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			rec, err := a.client.GetRecord(cmd.Context(), string(kind), args[1])
			if err != nil {
				return err
			}
			return a.printJSON(rec)
		},
	}
}

func createCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create <kind> -f fields.json",
		Short: "Create a record from a JSON object of fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			fields, err := readFields(cmd, file)
			if err != nil {
				return err
			}
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			rec, err := a.client.CreateRecord(cmd.Context(), string(kind), fields)
			if err != nil {
				return err
			}
			return a.printJSON(rec)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file holding the fields, - for stdin")
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <kind> <id> -f fields.json",
		Short: "Replace the fields of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			fields, err := readFields(cmd, file)
			if err != nil {
				return err
			}
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			rec, err := a.client.UpdateRecord(cmd.Context(), string(kind), args[1], fields)
			if err != nil {
				return err
			}
			return a.printJSON(rec)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file holding the fields, - for stdin")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			if err := a.client.DeleteRecord(cmd.Context(), string(kind), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s %s\n", kind, args[1])
			return nil
		},
	}
}

// dashboardCmd loads every collection the user can see at once. After a
// restart all requests go out together; the refresh they trigger is shared.
func dashboardCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Fetch the first page of every record kind concurrently",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			pages, err := fetchDashboard(cmd.Context(), a.client, limit)
			if err != nil {
				return err
			}
			return a.printJSON(pages)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "Records per kind")
	return cmd
}

func fetchDashboard(ctx context.Context, client *apiclient.Client, limit int) (map[records.Kind]*apimodel.Page[apimodel.Record], error) {
	var mu sync.Mutex
	pages := make(map[records.Kind]*apimodel.Page[apimodel.Record])

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range records.Kinds() {
		g.Go(func() error {
			page, err := client.ListRecords(ctx, string(kind), apiclient.ListOptions{Limit: limit})
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			mu.Lock()
			pages[kind] = page
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func readFields(cmd *cobra.Command, file string) (map[string]any, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open fields file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var fields map[string]any
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("fields must be a JSON object")
	}
	return fields, nil
}
