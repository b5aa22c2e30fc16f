package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"collablist/pkg/listsync"
	"collablist/store"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add field=value...",
	Short: "Append one entry to the collection",
	Long: `Append one entry. Every field of the collection is required:

  jukebox add movie=Inception song=Time
  jukebox -c products add "name=Wireless Headset" price=99.99`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFields(args)
		if err != nil {
			return err
		}
		session, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer session.Close()

		entry, err := session.Append(cmd.Context(), clientCfg.Path(), fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry added successfully! (%s)\n", entry.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the collection once, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer session.Close()

		schema, err := session.Schema(cmd.Context(), clientCfg.Path())
		if err != nil {
			return err
		}
		snap, err := session.Snapshot(cmd.Context(), clientCfg.Path())
		if err != nil {
			return err
		}
		printView(cmd.OutOrStdout(), schema, listsync.Render(schema, snap))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the collection every time it changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		session, err := connect(ctx)
		if err != nil {
			return err
		}
		defer session.Close()

		schema, err := session.Schema(ctx, clientCfg.Path())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := make(chan error, 1)
		sub, err := session.Subscribe(ctx, clientCfg.Path(),
			func(snap store.Snapshot) {
				printView(out, schema, listsync.Render(schema, snap))
			},
			func(err error) { failed <- err })
		if err != nil {
			return err
		}
		defer sub.Cancel()

		select {
		case <-ctx.Done():
			return nil
		case err := <-failed:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, watchCmd)
}

func connect(ctx context.Context) (*listsync.Session, error) {
	cfg, err := clientCfg.ListSync()
	if err != nil {
		return nil, err
	}
	return listsync.Connect(ctx, cfg)
}

// parseFields turns name=value arguments into entry fields.
func parseFields(args []string) (store.Fields, error) {
	fields := make(store.Fields, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		if _, dup := fields[name]; dup {
			return nil, fmt.Errorf("field %q given twice", name)
		}
		fields[name] = value
	}
	return fields, nil
}

func printView(w io.Writer, schema store.Schema, view listsync.View) {
	fmt.Fprintf(w, "== %s ==\n", schema.Heading)
	if view.Empty {
		fmt.Fprintln(w, view.EmptyText)
		return
	}
	for _, r := range view.Rows {
		detail := r.Detail
		if r.DetailLabel != "" {
			detail = r.DetailLabel + ": " + r.Detail
		}
		fmt.Fprintf(w, "%s\n  %s\n  Added by: %s\n", r.Title, detail, r.AddedBy)
	}
}
