package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iceymoss/mdrdr/internal/engine"

	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract an article and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			res, err := a.extractor.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newMediaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "media <url>",
		Short: "Resolve media metadata and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			meta, err := a.media.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), meta)
		},
	}
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <url>",
		Short: "Run the full ingest pipeline against the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.openStorage(cmd.Context()); err != nil {
				return err
			}
			out, err := a.ingest.Ingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newRunCmd() *cobra.Command {
	var rawParams string
	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run a registered task once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			if strings.TrimSpace(rawParams) != "" {
				if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
					return fmt.Errorf("invalid --params: %w", err)
				}
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.openStorage(cmd.Context()); err != nil {
				return err
			}

			var opts []engine.Option
			if a.taskRuns != nil {
				opts = append(opts, engine.WithRecorder(a.taskRuns))
			}
			return engine.NewScheduler(a.env(), opts...).RunOnce(args[0], params)
		},
	}
	cmd.Flags().StringVar(&rawParams, "params", "", `task params as JSON, e.g. '{"limit": 10}'`)
	return cmd
}
