// Package cli implements the datasnap command-line interface.
//
// Every invocation opens a fresh in-memory session: data imported by one
// command lives only for that command's process. Import commands therefore
// take action flags (--row, --filter, --query, --checksums) that run against
// the freshly imported data before the process exits.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"datasnap/internal/config"
	"datasnap/internal/engine"
	"datasnap/internal/service"
	"datasnap/internal/session"
)

var version = "dev"

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "datasnap",
		Short:         "Import, inspect, and checksum tabular data",
		Long:          "datasnap imports delimited files, spreadsheets, and remote database snapshots into an in-memory analytical store with type inference and per-row content checksums.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newCSVCmd())
	rootCmd.AddCommand(newExcelCmd())
	rootCmd.AddCommand(newSheetsCmd())
	rootCmd.AddCommand(newDBCmd())
	rootCmd.AddCommand(newTablesCmd())

	return rootCmd
}

// newService builds a session-backed service over a fresh in-memory store.
// The returned cleanup closes the store.
func newService() (*service.DataService, *config.Config, func(), error) {
	cfg := config.LoadFromEnv()
	logger := cfg.NewLogger()

	db, err := engine.Open()
	if err != nil {
		return nil, nil, nil, err
	}
	sess := session.New(db, logger)
	cleanup := func() { db.Close() }
	return service.New(sess), cfg, cleanup, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
