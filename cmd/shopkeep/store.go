package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/shopkeep/internal/types"
)

var (
	dbPathOverride string
	jsonOutput     bool
)

// cliPrincipal is the actor recorded for changes made from the command line.
var cliPrincipal = types.Principal{UserName: "cli", Role: types.RoleSuperAdmin}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage merchant stores",
	Long:  "Create, list, and delete merchant stores without running the server.",
}

func init() {
	addDataFlags(storeCmd)

	storeCmd.AddCommand(storeCreateCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeDeleteCmd)
}

func addDataFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and SHOPKEEP_DB_PATH)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
}

// resolveApp loads configuration with the optional --db override and opens the services.
// Service logging goes to the command's stderr and only warnings are shown.
func resolveApp(cmd *cobra.Command) (*app, error) {
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
		&slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}
	return newApp(cfg)
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
