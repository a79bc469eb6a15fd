package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/shopkeep/internal/types"
)

var deleteForce bool

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <code>",
	Short: "Delete a store and its logo",
	Long:  "Permanently delete a store. The DEFAULT store and retailers with attached stores cannot be deleted. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDelete,
}

func init() {
	storeDeleteCmd.Flags().BoolVar(&deleteForce, "force", false,
		"Skip confirmation prompt")
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	code := args[0]
	ctx := cmd.Context()

	// Early check: prevent default store deletion with a clear message
	if code == types.DefaultStoreCode {
		return fmt.Errorf("cannot delete the %s store", types.DefaultStoreCode)
	}

	a, err := resolveApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Interactive confirmation unless --force
	if !deleteForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "WARNING: This will permanently delete store %q.\n", code)
		fmt.Fprint(errOut, "Type the store code to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}

		if strings.TrimSpace(input) != code {
			fmt.Fprintln(errOut, "Aborted. Store code did not match.")
			return nil
		}
	}

	if err := a.stores.Delete(ctx, code, cliPrincipal); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"code":    code,
			"deleted": true,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted store %q\n", code)
	return nil
}
