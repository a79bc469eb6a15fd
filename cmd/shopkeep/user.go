package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/shopkeep/internal/types"
)

var (
	userRole  string
	userStore string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an API user and print its token",
	Long:  "Create an API user. The generated bearer token is printed once and cannot be recovered later.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API users",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

func init() {
	addDataFlags(userCmd)

	userCreateCmd.Flags().StringVar(&userRole, "role", string(types.RoleAdmin),
		"Role: SUPERADMIN, ADMIN_RETAIL or ADMIN")
	userCreateCmd.Flags().StringVar(&userStore, "store", "",
		"Code of the store the user administers")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	a, err := resolveApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	u, token, err := a.users.CreateUser(cmd.Context(), args[0], types.Role(userRole), userStore)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"user":  u,
			"token": token,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created user %q (role: %s, store: %s)\n", u.UserName, u.Role, dash(u.StoreCode))
	fmt.Fprintf(cmd.OutOrStdout(), "Token: %s\n", token)
	fmt.Fprintln(cmd.ErrOrStderr(), "Store this token now; it is not shown again.")
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	a, err := resolveApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.users.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"users": users,
			"total": len(users),
		})
	}

	if len(users) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "NAME\tROLE\tSTORE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.UserName, u.Role, dash(u.StoreCode), u.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	return nil
}
