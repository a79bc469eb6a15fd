package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/shopkeep/internal/store"
	"github.com/hyperengineering/shopkeep/internal/types"
	"github.com/hyperengineering/shopkeep/internal/validation"
)

var (
	createName        string
	createEmail       string
	createLanguage    string
	createLanguages   []string
	createCurrency    string
	createRetailer    bool
	createParent      string
	createIfNotExists bool
)

var storeCreateCmd = &cobra.Command{
	Use:   "create <code>",
	Short: "Create a new store",
	Long:  "Create a merchant store with the given code. Codes are letters, digits, hyphens and underscores.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreCreate,
}

func init() {
	storeCreateCmd.Flags().StringVar(&createName, "name", "", "Store name (required)")
	storeCreateCmd.Flags().StringVar(&createEmail, "email", "", "Store contact email (required)")
	storeCreateCmd.Flags().StringVar(&createLanguage, "language", "", "Default language code")
	storeCreateCmd.Flags().StringSliceVar(&createLanguages, "languages", nil, "Supported language codes")
	storeCreateCmd.Flags().StringVar(&createCurrency, "currency", "", "ISO 4217 currency code")
	storeCreateCmd.Flags().BoolVar(&createRetailer, "retailer", false, "Store is a retailer")
	storeCreateCmd.Flags().StringVar(&createParent, "parent", "", "Code of the retailer this store belongs to")
	storeCreateCmd.Flags().BoolVar(&createIfNotExists, "if-not-exists", false,
		"Exit 0 if store already exists")
}

func runStoreCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	in := types.PersistableStore{
		Code:               args[0],
		Name:               createName,
		Email:              createEmail,
		DefaultLanguage:    createLanguage,
		SupportedLanguages: createLanguages,
		Currency:           createCurrency,
		Retailer:           createRetailer,
		RetailerStore:      createParent,
	}
	if errs := validation.ValidatePersistableStore(in); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Field + " " + e.Message
		}
		return fmt.Errorf("invalid store: %s", strings.Join(msgs, "; "))
	}

	a, err := resolveApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.stores.Create(ctx, in, cliPrincipal)
	if err != nil {
		if errors.Is(err, store.ErrStoreExists) && createIfNotExists {
			existing, loadErr := a.stores.GetByCode(ctx, in.Code, "")
			if loadErr != nil {
				return fmt.Errorf("store exists but could not be loaded: %w", loadErr)
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"store":           existing,
					"already_existed": true,
				})
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Store %q already exists (%s)\n", existing.Code, existing.Name)
			return nil
		}
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), created)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created store %q (%s, language: %s)\n", created.Code, created.Name, created.DefaultLanguage)
	return nil
}
