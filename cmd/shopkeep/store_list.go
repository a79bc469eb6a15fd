package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/shopkeep/internal/criteria"
	"github.com/hyperengineering/shopkeep/internal/types"
)

var (
	listSearch string
	listStart  int
	listLength int
)

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stores",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

func init() {
	storeListCmd.Flags().StringVar(&listSearch, "search", "",
		"Match stores by code or name")
	storeListCmd.Flags().IntVar(&listStart, "start", 0,
		"Index of the first store to show")
	storeListCmd.Flags().IntVar(&listLength, "length", criteria.DefaultMaxCount,
		"Maximum number of stores to show")
}

func runStoreList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := resolveApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	lang, err := a.languages.DefaultLanguage(ctx)
	if err != nil {
		return err
	}

	c := types.StoreCriteria{
		StartIndex: listStart,
		MaxCount:   listLength,
		OrderDir:   types.SortAsc,
		Language:   lang.Code,
	}
	if search := strings.TrimSpace(listSearch); search != "" {
		c.Search = search
		c.Code = search
		c.Name = search
	}

	list, err := a.stores.GetByCriteria(ctx, c, "", *lang)
	if err != nil {
		return fmt.Errorf("list stores: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), list)
	}

	if len(list.Data) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stores found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "CODE\tNAME\tEMAIL\tRETAILER\tPARENT\tMODIFIED")
	for _, s := range list.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			s.Code,
			s.Name,
			s.Email,
			s.Retailer,
			dash(s.Parent),
			s.ReadableAudit.Modified,
		)
	}
	w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d stores)\n", list.Number, list.TotalPages, list.RecordsFiltered)
	return nil
}
