package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/noor-alrahman/noor-cli/internal/azkar"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(azkarCmd)
}

var azkarCmd = &cobra.Command{
	Use:   "azkar [type]",
	Short: "List azkar categories, or print the azkar of one category",
	Args:  cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		svc, err := newServices(cmd, loadConfig())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		categories, err := svc.azkar.LoadCategories(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		types := make([]string, 0, len(categories))
		for _, c := range categories {
			types = append(types, c.Type)
		}
		return types, cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		setupCLILogging(opts.debug)

		svc, err := newServices(cmd, loadConfig())
		handleErr(err)

		ctx := context.Background()
		if len(args) == 0 {
			categories, err := svc.azkar.LoadCategories(ctx)
			handleErr(err)
			handleErr(printCategories(cmd.OutOrStdout(), categories))
			return
		}

		items, err := svc.azkar.LoadAzkar(ctx, args[0])
		handleErr(err)
		handleErr(printAzkar(cmd.OutOrStdout(), items))
	},
}

func printCategories(w io.Writer, categories []azkar.Category) error {
	for _, c := range categories {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.Type, c.Title); err != nil {
			return err
		}
	}
	return nil
}

func printAzkar(w io.Writer, items []azkar.Zikr) error {
	for i, z := range items {
		if i > 0 {
			fmt.Fprintln(w, strings.Repeat("─", 40))
		}
		if z.Title != "" {
			fmt.Fprintf(w, "%s\n", z.Title)
		}
		fmt.Fprintf(w, "%s\n", strings.TrimSpace(z.Text))
		if z.Reference != "" {
			fmt.Fprintf(w, "(%s)\n", z.Reference)
		}
		if _, err := fmt.Fprintf(w, "× %d\n", z.Count()); err != nil {
			return err
		}
	}
	return nil
}
