package main

import (
	"context"
	"fmt"
	"io"

	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.Flags().StringP("category", "c", "", "Only list channels of this category")
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the live TV channels",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		setupCLILogging(opts.debug)

		category, err := cmd.Flags().GetString("category")
		handleErr(err)

		svc, err := newServices(cmd, loadConfig())
		handleErr(err)

		channels, err := svc.channels.Load(context.Background())
		handleErr(err)
		handleErr(printChannels(cmd.OutOrStdout(), channels, category))
	},
}

func printChannels(w io.Writer, channels []live.Channel, category string) error {
	for _, c := range live.Categories(channels) {
		if category != "" && c != category {
			continue
		}
		fmt.Fprintf(w, "%s\n", live.CategoryTitle(c))
		for _, ch := range live.Filter(channels, c) {
			if _, err := fmt.Fprintf(w, "  %-32s %-6s %s\n", ch.Name, live.DetectKind(ch.URL), ch.URL); err != nil {
				return err
			}
		}
	}
	return nil
}
