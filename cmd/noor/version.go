package main

import (
	"runtime"

	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version number")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			cmd.Println(config.AppVersion)
			return
		}
		cmd.Printf("%s v%s\n", config.AppName, config.AppVersion)
		cmd.Println(config.AppDescription)
		cmd.Printf("%s/%s, %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
		cmd.Printf("Source: %s\n", config.AppProjectURL)
	},
}
