package main

import (
	"context"
	"fmt"
	"io"

	"github.com/noor-alrahman/noor-cli/internal/geo"
	"github.com/noor-alrahman/noor-cli/internal/service"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(mosquesCmd)
	mosquesCmd.Flags().IntP("limit", "n", 20, "Maximum number of mosques to list (0 for all)")
}

var mosquesCmd = &cobra.Command{
	Use:   "mosques",
	Short: "List mosques near your location, nearest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		setupCLILogging(opts.debug)

		limit, err := cmd.Flags().GetInt("limit")
		handleErr(err)

		svc, err := newServices(cmd, loadConfig())
		handleErr(err)

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		nearby, err := svc.mosques.Load(ctx)
		handleErr(err)
		handleErr(printMosques(cmd.OutOrStdout(), nearby, limit))
	},
}

func printMosques(w io.Writer, nearby *service.NearbyMosques, limit int) error {
	origin := nearby.Origin.Label
	if origin == "" {
		origin = nearby.Origin.Coordinate.String()
	}
	radius := geo.FormatDistance(float64(nearby.Radius) / 1000)

	if len(nearby.Mosques) == 0 {
		_, err := fmt.Fprintf(w, "No mosques found within %s of %s\n", radius, origin)
		return err
	}

	fmt.Fprintf(w, "Mosques within %s of %s\n\n", radius, origin)
	mosques := nearby.Mosques
	if limit > 0 && len(mosques) > limit {
		mosques = mosques[:limit]
	}
	for i, m := range mosques {
		fmt.Fprintf(w, "%3d. %-40s %10s\n", i+1, m.Name, m.DistanceLabel())
		fmt.Fprintf(w, "     %s\n", m.Address)
		if link := m.MapURL(); link != "" {
			fmt.Fprintf(w, "     %s\n", link)
		}
	}
	if hidden := len(nearby.Mosques) - len(mosques); hidden > 0 {
		fmt.Fprintf(w, "\n… and %d more (use --limit 0 to list all)\n", hidden)
	}
	return nil
}
