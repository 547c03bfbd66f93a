package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/noor-alrahman/noor-cli/internal/prayer"
	"github.com/noor-alrahman/noor-cli/internal/service"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(timesCmd)
}

var timesCmd = &cobra.Command{
	Use:   "times",
	Short: "Print today's prayer times for your location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		setupCLILogging(opts.debug)

		svc, err := newServices(cmd, loadConfig())
		handleErr(err)

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		times, err := svc.prayer.Load(ctx)
		handleErr(err)
		handleErr(printTimes(cmd.OutOrStdout(), times, time.Now()))
	},
}

func printTimes(w io.Writer, times *service.PrayerTimes, now time.Time) error {
	day := times.Day
	now = now.In(day.Location(now.Location()))

	if _, err := fmt.Fprintf(w, "%s\n%s", times.Label(), day.Date.Readable); err != nil {
		return err
	}
	if hijri := day.HijriLabel(); hijri != "" {
		fmt.Fprintf(w, " · %s", hijri)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	next, remaining, err := times.Next(now)
	if err != nil {
		return err
	}
	for _, name := range prayer.TimingNames {
		marker := " "
		if name == next.Name {
			marker = "➤"
		}
		fmt.Fprintf(w, "%s %-8s %s\n", marker, name, prayer.Clock(day.Timings.Get(name)))
	}

	_, err = fmt.Fprintf(w, "\nNext: %s in %s\n", next.Name, prayer.FormatRemaining(remaining))
	return err
}
