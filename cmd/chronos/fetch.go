package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/chronos/internal/config"
	"github.com/Sternrassler/chronos/pkg/apperr"
	"github.com/Sternrassler/chronos/pkg/client"
)

var (
	flagMonth       int
	flagDay         int
	flagBypassCache bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and print the sanitized feed for a date",
	Example: `  chronos fetch --month 7 --day 20
  chronos fetch              # today`,
	RunE: runFetch,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the Wikipedia API",
	RunE:  runHealth,
}

func init() {
	fetchCmd.Flags().IntVar(&flagMonth, "month", 0, "month (1-12), defaults to today")
	fetchCmd.Flags().IntVar(&flagDay, "day", 0, "day of month (1-31), defaults to today")
	fetchCmd.Flags().BoolVar(&flagBypassCache, "bypass-cache", false, "skip the cache probe")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	month, day := resolveDate(flagMonth, flagDay, time.Now())

	data, err := a.service.AcquireFeed(cmd.Context(), month, day, flagBypassCache)
	if err != nil {
		return fmt.Errorf("%s (%s)", apperr.PublicMessage(err), apperr.KindOf(err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// resolveDate fills unset month/day from now.
func resolveDate(month, day int, now time.Time) (int, int) {
	if month == 0 {
		month = int(now.Month())
	}
	if day == 0 {
		day = now.Day()
	}
	return month, day
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	status := a.upstream.CheckUpstream(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "wikipedia: %s\n", status)
	if status == client.HealthUnhealthy {
		return fmt.Errorf("wikipedia is unreachable")
	}
	return nil
}
