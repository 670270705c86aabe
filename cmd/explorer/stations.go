package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rivergauge-server/internal/explorer"
	"rivergauge-server/internal/modules/stations/types"

	"github.com/spf13/cobra"
)

func searchCommand(opts *options) *cobra.Command {
	var (
		req   types.SearchRequest
		watch time.Duration
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List active stations in a state or county",
		Example: `  explorer search --state md
  explorer search --county 24031 --watch 5m`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := explorer.NewSession(opts.client, opts.logger)
			if watch <= 0 {
				res := session.Search(cmd.Context(), req)
				if res.Err != nil {
					return res.Err
				}
				return printCards(cmd.OutOrStdout(), res.Cards)
			}
			return watchSearch(cmd, session, req, watch)
		},
	}
	cmd.Flags().StringVar(&req.State, "state", "", "two-letter state code")
	cmd.Flags().StringVar(&req.County, "county", "", "five-digit county FIPS code")
	cmd.Flags().DurationVar(&watch, "watch", 0, "re-run the search at this interval")
	cmd.MarkFlagsMutuallyExclusive("state", "county")
	cmd.MarkFlagsOneRequired("state", "county")
	return cmd
}

// watchSearch refreshes on every tick without waiting for the previous
// search; the session drops results that finish after a newer one.
func watchSearch(cmd *cobra.Command, session *explorer.Session, req types.SearchRequest, every time.Duration) error {
	ctx := cmd.Context()
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	run := func() {
		defer wg.Done()
		res := session.Search(ctx, req)
		if res.Stale || ctx.Err() != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n%s\n", time.Now().Format(time.Kitchen))
		if res.Err != nil {
			fmt.Fprintln(out, "error:", res.Err)
			return
		}
		if err := printCards(out, res.Cards); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "print:", err)
		}
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	wg.Add(1)
	go run()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			wg.Add(1)
			go run()
		}
	}
}

func detailsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "details SITE",
		Short: "Show current readings and status for a station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.client.StationDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printDetail(cmd.OutOrStdout(), d)
		},
	}
}

func historyCommand(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "history SITE",
		Short: "Show daily mean water temperature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := opts.client.StationHistory(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), points)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days")
	return cmd
}

// lookupStation fetches the site name and coordinates for favorites add.
func lookupStation(ctx context.Context, opts *options, site string) (types.Detail, error) {
	d, err := opts.client.StationDetails(ctx, site)
	if err != nil {
		return types.Detail{}, fmt.Errorf("look up %s: %w", site, err)
	}
	return d, nil
}
