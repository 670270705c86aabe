package main

import (
	"fmt"

	favtypes "rivergauge-server/internal/modules/favorites/types"

	"github.com/spf13/cobra"
)

func favoritesCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List, add or remove favorite stations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your favorite stations, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				favorites, err := opts.client.ListFavorites(cmd.Context(), opts.userID)
				if err != nil {
					return err
				}
				return printFavorites(cmd.OutOrStdout(), favorites)
			},
		},
		&cobra.Command{
			Use:   "add SITE",
			Short: "Save a station to your favorites",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := lookupStation(cmd.Context(), opts, args[0])
				if err != nil {
					return err
				}
				lat, lon := d.Latitude, d.Longitude
				fav, err := opts.client.AddFavorite(cmd.Context(), favtypes.NewFavorite{
					UserID:    opts.userID,
					SiteID:    d.SiteCode,
					SiteName:  d.SiteName,
					Latitude:  &lat,
					Longitude: &lon,
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) as favorite %d\n", fav.SiteName, fav.SiteID, fav.ID)
				return err
			},
		},
		&cobra.Command{
			Use:   "remove ID",
			Short: "Remove a favorite by its id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.client.RemoveFavorite(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed favorite %s\n", args[0])
				return err
			},
		},
	)
	return cmd
}
