package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/parserutil"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [game...]",
	Short: "Refreshes the cached statistics of the given games, or of all games.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		keys := args
		if len(keys) == 0 {
			keys = a.registry.Keys()
		}
		for _, k := range keys {
			if _, ok := a.registry.Lookup(k); !ok {
				return fmt.Errorf("unknown game type %q", k)
			}
		}

		results := parserutil.RunGames(cmd.Context(), keys, a.coord.Refresh, parserutil.RunOptions{
			MaxConcurrent: appConfig.Scraper.Concurrency,
			OnFailure:     func(models.RefreshResult) {},
		})
		renderResults(os.Stdout, results)

		failed := 0
		for _, r := range results {
			if r.Outcome == models.RefreshFailed {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d refreshes failed", failed, len(results))
		}
		return nil
	},
}
