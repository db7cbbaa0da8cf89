package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/lottostats/internal/pkg/games"
)

func init() {
	rootCmd.AddCommand(gamesCmd)
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Lists the known game types and their sources.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := games.NewRegistry(games.Builtin()...)
		if err := registry.Apply(appConfig.Games); err != nil {
			return err
		}
		renderGames(os.Stdout, registry.All())
		return nil
	},
}
