package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/lottostats/internal/parser/extract"
)

var extractMaxAgeDays int

func init() {
	extractCmd.Flags().IntVar(&extractMaxAgeDays, "max-age-days", 0, "ignore draws older than this many days (0 keeps all)")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <game>",
	Short: "Fetches a game's result page and prints the draws found, without touching the cache.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.extractor.Extract(cmd.Context(), args[0], extractMaxAgeDays)
		if err != nil {
			var failure *extract.ExtractionFailure
			if errors.As(err, &failure) {
				return fmt.Errorf("extraction setup failed: %w", err)
			}
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no draws found for %s (page blocked or layout not recognized)", args[0])
		}
		renderDraws(os.Stdout, records)
		return nil
	},
}
