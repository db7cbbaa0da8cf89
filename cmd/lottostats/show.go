package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var showJSON bool

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the cache entry as JSON")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <game>",
	Short: "Prints the statistics currently served for a game.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		entry, source, err := a.coord.Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		}
		renderStats(os.Stdout, entry, source)
		return nil
	},
}
