package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"openlinkedin/internal/feeds"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured feed sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		for _, src := range feeds.DefaultSources() {
			state := " "
			if !src.Enabled {
				state = "-"
			}
			fmt.Printf("%s P%d %-12s %-32s %s\n", state, src.Priority, src.Category, src.Name, src.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
