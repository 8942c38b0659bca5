package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"openlinkedin/internal/services"
)

var (
	fetchPriorities []int
	fetchMinScore   float64
	fetchMaxResults int
	fetchPersist    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and score the configured feeds once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := services.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		if !fetchPersist {
			items := svc.Aggregator.FetchAndFilter(cmd.Context(), fetchPriorities, fetchMaxResults)
			for _, item := range items {
				if item.FinalScore < fetchMinScore {
					continue
				}
				fmt.Printf("%6.2f  [%-24s]  %s\n", item.FinalScore, item.SourceName, item.Title)
			}
			fmt.Printf("\n%d items\n", len(items))
			return nil
		}

		result, err := svc.FetchAndPersist(cmd.Context(), fetchPriorities, fetchMinScore, fetchMaxResults)
		if err != nil {
			return err
		}
		fmt.Printf("run %s: fetched %d, persisted %d, saved to library %d\n",
			result.RunID, result.Fetched, result.Persisted, result.Saved)
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntSliceVar(&fetchPriorities, "priorities", nil, "source priority tiers to fetch (default from config)")
	fetchCmd.Flags().Float64Var(&fetchMinScore, "min-score", 10.0, "drop items scoring below this")
	fetchCmd.Flags().IntVar(&fetchMaxResults, "max-results", 100, "cap on returned items")
	fetchCmd.Flags().BoolVar(&fetchPersist, "persist", false, "write results to the store instead of printing")
	rootCmd.AddCommand(fetchCmd)
}
