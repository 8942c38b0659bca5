package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"openlinkedin/internal/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store and safety counters",
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

		postCounts, err := svc.Store.Posts.CountByStatus()
		if err != nil {
			return err
		}
		commentCounts, err := svc.Store.Comments.CountByStatus()
		if err != nil {
			return err
		}
		feedItems, err := svc.Store.FeedItems.Count()
		if err != nil {
			return err
		}
		libraryDocs, err := svc.Store.Library.Count()
		if err != nil {
			return err
		}
		liked, disliked, err := svc.Store.Feedback.Counts()
		if err != nil {
			return err
		}

		fmt.Println("Posts:")
		printCounts(postCounts)
		fmt.Println("Comments:")
		printCounts(commentCounts)
		fmt.Printf("Feed items: %d\n", feedItems)
		fmt.Printf("Library docs: %d\n", libraryDocs)
		fmt.Printf("Feedback: %d liked, %d disliked\n", liked, disliked)

		safety := svc.Safety.Stats()
		fmt.Printf("Safety: %d/h %d/d %d/w remaining, error rate %.3f, cooldown %v\n",
			safety.HourlyRemaining, safety.DailyRemaining, safety.WeeklyRemaining,
			safety.ErrorRate, safety.InCooldown)

		rerank := svc.Reranker.Stats()
		fmt.Printf("Reranker: %s\n", rerank.Status)
		return nil
	},
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-10s %d\n", k, counts[k])
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
