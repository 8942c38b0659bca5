package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"openlinkedin/internal/services"
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Train the feed reranker from stored feedback",
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

		report, err := svc.Retrain()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retrainCmd)
}
