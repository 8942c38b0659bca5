package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"openlinkedin/internal/config"
	"openlinkedin/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "openlinkedin",
	Short: "openlinkedin ingests AI/ML content feeds and manages a LinkedIn posting queue.",
	Long: `openlinkedin aggregates AI/ML engineering feeds, scores articles for
production relevance, learns a personalised reranking from your feedback,
and manages a post/comment queue behind safety rate limits.`,
}

// Execute runs the CLI. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config/config.yaml)")
}

// loadConfig loads configuration and initialises logging. Every subcommand
// calls it first.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format != "json")
	return cfg, nil
}
