package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribeworks/scribe/internal/config"
	"github.com/scribeworks/scribe/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(workDir)
		if err != nil {
			return err
		}

		fmt.Printf("providers: %v\n", model.Available())
		fmt.Printf("concurrency: %d\n", cfg.Concurrency)
		fmt.Printf("maxReviewRounds: %d\n", cfg.MaxReviewRounds)
		fmt.Printf("maxWriteRounds: %d\n", cfg.MaxWriteRounds)
		fmt.Printf("historyLimit: %d\n", cfg.HistoryLimit)
		fmt.Println()

		roles := []string{
			config.RolePlanner, config.RoleWriter, config.RoleReviewer,
			config.RoleCritic, config.RoleArbiter, config.RoleVerifier,
		}
		for _, role := range roles {
			s := cfg.ForRole(role)
			key := "unset"
			if s.APIKey != "" {
				key = "set"
			}
			fmt.Printf("%-9s %s/%s  temp=%.1f  maxTokens=%d  apiKey=%s\n",
				role, s.Provider, s.Model, s.Temperature, s.MaxTokens, key)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().StringVar(&workDir, "dir", ".", "Project directory holding .scribe/")
	rootCmd.AddCommand(configCmd)
}
