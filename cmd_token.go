package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jobfill/config"
	"jobfill/services"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a classifier API token for a user",
	RunE:  runToken,
}

var (
	tokenUserID int
	tokenEmail  string
	tokenTTL    time.Duration
)

func init() {
	tokenCmd.Flags().IntVar(&tokenUserID, "user-id", 0, "User whose profile the token unlocks (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email recorded in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", services.DefaultTokenTTL, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg := config.GetAppConfig()
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if tokenUserID <= 0 {
		return fmt.Errorf("--user-id must be positive")
	}
	token, err := services.NewJWTService(cfg.JWTSecret).GenerateToken(tokenUserID, tokenEmail, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
