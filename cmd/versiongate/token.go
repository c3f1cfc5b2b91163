package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evn/versiongate/config"
	"github.com/evn/versiongate/internal/middleware"
	"github.com/evn/versiongate/internal/services/auth"
)

var (
	tokenRole    string
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin JWT signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.JwtSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		token, err := auth.NewJWTService(cfg.JwtSecret).GenerateToken(tokenSubject, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", middleware.RoleSuperadmin, "value of the role claim")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "versiongate-cli", "value of the sub claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "token lifetime")
}
