package main

import (
	"github.com/spf13/cobra"

	"autodraft.app/assistant/core/config"
	"autodraft.app/assistant/internal/auth"
)

func setupAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-auth",
		Short: "Authorize access to Gmail, Drive and Sheets and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadGoogle()
			oauthCfg, err := auth.LoadConfig(cfg.CredentialsPath)
			if err != nil {
				return err
			}
			flow := &auth.Flow{Config: oauthCfg, TokenPath: cfg.TokenPath, Out: cmd.OutOrStdout()}
			_, err = flow.Run(cmd.Context())
			return err
		},
	}
}
