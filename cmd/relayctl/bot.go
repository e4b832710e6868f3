package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"botrelay/internal/common"
	"botrelay/internal/config"
	"botrelay/internal/logging"
	"botrelay/internal/user"
	"botrelay/internal/wire"
)

func botCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Manage bot accounts",
	}
	cmd.AddCommand(botCreateCmd())
	return cmd
}

func botCreateCmd() *cobra.Command {
	var req user.RegisterBotRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a bot and print its key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadEnv()
			if err != nil {
				return err
			}
			bots, cleanup, err := wire.InitializeBotService(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return runBotCreate(ctx, cmd.OutOrStdout(), bots, req)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "bot display name")
	cmd.Flags().StringVar(&req.WebhookURL, "webhook-url", "", "webhook endpoint (default: RELAY_ENDPOINT_URL)")
	cmd.Flags().DurationVar(&req.Timeout, "timeout", 0, "per-attempt timeout override")
	cmd.Flags().IntVar(&req.RetryCount, "retries", 0, "total delivery attempts override")
	cmd.Flags().DurationVar(&req.RetryBackoff, "backoff", 0, "delay between attempts override")
	cmd.Flags().BoolVar(&req.EmbedAttachments, "embed", false, "send attachments inline as base64")
	cmd.Flags().StringSliceVar(&req.RoomIDs, "room", nil, "room to join (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runBotCreate(ctx context.Context, w io.Writer, bots user.BotService, req user.RegisterBotRequest) error {
	bot, key, err := bots.RegisterBot(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "bot %s (%s) created\nbot key: %s\nThe key is shown once; store it now.\n", bot.Name, bot.ID, key)
	return err
}

func tokenCmd() *cobra.Command {
	var userID, name string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadEnv()
			if err != nil {
				return err
			}
			return runToken(cmd.OutOrStdout(), wire.ProvideTokenIssuer(cfg, log), userID, name)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID the token authenticates")
	cmd.Flags().StringVar(&name, "name", "", "display name carried in the token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runToken(w io.Writer, issuer *common.TokenIssuer, userID, name string) error {
	token, err := issuer.GenerateToken(userID, name)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func loadEnv() (*config.Config, zerolog.Logger, error) {
	cfg := config.LoadConfig()
	log, _, err := logging.New(config.LoggingConfig{Level: cfg.Logging.Level, Format: "text", OutputPath: "stderr"})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
