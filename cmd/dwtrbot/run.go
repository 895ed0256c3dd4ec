package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaopengme/dwtrbot/pkg/apiclient"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/channels"
	"github.com/zhaopengme/dwtrbot/pkg/commands"
	"github.com/zhaopengme/dwtrbot/pkg/config"
	"github.com/zhaopengme/dwtrbot/pkg/gateway"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
	"github.com/zhaopengme/dwtrbot/pkg/tokens"
)

const (
	coverTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot on every enabled channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			envFiles, err := cmd.Flags().GetStringSlice("env-file")
			if err != nil {
				return err
			}
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if err := setupLogging(cfg.Log); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

func setupLogging(cfg config.LogConfig) error {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return logger.SetFormatter(cfg.Format)
}

func newTokenStore(cfg config.TokensConfig) (tokens.Store, error) {
	if cfg.StorePath == "" {
		return tokens.NewMemoryStore(), nil
	}
	return tokens.NewFileStore(cfg.StorePath)
}

func newAPIClient(ctx context.Context, cfg config.APIConfig) (*apiclient.Client, error) {
	opts := []apiclient.Option{apiclient.WithTimeout(cfg.Timeout)}
	if cfg.CacheEnabled() {
		cache := apiclient.NewResponseCache(cfg.CacheTTL, cfg.CacheMaxEntries)
		opts = append(opts, apiclient.WithCache(cache))
		go func() {
			if err := cache.RunFlusher(ctx, cfg.CacheFlushSchedule); err != nil {
				logger.ErrorCF("apiclient", "Cache flusher stopped", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}
	return apiclient.New(cfg.Base, opts...)
}

func newChannels(cfg config.ChannelsConfig, b bus.Broker) ([]channels.Channel, error) {
	var out []channels.Channel
	if cfg.Telegram.Enabled {
		ch, err := channels.NewTelegramChannel(cfg.Telegram, b)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		out = append(out, ch)
	}
	if cfg.Discord.Enabled {
		ch, err := channels.NewDiscordChannel(cfg.Discord, b)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		out = append(out, ch)
	}
	if cfg.Slack.Enabled {
		ch, err := channels.NewSlackChannel(cfg.Slack, b)
		if err != nil {
			return nil, fmt.Errorf("slack: %w", err)
		}
		out = append(out, ch)
	}
	if cfg.Console.Enabled {
		ch, err := channels.NewConsoleChannel(b)
		if err != nil {
			return nil, fmt.Errorf("console: %w", err)
		}
		out = append(out, ch)
	}
	return out, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := newTokenStore(cfg.Tokens)
	if err != nil {
		return err
	}
	client, err := newAPIClient(ctx, cfg.API)
	if err != nil {
		return err
	}

	registry := commands.NewDefaultRegistry(commands.Dependencies{
		Auth:       client,
		AudioPlays: client,
		Tokens:     store,
		Covers:     apiclient.NewCoverFetcher(coverTimeout),
	})
	dispatcher := commands.NewDispatcher(registry)

	messageBus := bus.NewMessageBus()
	defer messageBus.Close()

	chans, err := newChannels(cfg.Channels, messageBus)
	if err != nil {
		return err
	}
	manager := channels.NewManager(messageBus)
	for _, ch := range chans {
		manager.Register(ch)
	}
	if err := manager.StartAll(ctx); err != nil {
		return err
	}

	logger.InfoCF("dwtrbot", "Bot started", map[string]interface{}{
		"api":      cfg.API.Base,
		"channels": manager.GetEnabledChannels(),
		"commands": registry.Commands(),
	})

	gw := gateway.NewCommandGateway(messageBus, dispatcher)
	gwErr := gw.Run(ctx)

	logger.Info("Shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := manager.StopAll(stopCtx); err != nil {
		logger.WarnCF("dwtrbot", "Channel shutdown incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return gwErr
}
