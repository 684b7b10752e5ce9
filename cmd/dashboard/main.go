// Command dashboard is a terminal GM dashboard: it watches a campaign the
// way an overlay viewer does and applies stat changes optimistically.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpggio/gmboard/internal/client"
	"github.com/rpggio/gmboard/internal/config"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
)

const appName = "dashboard"

var version = "dev"

func main() {
	if err := rootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	server   string
	logLevel string
	noPush   bool
}

func rootCmd(out io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Terminal GM dashboard for a gmboard server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8080", "gmboard server base URL")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	watch := &cobra.Command{
		Use:   "watch CAMPAIGN_ID",
		Short: "Print the campaign every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("campaign", args[0])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), opts, id)
		},
	}
	watch.Flags().BoolVar(&opts.noPush, "no-push", false, "Poll only, without the websocket channel")

	set := &cobra.Command{
		Use:   "set CAMPAIGN_ID CHARACTER_ID FIELD VALUE",
		Short: "Change a character field, or a stat with --stat",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := parseID("campaign", args[0])
			if err != nil {
				return err
			}
			characterID, err := parseID("character", args[1])
			if err != nil {
				return err
			}
			stat, _ := cmd.Flags().GetString("stat")
			m := mutation.Mutation{Field: mutation.Field(args[2]), StatName: stat, Value: parseValue(args[3])}
			return runSet(cmd.Context(), cmd.OutOrStdout(), opts, campaignID, characterID, m)
		},
	}
	set.Flags().String("stat", "", "Stat name for statValue and statMax")

	cmd.AddCommand(watch, set, &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	})
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, opts options, campaignID int64) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	api := client.New(opts.server, client.WithTimeout(cfg.Sync.RequestTimeout), client.WithLogger(logger))

	viewerOpts := []client.ViewerOption{
		client.WithViewerLogger(logger),
		client.WithPolling(
			client.WithPollInterval(cfg.Sync.PollInterval),
			client.WithMaxBackoff(cfg.Sync.MaxBackoff),
			client.WithPollTimeout(cfg.Sync.RequestTimeout),
			client.WithPollerLogger(logger),
		),
	}
	if !opts.noPush {
		viewerOpts = append(viewerOpts, client.WithPush(opts.server,
			client.WithReconnectBackoff(cfg.Sync.PollInterval, cfg.Sync.MaxBackoff),
			client.WithSubscriberLogger(logger),
		))
	}
	viewer := client.NewViewer(api, campaignID, viewerOpts...)
	defer viewer.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- viewer.Run(ctx) }()

	enc := json.NewEncoder(out)
	for {
		select {
		case state := <-viewer.Updates():
			if err := enc.Encode(summarize(state)); err != nil {
				return err
			}
		case err := <-errCh:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func runSet(ctx context.Context, out io.Writer, opts options, campaignID, characterID int64, m mutation.Mutation) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	api := client.New(opts.server, client.WithTimeout(cfg.Sync.RequestTimeout), client.WithLogger(logger))

	failures := make(client.ChannelNotifier, 1)
	writer := client.NewOptimistic(client.NewCache[[]campaign.Campaign](), api,
		client.WithClampPolicy(cfg.ClampPolicy()),
		client.WithNotifier(failures),
		client.WithConfirmTimeout(cfg.Sync.RequestTimeout),
		client.WithOptimisticLogger(logger),
	)
	if _, err := writer.Load(ctx); err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}

	pending, err := writer.ApplyLocal(ctx, campaignID, characterID, m)
	if err != nil {
		return err
	}
	if err := pending.Wait(ctx); err != nil {
		select {
		case n := <-failures:
			return fmt.Errorf("%s: rolled back: %w", n.Message, err)
		default:
			return err
		}
	}

	stored := pending.Stored()
	if stored == nil {
		stored = &pending.After
	}
	return json.NewEncoder(out).Encode(stored)
}

func setup(opts options) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	level := slog.LevelWarn
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid log level %q", opts.logLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// parseValue keeps form-style strings except the literals true and false.
func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	default:
		return raw
	}
}
