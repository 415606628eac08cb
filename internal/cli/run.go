package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ybarkan/wagate/internal/bridge"
	"github.com/ybarkan/wagate/internal/gateway"
	"github.com/ybarkan/wagate/internal/greenapi"
	"github.com/ybarkan/wagate/internal/groups"
	"github.com/ybarkan/wagate/internal/host"
	"github.com/ybarkan/wagate/internal/logging"
	"github.com/ybarkan/wagate/internal/ratelimit"
	"github.com/ybarkan/wagate/internal/session"
	"github.com/ybarkan/wagate/internal/store"
)

// shutdownGrace bounds the best-effort logout call during shutdown.
const shutdownGrace = 10 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bridge daemon",
		Long:  "Runs the polling bridge: connection state reconciliation, QR display while unauthorized, and notification forwarding for the monitored group. Events go to stdout, commands come from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			// The daemon honors the configured level and log file; the
			// early flag-derived logger only covered startup.
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			if cfg.Logging.File != "" {
				logPath := cfg.Logging.File
				if !filepath.IsAbs(logPath) {
					logPath = filepath.Join(paths.Logs, logPath)
				}
				var closer interface{ Close() error }
				log, closer = logging.NewWithFile(logPath, level)
				defer closer.Close()
			} else {
				log = logging.New(nil, level)
			}

			sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(sigCtx)
			defer cancel()

			limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
			client := greenapi.New(cfg.Provider, limiter, log)
			machine := session.NewMachine()
			monitor := session.NewMonitor()
			groupsSvc := groups.New(client, log)
			sink := host.NewSink(os.Stdout, log)

			var archive *store.Archive
			if cfg.Archive.Enabled {
				dbPath := cfg.Archive.Path
				if dbPath == "" {
					dbPath = filepath.Join(paths.Data, "wagate.db")
				}
				db, err := store.Open(dbPath, log)
				if err != nil {
					return err
				}
				defer db.Close()
				archive = store.NewArchive(db)
			}

			// handleCmd is assigned after the bridge exists; the feed is
			// constructed first because the bridge broadcasts through it.
			var handleCmd func(host.Command)
			relay := func(c host.Command) {
				if handleCmd != nil {
					handleCmd(c)
				}
			}

			var emit host.Emitter = sink
			var feed *gateway.Server
			if cfg.Gateway.Enabled {
				feed = gateway.New(cfg.Gateway, relay, log)
				emit = host.Tee{sink, feed}
			}

			b := bridge.New(cfg.Polling, client, groupsSvc, machine, monitor,
				emit, bridge.Options{Archive: archive}, log)

			var logoutRequested atomic.Bool
			handleCmd = func(c host.Command) {
				if c.Type == host.CmdLogout {
					log.Info().Msg("logout requested by host")
					logoutRequested.Store(true)
					cancel()
					return
				}
				b.HandleCommand(ctx, c)
			}

			if feed != nil {
				go func() {
					if err := feed.Start(ctx); err != nil {
						log.Error().Err(err).Msg("event feed failed")
					}
				}()
			}

			// The host closing stdin means it is gone; shut down with it.
			go func() {
				host.ReadCommands(os.Stdin, log, relay)
				cancel()
			}()

			log.Info().
				Str("instance", cfg.Provider.InstanceID).
				Msg("wagate starting")

			runErr := b.Run(ctx)

			// An interrupt gets the same best-effort logout as a host
			// logout command; a host that just closed stdin keeps its
			// session for the next run.
			if logoutRequested.Load() || sigCtx.Err() != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), shutdownGrace)
				defer done()
				if err := client.LogoutOrReboot(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("logout failed")
				}
			}

			if errors.Is(runErr, context.Canceled) {
				log.Info().Msg("wagate stopped")
				return nil
			}
			return runErr
		},
	}

	return cmd
}
