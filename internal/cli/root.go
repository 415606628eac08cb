package cli

import (
	"github.com/spf13/cobra"

	"github.com/ybarkan/wagate/internal/config"
	"github.com/ybarkan/wagate/internal/greenapi"
	"github.com/ybarkan/wagate/internal/logging"
	"github.com/ybarkan/wagate/internal/ratelimit"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wagate",
		Short: "wagate — WhatsApp gateway bridge",
		Long:  "wagate bridges a WhatsApp-gateway instance to a host process: it polls for messages in one monitored group and forwards them as line-delimited JSON on stdout.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.wagate/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newGroupsCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newLogoutCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig loads and validates the configuration, logging every issue
// before failing.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}

	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, &config.ConfigError{Message: "config validation failed"}
	}
	return cfg, nil
}

// newProviderClient builds a rate-limited API client for one-shot
// commands. The limiter matters even for single calls: a one-shot run
// next to a daemon shares the provider's quota, not the limiter, so the
// defaults stay conservative.
func newProviderClient() (*greenapi.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	return greenapi.New(cfg.Provider, limiter, log), nil
}
