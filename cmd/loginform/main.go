package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/internal/config"
)

type rootFlags struct {
	configFile string
	envFiles   []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "loginform",
		Short:         "Terminal login screen and development login API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default ./loginform.yaml or ~/.loginform/loginform.yaml)")
	pf.StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.Bool("dev", false, "development logging")

	cmd.AddCommand(
		newTUICommand(flags),
		newPromptCommand(flags),
		newServeCommand(flags),
		newHashCommand(),
	)
	return cmd
}

// loadConfig resolves the settings for cmd, with its flags taking precedence.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, error) {
	return config.Load(config.Options{
		ConfigFile: flags.configFile,
		EnvFiles:   flags.envFiles,
		Flags:      cmd.Flags(),
	})
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func addScreenFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("auth-mode", "", "authenticator: http or local")
	f.String("endpoint", "", "login endpoint URL for http mode")
	f.Duration("timeout", 0, "login request timeout")
	f.String("users", "", "users file for local mode")
	f.Duration("loading-window", 0, "how long the spinner shows after submit")
	f.String("loading-policy", "", "fixed or settled")
	f.Int("cell-height", 0, "pixel height of one terminal row")
}
