package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/auth/localauth"
	"github.com/goliatone/go-loginform/pkg/devserver"
)

func newServeCommand(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development login API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if err := cfg.Server.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			users, err := localauth.Load(cfg.Server.UsersFile)
			if err != nil {
				return err
			}
			logger.Info("users loaded", zap.String("file", cfg.Server.UsersFile), zap.Int("count", users.Len()))

			srv, err := devserver.New(users, cfg.Server.Secret,
				devserver.WithTokenTTL(cfg.Server.TokenTTL),
				devserver.WithLatency(cfg.Server.Latency),
				devserver.WithLogger(logger.Named("devserver")),
			)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "listen address")
	f.String("secret", "", "HS256 signing secret")
	f.Duration("token-ttl", 0, "token lifetime")
	f.String("server-users", "", "users file")
	f.Duration("latency", 0, "artificial delay before each login response")
	return cmd
}
