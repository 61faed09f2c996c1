package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/renderers/tui"
)

func newTUICommand(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Show the interactive login screen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			screen, err := newScreen(cfg, logger)
			if err != nil {
				return err
			}
			defer screen.Close()

			ctx := cmd.Context()
			model := tui.New(screen.Controller, screen.Viewport,
				tui.WithCellHeight(cfg.Screen.CellHeight),
				tui.WithLogger(logger.Named("tui")),
				tui.WithContext(ctx),
			)
			if err := tui.Run(ctx, model, tea.WithAltScreen()); err != nil {
				return err
			}

			if sess := screen.Controller.Snapshot().Auth.Session; sess != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (token expires %s)\n", sess.Email, formatExpiry(sess.ExpiresAt))
				logger.Info("tui session ended signed in", zap.String("user_id", sess.UserID))
			}
			return nil
		},
	}
	addScreenFlags(cmd)
	return cmd
}
