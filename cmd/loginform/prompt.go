package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-loginform/pkg/renderers/prompt"
)

func newPromptCommand(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Log in through sequential prompts",
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

			session, err := prompt.New(screen.Controller,
				prompt.WithPromptDriver(prompt.NewSurveyDriver(cmd.OutOrStdout())),
				prompt.WithViewport(screen.Viewport, nil),
				prompt.WithCellHeight(cfg.Screen.CellHeight),
				prompt.WithMaxAttempts(cfg.Screen.MaxAttempts),
				prompt.WithLogger(logger.Named("prompt")),
			)
			if err != nil {
				return err
			}
			sess, err := session.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (token expires %s)\n", sess.Email, formatExpiry(sess.ExpiresAt))
			return nil
		},
	}
	addScreenFlags(cmd)
	cmd.Flags().Int("max-attempts", 0, "stop after this many failed attempts (0 asks every time)")
	return cmd
}
