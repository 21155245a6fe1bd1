package main

import (
	"github.com/spf13/cobra"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/tui"
)

func newStudioCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "studio",
		Short: "Open the interactive terminal studio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// The studio owns the terminal, so logs go to the file only.
			client, err := ctx.gatewayClient(true)
			if err != nil {
				return err
			}
			runner, err := ctx.newPoller(client, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			defaults, err := cfg.VideoDefaults()
			if err != nil {
				return err
			}
			journal, err := ctx.historyStore(cmd.Context())
			if err != nil {
				return err
			}
			attachJobObservers(cmd.Context(), ctx, runner, journal, "")

			session := tui.Session{
				Script:     controller.NewScriptEditor(client, ctx.logger),
				Characters: controller.NewCharacterManager(client, cfg.Upload.MaxImageBytes, ctx.logger),
				Scenes:     controller.NewSceneManager(client, ctx.logger),
			}
			session.Video = controller.NewVideoGenerator(runner, session.Characters, session.Scenes, defaults, ctx.logger)
			defer session.Video.Close()

			return tui.Run(cmd.Context(), session)
		},
	}
}
