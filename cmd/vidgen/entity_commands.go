package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
)

func newCharacterCommand(ctx *commandContext) *cobra.Command {
	characterCmd := &cobra.Command{
		Use:   "character",
		Short: "Generate characters",
	}
	characterCmd.AddCommand(newCharacterGenerateCommand(ctx))
	return characterCmd
}

func newCharacterGenerateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var imagePath string
	var appendTo string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a character from a description and optional reference image",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.gatewayClient(false)
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			manager := controller.NewCharacterManager(client, cfg.Upload.MaxImageBytes, ctx.logger)
			manager.SubscribeNotices(printNotice(cmd))
			manager.SetDescription(description)

			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				upload := gateway.ImageUpload{Filename: filepath.Base(imagePath), Data: data}
				if err := manager.AttachImage(upload); err != nil {
					return err
				}
			}

			char, err := manager.Generate(cmd.Context())
			if err != nil {
				return err
			}
			if appendTo != "" {
				if err := appendEntity(appendTo, char); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, char)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCharacterTable([]entity.Character{char}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Character description (\"Name: details\" sets the name)")
	cmd.Flags().StringVar(&imagePath, "image", "", "Reference image (must be an image under 5 MiB)")
	cmd.Flags().StringVar(&appendTo, "append", "", "Append the character to this JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the character as JSON")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newSceneCommand(ctx *commandContext) *cobra.Command {
	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "Generate scenes",
	}
	sceneCmd.AddCommand(newSceneGenerateCommand(ctx))
	return sceneCmd
}

func newSceneGenerateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var appendTo string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a scene from a description",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.gatewayClient(false)
			if err != nil {
				return err
			}
			manager := controller.NewSceneManager(client, ctx.logger)
			manager.SubscribeNotices(printNotice(cmd))
			manager.SetDescription(description)
			scene, err := manager.Generate(cmd.Context())
			if err != nil {
				return err
			}
			if appendTo != "" {
				if err := appendEntity(appendTo, scene); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, scene)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSceneTable([]entity.Scene{scene}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Scene description")
	cmd.Flags().StringVar(&appendTo, "append", "", "Append the scene to this JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the scene as JSON")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

// printNotice routes controller warnings and errors to stderr.
func printNotice(cmd *cobra.Command) func(controller.Notice) {
	out := cmd.ErrOrStderr()
	colorize := shouldColorize(out)
	return func(n controller.Notice) {
		var kind statusKind
		switch n.Level {
		case controller.LevelWarning:
			kind = statusWarn
		case controller.LevelError:
			kind = statusError
		default:
			return
		}
		fmt.Fprintln(out, renderStatusLine("notice", kind, n.Text, colorize))
	}
}

func renderCharacterTable(chars []entity.Character) string {
	rows := make([][]string, 0, len(chars))
	for _, c := range chars {
		rows = append(rows, []string{c.ID, c.Name, c.Description, valueOrDash(c.VoiceModel), valueOrDash(c.ImageURL)})
	}
	return renderTable([]string{"ID", "Name", "Description", "Voice", "Image"}, rows, nil)
}

func renderSceneTable(scenes []entity.Scene) string {
	rows := make([][]string, 0, len(scenes))
	for _, s := range scenes {
		rows = append(rows, []string{s.ID, s.Name, s.Description, valueOrDash(s.Mood), valueOrDash(s.TimeOfDay)})
	}
	return renderTable([]string{"ID", "Name", "Description", "Mood", "Time"}, rows, nil)
}

// loadEntities reads a JSON array written by --append or script derive --save.
func loadEntities[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

func appendEntity[T any](path string, item T) error {
	var items []T
	if _, err := os.Stat(path); err == nil {
		if items, err = loadEntities[T](path); err != nil {
			return err
		}
	}
	return writeJSONFile(path, append(items, item))
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
