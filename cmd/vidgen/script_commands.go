package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/entity"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "Parse scripts and derive their characters and scenes",
	}
	scriptCmd.AddCommand(newScriptParseCommand(ctx))
	scriptCmd.AddCommand(newScriptDeriveCommand(ctx))
	scriptCmd.AddCommand(newScriptSampleCommand())
	return scriptCmd
}

func newScriptParseCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a script file into characters, scenes and dialogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			client, err := ctx.gatewayClient(false)
			if err != nil {
				return err
			}
			editor := controller.NewScriptEditor(client, ctx.logger)
			editor.SubscribeNotices(printNotice(cmd))
			editor.SetText(text)
			parsed, err := editor.Parse(cmd.Context())
			if err != nil {
				return fmt.Errorf("parse script: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, parsed)
			}
			printParsedScript(cmd, parsed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parse result as JSON")
	return cmd
}

func newScriptDeriveCommand(ctx *commandContext) *cobra.Command {
	var saveDir string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "derive <file>",
		Short: "Generate every character and scene described by a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			client, err := ctx.gatewayClient(false)
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			editor := controller.NewScriptEditor(client, ctx.logger)
			characters := controller.NewCharacterManager(client, cfg.Upload.MaxImageBytes, ctx.logger)
			scenes := controller.NewSceneManager(client, ctx.logger)
			for _, source := range []interface {
				SubscribeNotices(func(controller.Notice)) func()
			}{editor, characters, scenes} {
				source.SubscribeNotices(printNotice(cmd))
			}

			editor.SetText(text)
			if _, err := editor.Parse(cmd.Context()); err != nil {
				return fmt.Errorf("parse script: %w", err)
			}
			result, deriveErr := editor.Derive(cmd.Context(), characters, scenes)
			if len(result.Characters) == 0 && len(result.Scenes) == 0 && deriveErr != nil {
				return fmt.Errorf("derive: %w", deriveErr)
			}

			if saveDir != "" {
				if err := saveEntities(saveDir, result); err != nil {
					return err
				}
			}
			if asJSON {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderCharacterTable(result.Characters))
				fmt.Fprintln(out, renderSceneTable(result.Scenes))
				if saveDir != "" {
					fmt.Fprintf(out, "Saved characters.json and scenes.json to %s\n", saveDir)
				}
			}
			if deriveErr != nil {
				return fmt.Errorf("some generations failed: %w", deriveErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&saveDir, "save", "", "Directory to write characters.json and scenes.json")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the generated entities as JSON")
	return cmd
}

func newScriptSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "sample",
		Short:       "Print the sample script",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), controller.SampleScript)
			return err
		},
	}
}

func readScript(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read script from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func saveEntities(dir string, result controller.DeriveResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := writeJSONFile(filepath.Join(dir, "characters.json"), nonNil(result.Characters)); err != nil {
		return err
	}
	return writeJSONFile(filepath.Join(dir, "scenes.json"), nonNil(result.Scenes))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func printParsedScript(cmd *cobra.Command, parsed entity.ParsedScript) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title: %s\n", valueOrDash(parsed.Title))
	fmt.Fprintf(out, "%d characters, %d scenes, %d dialogue lines\n\n", len(parsed.Characters), len(parsed.Scenes), parsed.DialogueCount())

	charRows := make([][]string, 0, len(parsed.Characters))
	for _, c := range parsed.Characters {
		charRows = append(charRows, []string{c.Name, c.Description})
	}
	fmt.Fprintln(out, renderTable([]string{"Character", "Description"}, charRows, nil))

	sceneRows := make([][]string, 0, len(parsed.Scenes))
	for i, s := range parsed.Scenes {
		speakers := map[string]bool{}
		var names []string
		for _, d := range s.Dialogues {
			if !speakers[d.Character] {
				speakers[d.Character] = true
				names = append(names, d.Character)
			}
		}
		sceneRows = append(sceneRows, []string{strconv.Itoa(i + 1), s.Description, strconv.Itoa(len(s.Dialogues)), valueOrDash(strings.Join(names, ", "))})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Scene", "Lines", "Speakers"}, sceneRows, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
}
