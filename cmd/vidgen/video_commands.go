package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/history"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/notifications"
	"github.com/better-hash/ai-video-generator/internal/poller"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	videoCmd := &cobra.Command{
		Use:   "video",
		Short: "Submit video jobs",
	}
	videoCmd.AddCommand(newVideoGenerateCommand(ctx))
	return videoCmd
}

type videoGenerateOptions struct {
	scriptPath     string
	resolution     string
	fps            string
	duration       string
	quality        string
	charactersPath string
	scenesPath     string
	noWait         bool
	outputPath     string
	asJSON         bool
}

func newVideoGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts videoGenerateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit a script for rendering and follow it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVideoGenerate(cmd, ctx, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.scriptPath, "script", "s", "", "Script file (- for stdin)")
	flags.StringVar(&opts.resolution, "resolution", "", "Resolution: 1920x1080, 1280x720, 854x480")
	flags.StringVar(&opts.fps, "fps", "", "Frame rate: 24, 30, 60")
	flags.StringVar(&opts.duration, "duration", "", "Duration in seconds: 15, 30, 60, 120")
	flags.StringVar(&opts.quality, "quality", "", "Quality: high, medium, low")
	flags.StringVar(&opts.charactersPath, "characters", "", "JSON file of generated characters to include")
	flags.StringVar(&opts.scenesPath, "scenes", "", "JSON file of generated scenes to include")
	flags.BoolVar(&opts.noWait, "no-wait", false, "Print the task id and exit without polling")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "Download the finished video to this file")
	flags.BoolVar(&opts.asJSON, "json", false, "Print the final task as JSON")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func runVideoGenerate(cmd *cobra.Command, ctx *commandContext, opts videoGenerateOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	script, err := readScript(cmd, opts.scriptPath)
	if err != nil {
		return err
	}
	defaults, err := cfg.VideoDefaults()
	if err != nil {
		return err
	}
	settings, err := entity.ParseSettings(defaults, opts.resolution, opts.fps, opts.duration, opts.quality)
	if err != nil {
		return err
	}

	client, err := ctx.gatewayClient(false)
	if err != nil {
		return err
	}
	runner, err := ctx.newPoller(client, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	characters := controller.NewCharacterManager(client, cfg.Upload.MaxImageBytes, ctx.logger)
	scenes := controller.NewSceneManager(client, ctx.logger)
	var charIDs, sceneIDs []string
	if opts.charactersPath != "" {
		items, err := loadEntities[entity.Character](opts.charactersPath)
		if err != nil {
			return err
		}
		characters.Import(items)
		for _, c := range characters.Characters() {
			charIDs = append(charIDs, c.ID)
		}
	}
	if opts.scenesPath != "" {
		items, err := loadEntities[entity.Scene](opts.scenesPath)
		if err != nil {
			return err
		}
		scenes.Import(items)
		for _, s := range scenes.Scenes() {
			sceneIDs = append(sceneIDs, s.ID)
		}
	}

	gen := controller.NewVideoGenerator(runner, characters, scenes, settings, ctx.logger)
	defer gen.Close()
	gen.SubscribeNotices(printNotice(cmd))
	gen.SetScript(script)
	if err := gen.SelectCharacters(charIDs); err != nil {
		return err
	}
	if err := gen.SelectScenes(sceneIDs); err != nil {
		return err
	}

	title := scriptTitle(script)
	journal, err := ctx.historyStore(cmd.Context())
	if err != nil {
		return err
	}
	if journal != nil {
		runner.Subscribe(journalSubmission(cmd.Context(), ctx.logger, journal, settings, title))
	}
	if !opts.noWait {
		attachJobObservers(cmd.Context(), ctx, runner, journal, title)
	}

	taskID, err := gen.Generate(cmd.Context())
	if err != nil {
		return fmt.Errorf("submit video: %w", err)
	}
	out := cmd.OutOrStdout()
	if opts.noWait {
		runner.Cancel()
		if opts.asJSON {
			return writeJSON(cmd, map[string]string{"task_id": taskID})
		}
		fmt.Fprintf(out, "Submitted task %s\n", taskID)
		fmt.Fprintf(out, "Follow it with `vidgen watch %s`\n", taskID)
		return nil
	}
	if !opts.asJSON {
		fmt.Fprintf(out, "Submitted task %s\n", taskID)
	}
	return followJob(cmd, ctx, client, runner, opts.outputPath, opts.asJSON)
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Fetch the current status of a video job once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.gatewayClient(false)
			if err != nil {
				return err
			}
			taskID := strings.TrimSpace(args[0])
			status, err := client.FetchTaskStatus(cmd.Context(), taskID)
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}
			task := entity.GenerationTask{
				TaskID:   taskID,
				Status:   status.Status,
				VideoURL: status.VideoURL,
				Error:    status.Error,
				Message:  status.Message,
			}
			if status.Progress != nil {
				task.Progress = *status.Progress
			}
			if asJSON {
				return writeJSON(cmd, task)
			}
			printTask(cmd, task)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the task as JSON")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Poll an existing video job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.gatewayClient(false)
			if err != nil {
				return err
			}
			runner, err := ctx.newPoller(client, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			journal, err := ctx.historyStore(cmd.Context())
			if err != nil {
				return err
			}
			taskID := strings.TrimSpace(args[0])
			title := ""
			if journal != nil {
				if rec, err := journal.Get(cmd.Context(), taskID); err == nil {
					title = rec.Title
				}
			}
			attachJobObservers(cmd.Context(), ctx, runner, journal, title)

			gen := controller.NewVideoGenerator(runner, nil, nil, entity.DefaultVideoSettings(), ctx.logger)
			defer gen.Close()
			gen.SubscribeNotices(printNotice(cmd))
			if err := gen.Resume(cmd.Context(), taskID); err != nil {
				return err
			}
			return followJob(cmd, ctx, client, runner, outputPath, asJSON)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Download the finished video to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the final task as JSON")
	return cmd
}

// attachJobObservers wires push notifications and the history journal to
// terminal poller events.
func attachJobObservers(ctx context.Context, cc *commandContext, runner *poller.Poller, journal *history.Store, title string) {
	cfg, _ := cc.ensureConfig()
	runner.Subscribe(notifications.PollerObserver(ctx, notifications.NewService(cfg), title, cc.logger))
	if journal == nil {
		return
	}
	runner.Subscribe(journalOutcome(ctx, cc.logger, journal))
}

// journalSubmission records the task when the poller first reports it as
// polling. Observers run in event order, so the row exists before any
// terminal outcome is written.
func journalSubmission(ctx context.Context, logger *slog.Logger, journal *history.Store, settings entity.VideoSettings, title string) func(poller.Event) {
	var once sync.Once
	return func(evt poller.Event) {
		if evt.Type != poller.EventStateChanged || evt.State != poller.StatePolling || evt.Task.TaskID == "" {
			return
		}
		once.Do(func() {
			if err := journal.RecordSubmitted(context.WithoutCancel(ctx), evt.Task.TaskID, settings, title); err != nil {
				logging.WarnWithContext(logger, "history write failed", "history_write_failed",
					logging.String(logging.FieldTaskID, evt.Task.TaskID),
					logging.Error(err),
				)
			}
		})
	}
}

func journalOutcome(ctx context.Context, logger *slog.Logger, journal *history.Store) func(poller.Event) {
	return func(evt poller.Event) {
		if evt.Type != poller.EventCompleted && evt.Type != poller.EventFailed {
			return
		}
		snap := poller.Snapshot{State: evt.State, Task: evt.Task}
		if err := journal.RecordOutcome(context.WithoutCancel(ctx), snap); err != nil {
			logging.WarnWithContext(logger, "history write failed", "history_write_failed",
				logging.String(logging.FieldTaskID, evt.Task.TaskID),
				logging.Error(err),
			)
		}
	}
}

// followJob prints progress until the run ends, then optionally downloads
// the result.
func followJob(cmd *cobra.Command, cc *commandContext, client *gateway.Client, runner *poller.Poller, outputPath string, asJSON bool) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	var mu sync.Mutex
	lastProgress, lastMessage := -1, ""
	unsubscribe := runner.Subscribe(func(evt poller.Event) {
		if asJSON || evt.Type != poller.EventProgress {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if evt.Task.Progress == lastProgress && evt.Task.Message == lastMessage {
			return
		}
		lastProgress, lastMessage = evt.Task.Progress, evt.Task.Message
		detail := controller.StageLabel(evt.Task.Progress)
		if evt.Task.Message != "" {
			detail = evt.Task.Message
		}
		fmt.Fprintln(out, renderStatusLine("progress", statusInfo, fmt.Sprintf("%3d%% %s", evt.Task.Progress, detail), colorize))
	})
	defer unsubscribe()

	snap, err := runner.Wait(cmd.Context())
	if err != nil {
		return err
	}
	if asJSON {
		if err := writeJSON(cmd, snap.Task); err != nil {
			return err
		}
	} else {
		printTask(cmd, snap.Task)
	}

	switch snap.State {
	case poller.StateCompleted:
		if outputPath == "" {
			return nil
		}
		return downloadVideo(cmd, client, snap.Task.VideoURL, outputPath, asJSON)
	case poller.StateFailed:
		return fmt.Errorf("video generation failed: %s", snap.Task.Error)
	case poller.StateCancelled:
		return context.Canceled
	default:
		if snap.LastError != nil {
			return snap.LastError
		}
		return nil
	}
}

func printTask(cmd *cobra.Command, task entity.GenerationTask) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	kind := statusInfo
	switch task.Status {
	case entity.TaskCompleted:
		kind = statusOK
	case entity.TaskFailed:
		kind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("task", statusInfo, task.TaskID, colorize))
	fmt.Fprintln(out, renderStatusLine("status", kind, fmt.Sprintf("%s (%d%%)", task.Status, task.Progress), colorize))
	if task.Message != "" {
		fmt.Fprintln(out, renderStatusLine("message", statusInfo, task.Message, colorize))
	}
	if task.VideoURL != "" {
		fmt.Fprintln(out, renderStatusLine("video", statusOK, task.VideoURL, colorize))
	}
	if task.Error != "" {
		fmt.Fprintln(out, renderStatusLine("error", statusError, task.Error, colorize))
	}
}

const maxTitleRunes = 60

// scriptTitle finds the "Title:" line, falling back to the first line.
func scriptTitle(script string) string {
	first := ""
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if first == "" {
			first = line
		}
		if key, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "title") {
			return strings.TrimSpace(value)
		}
	}
	if r := []rune(first); len(r) > maxTitleRunes {
		first = string(r[:maxTitleRunes])
	}
	return first
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
