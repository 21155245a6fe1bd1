package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/poller"
	"github.com/better-hash/ai-video-generator/internal/services"
)

// RetryMessage is shown when a submission fails outright.
const RetryMessage = "video generation failed, please retry"

// JobRunner is the poller surface the generator drives.
type JobRunner interface {
	Submit(ctx context.Context, req gateway.VideoJobRequest) (string, error)
	Track(ctx context.Context, taskID string) error
	Cancel()
	Snapshot() poller.Snapshot
	Subscribe(fn func(poller.Event)) func()
}

// CharacterSource lists characters that can be selected for a job.
type CharacterSource interface {
	Characters() []entity.Character
}

// SceneSource lists scenes that can be selected for a job.
type SceneSource interface {
	Scenes() []entity.Scene
}

// VideoView is the video screen's render snapshot.
type VideoView struct {
	Script             string
	Settings           entity.VideoSettings
	SelectedCharacters []string
	SelectedScenes     []string
	Loading            bool
	State              poller.State
	TaskID             string
	Progress           int
	StageLabel         string
	Message            string
	VideoURL           string
	Error              string
}

// VideoGenerator collects job input and projects the poller's task into view
// state.
type VideoGenerator struct {
	notices
	changes observers[VideoView]

	runner     JobRunner
	characters CharacterSource
	scenes     SceneSource
	logger     *slog.Logger

	mu          sync.Mutex
	script      string
	settings    entity.VideoSettings
	selChars    []string
	selScenes   []string
	loading     bool
	state       poller.State
	task        entity.GenerationTask
	unsubscribe func()
}

// NewVideoGenerator wires a generator to runner. characters and scenes may be
// nil when selection is not offered.
func NewVideoGenerator(runner JobRunner, characters CharacterSource, scenes SceneSource, defaults entity.VideoSettings, logger *slog.Logger) *VideoGenerator {
	if defaults.Validate() != nil {
		defaults = entity.DefaultVideoSettings()
	}
	g := &VideoGenerator{
		runner:     runner,
		characters: characters,
		scenes:     scenes,
		logger:     logging.NewComponentLogger(logger, "video_generator"),
		settings:   defaults,
		state:      poller.StateIdle,
	}
	g.unsubscribe = runner.Subscribe(g.onEvent)
	return g
}

// SubscribeView registers fn for every view change.
func (g *VideoGenerator) SubscribeView(fn func(VideoView)) func() {
	return g.changes.subscribe(fn)
}

// Close detaches the generator from the runner.
func (g *VideoGenerator) Close() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// SetScript stores the text sent with the next job.
func (g *VideoGenerator) SetScript(text string) {
	g.mu.Lock()
	g.script = text
	g.mu.Unlock()
}

// Settings returns the current settings.
func (g *VideoGenerator) Settings() entity.VideoSettings {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings
}

// SetResolution changes the output size. Values outside Resolutions() are
// rejected with a warning.
func (g *VideoGenerator) SetResolution(value entity.Resolution) error {
	return g.updateSettings(func(s entity.VideoSettings) (entity.VideoSettings, error) { return s.WithResolution(value) })
}

// SetFPS changes the frame rate.
func (g *VideoGenerator) SetFPS(value int) error {
	return g.updateSettings(func(s entity.VideoSettings) (entity.VideoSettings, error) { return s.WithFPS(value) })
}

// SetDuration changes the target length in seconds.
func (g *VideoGenerator) SetDuration(seconds int) error {
	return g.updateSettings(func(s entity.VideoSettings) (entity.VideoSettings, error) { return s.WithDuration(seconds) })
}

// SetQuality changes the render quality.
func (g *VideoGenerator) SetQuality(value entity.Quality) error {
	return g.updateSettings(func(s entity.VideoSettings) (entity.VideoSettings, error) { return s.WithQuality(value) })
}

// ApplySettings replaces every field at once.
func (g *VideoGenerator) ApplySettings(settings entity.VideoSettings) error {
	return g.updateSettings(func(entity.VideoSettings) (entity.VideoSettings, error) {
		return settings, settings.Validate()
	})
}

func (g *VideoGenerator) updateSettings(change func(entity.VideoSettings) (entity.VideoSettings, error)) error {
	g.mu.Lock()
	next, err := change(g.settings)
	if err == nil {
		g.settings = next
	}
	g.mu.Unlock()
	if err != nil {
		g.warn(err.Error())
		return services.Wrap(services.ErrValidation, "video_generator", "settings", "invalid value", err)
	}
	g.publish()
	return nil
}

// SelectCharacters chooses which characters are sent with the job. Unknown
// ids are rejected and the previous selection is kept.
func (g *VideoGenerator) SelectCharacters(ids []string) error {
	known := map[string]bool{}
	if g.characters != nil {
		for _, char := range g.characters.Characters() {
			known[char.ID] = true
		}
	}
	selected, err := pickIDs(ids, known, "character")
	if err != nil {
		g.warn(err.Error())
		return services.Wrap(services.ErrValidation, "video_generator", "select characters", "unknown id", err)
	}
	g.mu.Lock()
	g.selChars = selected
	g.mu.Unlock()
	g.publish()
	return nil
}

// SelectScenes chooses which scenes are sent with the job.
func (g *VideoGenerator) SelectScenes(ids []string) error {
	known := map[string]bool{}
	if g.scenes != nil {
		for _, scene := range g.scenes.Scenes() {
			known[scene.ID] = true
		}
	}
	selected, err := pickIDs(ids, known, "scene")
	if err != nil {
		g.warn(err.Error())
		return services.Wrap(services.ErrValidation, "video_generator", "select scenes", "unknown id", err)
	}
	g.mu.Lock()
	g.selScenes = selected
	g.mu.Unlock()
	g.publish()
	return nil
}

// Generate submits the job and starts polling. It returns the task id.
func (g *VideoGenerator) Generate(ctx context.Context) (string, error) {
	g.mu.Lock()
	script, loading := g.script, g.loading
	blank := strings.TrimSpace(script) == ""
	var req gateway.VideoJobRequest
	if !blank && !loading {
		g.loading = true
		g.task = entity.GenerationTask{}
		req = gateway.VideoJobRequest{
			ScriptText: script,
			Characters: g.selectedCharactersLocked(),
			Scenes:     g.selectedScenesLocked(),
			Settings:   g.settings,
		}
	}
	g.mu.Unlock()

	if blank {
		g.warn("enter script text first")
		return "", services.Wrap(services.ErrValidation, "video_generator", "generate", "script text is empty", nil)
	}
	if loading {
		return "", ErrBusy
	}
	g.publish()

	taskID, err := g.runner.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, poller.ErrSuperseded) || errors.Is(err, poller.ErrCancelled) {
			return "", err
		}
		g.mu.Lock()
		g.loading = false
		g.mu.Unlock()
		g.logger.Warn("video submission failed", logging.Error(err), logging.String(logging.FieldEventType, "video_submit_failed"))
		g.fail(RetryMessage)
		g.publish()
		return "", err
	}
	g.info("video generation started")
	return taskID, nil
}

// Resume follows an existing task without submitting.
func (g *VideoGenerator) Resume(ctx context.Context, taskID string) error {
	g.mu.Lock()
	if g.loading {
		g.mu.Unlock()
		return ErrBusy
	}
	g.loading = true
	g.mu.Unlock()
	if err := g.runner.Track(ctx, taskID); err != nil {
		g.mu.Lock()
		g.loading = false
		g.mu.Unlock()
		if errors.Is(err, services.ErrValidation) {
			g.warn("enter a task id first")
		}
		return err
	}
	return nil
}

// Leave stops polling when the user navigates away for good.
func (g *VideoGenerator) Leave() {
	g.runner.Cancel()
	g.mu.Lock()
	changed := g.loading
	g.loading = false
	g.mu.Unlock()
	if changed {
		g.publish()
	}
}

// View returns a snapshot for rendering.
func (g *VideoGenerator) View() VideoView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

func (g *VideoGenerator) viewLocked() VideoView {
	return VideoView{
		Script:             g.script,
		Settings:           g.settings,
		SelectedCharacters: append([]string(nil), g.selChars...),
		SelectedScenes:     append([]string(nil), g.selScenes...),
		Loading:            g.loading,
		State:              g.state,
		TaskID:             g.task.TaskID,
		Progress:           g.task.Progress,
		StageLabel:         StageLabel(g.task.Progress),
		Message:            g.task.Message,
		VideoURL:           g.task.VideoURL,
		Error:              g.task.Error,
	}
}

func (g *VideoGenerator) publish() {
	g.changes.emit(g.View())
}

func (g *VideoGenerator) onEvent(evt poller.Event) {
	g.mu.Lock()
	g.state = evt.State
	g.task = evt.Task
	g.loading = evt.State.Active()
	g.mu.Unlock()

	switch evt.Type {
	case poller.EventCompleted:
		g.success("video generation complete")
	case poller.EventFailed:
		g.fail(fmt.Sprintf("video generation failed: %s", evt.Task.Error))
	}
	g.publish()
}

func (g *VideoGenerator) selectedCharactersLocked() []entity.Character {
	out := []entity.Character{}
	if g.characters == nil || len(g.selChars) == 0 {
		return out
	}
	byID := map[string]entity.Character{}
	for _, char := range g.characters.Characters() {
		byID[char.ID] = char
	}
	for _, id := range g.selChars {
		if char, ok := byID[id]; ok {
			out = append(out, char)
		}
	}
	return out
}

func (g *VideoGenerator) selectedScenesLocked() []entity.Scene {
	out := []entity.Scene{}
	if g.scenes == nil || len(g.selScenes) == 0 {
		return out
	}
	byID := map[string]entity.Scene{}
	for _, scene := range g.scenes.Scenes() {
		byID[scene.ID] = scene
	}
	for _, id := range g.selScenes {
		if scene, ok := byID[id]; ok {
			out = append(out, scene)
		}
	}
	return out
}

func pickIDs(ids []string, known map[string]bool, kind string) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		if !known[id] {
			return nil, fmt.Errorf("unknown %s id %q", kind, id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
