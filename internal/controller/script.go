package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/services"
)

// deriveLimit bounds concurrent generate calls issued by Derive.
const deriveLimit = 3

// ScriptParser parses raw script text.
type ScriptParser interface {
	ParseScript(ctx context.Context, text string) (entity.ParsedScript, error)
}

// ScriptView is the editor's render snapshot.
type ScriptView struct {
	Text    string
	Loading bool
	// Parsed is nil until the first successful parse.
	Parsed *entity.ParsedScript
}

// ScriptEditor owns the script text and the latest parse result.
type ScriptEditor struct {
	notices

	parser ScriptParser
	logger *slog.Logger

	mu      sync.Mutex
	text    string
	parsed  *entity.ParsedScript
	loading bool
}

// NewScriptEditor constructs an editor backed by parser.
func NewScriptEditor(parser ScriptParser, logger *slog.Logger) *ScriptEditor {
	return &ScriptEditor{parser: parser, logger: logging.NewComponentLogger(logger, "script_editor")}
}

// SetText replaces the input buffer.
func (e *ScriptEditor) SetText(text string) {
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
}

// UseSample fills the buffer with the built-in sample script.
func (e *ScriptEditor) UseSample() {
	e.SetText(SampleScript)
	e.info("sample script loaded")
}

// Text returns the input buffer.
func (e *ScriptEditor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// View returns a snapshot for rendering.
func (e *ScriptEditor) View() ScriptView {
	e.mu.Lock()
	defer e.mu.Unlock()
	view := ScriptView{Text: e.text, Loading: e.loading}
	if e.parsed != nil {
		parsed := e.parsed.Clone()
		view.Parsed = &parsed
	}
	return view
}

// Parsed returns the latest parse result.
func (e *ScriptEditor) Parsed() (entity.ParsedScript, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.parsed == nil {
		return entity.ParsedScript{}, false
	}
	return e.parsed.Clone(), true
}

// Parse sends the buffer to the parser and replaces the stored result.
func (e *ScriptEditor) Parse(ctx context.Context) (entity.ParsedScript, error) {
	text, err := e.begin()
	if err != nil {
		return entity.ParsedScript{}, err
	}
	parsed, err := e.parser.ParseScript(ctx, text)

	e.mu.Lock()
	e.loading = false
	if err == nil {
		snapshot := parsed.Clone()
		e.parsed = &snapshot
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("script parse failed", logging.Error(err), logging.String(logging.FieldEventType, "script_parse_failed"))
		e.fail("script parsing failed, check the script format")
		return entity.ParsedScript{}, err
	}
	e.success(fmt.Sprintf("script parsed: %d characters, %d scenes", len(parsed.Characters), len(parsed.Scenes)))
	return parsed.Clone(), nil
}

func (e *ScriptEditor) begin() (string, error) {
	e.mu.Lock()
	text, loading := e.text, e.loading
	if strings.TrimSpace(text) != "" && !loading {
		e.loading = true
	}
	e.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		e.warn("enter script text first")
		return "", services.Wrap(services.ErrValidation, "script_editor", "parse", "script text is empty", nil)
	}
	if loading {
		return "", ErrBusy
	}
	return text, nil
}

// DeriveResult lists the entities Derive inserted, in script order.
type DeriveResult struct {
	Characters []entity.Character `json:"characters"`
	Scenes     []entity.Scene     `json:"scenes"`
}

// Derive turns every parsed character and scene description into a generate
// call on the given managers. Either manager may be nil to skip that kind.
// Successful results are inserted in script order; failures are joined into
// the returned error and do not stop the remaining calls.
func (e *ScriptEditor) Derive(ctx context.Context, characters *CharacterManager, scenes *SceneManager) (DeriveResult, error) {
	parsed, ok := e.Parsed()
	if !ok {
		e.warn("parse the script before deriving characters and scenes")
		return DeriveResult{}, services.Wrap(services.ErrValidation, "script_editor", "derive", "no parsed script", nil)
	}
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return DeriveResult{}, ErrBusy
	}
	e.loading = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
	}()

	var charResults []*entity.Character
	var sceneResults []*entity.Scene
	var errMu sync.Mutex
	var failures []error
	record := func(err error) {
		errMu.Lock()
		failures = append(failures, err)
		errMu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(deriveLimit)
	if characters != nil {
		charResults = make([]*entity.Character, len(parsed.Characters))
		for i, sc := range parsed.Characters {
			g.Go(func() error {
				description := characterPrompt(sc)
				if description == "" {
					return nil
				}
				result, err := characters.generator.GenerateCharacter(ctx, description)
				if err != nil {
					record(fmt.Errorf("character %q: %w", sc.Name, err))
					return nil
				}
				name := strings.TrimSpace(sc.Name)
				if name == "" {
					name = result.Name
				}
				char := entity.NewCharacter(name, description, result.ImageURL, result.VoiceModel)
				charResults[i] = &char
				return nil
			})
		}
	}
	if scenes != nil {
		sceneResults = make([]*entity.Scene, len(parsed.Scenes))
		for i, ss := range parsed.Scenes {
			g.Go(func() error {
				description := strings.TrimSpace(ss.Description)
				if description == "" {
					return nil
				}
				result, err := scenes.generator.GenerateScene(ctx, description)
				if err != nil {
					record(fmt.Errorf("scene %d: %w", i+1, err))
					return nil
				}
				scene := entity.NewScene(result.Name, description, result.ImageURL, result.Mood, result.TimeOfDay)
				sceneResults[i] = &scene
				return nil
			})
		}
	}
	_ = g.Wait()

	var out DeriveResult
	for _, char := range charResults {
		if char != nil && characters.insert(*char) {
			out.Characters = append(out.Characters, *char)
		}
	}
	for _, scene := range sceneResults {
		if scene != nil && scenes.insert(*scene) {
			out.Scenes = append(out.Scenes, *scene)
		}
	}

	err := errors.Join(failures...)
	if err != nil {
		e.logger.Warn("derive finished with failures", logging.Int("failures", len(failures)), logging.Error(err))
		e.fail(fmt.Sprintf("%d generate calls failed, please retry", len(failures)))
	}
	if len(out.Characters)+len(out.Scenes) > 0 {
		e.success(fmt.Sprintf("derived %d characters and %d scenes", len(out.Characters), len(out.Scenes)))
	}
	return out, err
}

func characterPrompt(sc entity.ScriptCharacter) string {
	name := strings.TrimSpace(sc.Name)
	desc := strings.TrimSpace(sc.Description)
	switch {
	case name == "":
		return desc
	case desc == "":
		return name
	default:
		return name + ": " + desc
	}
}
