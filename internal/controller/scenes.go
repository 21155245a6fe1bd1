package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/services"
)

// SceneGenerator creates scenes from descriptions.
type SceneGenerator interface {
	GenerateScene(ctx context.Context, description string) (gateway.SceneResult, error)
}

// SceneView is the scene screen's render snapshot.
type SceneView struct {
	Description string
	Loading     bool
	Scenes      []entity.Scene
}

// SceneManager owns the session's scene list.
type SceneManager struct {
	notices

	generator SceneGenerator
	logger    *slog.Logger

	mu          sync.Mutex
	description string
	loading     bool
	items       *entity.Collection[entity.Scene]
}

func NewSceneManager(generator SceneGenerator, logger *slog.Logger) *SceneManager {
	return &SceneManager{
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "scene_manager"),
		items:     entity.NewCollection[entity.Scene](),
	}
}

func (m *SceneManager) SetDescription(text string) {
	m.mu.Lock()
	m.description = text
	m.mu.Unlock()
}

// Generate sends the description and inserts the resulting scene.
func (m *SceneManager) Generate(ctx context.Context) (entity.Scene, error) {
	m.mu.Lock()
	description, loading := m.description, m.loading
	blank := strings.TrimSpace(description) == ""
	if !blank && !loading {
		m.loading = true
	}
	m.mu.Unlock()

	if blank {
		m.warn("enter a scene description first")
		return entity.Scene{}, services.Wrap(services.ErrValidation, "scene_manager", "generate", "description is empty", nil)
	}
	if loading {
		return entity.Scene{}, ErrBusy
	}

	result, err := m.generator.GenerateScene(ctx, description)
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		m.logger.Warn("scene generation failed", logging.Error(err), logging.String(logging.FieldEventType, "scene_generate_failed"))
		m.fail("scene generation failed, please retry")
		return entity.Scene{}, err
	}

	scene := entity.NewScene(result.Name, description, result.ImageURL, result.Mood, result.TimeOfDay)
	m.mu.Lock()
	m.loading = false
	addErr := m.items.Add(scene)
	if addErr == nil {
		m.description = ""
	}
	m.mu.Unlock()
	if addErr != nil {
		m.fail("scene could not be stored, please retry")
		return entity.Scene{}, addErr
	}
	m.success(fmt.Sprintf("scene %q created", scene.Name))
	return scene, nil
}

func (m *SceneManager) Remove(id string) bool {
	m.mu.Lock()
	removed := m.items.Remove(id)
	m.mu.Unlock()
	if removed {
		m.info("scene removed")
	}
	return removed
}

// Import adds previously generated scenes, skipping duplicates.
func (m *SceneManager) Import(scenes []entity.Scene) int {
	added := 0
	for _, scene := range scenes {
		if m.insert(scene) {
			added++
		}
	}
	return added
}

func (m *SceneManager) Scenes() []entity.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Items()
}

func (m *SceneManager) View() SceneView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SceneView{Description: m.description, Loading: m.loading, Scenes: m.items.Items()}
}

func (m *SceneManager) insert(scene entity.Scene) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Add(scene) == nil
}
