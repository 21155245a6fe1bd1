package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/services"
)

// CharacterGenerator creates characters from descriptions.
type CharacterGenerator interface {
	GenerateCharacter(ctx context.Context, description string) (gateway.CharacterResult, error)
	GenerateCharacterWithImage(ctx context.Context, description string, image gateway.ImageUpload) (gateway.CharacterResult, error)
}

// Attachment describes the reference image waiting to be sent.
type Attachment struct {
	Filename string
	MIMEType string
	Size     int64
}

// CharacterView is the character screen's render snapshot.
type CharacterView struct {
	Description string
	Attachment  *Attachment
	Loading     bool
	Characters  []entity.Character
}

// CharacterManager owns the session's character list.
type CharacterManager struct {
	notices

	generator CharacterGenerator
	maxImage  int64
	logger    *slog.Logger

	mu          sync.Mutex
	description string
	image       *gateway.ImageUpload
	loading     bool
	items       *entity.Collection[entity.Character]
}

// NewCharacterManager constructs a manager. maxImageBytes <= 0 uses the
// gateway ceiling.
func NewCharacterManager(generator CharacterGenerator, maxImageBytes int64, logger *slog.Logger) *CharacterManager {
	return &CharacterManager{
		generator: generator,
		maxImage:  maxImageBytes,
		logger:    logging.NewComponentLogger(logger, "character_manager"),
		items:     entity.NewCollection[entity.Character](),
	}
}

// SetDescription replaces the description input.
func (m *CharacterManager) SetDescription(text string) {
	m.mu.Lock()
	m.description = text
	m.mu.Unlock()
}

// AttachImage validates and stores a reference image. Rejected images are not
// stored.
func (m *CharacterManager) AttachImage(upload gateway.ImageUpload) error {
	if err := gateway.CheckImage(upload, m.maxImage); err != nil {
		m.warn(imageRejection(upload, m.maxImage))
		return err
	}
	stored := upload
	stored.MIMEType = upload.ContentType()
	m.mu.Lock()
	m.image = &stored
	m.mu.Unlock()
	m.info(fmt.Sprintf("image attached: %s (%s)", displayName(upload.Filename), humanize.IBytes(uint64(upload.Size()))))
	return nil
}

// ClearImage drops the pending attachment.
func (m *CharacterManager) ClearImage() {
	m.mu.Lock()
	m.image = nil
	m.mu.Unlock()
}

// Generate sends the description, with the attachment when present, and
// inserts the resulting character.
func (m *CharacterManager) Generate(ctx context.Context) (entity.Character, error) {
	m.mu.Lock()
	description, image, loading := m.description, m.image, m.loading
	blank := strings.TrimSpace(description) == ""
	if !blank && !loading {
		m.loading = true
	}
	m.mu.Unlock()

	if blank {
		m.warn("enter a character description first")
		return entity.Character{}, services.Wrap(services.ErrValidation, "character_manager", "generate", "description is empty", nil)
	}
	if loading {
		return entity.Character{}, ErrBusy
	}

	var (
		result gateway.CharacterResult
		err    error
	)
	if image != nil {
		result, err = m.generator.GenerateCharacterWithImage(ctx, description, *image)
	} else {
		result, err = m.generator.GenerateCharacter(ctx, description)
	}
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		m.logger.Warn("character generation failed", logging.Error(err), logging.String(logging.FieldEventType, "character_generate_failed"))
		m.fail("character generation failed, please retry")
		return entity.Character{}, err
	}

	char := entity.NewCharacter(result.Name, description, result.ImageURL, result.VoiceModel)
	m.mu.Lock()
	m.loading = false
	addErr := m.items.Add(char)
	if addErr == nil {
		m.description = ""
		m.image = nil
	}
	m.mu.Unlock()
	if addErr != nil {
		m.fail("character could not be stored, please retry")
		return entity.Character{}, addErr
	}
	m.success(fmt.Sprintf("character %q created", char.Name))
	return char, nil
}

// Remove deletes the character with id. It reports whether one was removed.
func (m *CharacterManager) Remove(id string) bool {
	m.mu.Lock()
	removed := m.items.Remove(id)
	m.mu.Unlock()
	if removed {
		m.info("character removed")
	}
	return removed
}

// Import adds previously generated characters, skipping duplicates. It
// returns how many were added.
func (m *CharacterManager) Import(chars []entity.Character) int {
	added := 0
	for _, char := range chars {
		if m.insert(char) {
			added++
		}
	}
	return added
}

// Characters returns the list in insertion order.
func (m *CharacterManager) Characters() []entity.Character {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Items()
}

// View returns a snapshot for rendering.
func (m *CharacterManager) View() CharacterView {
	m.mu.Lock()
	defer m.mu.Unlock()
	view := CharacterView{
		Description: m.description,
		Loading:     m.loading,
		Characters:  m.items.Items(),
	}
	if m.image != nil {
		view.Attachment = &Attachment{Filename: displayName(m.image.Filename), MIMEType: m.image.MIMEType, Size: m.image.Size()}
	}
	return view
}

func (m *CharacterManager) insert(char entity.Character) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Add(char) == nil
}

func imageRejection(upload gateway.ImageUpload, limit int64) string {
	if limit <= 0 || limit > gateway.MaxImageBytes {
		limit = gateway.MaxImageBytes
	}
	contentType := upload.ContentType()
	switch {
	case len(upload.Data) == 0:
		return "the selected image is empty"
	case !strings.HasPrefix(contentType, "image/"):
		return "only image files can be uploaded"
	default:
		return fmt.Sprintf("images must be smaller than %s", humanize.IBytes(uint64(limit)))
	}
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "image"
	}
	return name
}
