package entity

import "strings"

const (
	// DefaultCharacterName is used when the backend does not name a generated character.
	DefaultCharacterName = "New character"
	// DefaultSceneName is used when the backend does not name a generated scene.
	DefaultSceneName = "New scene"
)

// Character is a generated character held in the session's character list.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	VoiceModel  string `json:"voice_model,omitempty"`
}

// EntityID implements Identified.
func (c Character) EntityID() string { return c.ID }

// NewCharacter builds a character with a fresh ID. A blank name falls back to
// DefaultCharacterName.
func NewCharacter(name, description, imageURL, voiceModel string) Character {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCharacterName
	}
	return Character{
		ID:          NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		ImageURL:    strings.TrimSpace(imageURL),
		VoiceModel:  strings.TrimSpace(voiceModel),
	}
}

// Scene is a generated scene held in the session's scene list.
type Scene struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	Mood        string `json:"mood,omitempty"`
	TimeOfDay   string `json:"time_of_day,omitempty"`
}

// EntityID implements Identified.
func (s Scene) EntityID() string { return s.ID }

// NewScene builds a scene with a fresh ID. A blank name falls back to
// DefaultSceneName.
func NewScene(name, description, imageURL, mood, timeOfDay string) Scene {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSceneName
	}
	return Scene{
		ID:          NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		ImageURL:    strings.TrimSpace(imageURL),
		Mood:        strings.TrimSpace(mood),
		TimeOfDay:   strings.TrimSpace(timeOfDay),
	}
}
