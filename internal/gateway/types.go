package gateway

import (
	"github.com/better-hash/ai-video-generator/internal/entity"
)

// CharacterResult carries the optional fields the backend returns for a
// generated character.
type CharacterResult struct {
	Name       string
	ImageURL   string
	VoiceModel string
}

// SceneResult carries the optional fields the backend returns for a generated scene.
type SceneResult struct {
	Name      string
	ImageURL  string
	Mood      string
	TimeOfDay string
}

// VideoJobRequest is the payload submitted to start a render.
type VideoJobRequest struct {
	ScriptText string
	Characters []entity.Character
	Scenes     []entity.Scene
	Settings   entity.VideoSettings
}

// SubmitResult is the accepted job handle.
type SubmitResult struct {
	TaskID string
}

// TaskStatus is one status report for a running job. Progress is nil when the
// backend omitted it.
type TaskStatus struct {
	Status   entity.TaskStatus
	Progress *int
	VideoURL string
	Error    string
	Message  string
}

type parseRequest struct {
	ScriptText string `json:"script_text"`
}

type describeRequest struct {
	Description string `json:"description"`
}

type videoJobPayload struct {
	ScriptText string               `json:"script_text"`
	Characters []entity.Character   `json:"characters"`
	Scenes     []entity.Scene       `json:"scenes"`
	Settings   entity.VideoSettings `json:"settings"`
}

type parseResponse struct {
	entity.ParsedScript
	ParsedData *entity.ParsedScript `json:"parsed_data"`
}

type entityFields struct {
	Name           string `json:"name"`
	ImageURL       string `json:"image_url"`
	AppearancePath string `json:"appearance_path"`
	BackgroundPath string `json:"background_path"`
	VoiceModel     string `json:"voice_model"`
	Mood           string `json:"mood"`
	TimeOfDay      string `json:"time_of_day"`
}

type characterResponse struct {
	entityFields
	Character *entityFields `json:"character"`
}

type sceneResponse struct {
	entityFields
	Scene *entityFields `json:"scene"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type statusResponse struct {
	Status   string   `json:"status"`
	Progress *float64 `json:"progress"`
	VideoURL string   `json:"video_url"`
	Error    string   `json:"error"`
	Message  string   `json:"message"`
}
