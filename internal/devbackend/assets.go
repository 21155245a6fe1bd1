package devbackend

import (
	"fmt"
	"path"
	"strings"

	"github.com/better-hash/ai-video-generator/internal/entity"
)

var voiceModels = []string{"alloy", "verse", "sage"}

var moods = []struct{ keyword, mood string }{
	{"storm", "tense"},
	{"rain", "melancholic"},
	{"candle", "romantic"},
	{"dinner", "romantic"},
	{"fog", "mysterious"},
	{"sun", "cheerful"},
}

var timesOfDay = []string{"dawn", "morning", "noon", "afternoon", "evening", "night"}

type characterReply struct {
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	VoiceModel string `json:"voice_model"`
}

type sceneReply struct {
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	Mood      string `json:"mood"`
	TimeOfDay string `json:"time_of_day"`
}

// inventCharacter derives a name from a "Name: description" prompt and picks
// a voice by the description's length.
func inventCharacter(description, upload string) characterReply {
	name := ""
	if key, _, ok := splitField(description); ok && len(key) <= 40 {
		name = key
	}
	id := entity.NewID()
	image := "/assets/characters/" + id + ".png"
	if upload != "" {
		image = "/assets/characters/" + id + path.Ext(upload)
	}
	return characterReply{
		Name:       name,
		ImageURL:   image,
		VoiceModel: voiceModels[len(description)%len(voiceModels)],
	}
}

func inventScene(description string) sceneReply {
	lower := strings.ToLower(description)
	reply := sceneReply{
		ImageURL: "/assets/scenes/" + entity.NewID() + ".png",
		Mood:     "neutral",
	}
	for _, m := range moods {
		if strings.Contains(lower, m.keyword) {
			reply.Mood = m.mood
			break
		}
	}
	for _, t := range timesOfDay {
		if strings.Contains(lower, t) {
			reply.TimeOfDay = t
			break
		}
	}
	if key, _, ok := splitField(description); ok && len(key) <= 40 {
		reply.Name = key
	}
	return reply
}

func placeholderVideo(j *job) []byte {
	header := fmt.Sprintf("\x00\x00\x00\x18ftypmp42 task=%s res=%s fps=%d dur=%d q=%s\n",
		j.id, j.settings.Resolution, j.settings.FPS, j.settings.Duration, j.settings.Quality)
	return []byte(strings.Repeat(header, 64))
}
