package devbackend

import (
	"strings"

	"github.com/better-hash/ai-video-generator/internal/entity"
)

const untitled = "Untitled"

// ParseScript applies the dev grammar:
//
//	Title: <title>
//	Characters:
//	- <Name>: <description>
//	Scene: <description>
//	<Name>: <line>
//
// Dialogue lines are recognized only for declared characters.
func ParseScript(text string) entity.ParsedScript {
	parsed := entity.ParsedScript{
		Characters: []entity.ScriptCharacter{},
		Scenes:     []entity.ScriptScene{},
	}
	known := map[string]bool{}
	inCharacters := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "- ") && inCharacters {
			name, desc, ok := splitField(strings.TrimPrefix(line, "- "))
			if ok && !known[name] {
				known[name] = true
				parsed.Characters = append(parsed.Characters, entity.ScriptCharacter{Name: name, Description: desc})
			}
			continue
		}
		key, value, ok := splitField(line)
		if !ok {
			inCharacters = false
			continue
		}
		switch strings.ToLower(key) {
		case "title":
			inCharacters = false
			if parsed.Title == "" {
				parsed.Title = value
			}
		case "characters":
			inCharacters = true
		case "scene":
			inCharacters = false
			parsed.Scenes = append(parsed.Scenes, entity.ScriptScene{Description: value, Dialogues: []entity.Dialogue{}})
		default:
			inCharacters = false
			if !known[key] || len(parsed.Scenes) == 0 || value == "" {
				continue
			}
			current := &parsed.Scenes[len(parsed.Scenes)-1]
			current.Dialogues = append(current.Dialogues, entity.Dialogue{Character: key, Text: value})
		}
	}
	if parsed.Title == "" {
		parsed.Title = untitled
	}
	return parsed
}

func splitField(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
