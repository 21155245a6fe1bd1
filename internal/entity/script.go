package entity

// ParsedScript is the backend parser's structured view of a raw script. It is
// replaced wholesale on every parse and never patched in place.
type ParsedScript struct {
	Title      string            `json:"title"`
	Characters []ScriptCharacter `json:"characters"`
	Scenes     []ScriptScene     `json:"scenes"`
}

// ScriptCharacter is a character as described by the script text.
type ScriptCharacter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScriptScene is a scene and its dialogue lines.
type ScriptScene struct {
	Description string     `json:"description"`
	Dialogues   []Dialogue `json:"dialogues"`
}

// Dialogue is one spoken line.
type Dialogue struct {
	Character string `json:"character"`
	Text      string `json:"text"`
}

// DialogueCount returns the number of dialogue lines across all scenes.
func (p ParsedScript) DialogueCount() int {
	total := 0
	for _, scene := range p.Scenes {
		total += len(scene.Dialogues)
	}
	return total
}

// IsEmpty reports whether the snapshot carries nothing usable.
func (p ParsedScript) IsEmpty() bool {
	return p.Title == "" && len(p.Characters) == 0 && len(p.Scenes) == 0
}

// Clone returns a deep copy so callers cannot mutate a shared snapshot.
func (p ParsedScript) Clone() ParsedScript {
	out := ParsedScript{Title: p.Title}
	if p.Characters != nil {
		out.Characters = append([]ScriptCharacter(nil), p.Characters...)
	}
	if p.Scenes != nil {
		out.Scenes = make([]ScriptScene, len(p.Scenes))
		for i, scene := range p.Scenes {
			out.Scenes[i] = ScriptScene{Description: scene.Description}
			if scene.Dialogues != nil {
				out.Scenes[i].Dialogues = append([]Dialogue(nil), scene.Dialogues...)
			}
		}
	}
	return out
}
