package controller

// StageLabel names the render stage shown next to a progress value.
func StageLabel(progress int) string {
	switch {
	case progress >= 100:
		return "complete"
	case progress >= 75:
		return "compositing video"
	case progress >= 50:
		return "rendering frames"
	case progress >= 25:
		return "generating characters and scenes"
	default:
		return "parsing script"
	}
}
