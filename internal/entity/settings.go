package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is the output frame size.
type Resolution string

const (
	Resolution1080p Resolution = "1920x1080"
	Resolution720p  Resolution = "1280x720"
	Resolution480p  Resolution = "854x480"
)

// Quality is the renderer quality preset.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

var (
	allResolutions = []Resolution{Resolution1080p, Resolution720p, Resolution480p}
	allFPS         = []int{24, 30, 60}
	allDurations   = []int{15, 30, 60, 120}
	allQualities   = []Quality{QualityHigh, QualityMedium, QualityLow}
)

// VideoSettings describes the rendering parameters of a video job. Every field
// is always populated; use the setters to change one field at a time.
type VideoSettings struct {
	Resolution Resolution `json:"resolution"`
	FPS        int        `json:"fps"`
	// Duration is the target video length in seconds.
	Duration int     `json:"duration"`
	Quality  Quality `json:"quality"`
}

// DefaultVideoSettings returns the settings a fresh generator starts with.
func DefaultVideoSettings() VideoSettings {
	return VideoSettings{
		Resolution: Resolution1080p,
		FPS:        24,
		Duration:   30,
		Quality:    QualityHigh,
	}
}

// Resolutions lists the accepted resolutions in display order.
func Resolutions() []Resolution { return append([]Resolution(nil), allResolutions...) }

// FrameRates lists the accepted frame rates in display order.
func FrameRates() []int { return append([]int(nil), allFPS...) }

// Durations lists the accepted durations (seconds) in display order.
func Durations() []int { return append([]int(nil), allDurations...) }

// Qualities lists the accepted quality presets in display order.
func Qualities() []Quality { return append([]Quality(nil), allQualities...) }

// WithResolution returns a copy with the resolution replaced.
func (s VideoSettings) WithResolution(value Resolution) (VideoSettings, error) {
	if !containsResolution(value) {
		return s, fmt.Errorf("unsupported resolution %q", value)
	}
	s.Resolution = value
	return s, nil
}

// WithFPS returns a copy with the frame rate replaced.
func (s VideoSettings) WithFPS(value int) (VideoSettings, error) {
	if !containsInt(allFPS, value) {
		return s, fmt.Errorf("unsupported fps %d", value)
	}
	s.FPS = value
	return s, nil
}

// WithDuration returns a copy with the duration replaced.
func (s VideoSettings) WithDuration(seconds int) (VideoSettings, error) {
	if !containsInt(allDurations, seconds) {
		return s, fmt.Errorf("unsupported duration %ds", seconds)
	}
	s.Duration = seconds
	return s, nil
}

// WithQuality returns a copy with the quality replaced.
func (s VideoSettings) WithQuality(value Quality) (VideoSettings, error) {
	if !containsQuality(value) {
		return s, fmt.Errorf("unsupported quality %q", value)
	}
	s.Quality = value
	return s, nil
}

// Validate reports the first field outside its allowed set.
func (s VideoSettings) Validate() error {
	if !containsResolution(s.Resolution) {
		return fmt.Errorf("unsupported resolution %q", s.Resolution)
	}
	if !containsInt(allFPS, s.FPS) {
		return fmt.Errorf("unsupported fps %d", s.FPS)
	}
	if !containsInt(allDurations, s.Duration) {
		return fmt.Errorf("unsupported duration %ds", s.Duration)
	}
	if !containsQuality(s.Quality) {
		return fmt.Errorf("unsupported quality %q", s.Quality)
	}
	return nil
}

// ParseResolution normalizes user input into a Resolution.
func ParseResolution(value string) (Resolution, error) {
	candidate := Resolution(strings.ToLower(strings.TrimSpace(value)))
	if !containsResolution(candidate) {
		return "", fmt.Errorf("unsupported resolution %q (want one of %s)", value, joinResolutions())
	}
	return candidate, nil
}

// ParseQuality normalizes user input into a Quality.
func ParseQuality(value string) (Quality, error) {
	candidate := Quality(strings.ToLower(strings.TrimSpace(value)))
	if !containsQuality(candidate) {
		return "", fmt.Errorf("unsupported quality %q (want high, medium, or low)", value)
	}
	return candidate, nil
}

// ParseSettings builds settings from textual values; empty values keep the
// corresponding field of base.
func ParseSettings(base VideoSettings, resolution, fps, duration, quality string) (VideoSettings, error) {
	out := base
	var err error
	if strings.TrimSpace(resolution) != "" {
		var res Resolution
		if res, err = ParseResolution(resolution); err != nil {
			return base, err
		}
		out.Resolution = res
	}
	if strings.TrimSpace(fps) != "" {
		value, convErr := strconv.Atoi(strings.TrimSpace(fps))
		if convErr != nil {
			return base, fmt.Errorf("parse fps %q: %w", fps, convErr)
		}
		if out, err = out.WithFPS(value); err != nil {
			return base, err
		}
	}
	if strings.TrimSpace(duration) != "" {
		value, convErr := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(duration), "s"))
		if convErr != nil {
			return base, fmt.Errorf("parse duration %q: %w", duration, convErr)
		}
		if out, err = out.WithDuration(value); err != nil {
			return base, err
		}
	}
	if strings.TrimSpace(quality) != "" {
		var q Quality
		if q, err = ParseQuality(quality); err != nil {
			return base, err
		}
		out.Quality = q
	}
	return out, nil
}

func containsResolution(value Resolution) bool {
	for _, candidate := range allResolutions {
		if candidate == value {
			return true
		}
	}
	return false
}

func containsQuality(value Quality) bool {
	for _, candidate := range allQualities {
		if candidate == value {
			return true
		}
	}
	return false
}

func containsInt(values []int, value int) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}

func joinResolutions() string {
	parts := make([]string, 0, len(allResolutions))
	for _, r := range allResolutions {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}
