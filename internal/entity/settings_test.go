package entity_test

import (
	"testing"

	"github.com/better-hash/ai-video-generator/internal/entity"
)

func TestDefaultVideoSettingsAreValid(t *testing.T) {
	settings := entity.DefaultVideoSettings()
	if err := settings.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	want := entity.VideoSettings{Resolution: "1920x1080", FPS: 24, Duration: 30, Quality: "high"}
	if settings != want {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
}

func TestSettersChangeOneFieldAndRejectOutOfRange(t *testing.T) {
	base := entity.DefaultVideoSettings()

	changed, err := base.WithFPS(60)
	if err != nil {
		t.Fatalf("WithFPS(60) returned error: %v", err)
	}
	if changed.FPS != 60 || changed.Resolution != base.Resolution || changed.Duration != base.Duration || changed.Quality != base.Quality {
		t.Fatalf("expected only fps to change, got %+v", changed)
	}

	if kept, err := base.WithFPS(25); err == nil {
		t.Fatal("expected fps 25 to be rejected")
	} else if kept != base {
		t.Fatalf("expected rejected setter to keep settings, got %+v", kept)
	}
	if _, err := base.WithDuration(45); err == nil {
		t.Fatal("expected duration 45 to be rejected")
	}
	if _, err := base.WithResolution("640x360"); err == nil {
		t.Fatal("expected resolution 640x360 to be rejected")
	}
	if _, err := base.WithQuality("ultra"); err == nil {
		t.Fatal("expected quality ultra to be rejected")
	}
}

func TestParseSettings(t *testing.T) {
	base := entity.DefaultVideoSettings()
	got, err := entity.ParseSettings(base, " 1280x720 ", "30", "120s", "LOW")
	if err != nil {
		t.Fatalf("ParseSettings returned error: %v", err)
	}
	want := entity.VideoSettings{Resolution: entity.Resolution720p, FPS: 30, Duration: 120, Quality: entity.QualityLow}
	if got != want {
		t.Fatalf("unexpected settings: got %+v want %+v", got, want)
	}

	unchanged, err := entity.ParseSettings(base, "", "", "", "")
	if err != nil || unchanged != base {
		t.Fatalf("expected blank input to keep base, got %+v err=%v", unchanged, err)
	}

	if _, err := entity.ParseSettings(base, "", "abc", "", ""); err == nil {
		t.Fatal("expected non-numeric fps to fail")
	}
}

func TestParseTaskStatus(t *testing.T) {
	status, ok := entity.ParseTaskStatus(" Completed ")
	if !ok || status != entity.TaskCompleted || !status.IsTerminal() {
		t.Fatalf("unexpected parse: %q %v", status, ok)
	}
	if _, ok := entity.ParseTaskStatus("queued"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if entity.TaskProcessing.IsTerminal() {
		t.Fatal("processing must not be terminal")
	}
	if entity.ClampProgress(140) != 100 || entity.ClampProgress(-3) != 0 || entity.ClampProgress(42) != 42 {
		t.Fatal("unexpected clamp results")
	}
}
