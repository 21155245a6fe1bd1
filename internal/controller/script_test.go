package controller_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/services"
)

func record(log *noticeLog) func(controller.Notice) {
	return func(n controller.Notice) {
		log.mu.Lock()
		log.notices = append(log.notices, noticeEntry{Level: string(n.Level), Text: n.Text})
		log.mu.Unlock()
	}
}

func TestParseRejectsBlankScriptLocally(t *testing.T) {
	gw := &fakeGateway{}
	editor := controller.NewScriptEditor(gw, nil)
	log := &noticeLog{}
	editor.SubscribeNotices(record(log))

	editor.SetText("  \n\t ")
	_, err := editor.Parse(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if parse, _, _, _ := gw.calls(); parse != 0 {
		t.Fatalf("expected no gateway calls, got %d", parse)
	}
	if got := log.last(); got.Level != "warning" {
		t.Fatalf("expected warning notice, got %+v", got)
	}
	if editor.View().Loading {
		t.Fatal("loading left set after rejected parse")
	}
}

func TestParseReplacesSnapshotWholesale(t *testing.T) {
	gw := &fakeGateway{parsed: entity.ParsedScript{Title: "One", Characters: []entity.ScriptCharacter{{Name: "Ann"}}}}
	editor := controller.NewScriptEditor(gw, nil)
	editor.UseSample()
	if !strings.HasPrefix(editor.Text(), "Title:") {
		t.Fatalf("sample not loaded: %q", editor.Text())
	}

	if _, err := editor.Parse(context.Background()); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	gw.mu.Lock()
	gw.parsed = entity.ParsedScript{Title: "Two", Scenes: []entity.ScriptScene{{Description: "park"}}}
	gw.mu.Unlock()
	if _, err := editor.Parse(context.Background()); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	view := editor.View()
	want := &entity.ParsedScript{Title: "Two", Scenes: []entity.ScriptScene{{Description: "park"}}}
	if diff := cmp.Diff(want, view.Parsed); diff != "" {
		t.Fatalf("parsed snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFailureKeepsPreviousSnapshot(t *testing.T) {
	gw := &fakeGateway{parsed: entity.ParsedScript{Title: "Kept"}}
	editor := controller.NewScriptEditor(gw, nil)
	log := &noticeLog{}
	editor.SubscribeNotices(record(log))
	editor.SetText("Title: Kept")
	if _, err := editor.Parse(context.Background()); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	gw.mu.Lock()
	gw.parseErr = services.Wrap(services.ErrTransport, "fake", "parse", "timeout", nil)
	gw.mu.Unlock()
	if _, err := editor.Parse(context.Background()); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	view := editor.View()
	if view.Loading || view.Parsed == nil || view.Parsed.Title != "Kept" {
		t.Fatalf("unexpected view after failure %+v", view)
	}
	if got := log.last(); got.Level != "error" {
		t.Fatalf("expected error notice, got %+v", got)
	}
}

func TestParseWhileLoadingIsBusy(t *testing.T) {
	gw := &fakeGateway{parsed: entity.ParsedScript{Title: "x"}, block: make(chan struct{})}
	editor := controller.NewScriptEditor(gw, nil)
	editor.SetText("Title: x")

	done := make(chan error, 1)
	go func() {
		_, err := editor.Parse(context.Background())
		done <- err
	}()
	for !editor.View().Loading {
		time.Sleep(time.Millisecond)
	}
	if _, err := editor.Parse(context.Background()); !errors.Is(err, controller.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(gw.block)
	if err := <-done; err != nil {
		t.Fatalf("first Parse returned error: %v", err)
	}
	if parse, _, _, _ := gw.calls(); parse != 1 {
		t.Fatalf("expected one parse call, got %d", parse)
	}
}

func TestDeriveInsertsInScriptOrder(t *testing.T) {
	gw := &fakeGateway{
		parsed: entity.ParsedScript{
			Title: "Walk",
			Characters: []entity.ScriptCharacter{
				{Name: "Ann", Description: "a chef"},
				{Name: "Bo", Description: "a pilot"},
				{Name: "Cy", Description: "a poet"},
				{Name: "Di", Description: "a judge"},
			},
			Scenes: []entity.ScriptScene{{Description: "kitchen"}, {Description: "runway"}},
		},
		failOn: map[string]bool{"Cy: a poet": true},
	}
	editor := controller.NewScriptEditor(gw, nil)
	chars := controller.NewCharacterManager(gw, 0, nil)
	scenes := controller.NewSceneManager(gw, nil)
	editor.SetText("Title: Walk")
	if _, err := editor.Parse(context.Background()); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	result, err := editor.Derive(context.Background(), chars, scenes)
	if !errors.Is(err, services.ErrServer) {
		t.Fatalf("expected joined ErrServer, got %v", err)
	}
	var names []string
	for _, char := range chars.Characters() {
		names = append(names, char.Name)
	}
	if diff := cmp.Diff([]string{"Ann", "Bo", "Di"}, names); diff != "" {
		t.Fatalf("character order mismatch (-want +got):\n%s", diff)
	}
	if len(result.Scenes) != 2 || scenes.Scenes()[0].Description != "kitchen" || scenes.Scenes()[1].Description != "runway" {
		t.Fatalf("unexpected scenes %+v", scenes.Scenes())
	}
}

func TestDeriveRequiresParsedScript(t *testing.T) {
	gw := &fakeGateway{}
	editor := controller.NewScriptEditor(gw, nil)
	_, err := editor.Derive(context.Background(), controller.NewCharacterManager(gw, 0, nil), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, char, _, _ := gw.calls(); char != 0 {
		t.Fatalf("expected no gateway calls, got %d", char)
	}
}
