package controller_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/services"
)

func TestGenerateCharacterInsertsWithFreshID(t *testing.T) {
	gw := &fakeGateway{}
	mgr := controller.NewCharacterManager(gw, 0, nil)

	mgr.SetDescription("a tall knight")
	first, err := mgr.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	mgr.SetDescription("a small squire")
	second, err := mgr.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected unique ids, got %q and %q", first.ID, second.ID)
	}
	if first.Name != entity.DefaultCharacterName {
		t.Fatalf("expected default name, got %q", first.Name)
	}
	view := mgr.View()
	if len(view.Characters) != 2 || view.Description != "" || view.Loading {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestGenerateCharacterRejectsBlankDescription(t *testing.T) {
	gw := &fakeGateway{}
	mgr := controller.NewCharacterManager(gw, 0, nil)
	log := &noticeLog{}
	mgr.SubscribeNotices(record(log))

	mgr.SetDescription("   ")
	if _, err := mgr.Generate(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, char, _, _ := gw.calls(); char != 0 {
		t.Fatalf("expected no gateway calls, got %d", char)
	}
	if log.last().Level != "warning" {
		t.Fatalf("expected warning, got %+v", log.last())
	}
}

func TestGenerateCharacterFailureKeepsInput(t *testing.T) {
	gw := &fakeGateway{charErr: services.Wrap(services.ErrTransport, "fake", "generate", "timeout", nil)}
	mgr := controller.NewCharacterManager(gw, 0, nil)
	log := &noticeLog{}
	mgr.SubscribeNotices(record(log))

	mgr.SetDescription("a knight")
	if _, err := mgr.Generate(context.Background()); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	view := mgr.View()
	if view.Loading || view.Description != "a knight" || len(view.Characters) != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	if log.last().Text != "character generation failed, please retry" {
		t.Fatalf("unexpected notice %+v", log.last())
	}
}

func TestAttachImageGuard(t *testing.T) {
	gw := &fakeGateway{}
	mgr := controller.NewCharacterManager(gw, 0, nil)
	log := &noticeLog{}
	mgr.SubscribeNotices(record(log))

	big := gateway.ImageUpload{Filename: "big.png", MIMEType: "image/png", Data: make([]byte, 6*1024*1024)}
	if err := mgr.AttachImage(big); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	text := gateway.ImageUpload{Filename: "a.txt", MIMEType: "text/plain", Data: []byte("hi")}
	if err := mgr.AttachImage(text); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if mgr.View().Attachment != nil {
		t.Fatal("rejected image was stored")
	}
	if log.last().Level != "warning" || log.last().Text != "only image files can be uploaded" {
		t.Fatalf("unexpected notice %+v", log.last())
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 1024*1024)...)
	if err := mgr.AttachImage(gateway.ImageUpload{Filename: "ref.png", Data: png}); err != nil {
		t.Fatalf("AttachImage returned error: %v", err)
	}
	if att := mgr.View().Attachment; att == nil || att.MIMEType != "image/png" {
		t.Fatalf("unexpected attachment %+v", att)
	}

	mgr.SetDescription("a knight")
	if _, err := mgr.Generate(context.Background()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	gw.mu.Lock()
	imageCalls := gw.imageCalls
	gw.mu.Unlock()
	if imageCalls != 1 {
		t.Fatalf("expected image upload call, got %d", imageCalls)
	}
	if mgr.View().Attachment != nil {
		t.Fatal("attachment not cleared after success")
	}
}

func TestRemoveCharacterByID(t *testing.T) {
	gw := &fakeGateway{}
	mgr := controller.NewCharacterManager(gw, 0, nil)
	var ids []string
	for _, desc := range []string{"one", "two", "three"} {
		mgr.SetDescription(desc)
		char, err := mgr.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		ids = append(ids, char.ID)
	}

	if !mgr.Remove(ids[1]) {
		t.Fatal("expected removal")
	}
	if mgr.Remove("missing") {
		t.Fatal("removing unknown id reported success")
	}
	got := mgr.Characters()
	if len(got) != 2 || got[0].ID != ids[0] || got[1].ID != ids[2] {
		t.Fatalf("unexpected characters after removal %+v", got)
	}
}

func TestImportSkipsDuplicates(t *testing.T) {
	mgr := controller.NewCharacterManager(&fakeGateway{}, 0, nil)
	char := entity.NewCharacter("Ann", "chef", "", "")
	if added := mgr.Import([]entity.Character{char, char}); added != 1 {
		t.Fatalf("expected 1 import, got %d", added)
	}
}

func TestSceneManagerGenerateAndRemove(t *testing.T) {
	gw := &fakeGateway{}
	mgr := controller.NewSceneManager(gw, nil)

	mgr.SetDescription("")
	if _, err := mgr.Generate(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	mgr.SetDescription("a park")
	scene, err := mgr.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if scene.Name != "Scene of a park" || scene.Mood != "calm" || mgr.View().Description != "" {
		t.Fatalf("unexpected scene %+v", scene)
	}
	if _, _, sceneCalls, _ := gw.calls(); sceneCalls != 1 {
		t.Fatalf("expected one scene call, got %d", sceneCalls)
	}
	if !mgr.Remove(scene.ID) || len(mgr.Scenes()) != 0 {
		t.Fatal("scene not removed")
	}
}
