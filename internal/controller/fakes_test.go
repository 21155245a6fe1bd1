package controller_test

import (
	"context"
	"sync"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/services"
)

// fakeGateway implements every backend capability with canned results.
type fakeGateway struct {
	mu sync.Mutex

	parsed       entity.ParsedScript
	parseErr     error
	charErr      error
	sceneErr     error
	submitErr    error
	failOn       map[string]bool
	statuses     []gateway.TaskStatus
	parseCalls   int
	charCalls    int
	imageCalls   int
	sceneCalls   int
	submitCalls  int
	lastJob      gateway.VideoJobRequest
	descriptions []string
	block        chan struct{}
	submitBlock  chan struct{}
	submitting   chan struct{}
}

func (f *fakeGateway) wait(ctx context.Context) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
}

func (f *fakeGateway) ParseScript(ctx context.Context, _ string) (entity.ParsedScript, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parseCalls++
	return f.parsed, f.parseErr
}

func (f *fakeGateway) GenerateCharacter(ctx context.Context, description string) (gateway.CharacterResult, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charCalls++
	f.descriptions = append(f.descriptions, description)
	if f.charErr != nil {
		return gateway.CharacterResult{}, f.charErr
	}
	if f.failOn[description] {
		return gateway.CharacterResult{}, services.Wrap(services.ErrServer, "fake", "generate", "boom", nil)
	}
	return gateway.CharacterResult{ImageURL: "/img/" + description + ".png", VoiceModel: "default"}, nil
}

func (f *fakeGateway) GenerateCharacterWithImage(ctx context.Context, description string, _ gateway.ImageUpload) (gateway.CharacterResult, error) {
	f.mu.Lock()
	f.imageCalls++
	f.mu.Unlock()
	return f.GenerateCharacter(ctx, description)
}

func (f *fakeGateway) GenerateScene(ctx context.Context, description string) (gateway.SceneResult, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sceneCalls++
	if f.sceneErr != nil {
		return gateway.SceneResult{}, f.sceneErr
	}
	return gateway.SceneResult{Name: "Scene of " + description, Mood: "calm"}, nil
}

func (f *fakeGateway) SubmitVideoJob(ctx context.Context, req gateway.VideoJobRequest) (gateway.SubmitResult, error) {
	f.mu.Lock()
	block, started := f.submitBlock, f.submitting
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastJob = req
	if f.submitErr != nil {
		return gateway.SubmitResult{}, f.submitErr
	}
	return gateway.SubmitResult{TaskID: "task-1"}, nil
}

func (f *fakeGateway) FetchTaskStatus(_ context.Context, _ string) (gateway.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return gateway.TaskStatus{Status: entity.TaskProcessing}, nil
	}
	next := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return next, nil
}

func (f *fakeGateway) calls() (parse, char, scene, submit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parseCalls, f.charCalls, f.sceneCalls, f.submitCalls
}

type noticeLog struct {
	mu      sync.Mutex
	notices []noticeEntry
}

type noticeEntry struct {
	Level string
	Text  string
}

func (n *noticeLog) levels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notices))
	for _, entry := range n.notices {
		out = append(out, entry.Level)
	}
	return out
}

func (n *noticeLog) last() noticeEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return noticeEntry{}
	}
	return n.notices[len(n.notices)-1]
}
