package controller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/better-hash/ai-video-generator/internal/controller"
	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/poller"
	"github.com/better-hash/ai-video-generator/internal/services"
)

func pct(v int) *int { return &v }

func newVideoGenerator(t *testing.T, gw *fakeGateway, chars controller.CharacterSource, scenes controller.SceneSource) (*controller.VideoGenerator, *poller.Poller) {
	t.Helper()
	p := poller.New(gw, poller.Options{Interval: time.Millisecond})
	gen := controller.NewVideoGenerator(p, chars, scenes, entity.DefaultVideoSettings(), nil)
	t.Cleanup(func() {
		gen.Close()
		p.Close()
	})
	return gen, p
}

func waitFor(t *testing.T, gen *controller.VideoGenerator, cond func(controller.VideoView) bool) controller.VideoView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if view := gen.View(); cond(view) {
			return view
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met, last view %+v", gen.View())
	return controller.VideoView{}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestGenerateRejectsEmptyScript(t *testing.T) {
	gw := &fakeGateway{}
	gen, _ := newVideoGenerator(t, gw, nil, nil)
	log := &noticeLog{}
	gen.SubscribeNotices(record(log))

	gen.SetScript(" \n ")
	if _, err := gen.Generate(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, _, _, submit := gw.calls(); submit != 0 {
		t.Fatalf("expected no submissions, got %d", submit)
	}
	if view := gen.View(); view.Loading {
		t.Fatal("loading set after rejected generate")
	}
	if log.last().Level != "warning" {
		t.Fatalf("expected warning notice, got %+v", log.last())
	}
}

func TestGenerateProjectsProgressAndCompletion(t *testing.T) {
	gw := &fakeGateway{statuses: []gateway.TaskStatus{
		{Status: entity.TaskProcessing, Progress: pct(30), Message: "generating characters"},
		{Status: entity.TaskProcessing, Progress: pct(80)},
		{Status: entity.TaskCompleted, VideoURL: "/videos/task-1/output.mp4"},
	}}
	gen, _ := newVideoGenerator(t, gw, nil, nil)
	var mu sync.Mutex
	var labels []string
	gen.SubscribeView(func(v controller.VideoView) {
		mu.Lock()
		defer mu.Unlock()
		if n := len(labels); n == 0 || labels[n-1] != v.StageLabel {
			labels = append(labels, v.StageLabel)
		}
	})

	gen.SetScript("Title: x")
	taskID, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	view := waitFor(t, gen, func(v controller.VideoView) bool { return v.State == poller.StateCompleted })
	if taskID != "task-1" || view.TaskID != "task-1" || view.Loading || view.Progress != 100 || view.VideoURL == "" {
		t.Fatalf("unexpected final view %+v", view)
	}
	if view.StageLabel != "complete" {
		t.Fatalf("unexpected stage label %q", view.StageLabel)
	}
	want := []string{"parsing script", "generating characters and scenes", "compositing video", "complete"}
	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(labels) == len(want)
	})
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("stage labels mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateFailureStatusSurfacesReason(t *testing.T) {
	gw := &fakeGateway{statuses: []gateway.TaskStatus{{Status: entity.TaskFailed}}}
	gen, _ := newVideoGenerator(t, gw, nil, nil)
	log := &noticeLog{}
	gen.SubscribeNotices(record(log))

	gen.SetScript("Title: x")
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	view := waitFor(t, gen, func(v controller.VideoView) bool { return v.State == poller.StateFailed })
	if view.Loading || view.Error != poller.UnknownFailure {
		t.Fatalf("unexpected view %+v", view)
	}
	eventually(t, func() bool { return log.last().Level == "error" })
	if last := log.last(); last.Level != "error" || last.Text != "video generation failed: unknown error" {
		t.Fatalf("unexpected notice %+v", last)
	}
}

func TestSubmitFailureResetsLoadingAndPromptsRetry(t *testing.T) {
	gw := &fakeGateway{submitErr: services.Wrap(services.ErrTransport, "fake", "submit", "refused", nil)}
	gen, _ := newVideoGenerator(t, gw, nil, nil)
	log := &noticeLog{}
	gen.SubscribeNotices(record(log))

	gen.SetScript("Title: x")
	if _, err := gen.Generate(context.Background()); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if gen.View().Loading {
		t.Fatal("loading not reset")
	}
	if log.last().Text != controller.RetryMessage {
		t.Fatalf("unexpected notice %+v", log.last())
	}
}

func TestGenerateWhileLoadingIsBusy(t *testing.T) {
	gw := &fakeGateway{}
	gen, _ := newVideoGenerator(t, gw, nil, nil)
	gen.SetScript("Title: x")
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := gen.Generate(context.Background()); !errors.Is(err, controller.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, _, _, submit := gw.calls(); submit != 1 {
		t.Fatalf("expected one submission, got %d", submit)
	}
}

func TestLeaveCancelsPolling(t *testing.T) {
	gw := &fakeGateway{}
	gen, p := newVideoGenerator(t, gw, nil, nil)
	gen.SetScript("Title: x")
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	gen.Leave()
	if p.Snapshot().State != poller.StateCancelled {
		t.Fatalf("expected cancelled poller, got %s", p.Snapshot().State)
	}
	if gen.View().Loading {
		t.Fatal("loading still set after Leave")
	}
	gen.SetScript("Title: y")
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate after Leave returned error: %v", err)
	}
}

func TestLeaveDuringSubmissionIsNotAFailure(t *testing.T) {
	gw := &fakeGateway{submitBlock: make(chan struct{}), submitting: make(chan struct{})}
	defer close(gw.submitBlock)
	gen, p := newVideoGenerator(t, gw, nil, nil)
	log := &noticeLog{}
	gen.SubscribeNotices(record(log))
	gen.SetScript("Title: x")

	errc := make(chan error, 1)
	go func() {
		_, err := gen.Generate(context.Background())
		errc <- err
	}()
	<-gw.submitting
	gen.Leave()

	select {
	case err := <-errc:
		if !errors.Is(err, poller.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Generate did not return after Leave")
	}
	if p.Snapshot().State != poller.StateCancelled {
		t.Fatalf("expected cancelled poller, got %s", p.Snapshot().State)
	}
	if gen.View().Loading {
		t.Fatal("loading still set after Leave")
	}
	for _, level := range log.levels() {
		if level == "error" {
			t.Fatalf("cancel surfaced an error notice: %+v", log.last())
		}
	}
}

func TestSettingsSettersRejectOutOfRange(t *testing.T) {
	gw := &fakeGateway{}
	gen, _ := newVideoGenerator(t, gw, nil, nil)

	if err := gen.SetFPS(25); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := gen.SetResolution(entity.Resolution720p); err != nil {
		t.Fatalf("SetResolution returned error: %v", err)
	}
	if err := gen.SetDuration(60); err != nil {
		t.Fatalf("SetDuration returned error: %v", err)
	}
	if err := gen.SetQuality(entity.QualityLow); err != nil {
		t.Fatalf("SetQuality returned error: %v", err)
	}
	want := entity.VideoSettings{Resolution: entity.Resolution720p, FPS: 24, Duration: 60, Quality: entity.QualityLow}
	if diff := cmp.Diff(want, gen.Settings()); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectionControlsPayload(t *testing.T) {
	gw := &fakeGateway{}
	chars := controller.NewCharacterManager(gw, 0, nil)
	scenes := controller.NewSceneManager(gw, nil)
	ann := entity.NewCharacter("Ann", "chef", "", "")
	bo := entity.NewCharacter("Bo", "pilot", "", "")
	chars.Import([]entity.Character{ann, bo})
	park := entity.NewScene("Park", "a park", "", "", "")
	scenes.Import([]entity.Scene{park})
	gen, _ := newVideoGenerator(t, gw, chars, scenes)

	if err := gen.SelectCharacters([]string{"nope"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := gen.SelectCharacters([]string{bo.ID}); err != nil {
		t.Fatalf("SelectCharacters returned error: %v", err)
	}

	gen.SetScript("Title: x")
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	gw.mu.Lock()
	job := gw.lastJob
	gw.mu.Unlock()
	if len(job.Characters) != 1 || job.Characters[0].ID != bo.ID {
		t.Fatalf("unexpected characters %+v", job.Characters)
	}
	if job.Scenes == nil || len(job.Scenes) != 0 {
		t.Fatalf("expected empty non-nil scenes, got %#v", job.Scenes)
	}
}

func TestStageLabelBoundaries(t *testing.T) {
	cases := map[int]string{
		0:   "parsing script",
		24:  "parsing script",
		25:  "generating characters and scenes",
		50:  "rendering frames",
		75:  "compositing video",
		99:  "compositing video",
		100: "complete",
	}
	for progress, want := range cases {
		if got := controller.StageLabel(progress); got != want {
			t.Fatalf("StageLabel(%d) = %q, want %q", progress, got, want)
		}
	}
}
