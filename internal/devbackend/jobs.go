package devbackend

import (
	"strings"
	"sync"
	"time"

	"github.com/better-hash/ai-video-generator/internal/entity"
)

type jobStep struct {
	progress int
	message  string
}

var jobSteps = []jobStep{
	{10, "parsing script"},
	{30, "generating characters and scenes"},
	{60, "compositing video"},
	{90, "generating audio"},
	{100, "video generation complete"},
}

// failAfterStep is the step index at which a FAIL script stops.
const failAfterStep = 2

const failureReason = "render failed: script requested failure"

type job struct {
	id        string
	createdAt time.Time
	fail      bool
	settings  entity.VideoSettings
}

type jobStore struct {
	mu   sync.Mutex
	jobs map[string]*job
	step time.Duration
	now  func() time.Time
}

func newJobStore(step time.Duration, now func() time.Time) *jobStore {
	return &jobStore{jobs: map[string]*job{}, step: step, now: now}
}

func (s *jobStore) create(script string, settings entity.VideoSettings) *job {
	j := &job{
		id:        entity.NewID(),
		createdAt: s.now(),
		fail:      strings.Contains(script, "FAIL"),
		settings:  settings,
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()
	return j
}

func (s *jobStore) get(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// status derives the job's current report from elapsed steps.
func (s *jobStore) status(j *job) entity.GenerationTask {
	elapsed := s.now().Sub(j.createdAt)
	steps := 0
	if s.step > 0 {
		steps = int(elapsed / s.step)
	} else {
		steps = len(jobSteps)
	}
	task := entity.GenerationTask{TaskID: j.id, Status: entity.TaskProcessing, Message: "task started"}
	if steps == 0 {
		return task
	}
	if j.fail && steps > failAfterStep {
		prev := jobSteps[failAfterStep-1]
		task.Status = entity.TaskFailed
		task.Progress = prev.progress
		task.Message = prev.message
		task.Error = failureReason
		return task
	}
	if steps > len(jobSteps) {
		steps = len(jobSteps)
	}
	current := jobSteps[steps-1]
	task.Progress = current.progress
	task.Message = current.message
	if current.progress == 100 {
		task.Status = entity.TaskCompleted
		task.VideoURL = "/videos/" + j.id + "/output.mp4"
	}
	return task
}
