// Package assistanttest provides a scripted in-memory assistant.Client for tests.
package assistanttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/deepgram/qabot/internal/services/assistant"
)

const (
	OpCreateAssistant = "CreateAssistant"
	OpCreateThread    = "CreateThread"
	OpCreateMessage   = "CreateMessage"
	OpCreateRun       = "CreateRun"
	OpRetrieveRun     = "RetrieveRun"
	OpListMessages    = "ListMessages"
)

// Fake replays a scripted status sequence for every run. Once the script is
// exhausted the last status repeats. When a run reaches completed, Reply is
// added to the thread as the newest assistant message.
type Fake struct {
	mu sync.Mutex

	Statuses []assistant.RunStatus
	Reply    string

	// OnRetrieve, when set, runs before each RetrieveRun and may block or fail it
	OnRetrieve func(ctx context.Context) error
	// OnCreateAssistant, when set, runs before each CreateAssistant and may block or fail it
	OnCreateAssistant func(ctx context.Context) error

	errs     map[string]error
	calls    map[string]int
	personas []assistant.Persona
	threads  map[string][]assistant.Message
	runs     map[string]*fakeRun
	nextID   int
}

type fakeRun struct {
	threadID string
	step     int
	replied  bool
}

// NewFake returns a fake whose runs go queued, in_progress, completed
func NewFake(reply string) *Fake {
	return &Fake{
		Statuses: []assistant.RunStatus{
			assistant.RunStatusInProgress,
			assistant.RunStatusCompleted,
		},
		Reply:   reply,
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		threads: make(map[string][]assistant.Message),
		runs:    make(map[string]*fakeRun),
	}
}

// FailOn makes every later call of op return err
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

// Calls returns how many times op was invoked
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Personas returns the personas assistants were created with
func (f *Fake) Personas() []assistant.Persona {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]assistant.Persona(nil), f.personas...)
}

// ThreadMessages returns the messages of a thread, newest first
func (f *Fake) ThreadMessages(threadID string) []assistant.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]assistant.Message(nil), f.threads[threadID]...)
}

func (f *Fake) begin(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func (f *Fake) CreateAssistant(ctx context.Context, persona assistant.Persona) (string, error) {
	if err := f.begin(OpCreateAssistant); err != nil {
		return "", err
	}
	if f.OnCreateAssistant != nil {
		if err := f.OnCreateAssistant(ctx); err != nil {
			return "", err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.personas = append(f.personas, persona)
	return f.id("asst"), nil
}

func (f *Fake) CreateThread(ctx context.Context) (string, error) {
	if err := f.begin(OpCreateThread); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("thread")
	f.threads[id] = nil
	return id, nil
}

func (f *Fake) CreateMessage(ctx context.Context, threadID, content string) error {
	if err := f.begin(OpCreateMessage); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepend(threadID, assistant.Message{ID: f.id("msg"), Role: "user", Text: content})
	return nil
}

func (f *Fake) CreateRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error) {
	if err := f.begin(OpCreateRun); err != nil {
		return assistant.Run{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("run")
	f.runs[id] = &fakeRun{threadID: threadID}
	return assistant.Run{ID: id, Status: assistant.RunStatusQueued}, nil
}

func (f *Fake) RetrieveRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	if err := f.begin(OpRetrieveRun); err != nil {
		return assistant.Run{}, err
	}
	if f.OnRetrieve != nil {
		if err := f.OnRetrieve(ctx); err != nil {
			return assistant.Run{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	run, ok := f.runs[runID]
	if !ok {
		return assistant.Run{}, fmt.Errorf("no run %s", runID)
	}

	status := assistant.RunStatusCompleted
	if len(f.Statuses) > 0 {
		idx := run.step
		if idx >= len(f.Statuses) {
			idx = len(f.Statuses) - 1
		}
		status = f.Statuses[idx]
	}
	run.step++

	if status == assistant.RunStatusCompleted && !run.replied {
		run.replied = true
		f.prepend(run.threadID, assistant.Message{ID: f.id("msg"), Role: "assistant", Text: f.Reply})
	}

	return assistant.Run{ID: runID, Status: status}, nil
}

func (f *Fake) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	if err := f.begin(OpListMessages); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]assistant.Message(nil), f.threads[threadID]...), nil
}

func (f *Fake) prepend(threadID string, msg assistant.Message) {
	f.threads[threadID] = append([]assistant.Message{msg}, f.threads[threadID]...)
}
