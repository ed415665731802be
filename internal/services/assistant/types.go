package assistant

import "context"

// RunStatus is the lifecycle state of a run, as reported by the remote API
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether polling should stop at this status.
// Only completed, failed and expired end a turn; anything else keeps polling
// until the poll budget runs out.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusExpired:
		return true
	default:
		return false
	}
}

// Persona is the configuration an assistant is created with
type Persona struct {
	Name         string
	Instructions string
	Model        string
}

// Run is one execution of an assistant against a thread
type Run struct {
	ID        string
	Status    RunStatus
	LastError string
}

// Message is a thread message reduced to its first text payload
type Message struct {
	ID   string
	Role string
	Text string
}

// Client is the subset of the remote assistant API a conversation needs
type Client interface {
	CreateAssistant(ctx context.Context, persona Persona) (string, error)
	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	// ListMessages returns the thread's messages newest first
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
