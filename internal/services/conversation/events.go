package conversation

import "github.com/deepgram/qabot/internal/services/assistant"

// TurnState is a step of the per-turn state machine
type TurnState string

const (
	StateIdle                     TurnState = "idle"
	StateUserMessageRecorded      TurnState = "user_message_recorded"
	StateRunSubmitted             TurnState = "run_submitted"
	StatePolling                  TurnState = "polling"
	StateCompleted                TurnState = "completed"
	StateAssistantMessageRecorded TurnState = "assistant_message_recorded"
	StateErrorReported            TurnState = "error_reported"
)

// Event is emitted on every state transition of a turn
type Event struct {
	State   TurnState
	Status  assistant.RunStatus
	Attempt int
	Message *Message
	Err     error
}

// Observer receives turn events synchronously; it must not block for long
type Observer func(Event)

func (o Observer) emit(ev Event) {
	if o != nil {
		o(ev)
	}
}
