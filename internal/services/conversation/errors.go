package conversation

import (
	"errors"
	"fmt"

	"github.com/deepgram/qabot/internal/services/assistant"
)

// Kind classifies failures so the presentation layer can choose how to show them
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindClientInit
	KindBootstrap
	KindTurn
	KindRunFailed
	KindTimeout
	KindInvalidInput
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindClientInit:
		return "client_init"
	case KindBootstrap:
		return "bootstrap"
	case KindTurn:
		return "turn"
	case KindRunFailed:
		return "run_failed"
	case KindTimeout:
		return "timeout"
	case KindInvalidInput:
		return "invalid_input"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyInput     = errors.New("message content is empty")
	ErrTurnInProgress = errors.New("a turn is already running for this session")
	ErrPollExhausted  = errors.New("run did not reach a terminal status in time")
	ErrNoReply        = errors.New("thread has no reply text")
)

// Error is returned by every driver and service operation
type Error struct {
	Kind   Kind
	Op     string
	Status assistant.RunStatus // set for KindRunFailed and KindTimeout
	Err    error
}

func (e *Error) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s (run status %s): %v", e.Kind, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or KindUnknown
func KindOf(err error) Kind {
	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
