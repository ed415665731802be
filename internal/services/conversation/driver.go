package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/services/assistant"
	"github.com/rs/zerolog/log"
)

// Driver runs bootstrap and turns for a single session at a time. It is not
// safe to use concurrently on the same Session; Service serialises callers.
type Driver struct {
	client  assistant.Client
	persona assistant.Persona
	poll    config.PollConfig
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Driver)

// WithSleep replaces the wait between polls
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) {
		d.sleep = sleep
	}
}

func NewDriver(client assistant.Client, persona assistant.Persona, poll config.PollConfig, opts ...Option) *Driver {
	d := &Driver{
		client:  client,
		persona: persona,
		poll:    poll,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EnsureSession creates the remote assistant and thread the session is
// missing. A populated session makes no remote calls.
func (d *Driver) EnsureSession(ctx context.Context, s *Session) error {
	if s.AssistantID == "" {
		id, err := d.client.CreateAssistant(ctx, d.persona)
		if err != nil {
			log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to create assistant")
			return newError(KindBootstrap, "create assistant", err)
		}
		s.AssistantID = id
		log.Info().Str("session_id", s.ID).Str("assistant_id", id).Msg("Assistant created for session")
	}

	if s.ThreadID == "" {
		id, err := d.client.CreateThread(ctx)
		if err != nil {
			log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to create thread")
			return newError(KindBootstrap, "create thread", err)
		}
		s.ThreadID = id
		log.Info().Str("session_id", s.ID).Str("thread_id", id).Msg("Thread created for session")
	}

	return nil
}

// SubmitTurn records text as a user message, runs the assistant and records
// the newest reply. On failure the history keeps only the appends made before
// the failing step.
func (d *Driver) SubmitTurn(ctx context.Context, s *Session, text string, observe Observer) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, newError(KindInvalidInput, "submit turn", ErrEmptyInput)
	}

	if err := d.EnsureSession(ctx, s); err != nil {
		observe.emit(Event{State: StateErrorReported, Err: err})
		return Message{}, err
	}

	fail := func(err *Error) (Message, error) {
		log.Warn().Err(err).Str("session_id", s.ID).Str("thread_id", s.ThreadID).Msg("Turn failed")
		observe.emit(Event{State: StateErrorReported, Status: err.Status, Err: err})
		return Message{}, err
	}

	userMsg := s.append(RoleUser, text)
	observe.emit(Event{State: StateUserMessageRecorded, Message: &userMsg})

	if err := d.client.CreateMessage(ctx, s.ThreadID, text); err != nil {
		return fail(newError(KindTurn, "create message", err))
	}

	run, err := d.client.CreateRun(ctx, s.ThreadID, s.AssistantID)
	if err != nil {
		return fail(newError(KindTurn, "create run", err))
	}
	observe.emit(Event{State: StateRunSubmitted, Status: run.Status})

	run, pollErr := d.waitForRun(ctx, s.ThreadID, run, observe)
	if pollErr != nil {
		return fail(pollErr)
	}

	if run.Status != assistant.RunStatusCompleted {
		cause := fmt.Errorf("run %s ended with status %s", run.ID, run.Status)
		if run.LastError != "" {
			cause = fmt.Errorf("%w: %s", cause, run.LastError)
		}
		return fail(&Error{Kind: KindRunFailed, Op: "wait for run", Status: run.Status, Err: cause})
	}
	observe.emit(Event{State: StateCompleted, Status: run.Status})

	messages, err := d.client.ListMessages(ctx, s.ThreadID)
	if err != nil {
		return fail(newError(KindTurn, "list messages", err))
	}
	if len(messages) == 0 || messages[0].Text == "" {
		return fail(newError(KindTurn, "list messages", ErrNoReply))
	}

	reply := s.append(RoleAssistant, messages[0].Text)
	observe.emit(Event{State: StateAssistantMessageRecorded, Status: run.Status, Message: &reply})

	log.Info().
		Str("session_id", s.ID).
		Str("thread_id", s.ThreadID).
		Str("run_id", run.ID).
		Int("history_length", len(s.Messages)).
		Msg("Turn completed")

	return reply, nil
}

// waitForRun polls until the run reaches a terminal status, backing off
// exponentially between polls and giving up at the configured deadline or
// attempt ceiling.
func (d *Driver) waitForRun(ctx context.Context, threadID string, run assistant.Run, observe Observer) (assistant.Run, *Error) {
	pollCtx := ctx
	if d.poll.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, d.poll.Timeout)
		defer cancel()
	}

	interval := d.poll.Interval
	for attempt := 1; !run.Status.Terminal(); attempt++ {
		if d.poll.MaxAttempts > 0 && attempt > d.poll.MaxAttempts {
			return run, &Error{Kind: KindTimeout, Op: "wait for run", Status: run.Status, Err: ErrPollExhausted}
		}

		if err := d.sleep(pollCtx, interval); err != nil {
			return run, pollContextError(ctx, run, err)
		}

		next, err := d.client.RetrieveRun(pollCtx, threadID, run.ID)
		if err != nil {
			if pollCtx.Err() != nil {
				return run, pollContextError(ctx, run, err)
			}
			return run, newError(KindTurn, "retrieve run", err)
		}
		run = next

		log.Debug().
			Str("thread_id", threadID).
			Str("run_id", run.ID).
			Str("status", string(run.Status)).
			Int("attempt", attempt).
			Dur("interval", interval).
			Msg("Polled run status")
		observe.emit(Event{State: StatePolling, Status: run.Status, Attempt: attempt})

		interval *= 2
		if d.poll.MaxInterval > 0 && interval > d.poll.MaxInterval {
			interval = d.poll.MaxInterval
		}
	}

	return run, nil
}

// pollContextError tells a caller cancellation apart from the poll deadline
func pollContextError(parent context.Context, run assistant.Run, err error) *Error {
	if parent.Err() != nil {
		return &Error{Kind: KindTurn, Op: "wait for run", Status: run.Status, Err: parent.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrPollExhausted
	}
	return &Error{Kind: KindTimeout, Op: "wait for run", Status: run.Status, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
