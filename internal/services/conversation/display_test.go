package conversation

import (
	"errors"
	"testing"

	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/services/assistant"
	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), "An error occurred: boom"},
		{"configuration", &Error{Kind: KindConfiguration, Err: config.ErrMissingAPIKey}, "The OpenAI API key is not set. Check your .env file."},
		{"client init", newError(KindClientInit, "create client", errors.New("bad url")), "OpenAI client initialization error: bad url"},
		{"bootstrap", newError(KindBootstrap, "create assistant", errors.New("401")), "Assistant creation error: 401"},
		{"run failed", &Error{Kind: KindRunFailed, Status: assistant.RunStatusFailed, Err: errors.New("x")}, "Run error: failed"},
		{"run expired", &Error{Kind: KindRunFailed, Status: assistant.RunStatusExpired, Err: errors.New("x")}, "Run error: expired"},
		{"timeout", &Error{Kind: KindTimeout, Status: assistant.RunStatusInProgress, Err: ErrPollExhausted}, "Run error: no answer in time (last status in_progress)"},
		{"invalid input", newError(KindInvalidInput, "submit turn", ErrEmptyInput), "Please enter a question."},
		{"busy", newError(KindBusy, "submit turn", ErrTurnInProgress), "Still answering your previous question. Please wait."},
		{"turn", newError(KindTurn, "create run", errors.New("503")), "An error occurred: 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Display(tt.err))
		})
	}
}
