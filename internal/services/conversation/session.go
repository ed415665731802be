package conversation

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the displayed history
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the state kept for one browser session. Messages is append-only
// between resets and is in display order.
type Session struct {
	ID          string    `json:"id"`
	AssistantID string    `json:"assistant_id,omitempty"`
	ThreadID    string    `json:"thread_id,omitempty"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Bootstrapped reports whether both remote identities are known
func (s *Session) Bootstrapped() bool {
	return s.AssistantID != "" && s.ThreadID != ""
}

// Reset forgets the remote identities and the history
func (s *Session) Reset() {
	s.AssistantID = ""
	s.ThreadID = ""
	s.Messages = []Message{}
	s.UpdatedAt = time.Now().UTC()
}

func (s *Session) append(role Role, content string) Message {
	msg := Message{Role: role, Content: content}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
	return msg
}
