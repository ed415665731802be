package websocket

// UserMessage is sent by the browser to start a turn
type UserMessage struct {
	Content   string `json:"content"`
	MessageID string `json:"message_id,omitempty"`
}

// AssistantResponse is sent for every progress update and for the outcome of a turn
type AssistantResponse struct {
	RequestID string `json:"request_id"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content"`
	Status    string `json:"status"` // "streaming", "complete", or "error"
	RunStatus string `json:"run_status,omitempty"`
}

const (
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
	StatusError     = "error"
)
