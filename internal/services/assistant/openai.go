package assistant

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const listMessagesLimit = 20

// OpenAIClient implements Client on top of the OpenAI Assistants API
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(client *openai.Client) *OpenAIClient {
	return &OpenAIClient{client: client}
}

func (c *OpenAIClient) CreateAssistant(ctx context.Context, persona Persona) (string, error) {
	name := persona.Name
	instructions := persona.Instructions

	resp, err := c.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        persona.Model,
		Name:         &name,
		Instructions: &instructions,
	})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}

	log.Debug().Str("assistant_id", resp.ID).Str("model", persona.Model).Msg("Assistant created")
	return resp.ID, nil
}

func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	resp, err := c.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	log.Debug().Str("thread_id", resp.ID).Msg("Thread created")
	return resp.ID, nil
}

func (c *OpenAIClient) CreateMessage(ctx context.Context, threadID, content string) error {
	msg, err := c.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	log.Debug().Str("thread_id", threadID).Str("message_id", msg.ID).Msg("Message added to thread")
	return nil
}

func (c *OpenAIClient) CreateRun(ctx context.Context, threadID, assistantID string) (Run, error) {
	resp, err := c.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: assistantID,
	})
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}

	log.Debug().Str("thread_id", threadID).Str("run_id", resp.ID).Str("status", string(resp.Status)).Msg("Run created")
	return toRun(resp), nil
}

func (c *OpenAIClient) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	resp, err := c.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return Run{}, fmt.Errorf("retrieve run: %w", err)
	}

	return toRun(resp), nil
}

func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	limit := listMessagesLimit
	order := "desc"

	resp, err := c.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, Message{
			ID:   m.ID,
			Role: m.Role,
			Text: firstText(m.Content),
		})
	}
	return messages, nil
}

func toRun(r openai.Run) Run {
	run := Run{
		ID:     r.ID,
		Status: RunStatus(r.Status),
	}
	if r.LastError != nil {
		run.LastError = r.LastError.Message
	}
	return run
}

func firstText(content []openai.MessageContent) string {
	for _, c := range content {
		if c.Text != nil {
			return c.Text.Value
		}
	}
	return ""
}
