package devserver

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// replyAfterBytes is how much client audio must arrive before the
// responder speaks up.
const replyAfterBytes = 64 * 1024

// Responder generates assistant replies for the echo agent. Without an
// OpenAI key it stays disabled and the agent only echoes audio.
type Responder struct {
	client *openai.Client
}

func NewResponder(apiKey string) *Responder {
	if apiKey == "" {
		return &Responder{}
	}
	return &Responder{client: openai.NewClient(apiKey)}
}

func (r *Responder) Enabled() bool {
	return r.client != nil
}

// Reply produces one assistant message for a conversation with the given
// system prompt.
func (r *Responder) Reply(ctx context.Context, prompt string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("responder is not configured")
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "The user just spoke to you. Greet them briefly.",
			},
		},
		MaxTokens: 120,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}
