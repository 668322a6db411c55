package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/example/vocabqueue/pkg/models"
)

const DefaultModel = "gpt-4o-mini"

// Completer is the part of the OpenAI client used here
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the OpenAI client
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ChatGPT writes example sentences for vocabulary cards
type ChatGPT struct {
	client      Completer
	model       string
	maxTokens   int
	temperature float32
}

// New creates a new ChatGPT client
func New(cfg Config) (*ChatGPT, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return NewWithClient(openai.NewClientWithConfig(clientConfig), cfg.Model), nil
}

// NewWithClient wraps an existing completion client
func NewWithClient(client Completer, model string) *ChatGPT {
	if model == "" {
		model = DefaultModel
	}
	return &ChatGPT{
		client:      client,
		model:       model,
		maxTokens:   100,
		temperature: 0.7,
	}
}

// GenerateExample generates a short example sentence using the card's question
func (c *ChatGPT) GenerateExample(ctx context.Context, card *models.SessionCard) (string, error) {
	if card == nil || card.Item == nil || card.Relation == nil {
		return "", errors.New("card has no content")
	}
	question, answer := card.Question(), card.Answer()
	if question == "" {
		return "", errors.New("card question is empty")
	}

	prompt := fmt.Sprintf("Write one short, natural example sentence that uses %q.", question)
	if answer != "" {
		prompt += fmt.Sprintf(" It means %q.", answer)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You help people learn vocabulary by writing clear, practical example sentences. Reply with the sentence only."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to request example")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
