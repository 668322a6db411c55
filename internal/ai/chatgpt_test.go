package ai

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabqueue/internal/session"
	"github.com/example/vocabqueue/pkg/models"
)

type fakeCompleter struct {
	calls   atomic.Int32
	lastReq openai.ChatCompletionRequest
	reply   string
	err     error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func card(id string) *models.SessionCard {
	return &models.SessionCard{
		Item:     &models.Item{ID: id, Values: map[string]string{"word": "serendipity", "meaning": "happy chance"}},
		Relation: &models.Relation{QuestionCols: []string{"word"}, AnswerCols: []string{"meaning"}},
	}
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)
}

func TestGenerateExample(t *testing.T) {
	fake := &fakeCompleter{reply: "  Finding that café was pure serendipity. \n"}
	c := NewWithClient(fake, "")

	example, err := c.GenerateExample(context.Background(), card("w1"))
	require.NoError(t, err)
	assert.Equal(t, "Finding that café was pure serendipity.", example)
	assert.Equal(t, DefaultModel, fake.lastReq.Model)
	require.Len(t, fake.lastReq.Messages, 2)
	assert.Contains(t, fake.lastReq.Messages[1].Content, "serendipity")
	assert.Contains(t, fake.lastReq.Messages[1].Content, "happy chance")

	_, err = c.GenerateExample(context.Background(), nil)
	assert.Error(t, err)

	fake.err = errors.New("rate limited")
	_, err = c.GenerateExample(context.Background(), card("w1"))
	assert.Error(t, err)
}

func TestExamplesListenerCaches(t *testing.T) {
	fake := &fakeCompleter{reply: "An example."}
	examples := NewExamples(NewWithClient(fake, "gpt-test"), nil)

	examples.CurrentChanged(session.Change{Card: card("w1")})
	examples.Wait()
	examples.CurrentChanged(session.Change{Card: card("w1")})
	examples.CurrentChanged(session.Change{Card: nil})
	examples.Wait()

	got, ok := examples.Example("w1")
	assert.True(t, ok)
	assert.Equal(t, "An example.", got)
	assert.Equal(t, int32(1), fake.calls.Load())

	_, ok = examples.Example("w2")
	assert.False(t, ok)
}

func TestExamplesListenerSwallowsErrors(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("boom")}
	examples := NewExamples(NewWithClient(fake, ""), nil)

	assert.NotPanics(t, func() {
		examples.CurrentChanged(session.Change{Card: card("w1")})
		examples.Wait()
	})
	_, ok := examples.Example("w1")
	assert.False(t, ok)
}
