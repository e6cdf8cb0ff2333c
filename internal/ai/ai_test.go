package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, part := range msgs[0].Parts {
		if text, ok := part.(llms.TextContent); ok {
			m.prompt = text.Text
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, opts...)
}

func TestSummarizeWrapsOutput(t *testing.T) {
	model := &fakeModel{reply: "```html\n<ul><li>point</li></ul>\n```"}
	s := NewSummarizer(Config{}, WithChatModel(model))

	out, err := s.Summarize(context.Background(), SummaryInput{
		Title: "Go Generics",
		HTML:  "<h1>Intro</h1><p>Type <b>parameters</b> arrived.</p>",
		URL:   "https://go.dev/blog/intro-generics",
	})
	require.NoError(t, err)
	assert.Equal(t, `<div class="ai-summary"><ul><li>point</li></ul></div>`, out)

	// 正文以 Markdown 形式进入 prompt
	assert.Contains(t, model.prompt, "# Intro")
	assert.Contains(t, model.prompt, "**parameters**")
	assert.Contains(t, model.prompt, "Title: Go Generics")
}

func TestSummarizeTruncatesInput(t *testing.T) {
	model := &fakeModel{reply: "<p>ok</p>"}
	s := NewSummarizer(Config{InputLimit: 20}, WithChatModel(model))

	_, err := s.Summarize(context.Background(), SummaryInput{HTML: "<p>" + strings.Repeat("x", 100) + "</p>"})
	require.NoError(t, err)
	assert.NotContains(t, model.prompt, strings.Repeat("x", 20))
	assert.Contains(t, model.prompt, strings.Repeat("x", 17))
}

func TestSummarizeErrors(t *testing.T) {
	_, err := NewSummarizer(Config{}).Summarize(context.Background(), SummaryInput{HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	s := NewSummarizer(Config{}, WithChatModel(&fakeModel{err: errors.New("rate limited")}))
	_, err = s.Summarize(context.Background(), SummaryInput{HTML: "<p>x</p>"})
	assert.ErrorContains(t, err, "rate limited")

	s = NewSummarizer(Config{}, WithChatModel(&fakeModel{reply: "  "}))
	_, err = s.Summarize(context.Background(), SummaryInput{HTML: "<p>x</p>"})
	assert.Error(t, err)
}

type fakeEmbeddings struct {
	vectors [][]float32
	err     error
	inputs  []string
}

func (f *fakeEmbeddings) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	f.inputs = append(f.inputs, texts...)
	return f.vectors, f.err
}

func TestEmbed(t *testing.T) {
	client := &fakeEmbeddings{vectors: [][]float32{{0.1, 0.2}}}
	e := NewEmbedder(Config{InputLimit: 5}, WithEmbeddingClient(client))

	assert.Equal(t, []float32{0.1, 0.2}, e.Embed(context.Background(), "abcdefgh"))
	assert.Equal(t, []string{"abcde"}, client.inputs)
}

func TestEmbedReturnsNilOnFailure(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, NewEmbedder(Config{}).Embed(ctx, "no key"))
	assert.Nil(t, NewEmbedder(Config{}, WithEmbeddingClient(&fakeEmbeddings{err: errors.New("boom")})).Embed(ctx, "text"))
	assert.Nil(t, NewEmbedder(Config{}, WithEmbeddingClient(&fakeEmbeddings{})).Embed(ctx, "text"))
	assert.Nil(t, NewEmbedder(Config{}, WithEmbeddingClient(&fakeEmbeddings{vectors: [][]float32{{1}}})).Embed(ctx, "   "))
}

func TestConfigDefaults(t *testing.T) {
	c := Config{EmbeddingModel: "openai:text-embedding-3-large"}.withDefaults()
	assert.Equal(t, "text-embedding-3-large", c.EmbeddingModel)
	assert.Equal(t, DefaultChatModel, c.ChatModel)
	assert.Equal(t, DefaultInputLimit, c.InputLimit)
}
