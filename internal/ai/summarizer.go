package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

var ErrMissingAPIKey = errors.New("ai: api key is not set")

// SummaryInput 摘要所需的文章信息
type SummaryInput struct {
	Title   string
	Excerpt string
	HTML    string
	URL     string
}

type Summarizer struct {
	cfg   Config
	model llms.Model
	md    *converter.Converter
}

type SummarizerOption func(*Summarizer)

// WithChatModel 注入已构建的模型，主要用于测试
func WithChatModel(m llms.Model) SummarizerOption {
	return func(s *Summarizer) { s.model = m }
}

func NewSummarizer(cfg Config, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		cfg: cfg.withDefaults(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Summarizer) chatModel() (llms.Model, error) {
	if s.model != nil {
		return s.model, nil
	}
	if s.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return openai.New(
		openai.WithToken(s.cfg.APIKey),
		openai.WithBaseURL(s.cfg.BaseURL),
		openai.WithModel(s.cfg.ChatModel),
	)
}

// Summarize 返回 <div class="ai-summary">...</div>，任何失败都以 error 返回
func (s *Summarizer) Summarize(ctx context.Context, in SummaryInput) (string, error) {
	llm, err := s.chatModel()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, llm, s.prompt(in), llms.WithTemperature(s.cfg.Temperature))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	summary := cleanCompletion(out)
	if summary == "" {
		return "", errors.New("ai: empty summary")
	}
	return `<div class="ai-summary">` + summary + `</div>`, nil
}

func (s *Summarizer) prompt(in SummaryInput) string {
	content := truncate(in.HTML, s.cfg.InputLimit)
	if md, err := s.md.ConvertString(content); err == nil && strings.TrimSpace(md) != "" {
		content = md
	} else if err != nil {
		logger.Debug("markdown conversion failed, using html", zap.String("url", in.URL), zap.Error(err))
	}

	return fmt.Sprintf(`You summarize web articles for a reading app.
Read the article below and write a concise summary of 3 to 5 short points covering
the key ideas, the main message and why it matters.

Rules:
- Answer in the language of the article.
- Output HTML only: a <ul> of <li> items, optionally followed by one <p>.
- No Markdown, no code fences, no preamble.

Title: %s
Excerpt: %s
URL: %s

Content:
%s
`, in.Title, in.Excerpt, in.URL, content)
}

// cleanCompletion 去掉模型偶尔附带的代码块标记
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```html")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
