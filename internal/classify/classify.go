// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify asks an OpenAI-compatible chat model whether captured
// page text is a press article, and drops the pages it says are not.
package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// Defaults for the Hugging Face inference router.
const (
	DefaultBaseURL = "https://router.huggingface.co/v1"
	DefaultModel   = "openai/gpt-oss-safeguard-20b:groq"
)

const (
	systemPrompt = "You are a helpful assistant."
	userPrompt   = "Determine if the following text is an article or not:\n\n%s\n\nAnswer with 'Yes' for article and 'No' for non-article."
	maxTokens    = 10
)

// ErrEmptyResponse is returned when the model returns no choices.
var ErrEmptyResponse = errors.New("empty model response")

// Stats counts classification outcomes.
type Stats struct {
	Articles int `json:"articles" yaml:"articles"`
	Rejected int `json:"rejected" yaml:"rejected"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Failed   int `json:"failed" yaml:"failed"`
}

// Classifier wraps a chat completion client.
type Classifier struct {
	client *openai.Client
	model  string
}

// New builds a Classifier from cfg. An empty BaseURL or Model uses the
// defaults; a missing API key is a configuration error.
func New(cfg types.ClassifyConfig) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: classifier API key is required", types.ErrConfig)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = baseURL
	return &Classifier{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// IsArticle reports whether the model answers "yes" for text.
func (c *Classifier) IsArticle(ctx context.Context, text string) (bool, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPrompt, text)},
		},
		MaxTokens: maxTokens,
		// Zero is omitted from the request body, so the smallest
		// non-zero value stands in for greedy decoding.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return false, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, ErrEmptyResponse
	}
	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	answer = strings.TrimRight(answer, ".!")
	return answer == "yes", nil
}

// Filter returns the articles the model accepts, in order. Articles without
// text are kept unclassified, as are articles whose classification fails;
// failures are logged.
func (c *Classifier) Filter(ctx context.Context, articles []types.Article) ([]types.Article, Stats) {
	log := zerolog.Ctx(ctx)
	out := make([]types.Article, 0, len(articles))
	var stats Stats

	for _, a := range articles {
		if strings.TrimSpace(a.Text) == "" || ctx.Err() != nil {
			stats.Skipped++
			out = append(out, a)
			continue
		}
		ok, err := c.IsArticle(ctx, a.Text)
		if err != nil {
			stats.Failed++
			log.Warn().Err(err).Str("link", a.Record.Link).Msg("Classification failed, keeping record")
			out = append(out, a)
			continue
		}
		if !ok {
			stats.Rejected++
			log.Debug().Str("link", a.Record.Link).Str("title", a.Record.Title).Msg("Not an article")
			continue
		}
		stats.Articles++
		out = append(out, a)
	}

	log.Info().
		Int("articles", stats.Articles).
		Int("rejected", stats.Rejected).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("Classification complete")
	return out, stats
}
