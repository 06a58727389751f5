// Package llm talks to an OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyResponse = errors.New("llm returned no choices")

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GeneratedQuestion is the shape the model is asked to return.
type GeneratedQuestion struct {
	Question    string   `json:"question"`
	Type        string   `json:"type"`
	Answers     []string `json:"answers"`
	Correct     *int     `json:"correct"`
	Points      float64  `json:"points"`
	Explanation string   `json:"explanation"`
}

type GenerateParams struct {
	Subject  string
	Grade    string
	Topic    string
	Count    int
	Type     string // multiple_choice, essay or mixed
	Language string
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

func New(cfg Config) *Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}
}

func (c *Client) complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	raw := resp.Choices[0].Message.Content
	slog.DebugContext(ctx, "LLM response", "model", c.model, "bytes", len(raw))
	return raw, nil
}

func (c *Client) GenerateQuestions(ctx context.Context, p GenerateParams) ([]GeneratedQuestion, error) {
	raw, err := c.complete(ctx, questionSystemPrompt(p), questionUserPrompt(p), 0.7)
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w", err)
	}
	return out.Questions, nil
}

func (c *Client) Summarize(ctx context.Context, title, text string) (string, error) {
	system := "You summarize teaching documents for Vietnamese K-12 teachers. " +
		"Reply in Vietnamese with a JSON object {\"summary\": \"...\"} of at most 200 words."
	raw, err := c.complete(ctx, system, "TITLE: "+title+"\n\n"+text, 0.3)
	if err != nil {
		return "", err
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("parse LLM response: %w", err)
	}
	return strings.TrimSpace(out.Summary), nil
}

func questionSystemPrompt(p GenerateParams) string {
	lang := p.Language
	if lang == "" {
		lang = "Vietnamese"
	}
	var sb strings.Builder
	sb.WriteString("You write exam questions for Vietnamese K-12 students. ")
	sb.WriteString("Write every question in " + lang + ".\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"questions": [{"question": "...", "type": "multiple_choice|essay", "answers": ["..."], "correct": <index of the correct answer or null>, "points": 1, "explanation": "..."}]}`)
	sb.WriteString("\nMultiple-choice questions have exactly 4 answers. Essay questions have no answers and a null correct.\n")
	return sb.String()
}

func questionUserPrompt(p GenerateParams) string {
	count := p.Count
	if count <= 0 {
		count = 5
	}
	qType := p.Type
	if qType == "" {
		qType = "multiple_choice"
	}
	return fmt.Sprintf("SUBJECT: %s\nGRADE: %s\nTOPIC: %s\nCOUNT: %d\nTYPE: %s\n",
		p.Subject, p.Grade, p.Topic, count, qType)
}
