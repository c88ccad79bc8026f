package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	config "github.com/velvetqueue/velvetqueue/configs"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
)

// AssistantService generates captions and hashtags through an
// OpenAI-compatible chat completions API (OpenRouter by default). Text in,
// text out; no internal logic beyond prompting.
type AssistantService interface {
	GenerateCaption(ctx context.Context, prompt, platform, tone string) (string, error)
	SuggestHashtags(ctx context.Context, content, platform string, count int) ([]string, error)
	Repurpose(ctx context.Context, caption, targetPlatform string) (string, error)
}

type assistantService struct {
	cfg    config.Config
	client *http.Client
}

func NewAssistantService(cfg config.Config) AssistantService {
	return &assistantService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeoutDuration()},
	}
}

func (s *assistantService) GenerateCaption(ctx context.Context, prompt, platform, tone string) (string, error) {
	if prompt == "" {
		return "", errors.New("prompt cannot be empty")
	}
	if platform == "" {
		platform = "instagram"
	}
	if tone == "" {
		tone = "professional"
	}

	system := fmt.Sprintf(`You are a social media content expert. Generate engaging %s captions.
Tone: %s. Write a complete caption based on the user's input, keep it concise
but engaging, add appropriate emojis, and for Instagram include relevant
hashtags at the end, visually separated.`, platform, tone)

	return s.chatCompletion(ctx, system, "Generate a caption for: "+prompt)
}

func (s *assistantService) SuggestHashtags(ctx context.Context, content, platform string, count int) ([]string, error) {
	if content == "" {
		return nil, errors.New("content cannot be empty")
	}
	if count <= 0 {
		count = 10
	}

	system := fmt.Sprintf(`You are a social media hashtag expert for %s. Reply with exactly %d
relevant hashtags, comma separated, each starting with #, nothing else.`, platform, count)

	raw, err := s.chatCompletion(ctx, system, content)
	if err != nil {
		return nil, err
	}

	var hashtags []string
	for _, tag := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		hashtags = append(hashtags, tag)
		if len(hashtags) == count {
			break
		}
	}
	return hashtags, nil
}

func (s *assistantService) Repurpose(ctx context.Context, caption, targetPlatform string) (string, error) {
	if caption == "" {
		return "", errors.New("caption cannot be empty")
	}

	system := fmt.Sprintf(`You are a social media content expert. Rewrite the given caption for %s,
keeping the message but adapting length, tone and hashtag conventions to that
platform. Reply with the rewritten caption only.`, targetPlatform)

	return s.chatCompletion(ctx, system, caption)
}

func (s *assistantService) chatCompletion(ctx context.Context, system, user string) (string, error) {
	if s.cfg.OpenRouterAPIKey == "" {
		return "", errors.New("OPENROUTER_API_KEY is not set")
	}

	reqBody := transfer.ChatCompletionRequest{
		Model: s.cfg.OpenRouterModel,
		Messages: []transfer.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(s.cfg.OpenRouterBaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.OpenRouterAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant upstream error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var result transfer.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing assistant response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("assistant upstream error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("assistant returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
