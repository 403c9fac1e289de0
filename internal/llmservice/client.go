// Package llmservice is the language-model collaborator: plain text
// completion and image description over langchaingo providers.
package llmservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"topic-rag/internal/config"
	"topic-rag/internal/models"
)

type Client struct {
	llm llms.Model
}

func New(cfg *config.LLMConfig) (*Client, error) {
	switch cfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ollama: %v", models.ErrBackendUnavailable, err)
		}
		return &Client{llm: llm}, nil
	case "openai", "":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: openai: %v", models.ErrBackendUnavailable, err)
		}
		return &Client{llm: llm}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// Complete sends a single-turn prompt and returns the raw response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	res, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", models.ErrBackendUnavailable)
	}
	return res.Choices[0].Content, nil
}

// DescribeImage asks the vision model for a detailed natural-language
// description of the image at path. The image travels as a base64 data URL.
func (c *Client) DescribeImage(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(imagePath)), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	dataURL := fmt.Sprintf("data:image/%s;base64,%s", ext, base64.StdEncoding.EncodeToString(data))

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: models.DescribeImageSystemPrompt}},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextContent{Text: models.DescribeImageUserPrompt},
				llms.ImageURLContent{URL: dataURL},
			},
		},
	}
	res, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: empty description", models.ErrBackendUnavailable)
	}
	return res.Choices[0].Content, nil
}
