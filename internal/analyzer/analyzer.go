// Package analyzer asks a vision model whether a photo shows a software
// problem. The verdict contract is a bare lowercase "yes" or "no".
package analyzer

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// verdictPrompt instructs the model to answer with a single word. The
// pipeline treats anything else as an unknown verdict downstream.
const verdictPrompt = `Analyze this image and check for anything that's wrong.
If there's something wrong, analyze if the thing that's broken is a software related issue or something else.
If it's a software related issue, return "yes", otherwise return "no".
Only return "yes" or "no", no other text`

// maxAnswerTokens caps the completion; the answer is one word.
const maxAnswerTokens = 8

// Analyzer produces the raw lowercase answer for a photo.
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte, mimeType string) (string, error)
}

// OpenAIConfig points the analyzer at any OpenAI-compatible vision API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIAnalyzer sends the photo as a data URL in a single
// multi-content chat completion.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIAnalyzer(cfg OpenAIConfig, logger *zap.Logger) *OpenAIAnalyzer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.Named("analyzer"),
	}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	imageURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(imageData)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: maxAnswerTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: verdictPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision API returned no choices")
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	a.logger.Info("vision analysis finished",
		zap.String("model", a.model),
		zap.String("answer", answer))
	return answer, nil
}
