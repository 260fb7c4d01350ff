// Package vision envia imagens de ofertas para um modelo com visão e devolve a resposta crua.
package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"ofertas/internal/model"
)

var (
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY não configurada")
	ErrEmptyResponse = errors.New("modelo não devolveu nenhuma escolha")
)

const DefaultModel = openai.GPT4oMini

// Models são as opções exibidas na página de upload.
var Models = []string{openai.GPT4oMini, openai.GPT4o, "gpt-5"}

// Extractor devolve o texto cru do modelo para uma imagem.
type Extractor interface {
	Extract(ctx context.Context, img model.Image, modelName string) (string, error)
}

type Client struct {
	api     *openai.Client
	logger  *zap.Logger
	backoff time.Duration
}

type Options struct {
	APIKey  string
	BaseURL string
	// Backoff é a espera antes da única nova tentativa.
	Backoff time.Duration
}

func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		logger:  logger,
		backoff: opts.Backoff,
	}, nil
}

func (c *Client) Extract(ctx context.Context, img model.Image, modelName string) (string, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	req := buildRequest(img, modelName)

	content, err := c.call(ctx, req)
	if err == nil {
		return content, nil
	}
	c.logger.Warn("falha na chamada ao modelo, tentando novamente",
		zap.String("file", img.Filename), zap.String("model", modelName), zap.Error(err))

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.backoff):
	}

	content, err = c.call(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision extract %s: %w", img.Filename, err)
	}
	return content, nil
}

func (c *Client) call(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("resposta do modelo",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}

func buildRequest(img model.Image, modelName string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: Instructions(),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    DataURL(img),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	}
}
