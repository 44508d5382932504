package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
)

// Anthropic completes tasks through the Anthropic Messages API.
type Anthropic struct {
	cfg    config.Model
	system string
	client anthropic.Client
}

// NewAnthropic creates an Anthropic completer.
func NewAnthropic(cfg config.Model) *Anthropic {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Transport: cfotel.Transport(nil)}),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Anthropic{cfg: cfg, system: SystemPrompt(), client: anthropic.NewClient(opts...)}
}

// Complete returns the concatenated text blocks of the model's reply.
func (a *Anthropic) Complete(ctx context.Context, task string) (string, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	maxTokens := int64(a.cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Name),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: a.system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(task)),
		},
	}
	if a.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(a.cfg.Temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInference, a.cfg.Name, err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: %s: no text in reply", domain.ErrInference, a.cfg.Name)
	}
	return strings.TrimSpace(b.String()), nil
}
