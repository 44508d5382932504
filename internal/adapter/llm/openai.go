package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	cfotel "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/otel"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
)

// OpenAI completes tasks through any OpenAI-compatible chat completions
// endpoint, Gemini's included.
type OpenAI struct {
	cfg    config.Model
	system string
	client openai.Client
}

// NewOpenAI creates an OpenAI-compatible completer.
func NewOpenAI(cfg config.Model) *OpenAI {
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
	return &OpenAI{cfg: cfg, system: SystemPrompt(), client: openai.NewClient(opts...)}
}

// Complete returns the model's raw reply to task.
func (o *OpenAI) Complete(ctx context.Context, task string) (string, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.cfg.Name),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.system),
			openai.UserMessage(task),
		},
	}
	if o.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.cfg.MaxTokens))
	}
	if o.cfg.Temperature > 0 {
		params.Temperature = openai.Float(o.cfg.Temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInference, o.cfg.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: no choices returned", domain.ErrInference, o.cfg.Name)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
