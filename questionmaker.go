package examforge

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionRequest is one call to the generation service
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float32
}

// CompletionResponse is the service's text output and token usage
type CompletionResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// TotalTokens returns input plus output tokens
func (r *CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Completer is the generation service the orchestrator talks to
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// QuestionMaker calls an OpenAI-compatible chat completion endpoint
type QuestionMaker struct {
	client  *openai.Client
	apiKey  string
	timeout time.Duration
}

// NewQuestionMaker creates a question maker from the configured credentials.
// A missing API key is reported by Complete, before any request is made.
func NewQuestionMaker(cfg Config) *QuestionMaker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}

	return &QuestionMaker{
		client:  openai.NewClientWithConfig(clientCfg),
		apiKey:  cfg.APIKey,
		timeout: cfg.RequestTimeout,
	}
}

// Complete sends the system and user instructions and returns the raw response text
func (qm *QuestionMaker) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if qm.apiKey == "" {
		return nil, newGenerationError(ErrConfigurationMissing, nil,
			"no API key configured; set OPENAI_API_KEY")
	}

	if qm.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, qm.timeout)
		defer cancel()
	}

	VerboseLog("Requesting completion from %s (max_tokens=%d, temperature=%.2f)", req.Model, req.MaxTokens, req.Temperature)

	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: req.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: req.System,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: req.User,
				},
			},
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		},
	)
	if err != nil {
		return nil, newGenerationError(ErrTransport, err, "failed to call generation service")
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	VerboseLog("Received completion with %d choices, %d tokens", len(resp.Choices), resp.Usage.TotalTokens)

	return &CompletionResponse{
		Text:         text,
		Model:        model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// transportError wraps a completer failure as a transport error unless it already carries a kind
func transportError(err error) error {
	var gerr *GenerationError
	if errors.As(err, &gerr) {
		return gerr
	}
	return newGenerationError(ErrTransport, err, "failed to call generation service")
}
