package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic is the cloud-provider backend.
type Anthropic struct {
	api        *anthropic.Client
	model      anthropic.Model
	maxRetries int
}

// NewAnthropic creates a cloud backend client. Requires ANTHROPIC_API_KEY.
func NewAnthropic(model string, timeout time.Duration) (*Anthropic, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := anthropic.NewClient(
		option.WithAPIKey(key),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		// The SDK retries internally; the pipeline owns retry policy.
		option.WithMaxRetries(0),
	)
	return &Anthropic{
		api:        &client,
		model:      anthropic.Model(model),
		maxRetries: DefaultMaxRetries,
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

// Submit sends the prompt and blocks until the full response is available.
func (a *Anthropic) Submit(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	var resp Response
	err := retryWithBackoff(ctx, a.maxRetries, func() error {
		msg, err := a.api.Messages.New(ctx, params)
		if err != nil {
			return a.classify(err)
		}

		var text string
		for _, block := range msg.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		if text == "" {
			return &RejectedError{Backend: a.Name(), Reason: "no text content in API response"}
		}

		resp = Response{
			Content:    text,
			TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		}
		return nil
	})

	return resp, err
}

func (a *Anthropic) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
		return &TimeoutError{Backend: a.Name(), Err: err}
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
			return &UnavailableError{Backend: a.Name(), Err: err}
		default:
			return &RejectedError{Backend: a.Name(), Reason: err.Error()}
		}
	}
	return &UnavailableError{Backend: a.Name(), Err: err}
}
