package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama is the local-model backend. It speaks the OpenAI-compatible chat
// endpoint, which both Ollama and LM Studio expose.
type Ollama struct {
	apiKey     string
	model      string
	url        string
	maxRetries int
	client     *http.Client
}

// NewOllama creates a local backend client. The host comes from
// TIDYPATCH_OLLAMA_HOST (falling back to OLLAMA_HOST, then localhost). No
// API key is required; TIDYPATCH_OLLAMA_API_KEY is honored for servers that
// want one.
func NewOllama(model string, timeout time.Duration) (*Ollama, error) {
	baseURL := os.Getenv("TIDYPATCH_OLLAMA_HOST")
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Ollama{
		apiKey:     os.Getenv("TIDYPATCH_OLLAMA_API_KEY"),
		model:      model,
		url:        baseURL + "/v1/chat/completions",
		maxRetries: DefaultMaxRetries,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Submit sends the prompt and blocks until the full response is available.
func (o *Ollama) Submit(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp Response
	err = retryWithBackoff(ctx, o.maxRetries, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if o.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
		}

		httpResp, err := o.client.Do(httpReq)
		if err != nil {
			return o.classifyTransportError(err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &UnavailableError{Backend: o.Name(), Err: err}
		}

		switch {
		case httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500:
			return &UnavailableError{Backend: o.Name(), Err: fmt.Errorf("status %d: %s", httpResp.StatusCode, trim(respBody))}
		case httpResp.StatusCode != http.StatusOK:
			return &RejectedError{Backend: o.Name(), Reason: fmt.Sprintf("status %d: %s", httpResp.StatusCode, trim(respBody))}
		}

		var result chatResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return &UnavailableError{Backend: o.Name(), Err: fmt.Errorf("parsing response: %w", err)}
		}
		if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
			return &RejectedError{Backend: o.Name(), Reason: "empty completion"}
		}

		resp = Response{
			Content:    result.Choices[0].Message.Content,
			TokensUsed: result.Usage.TotalTokens,
		}
		return nil
	})

	return resp, err
}

func (o *Ollama) classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
		return &TimeoutError{Backend: o.Name(), Err: err}
	}
	return &UnavailableError{Backend: o.Name(), Err: err}
}

func isClientTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func trim(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300] + "…"
	}
	return s
}
