package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default values for the OpenAI provider.
const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "gpt-4-turbo"
	defaultOpenAIRetryDelay = 2 * time.Second

	defaultZhipuBaseURL = "https://open.bigmodel.cn/api/paas/v4"
	defaultZhipuModel   = "glm-4"
)

// chatRequest represents the OpenAI Chat Completions API request body.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatResponse represents the OpenAI Chat Completions API response body.
type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// chatChoice represents a single completion choice.
type chatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// chatUsage contains token usage information.
type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIConfig holds the parameters needed to create an OpenAI provider.
// This is defined in the llm package to avoid importing the config package.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the model identifier (e.g., "gpt-4-turbo").
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
// Any API speaking the same protocol (Zhipu GLM among them) is served by
// the same type under a different name.
type OpenAIProvider struct {
	httpClient  *http.Client
	name        string
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	maxRetries  int
	retryDelay  time.Duration
}

// NewOpenAIProvider creates a new OpenAI chat completions provider.
func NewOpenAIProvider(cfg OpenAIConfig, opts Options) *OpenAIProvider {
	return newChatCompletionsProvider("openai", cfg, defaultOpenAIBaseURL, defaultOpenAIModel, opts)
}

// NewZhipuProvider creates a provider for the Zhipu GLM API, which follows
// the OpenAI chat completions protocol.
func NewZhipuProvider(cfg OpenAIConfig, opts Options) *OpenAIProvider {
	return newChatCompletionsProvider("zhipu", cfg, defaultZhipuBaseURL, defaultZhipuModel, opts)
}

func newChatCompletionsProvider(name string, cfg OpenAIConfig, baseURL, model string, opts Options) *OpenAIProvider {
	opts = opts.withDefaults()
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &OpenAIProvider{
		httpClient:  newHTTPClient(opts.Timeout),
		name:        name,
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		maxRetries:  opts.MaxRetries,
		retryDelay:  defaultOpenAIRetryDelay,
	}
}

// Complete sends the request to the Chat Completions endpoint. Transient
// errors (network, 5xx and 429) are retried up to maxRetries times with a
// linearly growing delay.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	chatReq := chatRequest{
		Model:       p.model,
		Messages:    make([]Message, 0, len(req.Messages)+1),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	if req.System != "" {
		chatReq.Messages = append(chatReq.Messages, Message{Role: RoleSystem, Content: req.System})
	}
	chatReq.Messages = append(chatReq.Messages, req.Messages...)
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	return retryTransient(ctx, p.name, p.maxRetries,
		func(attempt int) time.Duration { return p.retryDelay * time.Duration(attempt) },
		func() (*CompletionResult, error) { return p.doRequest(ctx, chatReq) },
	)
}

// Name returns the name of the LLM provider.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the model identifier being used.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// doRequest performs a single API request to the Chat Completions endpoint.
func (p *OpenAIProvider) doRequest(ctx context.Context, chatReq chatRequest) (*CompletionResult, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", p.name, err)
	}

	endpoint := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", p.name, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, networkError(p.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, networkError(p.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(p.name, resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal response: %w", p.name, err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%s: empty choices in response", p.name)
	}

	model := chatResp.Model
	if model == "" {
		model = p.model
	}
	choice := chatResp.Choices[0]
	return &CompletionResult{
		Content:      choice.Message.Content,
		Model:        model,
		FinishReason: choice.FinishReason,
		InputTokens:  chatResp.Usage.PromptTokens,
		OutputTokens: chatResp.Usage.CompletionTokens,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
