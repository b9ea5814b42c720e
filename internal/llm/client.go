package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultTemperature is sent with every completion request.
	DefaultTemperature float32 = 0.7
	// DefaultMaxTokens caps the length of each reply.
	DefaultMaxTokens = 1000
)

var (
	// ErrNoChoices is returned when a successful response carries no choices.
	ErrNoChoices = errors.New("no choices returned")
	// ErrMalformedResponse is returned when the first choice has no message
	// or no content.
	ErrMalformedResponse = errors.New("malformed response")
)

// Client is a client for OpenAI-compatible chat completions APIs.
type Client struct {
	Temperature float32
	MaxTokens   int
	client      *http.Client
}

// NewClient creates a new LLM client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		client:      httpClient,
	}
}

// Chat sends the full conversation to ep and returns the content of the
// first choice. It makes exactly one request; there is no retry.
func (c *Client) Chat(ctx context.Context, ep Endpoint, messages []Message) (string, error) {
	payload := ChatRequest{
		Model:       ep.Model,
		Messages:    messages,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", ep.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseAPIError(resp)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrNoChoices
	}

	msg := chatResp.Choices[0].Message
	if msg == nil {
		return "", fmt.Errorf("%w: first choice has no message", ErrMalformedResponse)
	}
	if msg.Content == nil {
		return "", fmt.Errorf("%w: first choice has no content", ErrMalformedResponse)
	}
	return *msg.Content, nil
}

// parseAPIError prefers the server's error.message and otherwise leaves
// Message empty so APIError falls back to the status code.
func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		apiErr.Message = eb.Error.Message
	}
	return apiErr
}
