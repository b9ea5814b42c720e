package llm

import "fmt"

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Endpoint identifies where and as whom a completion request is sent.
type Endpoint struct {
	// URL is the full chat completions URL, not a base URL.
	URL    string
	APIKey string
	Model  string
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// ChatChoiceMessage represents the message in a chat choice.
// Content is nil when the server sent null or omitted it.
type ChatChoiceMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int               `json:"index"`
	Message      *ChatChoiceMessage `json:"message"`
	FinishReason string             `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// errorBody is the error envelope returned by OpenAI-compatible APIs.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	// Message is the server-supplied error message, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API Error: %d", e.StatusCode)
}
