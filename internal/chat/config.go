package chat

import (
	"encoding/json"
	"log/slog"

	"blogchat/internal/llm"
	"blogchat/internal/ui"
)

// MetaName is the meta tag the page uses to hand the widget its settings.
const MetaName = "chat-config"

// Config holds the remote completion settings for a session.
// Any subset of fields may be supplied by the page; the rest keep defaults.
type Config struct {
	APIKey   string `json:"apiKey"`
	Model    string `json:"model"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfig returns the settings used when the page supplies none.
func DefaultConfig() Config {
	return Config{
		APIKey:   "",
		Model:    "deepseek-chat",
		Endpoint: "https://api.deepseek.com/v1/chat/completions",
	}
}

// Target converts the config into an llm.Endpoint.
func (c Config) Target() llm.Endpoint {
	return llm.Endpoint{URL: c.Endpoint, APIKey: c.APIKey, Model: c.Model}
}

// LoadConfig overlays the JSON object found in the page's chat-config meta
// tag onto base. Invalid JSON is logged and base is returned unchanged.
func LoadConfig(doc ui.Document, base Config, logger *slog.Logger) Config {
	raw, ok := doc.Meta(MetaName)
	if !ok {
		return base
	}

	overlay := base
	if err := json.Unmarshal([]byte(raw), &overlay); err != nil {
		logger.Error("failed to parse chat config", "meta", MetaName, "error", err)
		return base
	}
	return overlay
}
