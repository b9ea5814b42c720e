package chat_test

import (
	"log/slog"
	"testing"

	"blogchat/internal/chat"
	"blogchat/internal/ui"
)

func TestLoadConfig(t *testing.T) {
	defaults := chat.DefaultConfig()

	tests := []struct {
		name string
		meta *string
		want chat.Config
	}{
		{
			name: "no meta tag keeps defaults",
			want: defaults,
		},
		{
			name: "full override",
			meta: strPtr(`{"apiKey":"sk-1","model":"m-1","endpoint":"https://example.test/v1/chat/completions"}`),
			want: chat.Config{APIKey: "sk-1", Model: "m-1", Endpoint: "https://example.test/v1/chat/completions"},
		},
		{
			name: "subset overrides only given keys",
			meta: strPtr(`{"apiKey":"sk-2"}`),
			want: chat.Config{APIKey: "sk-2", Model: defaults.Model, Endpoint: defaults.Endpoint},
		},
		{
			name: "unknown keys ignored",
			meta: strPtr(`{"model":"m-3","theme":"dark"}`),
			want: chat.Config{APIKey: defaults.APIKey, Model: "m-3", Endpoint: defaults.Endpoint},
		},
		{
			name: "malformed json keeps defaults",
			meta: strPtr(`{"apiKey":"sk-4",`),
			want: defaults,
		},
		{
			name: "wrong value type keeps defaults",
			meta: strPtr(`{"model":"m-5","apiKey":42}`),
			want: defaults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ui.NewPage()
			if tt.meta != nil {
				p.SetMeta(chat.MetaName, *tt.meta)
			}

			got := chat.LoadConfig(p, defaults, slog.Default())
			if got != tt.want {
				t.Errorf("LoadConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfig_Target(t *testing.T) {
	cfg := chat.Config{APIKey: "k", Model: "m", Endpoint: "https://e"}
	ep := cfg.Target()
	if ep.URL != "https://e" || ep.APIKey != "k" || ep.Model != "m" {
		t.Errorf("Target() = %+v", ep)
	}
}

func strPtr(s string) *string { return &s }
