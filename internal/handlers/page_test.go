package handlers

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"blogchat/internal/blog"
	"blogchat/internal/chat"
)

type fakePosts map[string]blog.Post

func (f fakePosts) Get(slug string) (blog.Post, bool) {
	p, ok := f[slug]
	return p, ok
}

func (f fakePosts) List() []blog.Post {
	out := make([]blog.Post, 0, len(f))
	for _, p := range f {
		out = append(out, p)
	}
	return out
}

func TestPageHandler(t *testing.T) {
	posts := fakePosts{
		"hello": {Slug: "hello", Title: "Hello <World>", HTML: template.HTML("<p>Body text</p>")},
	}
	h := NewPageHandler(posts)

	r := chi.NewRouter()
	r.Get("/", h.Index)
	r.Get("/posts/{slug}", h.Post)

	widgetMarkup := []string{
		`id="chat-container"`, `class="chat-button"`, `class="chat-close"`,
		`class="chat-messages"`, `class="chat-input"`, `class="chat-send"`,
		`class="loading-indicator"`, `id="go-up"`, `id="reading-progress-bottom"`,
		`src="/static/widget.js"`,
	}

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		contains    []string
		notContains []string
	}{
		{
			name:        "index lists posts without article marker",
			path:        "/",
			wantStatus:  http.StatusOK,
			contains:    append([]string{`href="/posts/hello"`, "Hello &lt;World&gt;"}, widgetMarkup...),
			notContains: []string{`class="post"`},
		},
		{
			name:       "post page carries article marker",
			path:       "/posts/hello",
			wantStatus: http.StatusOK,
			contains:   append([]string{`<article class="post">`, "<p>Body text</p>"}, widgetMarkup...),
		},
		{
			name:       "unknown post",
			path:       "/posts/missing",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := w.Body.String()
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("body missing %q", s)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(body, s) {
					t.Errorf("body unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestPageTemplate_GoUpChildren(t *testing.T) {
	// The scroll widget addresses the go-up icon and label by position.
	start := strings.Index(pageTemplate, `<div id="go-up"`)
	end := strings.Index(pageTemplate[start:], "</div>\n  </div>")
	block := pageTemplate[start : start+end]
	icon := strings.Index(block, "<i ")
	label := strings.Index(block, `class="go-up-label"`)
	if icon < 0 || label < 0 || icon > label {
		t.Errorf("go-up must hold the icon then the label: %s", block)
	}
	if !strings.Contains(pageTemplate, `class="`+strings.TrimPrefix(chat.SelInput, ".")+`"`) {
		t.Error("chat input selector missing from template")
	}
}
