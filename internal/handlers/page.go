package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogchat/internal/blog"
	"blogchat/internal/contextutil"
)

// PostLister is the read side of the post store used by PageHandler.
type PostLister interface {
	Get(slug string) (blog.Post, bool)
	List() []blog.Post
}

// PageHandler renders the blog index and individual posts with the widget
// markup attached.
type PageHandler struct {
	posts    PostLister
	template *template.Template
}

// pageData holds template data for both page kinds.
type pageData struct {
	Title   string
	Article bool
	Posts   []blog.Post
	Content template.HTML
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(posts PostLister) *PageHandler {
	return &PageHandler{
		posts:    posts,
		template: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Index serves the post listing. It is not an article page.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "Blog", Posts: h.posts.List()})
}

// Post serves /posts/{slug}.
func (h *PageHandler) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))

	post, ok := h.posts.Get(slug)
	if !ok {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "unknown post requested", "slug", slug)
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	h.render(w, r, pageData{Title: post.Title, Article: true, Content: post.HTML})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	ctx := r.Context()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, data); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to execute page template",
			slog.String("title", data.Title), slog.Any("error", err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.1/css/all.min.css">
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; margin: 0 auto; padding: 2rem; max-width: 800px; line-height: 1.7; }
    #reading-progress-bottom { position: fixed; left: 0; bottom: 0; height: 4px; width: 0; background: #4a6cf7; transition: width .1s; }
    #go-up { position: fixed; right: 1.5rem; bottom: 6rem; width: 44px; height: 44px; border-radius: 50%; background: #fff; box-shadow: 0 2px 8px rgba(0,0,0,.2); display: flex; align-items: center; justify-content: center; cursor: pointer; }
    #go-up .go-up-label { display: none; font-size: .8rem; }
    #go-up .go-up-label span { font-size: .6rem; }
    .chat-button { position: fixed; right: 1.5rem; bottom: 1.5rem; width: 56px; height: 56px; border-radius: 50%; border: 0; background: #4a6cf7; color: #fff; font-size: 1.3rem; cursor: pointer; }
    #chat-container { position: fixed; right: 1.5rem; bottom: 5.5rem; width: 360px; max-height: 520px; display: none; flex-direction: column; background: #fff; border-radius: 12px; box-shadow: 0 10px 30px rgba(0,0,0,.2); overflow: hidden; }
    #chat-container.chat-open { display: flex; }
    .chat-header { display: flex; justify-content: space-between; padding: .75rem 1rem; background: #4a6cf7; color: #fff; }
    .chat-close { background: none; border: 0; color: #fff; cursor: pointer; }
    .chat-messages { flex: 1; overflow-y: auto; padding: 1rem; }
    .message { display: flex; gap: .5rem; margin-bottom: .75rem; }
    .message-avatar { width: 32px; height: 32px; border-radius: 50%; color: #fff; display: flex; align-items: center; justify-content: center; flex-shrink: 0; }
    .message-content { background: #f1f3f9; border-radius: 8px; padding: .5rem .75rem; white-space: pre-wrap; }
    .loading-indicator { display: none; padding: 0 1rem .5rem; color: #888; }
    .chat-footer { display: flex; gap: .5rem; padding: .75rem; border-top: 1px solid #eee; }
    .chat-input { flex: 1; resize: none; height: auto; max-height: 120px; font: inherit; }
  </style>
</head>
<body>
  <header><a href="/">Blog</a></header>
  {{if .Article}}
  <article class="post">
    {{.Content}}
  </article>
  {{else}}
  <h1>Posts</h1>
  <ul>
    {{range .Posts}}<li><a href="/posts/{{.Slug}}">{{.Title}}</a></li>
    {{end}}
  </ul>
  {{end}}

  <div id="reading-progress-bottom"></div>
  <div id="go-up" onclick="window.scrollTo({top: 0, behavior: 'smooth'})">
    <i class="fas fa-arrow-up"></i>
    <div class="go-up-label"></div>
  </div>

  <button class="chat-button" aria-label="Open chat"><i class="fas fa-comments"></i></button>
  <div id="chat-container">
    <div class="chat-header">
      <span>Assistant</span>
      <button class="chat-close" aria-label="Close chat"><i class="fas fa-times"></i></button>
    </div>
    <div class="chat-messages"></div>
    <div class="loading-indicator">Thinking...</div>
    <div class="chat-footer">
      <textarea class="chat-input" rows="1" placeholder="Ask something..."></textarea>
      <button class="chat-send" aria-label="Send"><i class="fas fa-paper-plane"></i></button>
    </div>
  </div>

  <script src="/static/widget.js"></script>
</body>
</html>
`
