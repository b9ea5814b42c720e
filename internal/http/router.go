package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"blogchat/internal/handlers"
	"blogchat/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Sessions       service.SessionService
	Posts          handlers.PostLister
	WidgetJS       []byte
	AllowedOrigins []string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS(deps.AllowedOrigins))

	pages := handlers.NewPageHandler(deps.Posts)
	widget := handlers.NewWidgetHandler(deps.Sessions, deps.AllowedOrigins)
	health := handlers.NewHealthHandler(deps.Sessions)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", health)
		r.Method(http.MethodGet, "/widget/ws", widget)
	})

	r.Get("/", pages.Index)
	r.Get("/posts/{slug}", pages.Post)
	r.Method(http.MethodGet, "/static/widget.js", handlers.NewStaticHandler("application/javascript; charset=utf-8", deps.WidgetJS))

	return r
}
