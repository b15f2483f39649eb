package handler

import (
	"net/http"

	appmw "github.com/Dan9191/todo-service/internal/middleware"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter registers every endpoint and wraps the router in the middleware
// chain. The chain sits outside mux so unmatched requests pass through it too.
func NewRouter(h *Handler, log *logrus.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/", h.Sitemap(r)).Methods(http.MethodGet)
	r.HandleFunc("/sitemap.xml", h.SitemapXML(r)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	todos := r.PathPrefix("/todos/user").Subrouter()
	todos.HandleFunc("", h.ListUsers).Methods(http.MethodGet)
	todos.HandleFunc("/{username}", h.CreateUser).Methods(http.MethodPost)
	todos.HandleFunc("/{username}", h.ListTodos).Methods(http.MethodGet)
	todos.HandleFunc("/{username}", h.ReplaceTodos).Methods(http.MethodPut)
	todos.HandleFunc("/{username}", h.DeleteUser).Methods(http.MethodDelete)

	return chain(r,
		chimw.RequestID,
		chimw.RealIP,
		appmw.RequestLogger(log),
		chimw.Recoverer,
		appmw.CORS,
		chimw.StripSlashes,
	)
}

// chain applies middlewares so the first one listed runs first.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "The requested URL was not found on the server")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL")
}
