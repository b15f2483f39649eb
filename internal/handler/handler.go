package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Dan9191/todo-service/internal/models"
	"github.com/Dan9191/todo-service/internal/repository"
	"github.com/Dan9191/todo-service/internal/service"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ListUsers answers with the usernames of all users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListUsernames(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// CreateUser creates the user named in the path. The body must be an empty JSON array.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var body *[]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil || len(*body) != 0 {
		writeMessage(w, http.StatusBadRequest, "You must add an empty array in the body of the request")
		return
	}

	if _, err := h.svc.CreateUser(r.Context(), username); err != nil {
		h.handleError(w, r, username, err)
		return
	}
	writeJSON(w, http.StatusCreated, []any{})
}

// ListTodos answers with the serialized todos of the user
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	todos, err := h.svc.ListTodos(r.Context(), username)
	if err != nil {
		h.handleError(w, r, username, err)
		return
	}

	views := make([]models.TodoView, 0, len(todos))
	for _, todo := range todos {
		views = append(views, todo.Serialize())
	}
	writeJSON(w, http.StatusOK, views)
}

// ReplaceTodos swaps the user's task list for the submitted one
func (h *Handler) ReplaceTodos(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var tasks []models.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&tasks); err != nil {
		writeMessage(w, http.StatusBadRequest, "You must send a list of tasks with a label and a done flag")
		return
	}

	n, err := h.svc.ReplaceTodos(r.Context(), username, tasks)
	if err != nil {
		h.handleError(w, r, username, err)
		return
	}
	writeMessage(w, http.StatusCreated, fmt.Sprintf("%d tasks were added successfully", n))
}

// DeleteUser removes the user and its todos
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	if err := h.svc.DeleteUser(r.Context(), username); err != nil {
		h.handleError(w, r, username, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("The user %s has been deleted successfully", username))
}

// Health reports whether the store answers
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, username string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("The user %s doesn't exist", username))
	case errors.Is(err, repository.ErrDuplicate):
		writeMessage(w, http.StatusConflict, fmt.Sprintf("The user %s already exists", username))
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithFields(logrus.Fields{
		"request_id": chimw.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).WithError(err).Error("Request failed")
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
