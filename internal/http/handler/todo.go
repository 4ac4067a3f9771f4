package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kter/serverless-sample/internal/middleware"
	"github.com/kter/serverless-sample/internal/repository"
	"github.com/kter/serverless-sample/internal/service"
)

// TodosPath is the collection path; items live at TodosPath/{id}.
const TodosPath = "/todos"

const maxBodyBytes = 1 << 20

const (
	collectionMethods = "GET, POST"
	itemMethods       = "DELETE, PUT"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// ServeHTTP routes /todos and /todos/{id}
func (h *TodoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, TodosPath)
	if path != "" && !strings.HasPrefix(path, "/") {
		// e.g. /todosfoo
		NotFound(w, r)
		return
	}
	path = strings.TrimPrefix(path, "/")

	// /todos/{id}/anything
	if strings.Contains(path, "/") {
		NotFound(w, r)
		return
	}

	// /todos/{id}
	if path != "" {
		switch r.Method {
		case http.MethodDelete:
			h.handleDelete(w, r, path)
		case http.MethodPut:
			h.handleUpdate(w, r, path)
		default:
			methodNotAllowed(w, itemMethods)
		}
		return
	}

	// /todos
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		methodNotAllowed(w, collectionMethods)
	}
}

// Route returns the metrics label for a request path.
func Route(r *http.Request) string {
	switch {
	case r.URL.Path == TodosPath || r.URL.Path == TodosPath+"/":
		return TodosPath
	case strings.HasPrefix(r.URL.Path, TodosPath+"/"):
		return TodosPath + "/{id}"
	case r.URL.Path == "/health" || r.URL.Path == "/metrics":
		return r.URL.Path
	default:
		return "other"
	}
}

type createTodoRequest struct {
	Title string  `json:"title"`
	DueAt *string `json:"dueAt,omitempty"`
}

func (h *TodoHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	todo, err := h.svc.Create(r.Context(), service.CreateTodoInput{
		Title: req.Title,
		DueAt: req.DueAt,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteTodos(w, todo)
}

func (h *TodoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteTodos(w, todos)
}

type updateTodoRequest struct {
	Completed *bool `json:"completed"`
}

func (h *TodoHandler) handleUpdate(w http.ResponseWriter, r *http.Request, todoID string) {
	var req updateTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	todo, err := h.svc.Update(r.Context(), todoID, service.UpdateTodoInput{Completed: req.Completed})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteTodos(w, todo)
}

func (h *TodoHandler) handleDelete(w http.ResponseWriter, r *http.Request, todoID string) {
	removed, err := h.svc.Delete(r.Context(), todoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteTodos(w, removed)
}

// decodeBody writes a 400 and returns false when the body is not valid JSON
// for v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			WriteError(w, http.StatusBadRequest, "INVALID_INPUT", typeErr.Field+" has the wrong type")
			return false
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// NotFound answers any path no route matched.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, repository.ErrThrottled):
		logStorageError(r, err)
		WriteError(w, http.StatusServiceUnavailable, "STORAGE_THROTTLED", "storage is busy, retry later")
	case errors.Is(err, service.ErrStorage):
		logStorageError(r, err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "storage error")
	default:
		logStorageError(r, err)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func logStorageError(r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed",
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}
