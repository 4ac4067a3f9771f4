package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kter/serverless-sample/internal/model"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteTodos writes a 200 with v wrapped in the {"todos": ...} envelope.
func WriteTodos(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusOK, model.Envelope{Todos: v})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}
