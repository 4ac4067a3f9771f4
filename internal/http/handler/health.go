package handler

import "net/http"

type HealthHandler struct {
	reminderState func() string
}

// NewHealthHandler reports liveness. reminderState may be nil when the
// scheduler is not running in this process.
func NewHealthHandler(reminderState func() string) *HealthHandler {
	return &HealthHandler{reminderState: reminderState}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	body := map[string]string{"status": "ok"}
	if h.reminderState != nil {
		body["reminder"] = h.reminderState()
	}
	WriteJSON(w, http.StatusOK, body)
}
