package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kter/serverless-sample/internal/http/handler"
	"github.com/kter/serverless-sample/internal/service"
)

// RouterDeps carries what the router needs beyond the todo service. Zero
// values disable the matching endpoint detail.
type RouterDeps struct {
	// Gatherer backs /metrics; nil leaves /metrics unregistered.
	Gatherer prometheus.Gatherer
	// ReminderState is reported by /health when the scheduler runs in-process.
	ReminderState func() string
}

func NewRouter(todoSvc *service.TodoService, deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", handler.NewHealthHandler(deps.ReminderState))

	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	todoHandler := handler.NewTodoHandler(todoSvc)
	mux.Handle(handler.TodosPath, todoHandler)
	mux.Handle(handler.TodosPath+"/", todoHandler)

	// Everything else gets a JSON 404 instead of the mux's plain-text one.
	mux.HandleFunc("/", handler.NotFound)

	return mux
}
