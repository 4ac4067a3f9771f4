package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kter/serverless-sample/internal/middleware"
)

type observation struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	seen []observation
}

func (f *fakeObserver) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	f.seen = append(f.seen, observation{method, route, status})
}

func TestMetrics_ObservesRouteAndStatus(t *testing.T) {
	obs := &fakeObserver{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("{}"))
	})
	route := func(r *http.Request) string {
		if r.URL.Path == "/todos" {
			return "/todos"
		}
		return "/todos/{id}"
	}

	h := middleware.Metrics(obs, route)(inner)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/todos", nil),
		httptest.NewRequest(http.MethodPut, "/todos/123", nil),
	} {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	want := []observation{
		{http.MethodGet, "/todos", http.StatusOK},
		{http.MethodPut, "/todos/{id}", http.StatusNotFound},
	}
	if len(obs.seen) != len(want) {
		t.Fatalf("expected %d observations, got %d", len(want), len(obs.seen))
	}
	for i := range want {
		if obs.seen[i] != want[i] {
			t.Errorf("observation %d: expected %+v, got %+v", i, want[i], obs.seen[i])
		}
	}
}
