package api

import (
	"net/http"

	"branchdb/pkg/api/handlers"
	"branchdb/pkg/store"

	"github.com/gorilla/mux"
)

// Handler builds the /v1 API router.
func Handler() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterThreads(v1)
	handlers.RegisterMessages(v1)
	handlers.RegisterDrafts(v1)
	handlers.RegisterNotes(v1)
	handlers.RegisterUsers(v1)
	handlers.RegisterFiles(v1)
	handlers.RegisterAdmin(v1)
	return r
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Readyz reports whether the store is open and serving.
func Readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
