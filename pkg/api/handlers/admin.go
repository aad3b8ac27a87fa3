package handlers

import (
	"encoding/json"
	"net/http"

	"branchdb/internal/retention"
	"branchdb/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterAdmin registers operator routes. The gateway stamps the resolved
// key role into X-Role-Name; only the admin role may reach these.
func RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/admin/retention/run", runRetention).Methods(http.MethodPost)
}

func runRetention(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("X-Role-Name") != "admin" {
		utils.JSONError(w, http.StatusForbidden, "admin key required")
		return
	}
	if err := retention.RunImmediate(); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
