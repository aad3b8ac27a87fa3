package handlers

import (
	"encoding/json"
	"net/http"

	"branchdb/pkg/branch"
	"branchdb/pkg/models"

	"github.com/gorilla/mux"
)

// RegisterDrafts registers draft routes. Drafts are keyed by (thread, user);
// the user comes from the request identity.
func RegisterDrafts(r *mux.Router) {
	r.HandleFunc("/threads/{threadID}/draft", putDraft).Methods(http.MethodPut)
	r.HandleFunc("/threads/{threadID}/draft", getDraft).Methods(http.MethodGet)
	r.HandleFunc("/threads/{threadID}/draft", deleteDraft).Methods(http.MethodDelete)
}

func putDraft(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Message []models.PromptPart `json:"message"`
		Model   string              `json:"model"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := branch.SaveDraft(mux.Vars(r)["threadID"], user, body.Message, body.Model); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func getDraft(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	d, err := branch.GetDraft(mux.Vars(r)["threadID"], user)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(d)
}

func deleteDraft(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := branch.DeleteDraft(mux.Vars(r)["threadID"], user); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
