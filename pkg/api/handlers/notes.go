package handlers

import (
	"encoding/json"
	"net/http"

	"branchdb/pkg/branch"
	"branchdb/pkg/models"
	"branchdb/pkg/utils"
	"branchdb/pkg/validation"

	"github.com/gorilla/mux"
)

// RegisterNotes registers note routes.
func RegisterNotes(r *mux.Router) {
	r.HandleFunc("/threads/{threadID}/notes", upsertNote).Methods(http.MethodPost)
	r.HandleFunc("/threads/{threadID}/notes", listNotes).Methods(http.MethodGet)
	r.HandleFunc("/notes/{id}", editNote).Methods(http.MethodPut)
	r.HandleFunc("/notes/{id}", deleteNote).Methods(http.MethodDelete)
}

// upsertNote handles POST /threads/{threadID}/notes. A second note on the
// same message by the same user replaces the first.
func upsertNote(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Message string `json:"message"`
		Text    string `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if body.Message == "" {
		utils.JSONError(w, http.StatusBadRequest, "message is required")
		return
	}
	if err := validation.ValidateNote(body.Text); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := branch.UpsertNote(mux.Vars(r)["threadID"], body.Message, body.Text, user)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(n)
}

func listNotes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	notes, err := branch.NotesForThread(mux.Vars(r)["threadID"], user)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(struct {
		Notes []models.Note `json:"notes"`
	}{Notes: notes})
}

func editNote(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := validation.ValidateNote(body.Text); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := branch.EditNote(mux.Vars(r)["id"], body.Text, user); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func deleteNote(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := branch.DeleteNote(mux.Vars(r)["id"], user); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
