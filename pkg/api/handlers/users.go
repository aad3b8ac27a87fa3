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

// AccountDefaults supplies config fallbacks to the user handlers; set once
// at router build time.
var AccountDefaults branch.Defaults

// RegisterUsers registers account routes.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users", addUser).Methods(http.MethodPost)
	r.HandleFunc("/users", listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/settings", updateSettings).Methods(http.MethodPatch)
	r.HandleFunc("/users/{id}/memories", addMemory).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/memories", listMemories).Methods(http.MethodGet)
}

// addUser handles POST /users. Registering the same external id twice
// returns the existing account with a 200 instead of a 201.
func addUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		ExternalID   string `json:"externalId"`
		Email        string `json:"email"`
		DefaultModel string `json:"defaultModel"`
		TitleModel   string `json:"titleModel"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ExternalID == "" {
		utils.JSONError(w, http.StatusBadRequest, "externalId is required")
		return
	}
	existing := false
	if _, err := branch.UserByExternalID(body.ExternalID); err == nil {
		existing = true
	}
	u, err := branch.AddUser(branch.AddUserInput{
		ExternalID:   body.ExternalID,
		Email:        body.Email,
		DefaultModel: body.DefaultModel,
		TitleModel:   body.TitleModel,
	}, AccountDefaults)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if !existing {
		w.WriteHeader(http.StatusCreated)
	}
	_ = json.NewEncoder(w).Encode(u)
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if email := r.URL.Query().Get("email"); email != "" {
		u, err := branch.UserByEmail(email)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(struct {
			Users []models.User `json:"users"`
		}{Users: []models.User{*u}})
		return
	}
	users, err := branch.ListUsers()
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(struct {
		Users []models.User `json:"users"`
	}{Users: users})
}

func getUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, err := branch.GetUser(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(u)
}

func updateSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var s branch.UserSettings
	if !decodeBody(w, r, &s) {
		return
	}
	if err := branch.UpdateSettings(mux.Vars(r)["id"], s); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func addMemory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Memory string `json:"memory"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := validation.ValidateMemory(body.Memory); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := branch.AddMemory(mux.Vars(r)["id"], body.Memory); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func listMemories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	mems, err := branch.Memories(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(struct {
		Memories []string `json:"memories"`
	}{Memories: mems})
}
