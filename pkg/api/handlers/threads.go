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

// RegisterThreads registers all thread-related HTTP routes to the provided router.
func RegisterThreads(r *mux.Router) {
	r.HandleFunc("/threads", createThread).Methods(http.MethodPost)
	r.HandleFunc("/threads", listThreads).Methods(http.MethodGet)

	r.HandleFunc("/threads/{id}", getThread).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}", deleteThread).Methods(http.MethodDelete)

	r.HandleFunc("/threads/{id}/title", editTitle).Methods(http.MethodPut)
	r.HandleFunc("/threads/{id}/description", updateDescription).Methods(http.MethodPut)
	r.HandleFunc("/threads/{id}/description", removeDescription).Methods(http.MethodDelete)
	r.HandleFunc("/threads/{id}/invite", inviteUser).Methods(http.MethodPost)
	r.HandleFunc("/threads/{id}/remove-user", removeUser).Methods(http.MethodPost)

	r.HandleFunc("/threads/{id}/ethreads", listEmbeddedThreads).Methods(http.MethodGet)
	r.HandleFunc("/ethreads/{id}/messages", listTranscript).Methods(http.MethodGet)
}

// createThread handles POST /threads. The new thread's default embedded
// thread is created with it; both ids come back in the response.
func createThread(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Name    string           `json:"name"`
		CanSee  []models.UserRef `json:"canSee"`
		CanSend []models.UserRef `json:"canSend"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := validation.ValidateThreadName(body.Name); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	th, err := branch.CreateThread(branch.CreateThreadInput{
		Name:    body.Name,
		Owner:   user,
		CanSee:  body.CanSee,
		CanSend: body.CanSend,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(th)
}

// listThreads handles GET /threads, split into owned and shared sets for
// the calling user.
func listThreads(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	listing, err := branch.ClassifyThreads(user)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(listing)
}

func getThread(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	th, err := branch.GetThread(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(th)
}

// deleteThread handles DELETE /threads/{id}: a soft delete, only the owner
// may do it. The retention runner purges the data later.
func deleteThread(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id := mux.Vars(r)["id"]
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	th, err := branch.GetThread(id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if !user.IsLocal() && th.Owner != user {
		utils.JSONError(w, http.StatusForbidden, "only the owner can delete a thread")
		return
	}
	if err := branch.SoftDeleteThread(id); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func editTitle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := validation.ValidateThreadName(body.Name); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := branch.EditThreadTitle(mux.Vars(r)["id"], body.Name); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func updateDescription(w http.ResponseWriter, r *http.Request) {
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
	if err := branch.UpdateDescription(mux.Vars(r)["id"], body.Text, user); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func removeDescription(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := branch.RemoveDescription(mux.Vars(r)["id"], user); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func inviteUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		User    models.UserRef `json:"user"`
		CanSend bool           `json:"canSend"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.User == "" {
		utils.JSONError(w, http.StatusBadRequest, "user is required")
		return
	}
	if err := branch.InviteUser(mux.Vars(r)["id"], body.User, body.CanSend); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func removeUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		User models.UserRef `json:"user"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.User == "" {
		utils.JSONError(w, http.StatusBadRequest, "user is required")
		return
	}
	if err := branch.RemoveUser(mux.Vars(r)["id"], body.User); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func listEmbeddedThreads(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ets, err := branch.EmbeddedThreadsForThread(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(struct {
		EmbeddedThreads []models.EmbeddedThread `json:"ethreads"`
	}{EmbeddedThreads: ets})
}

// listTranscript handles GET /ethreads/{id}/messages: the materialized
// transcript. Ids that no longer resolve are omitted, so a transcript with
// deleted messages still renders.
func listTranscript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	msgs, err := branch.Transcript(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(struct {
		Messages []models.Message `json:"messages"`
	}{Messages: msgs})
}
