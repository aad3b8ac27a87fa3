package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"branchdb/pkg/branch"
	"branchdb/pkg/models"
	"branchdb/pkg/utils"
	"branchdb/pkg/validation"

	"github.com/gorilla/mux"
)

// RegisterMessages registers message and branch-navigation routes.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/threads/{threadID}/messages", addMessage).Methods(http.MethodPost)

	r.HandleFunc("/messages/{id}", getMessage).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", deleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/messages/{id}/edit", editMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}/regen", regenMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}/edits", resolveEdit).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}/regens", resolveRegen).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}/pin", pinMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}/pin", unpinMessage).Methods(http.MethodDelete)
}

type messageBody struct {
	EmbeddedThread string                `json:"ethread"`
	Prompt         []models.PromptPart   `json:"prompt"`
	Response       []models.ResponsePart `json:"response"`
	Reasoning      string                `json:"reasoning"`
	Model          string                `json:"model"`
}

// addMessage handles POST /threads/{threadID}/messages. The body names the
// embedded thread the message lands on; omitting it targets the thread's
// default embedded thread.
func addMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	threadID := mux.Vars(r)["threadID"]
	var body messageBody
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := validation.ValidatePrompt(body.Prompt); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateResponse(body.Response); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateModel(body.Model); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	etID := body.EmbeddedThread
	if etID == "" {
		th, err := branch.GetThread(threadID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		etID = th.DefaultThread
	}
	id, err := branch.AddMessage(branch.AddMessageInput{
		ThreadID:         threadID,
		EmbeddedThreadID: etID,
		Prompt:           body.Prompt,
		Response:         body.Response,
		Reasoning:        body.Reasoning,
		Model:            body.Model,
		Sender:           user,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	msg, err := branch.GetMessage(id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(msg)
}

func getMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	msg, err := branch.GetMessage(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(msg)
}

// editMessage handles POST /messages/{id}/edit. The response is the forked
// embedded thread carrying the edit at its tip.
func editMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		messageBody
		Thread string `json:"thread"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := validation.ValidatePrompt(body.Prompt); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	threadID, etID, ok := resolveMessageScope(w, r, body.Thread, body.EmbeddedThread)
	if !ok {
		return
	}
	et, err := branch.EditMessage(branch.EditMessageInput{
		ThreadID:         threadID,
		EmbeddedThreadID: etID,
		MessageID:        mux.Vars(r)["id"],
		Prompt:           body.Prompt,
		Response:         body.Response,
		Reasoning:        body.Reasoning,
		Model:            body.Model,
		Sender:           user,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(et)
}

// regenMessage handles POST /messages/{id}/regen. The prompt carries over
// from the original; only a new response is supplied.
func regenMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Thread         string                `json:"thread"`
		EmbeddedThread string                `json:"ethread"`
		Response       []models.ResponsePart `json:"response"`
		Reasoning      string                `json:"reasoning"`
		Model          string                `json:"model"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := validation.ValidateResponse(body.Response); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	threadID, etID, ok := resolveMessageScope(w, r, body.Thread, body.EmbeddedThread)
	if !ok {
		return
	}
	et, err := branch.RegenMessage(branch.RegenMessageInput{
		ThreadID:         threadID,
		EmbeddedThreadID: etID,
		MessageID:        mux.Vars(r)["id"],
		Response:         body.Response,
		Reasoning:        body.Reasoning,
		Model:            body.Model,
		Sender:           user,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(et)
}

// resolveMessageScope fills in the thread and embedded-thread ids for a
// branch operation, deriving the thread from the message itself when the
// body omits it.
func resolveMessageScope(w http.ResponseWriter, r *http.Request, threadID, etID string) (string, string, bool) {
	if etID == "" {
		utils.JSONError(w, http.StatusBadRequest, "ethread is required")
		return "", "", false
	}
	if threadID == "" {
		msg, err := branch.GetMessage(mux.Vars(r)["id"])
		if err != nil {
			writeDomainErr(w, err)
			return "", "", false
		}
		threadID = msg.Thread
	}
	return threadID, etID, true
}

func deleteMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := branch.DeleteMessage(mux.Vars(r)["id"]); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// resolveEdit handles GET /messages/{id}/edits?index=n. The index clamps
// into the bundle, so probing past either end lands on the boundary sibling.
func resolveEdit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	idx := parseIndex(r)
	res, err := branch.ResolveEdit(mux.Vars(r)["id"], idx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

func resolveRegen(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	idx := parseIndex(r)
	res, err := branch.ResolveRegen(mux.Vars(r)["id"], idx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

func parseIndex(r *http.Request) int {
	if s := r.URL.Query().Get("index"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func pinMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Thread         string `json:"thread"`
		EmbeddedThread string `json:"ethread"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	msgID := mux.Vars(r)["id"]
	if body.Thread == "" {
		msg, err := branch.GetMessage(msgID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		body.Thread = msg.Thread
	}
	if err := branch.PinMessage(body.Thread, body.EmbeddedThread, msgID); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func unpinMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	msgID := mux.Vars(r)["id"]
	threadID := r.URL.Query().Get("thread")
	if threadID == "" {
		msg, err := branch.GetMessage(msgID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		threadID = msg.Thread
	}
	if err := branch.UnpinMessage(threadID, msgID); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
