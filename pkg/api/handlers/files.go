package handlers

import (
	"encoding/json"
	"net/http"

	"branchdb/pkg/branch"
	"branchdb/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterFiles registers image and file attachment routes.
func RegisterFiles(r *mux.Router) {
	r.HandleFunc("/images", createImage).Methods(http.MethodPost)
	r.HandleFunc("/images/{id}", getImage).Methods(http.MethodGet)
	r.HandleFunc("/files", createFile).Methods(http.MethodPost)
	r.HandleFunc("/files/{id}", getFile).Methods(http.MethodGet)

	r.HandleFunc("/threads/{threadID}/draft/images", attachImage).Methods(http.MethodPost)
	r.HandleFunc("/threads/{threadID}/draft/files", attachFile).Methods(http.MethodPost)
}

type attachmentBody struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename"`
}

func createImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body attachmentBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.URL == "" {
		utils.JSONError(w, http.StatusBadRequest, "url is required")
		return
	}
	img, err := branch.CreateImage(body.URL, body.MimeType, body.Filename)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(img)
}

func getImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	img, err := branch.GetImage(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(img)
}

func createFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body attachmentBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.URL == "" {
		utils.JSONError(w, http.StatusBadRequest, "url is required")
		return
	}
	f, err := branch.CreateFile(body.URL, body.MimeType, body.Filename)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(f)
}

func getFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	f, err := branch.GetFile(mux.Vars(r)["id"])
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(f)
}

func attachImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Image string `json:"image"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if body.Image == "" {
		utils.JSONError(w, http.StatusBadRequest, "image is required")
		return
	}
	if err := branch.AttachImageToDraft(mux.Vars(r)["threadID"], user, body.Image); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func attachFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		File string `json:"file"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, ok := requestUser(w, r)
	if !ok {
		return
	}
	if body.File == "" {
		utils.JSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	if err := branch.AttachFileToDraft(mux.Vars(r)["threadID"], user, body.File); err != nil {
		writeDomainErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
