package handlers

import (
	"encoding/json"
	"net/http"

	"branchdb/pkg/auth"
	"branchdb/pkg/branch"
	"branchdb/pkg/models"
	"branchdb/pkg/utils"
)

// writeDomainErr maps domain errors onto HTTP status codes.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case branch.IsNotFound(err):
		utils.JSONError(w, http.StatusNotFound, err.Error())
	case branch.IsForbidden(err):
		utils.JSONError(w, http.StatusForbidden, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// requestUser resolves the caller identity, writing the error response
// itself when resolution fails.
func requestUser(w http.ResponseWriter, r *http.Request) (models.UserRef, bool) {
	u, status, msg := auth.ResolveUser(r)
	if status != 0 {
		utils.JSONError(w, status, msg)
		return "", false
	}
	return u, true
}
