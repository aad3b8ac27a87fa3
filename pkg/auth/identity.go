package auth

import (
	"context"
	"net/http"
	"strings"

	"branchdb/pkg/models"
)

// Role represents the resolved caller role for a request.
type Role int

const (
	RoleUnauth Role = iota
	RoleFrontend
	RoleBackend
	RoleAdmin
)

// SecConfig mirrors the security-related configuration used to drive
// authentication, CORS and rate limiting behavior.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
	BackendKeys    map[string]struct{}
	FrontendKeys   map[string]struct{}
	AdminKeys      map[string]struct{}
	AllowUnauth    bool
}

type ctxUserKey struct{}

// UserFromContext returns the signature-verified user or empty string.
func UserFromContext(ctx context.Context) models.UserRef {
	if v := ctx.Value(ctxUserKey{}); v != nil {
		if s, ok := v.(string); ok {
			return models.UserRef(s)
		}
	}
	return ""
}

// ResolveUser is the canonical per-request identity resolver. A
// signature-verified user from the context wins; a conflicting X-User-ID
// header against it is an error. Without a signature the X-User-ID header is
// taken at face value, and an absent header means the local user.
func ResolveUser(r *http.Request) (models.UserRef, int, string) {
	header := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id := UserFromContext(r.Context()); id != "" {
		if header != "" && header != string(id) {
			return "", http.StatusForbidden, "user mismatch between signature and header"
		}
		return id, 0, ""
	}
	if header == "" {
		return models.Local, 0, ""
	}
	if len(header) > 128 {
		return "", http.StatusBadRequest, "user id too long"
	}
	return models.UserRef(header), 0, ""
}
