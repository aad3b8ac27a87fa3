package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"branchdb/pkg/config"
	"branchdb/pkg/logger"
	"branchdb/pkg/utils"
)

// Gateway authenticates API keys, applies CORS, the IP whitelist and
// per-key rate limiting, and stamps the resolved role into X-Role-Name for
// downstream middleware.
func Gateway(cfg SecConfig, next http.Handler) http.Handler {
	pool := &limiterPool{cfg: cfg}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-User-ID, X-User-Signature")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if len(cfg.IPWhitelist) > 0 {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !ipAllowed(cfg.IPWhitelist, host) {
				logger.Warn("ip_rejected", zap.String("remote", r.RemoteAddr))
				utils.JSONError(w, http.StatusForbidden, "forbidden")
				return
			}
		}

		key := bearerKey(r)
		role := roleForKey(cfg, key)
		if role == RoleUnauth && !cfg.AllowUnauth {
			logger.Warn("unauthorized_key", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
			utils.JSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}

		limKey := key
		if limKey == "" {
			limKey = r.RemoteAddr
		}
		if !pool.Allow(limKey) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		r.Header.Set("X-Role-Name", roleName(role))
		next.ServeHTTP(w, r)
	})
}

// RequireSignedUser verifies HMAC signature headers and injects the
// verified user id into the request context. Backend and admin callers may
// omit the signature; anyone else must sign the X-User-ID value with a
// configured signing key.
func RequireSignedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get("X-Role-Name")
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		sig := strings.TrimSpace(r.Header.Get("X-User-Signature"))

		if (role == "backend" || role == "admin") && sig == "" {
			next.ServeHTTP(w, r)
			return
		}
		if sig == "" {
			// Unsigned frontend requests fall back to the local user.
			next.ServeHTTP(w, r)
			return
		}
		if userID == "" {
			logger.Warn("missing_signature_headers", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
			utils.JSONError(w, http.StatusUnauthorized, "missing signature headers")
			return
		}

		keys := config.GetSigningKeys()
		if len(keys) == 0 {
			logger.Error("no_signing_keys_configured")
			utils.JSONError(w, http.StatusInternalServerError, "server misconfigured: no signing secrets available")
			return
		}

		ok := false
		for k := range keys {
			mac := hmac.New(sha256.New, []byte(k))
			mac.Write([]byte(userID))
			expected := hex.EncodeToString(mac.Sum(nil))
			if hmac.Equal([]byte(expected), []byte(sig)) {
				ok = true
				break
			}
		}
		if !ok {
			logger.Warn("invalid_signature", zap.String("user", userID))
			utils.JSONError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerKey(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func roleForKey(cfg SecConfig, key string) Role {
	if key == "" {
		return RoleUnauth
	}
	if _, ok := cfg.AdminKeys[key]; ok {
		return RoleAdmin
	}
	if _, ok := cfg.BackendKeys[key]; ok {
		return RoleBackend
	}
	if _, ok := cfg.FrontendKeys[key]; ok {
		return RoleFrontend
	}
	return RoleUnauth
}

func roleName(r Role) string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleBackend:
		return "backend"
	case RoleFrontend:
		return "frontend"
	default:
		return "unauth"
	}
}

func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func ipAllowed(list []string, host string) bool {
	for _, ip := range list {
		if ip == host {
			return true
		}
	}
	return false
}
