package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"branchdb/pkg/config"
	"branchdb/pkg/logger"
	"branchdb/pkg/models"
)

func signHMAC(key, user string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(user))
	return hex.EncodeToString(mac.Sum(nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestResolveUserDefaultsLocal verifies the no-header case resolves to the
// local user.
func TestResolveUserDefaultsLocal(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	u, status, _ := ResolveUser(r)
	if status != 0 {
		t.Fatalf("status = %d", status)
	}
	if u != models.Local {
		t.Fatalf("user = %q, want local", u)
	}
}

// TestResolveUserHeader verifies the unsigned header path and the length
// bound.
func TestResolveUserHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.Header.Set("X-User-ID", "usr_abc")
	u, status, _ := ResolveUser(r)
	if status != 0 || u != "usr_abc" {
		t.Fatalf("user = %q status = %d", u, status)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.Header.Set("X-User-ID", strings.Repeat("a", 200))
	_, status, _ = ResolveUser(r)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

// TestSignedUserFlow runs RequireSignedUser end to end: a valid signature
// injects the verified user, a conflicting header is rejected, a bad
// signature never reaches the handler.
func TestSignedUserFlow(t *testing.T) {
	logger.InitWithLevel("error", "text")
	config.SetRuntime(&config.RuntimeConfig{SigningKeys: map[string]struct{}{"signsecret": {}}})
	t.Cleanup(func() { config.SetRuntime(nil) })

	var resolved models.UserRef
	var resolvedStatus int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, resolvedStatus, _ = ResolveUser(r)
		w.WriteHeader(http.StatusOK)
	})
	h := RequireSignedUser(inner)

	// valid signature
	r := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.Header.Set("X-User-ID", "usr_alice")
	r.Header.Set("X-User-Signature", signHMAC("signsecret", "usr_alice"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusOK {
		t.Fatalf("signed request status = %d: %s", rr.Code, rr.Body.String())
	}
	if resolved != "usr_alice" || resolvedStatus != 0 {
		t.Fatalf("resolved = %q status = %d", resolved, resolvedStatus)
	}

	// wrong signature
	r = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.Header.Set("X-User-ID", "usr_alice")
	r.Header.Set("X-User-Signature", signHMAC("wrongsecret", "usr_alice"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature status = %d", rr.Code)
	}

	// signature present but no user id
	r = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.Header.Set("X-User-Signature", "deadbeef")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing user id status = %d", rr.Code)
	}

	// unsigned frontend request falls through and resolves the raw header
	r = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.Header.Set("X-Role-Name", "frontend")
	r.Header.Set("X-User-ID", "usr_bob")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusOK || resolved != "usr_bob" {
		t.Fatalf("unsigned frontend: status=%d resolved=%q", rr.Code, resolved)
	}
}

// TestGatewayKeyRoles verifies API key authentication and role stamping.
func TestGatewayKeyRoles(t *testing.T) {
	logger.InitWithLevel("error", "text")
	cfg := SecConfig{
		BackendKeys:  map[string]struct{}{"bk": {}},
		FrontendKeys: map[string]struct{}{"fk": {}},
		AdminKeys:    map[string]struct{}{"ak": {}},
		RPS:          1000,
		Burst:        1000,
	}
	var seenRole string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRole = r.Header.Get("X-Role-Name")
		w.WriteHeader(http.StatusOK)
	})
	h := Gateway(cfg, inner)

	cases := []struct {
		header, value, role string
		status              int
	}{
		{"Authorization", "Bearer bk", "backend", http.StatusOK},
		{"X-API-Key", "fk", "frontend", http.StatusOK},
		{"Authorization", "Bearer ak", "admin", http.StatusOK},
		{"Authorization", "Bearer nope", "", http.StatusUnauthorized},
		{"", "", "", http.StatusUnauthorized},
	}
	for _, c := range cases {
		seenRole = ""
		r := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
		if c.header != "" {
			r.Header.Set(c.header, c.value)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if rr.Code != c.status {
			t.Fatalf("%s=%q: status = %d, want %d", c.header, c.value, rr.Code, c.status)
		}
		if c.role != "" && seenRole != c.role {
			t.Fatalf("%s=%q: role = %q, want %q", c.header, c.value, seenRole, c.role)
		}
	}
}

// TestGatewayOpenMode verifies keyless deployments admit unauthenticated
// callers when AllowUnauth is set.
func TestGatewayOpenMode(t *testing.T) {
	logger.InitWithLevel("error", "text")
	h := Gateway(SecConfig{AllowUnauth: true, RPS: 1000, Burst: 1000}, okHandler())

	r := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusOK {
		t.Fatalf("open mode status = %d", rr.Code)
	}
}

// TestGatewayCORSAndPreflight verifies origin echoing and the OPTIONS
// short-circuit.
func TestGatewayCORSAndPreflight(t *testing.T) {
	logger.InitWithLevel("error", "text")
	cfg := SecConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowUnauth:    true,
		RPS:            1000,
		Burst:          1000,
	}
	h := Gateway(cfg, okHandler())

	r := httptest.NewRequest(http.MethodOptions, "/v1/threads", nil)
	r.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("allow-origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	// a foreign origin gets no CORS headers
	r = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin got CORS headers")
	}
}

// TestGatewayIPWhitelist verifies non-listed remotes are rejected.
func TestGatewayIPWhitelist(t *testing.T) {
	logger.InitWithLevel("error", "text")
	cfg := SecConfig{IPWhitelist: []string{"10.1.1.1"}, AllowUnauth: true, RPS: 1000, Burst: 1000}
	h := Gateway(cfg, okHandler())

	r := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.RemoteAddr = "10.1.1.1:55555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusOK {
		t.Fatalf("whitelisted ip status = %d", rr.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	r.RemoteAddr = "10.2.2.2:55555"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("foreign ip status = %d", rr.Code)
	}
}

// TestLimiterPoolThrottles verifies a tiny bucket runs dry.
func TestLimiterPoolThrottles(t *testing.T) {
	p := &limiterPool{cfg: SecConfig{RPS: 1, Burst: 2}}
	allowed := 0
	for i := 0; i < 10; i++ {
		if p.Allow("key") {
			allowed++
		}
	}
	if allowed < 2 || allowed > 3 {
		t.Fatalf("allowed = %d, want the burst of 2", allowed)
	}
	// a different key has its own bucket
	if !p.Allow("other") {
		t.Fatalf("fresh key throttled")
	}
}
