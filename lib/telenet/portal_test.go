package telenet

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"telenetapi/internal/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time {
	return f.now
}

type portalRequest struct {
	Method string
	Path   string
	Query  string
	Token  string
}

// fakePortal imitates the identity endpoint, the login pages and the two api families.
// Every response rotates the anti-forgery cookie.
type fakePortal struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	requests    []portalRequest
	tokens      int
	loggedIn    bool
	password    string
	details     map[string]any
	probeCode   int
	probeBody   string
	// authorizeTo overrides where the authorize endpoint redirects to
	authorizeTo string
	legacy      map[string]any
	nextgen     map[string]any
	catalogs    map[string]any
}

func newFakePortal(t *testing.T) *fakePortal {
	p := &fakePortal{
		t:        t,
		password: "hunter2",
		details: map[string]any{
			"customer_number": "123456",
			"bss_system":      SystemLegacy,
			"scopes":          []any{"contactdetails", "accounts"},
		},
		legacy:   map[string]any{},
		nextgen:  map[string]any{},
		catalogs: map[string]any{},
	}
	p.srv = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePortal) env() Environment {
	base := p.srv.URL
	return Environment{
		Ocapi:          base + "/ocapi",
		OcapiPublic:    base + "/ocapi/public",
		OcapiPublicAPI: base + "/ocapi/public/api",
		OcapiOAuth:     base + "/ocapi/oauth",
		OpenID:         base + "/openid",
		Referer:        base + "/residential",
		AltReferer:     base + "/",
	}
}

func (p *fakePortal) client(tel *telemetry.TestAPI, now time.Time) *Client {
	p.t.Helper()
	client, err := NewClient(ClientOptions{
		Username:    "jan@example.com",
		Password:    "hunter2",
		Environment: p.env(),
		Telemetry:   tel,
		Time:        fixedTime{now: now},
	})
	require.NoError(p.t, err)
	return client
}

func (p *fakePortal) recorded() []portalRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]portalRequest(nil), p.requests...)
}

func (p *fakePortal) count(path string) int {
	n := 0
	for _, r := range p.recorded() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (p *fakePortal) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (p *fakePortal) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, portalRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Token:  r.Header.Get(xsrfHeader),
	})
	p.tokens++
	http.SetCookie(w, &http.Cookie{
		Name:  xsrfCookie,
		Value: fmt.Sprintf("tok-%d", p.tokens),
		Path:  "/",
	})

	switch {
	case r.URL.Path == "/ocapi/oauth/userdetails":
		if p.probeCode != 0 && !p.loggedIn {
			w.WriteHeader(p.probeCode)
			fmt.Fprint(w, p.probeBody)
			return
		}
		if !p.loggedIn {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, "state-abc,nonce-def")
			return
		}
		p.writeJSON(w, http.StatusOK, p.details)
	case r.URL.Path == "/openid/oauth/authorize":
		if p.authorizeTo != "" {
			http.Redirect(w, r, p.authorizeTo, http.StatusFound)
			return
		}
		http.Redirect(w, r, "/openid/login?lang=nl", http.StatusFound)
	case r.URL.Path == "/openid/login":
		if r.URL.Query().Has("authentication_error") {
			fmt.Fprint(w, `<html><body><div class="error"> Invalid username or password </div></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><form action="login.do"></form></body></html>`)
	case r.URL.Path == "/openid/login.do":
		_ = r.ParseForm()
		if r.PostForm.Get("j_username") != "jan@example.com" || r.PostForm.Get("j_password") != p.password {
			http.Redirect(w, r, "/openid/login?authentication_error=true", http.StatusFound)
			return
		}
		p.loggedIn = true
		http.Redirect(w, r, "/residential", http.StatusFound)
	case r.URL.Path == "/residential":
		fmt.Fprint(w, "<html></html>")
	case r.URL.Path == "/ocapi/public/":
		body, ok := p.legacy[r.URL.Query().Get("p")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		p.writeJSON(w, http.StatusOK, body)
	case strings.HasPrefix(r.URL.Path, "/ocapi/public/api/"):
		body, ok := p.nextgen[strings.TrimPrefix(r.URL.Path, "/ocapi/public/api/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		p.writeJSON(w, http.StatusOK, body)
	case strings.HasPrefix(r.URL.Path, "/catalog/"):
		body, ok := p.catalogs[strings.TrimPrefix(r.URL.Path, "/catalog/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		p.writeJSON(w, http.StatusOK, body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
