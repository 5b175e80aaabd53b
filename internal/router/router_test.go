package router_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/router"
	"github.com/tableside/console/internal/ws"
)

type stubSession struct{ token string }

func (s *stubSession) Authenticated() bool      { return s.token != "" }
func (s *stubSession) Start(token string) error { s.token = token; return nil }
func (s *stubSession) Clear() error             { s.token = ""; return nil }

func newRouter(session *stubSession) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	hub := ws.NewHub(log)
	return router.New(router.Deps{
		Session: session,
		WS:      ws.NewServer(hub, session, nil),
		Origins: []string{"http://localhost:5173"},
		Log:     log,
	})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
	return rr
}

func TestHealth(t *testing.T) {
	rr := get(newRouter(&stubSession{}), "/health")

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestUnknownPathRedirectsToLogin(t *testing.T) {
	rr := get(newRouter(&stubSession{token: "tok"}), "/nowhere")

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Errorf("got %d %q, want 303 /login", rr.Code, rr.Header().Get("Location"))
	}
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	h := newRouter(&stubSession{})

	for _, path := range []string{"/dashboard", "/staff", "/admin/items/", "/admin/categories/"} {
		rr := get(h, path)
		if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
			t.Errorf("%s: got %d %q, want 303 /login", path, rr.Code, rr.Header().Get("Location"))
		}
	}
}

func TestStaffSocketRejectsWithoutSession(t *testing.T) {
	rr := get(newRouter(&stubSession{}), "/ws/staff")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newRouter(&stubSession{})
	req := httptest.NewRequest("OPTIONS", "/staff", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin: got %q", got)
	}
}
