package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareMintsCookie(t *testing.T) {
	t.Parallel()

	var gotID string
	handler := Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = IdentityIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !anonIDPattern.MatchString(gotID) {
		t.Fatalf("expected a minted anon id, got %q", gotID)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AnonCookieName || cookies[0].Value != gotID {
		t.Errorf("expected identity cookie to be set, got %+v", cookies)
	}
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	t.Parallel()

	const id = "anon_0123456789abcdef0123456789abcdef"

	var gotID string
	handler := Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = IdentityIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: id})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotID != id {
		t.Errorf("expected existing identity to be reused, got %q", gotID)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("no new cookie should be set when a valid one exists")
	}
}

func TestMiddlewareRejectsMalformedCookie(t *testing.T) {
	t.Parallel()

	var gotID string
	handler := Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = IdentityIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "../../etc/passwd"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotID == "../../etc/passwd" {
		t.Fatal("malformed cookie value must not be accepted")
	}
	if !anonIDPattern.MatchString(gotID) {
		t.Errorf("expected a freshly minted id, got %q", gotID)
	}
}
