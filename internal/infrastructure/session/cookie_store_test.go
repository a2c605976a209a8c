package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCookieStore_ReadsRequestCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/owner/cars", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	rec := httptest.NewRecorder()

	store := NewCookieStore(req, rec, CookieOptions{})

	v, ok := store.Get()
	if !ok || v != "abc" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("reading must not write cookies")
	}
}

func TestCookieStore_EmptyCookieIsAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: " "})

	store := NewCookieStore(req, httptest.NewRecorder(), CookieOptions{Name: "session"})

	if _, ok := store.Get(); ok {
		t.Fatal("expected blank cookie to be treated as absent")
	}
}

func TestCookieStore_ClearExpiresCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	rec := httptest.NewRecorder()
	store := NewCookieStore(req, rec, CookieOptions{Secure: true})

	store.Clear()
	store.Clear()

	if _, ok := store.Get(); ok {
		t.Fatal("expected store to be empty after Clear")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected a single Set-Cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "token" || c.Value != "" || c.MaxAge >= 0 || c.Path != "/" || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected clearing cookie %+v", c)
	}
}

func TestCookieStore_SetIgnoredAfterClear(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "old"})
	rec := httptest.NewRecorder()
	store := NewCookieStore(req, rec, CookieOptions{})

	store.Clear()
	store.Set("new")

	if _, ok := store.Get(); ok {
		t.Fatal("Set after Clear must not restore the credential")
	}
	if !store.Cleared() {
		t.Fatal("expected Cleared() to report true")
	}
	if n := len(rec.Result().Cookies()); n != 1 {
		t.Fatalf("expected only the clearing cookie, got %d", n)
	}
}

func TestCookieStore_Set(t *testing.T) {
	rec := httptest.NewRecorder()
	store := NewCookieStore(httptest.NewRequest(http.MethodGet, "/", nil), rec, CookieOptions{HTTPOnly: true})

	store.Set("fresh")

	if v, ok := store.Get(); !ok || v != "fresh" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "fresh" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("")
	if _, ok := store.Get(); ok {
		t.Fatal("expected empty store")
	}
	store.Set("abc")
	if v, ok := store.Get(); !ok || v != "abc" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}
	store.Clear()
	store.Clear()
	if _, ok := store.Get(); ok {
		t.Fatal("expected empty store after Clear")
	}
}
