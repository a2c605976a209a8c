// Package session holds the credential stores shared by the gate and the
// session materializer.
package session

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

const DefaultCookieName = "token"

// CookieOptions describes the credential cookie.
type CookieOptions struct {
	Name     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	MaxAge   time.Duration
}

// CookieStore is a per-request view of the credential cookie. Reads come
// from the request; writes are emitted as Set-Cookie headers on the
// response. Once cleared, the store stays empty for the rest of the request.
type CookieStore struct {
	opts CookieOptions
	w    http.ResponseWriter

	mu      sync.Mutex
	value   string
	present bool
	cleared bool
}

// NewCookieStore reads the credential cookie from r and writes changes to w.
func NewCookieStore(r *http.Request, w http.ResponseWriter, opts CookieOptions) *CookieStore {
	if opts.Name == "" {
		opts.Name = DefaultCookieName
	}
	s := &CookieStore{opts: opts, w: w}
	if c, err := r.Cookie(opts.Name); err == nil && strings.TrimSpace(c.Value) != "" {
		s.value, s.present = c.Value, true
	}
	return s
}

func (s *CookieStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.present
}

// Set replaces the credential. It is ignored after Clear.
func (s *CookieStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleared {
		return
	}
	s.value, s.present = token, token != ""

	c := s.cookie(token)
	if s.opts.MaxAge > 0 {
		c.MaxAge = int(s.opts.MaxAge / time.Second)
		c.Expires = time.Now().Add(s.opts.MaxAge)
	}
	http.SetCookie(s.w, c)
}

// Clear removes the credential and expires the cookie on the client.
func (s *CookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleared {
		return
	}
	s.cleared = true
	s.value, s.present = "", false

	c := s.cookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(s.w, c)
}

// Cleared reports whether Clear was called during this request.
func (s *CookieStore) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

func (s *CookieStore) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.Name,
		Value:    value,
		Path:     "/",
		Domain:   s.opts.Domain,
		Secure:   s.opts.Secure,
		HttpOnly: s.opts.HTTPOnly,
		SameSite: http.SameSiteLaxMode,
	}
}
