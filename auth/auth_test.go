package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func sessionRequest(t *testing.T, uid uint) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, uid)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	defer SetSecret("")

	uid, ok := ParseSession(sessionRequest(t, 42))
	if !ok || uid != 42 {
		t.Fatalf("expected uid 42, got %d ok=%v", uid, ok)
	}
}

func TestSessionTamperedSignature(t *testing.T) {
	SetSecret("test-secret")
	defer SetSecret("")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "1.9999999999.bogus"})
	if _, ok := ParseSession(req); ok {
		t.Fatal("tampered cookie should be rejected")
	}
}

func TestSessionExpired(t *testing.T) {
	SetSecret("test-secret")
	defer SetSecret("")

	req := sessionRequest(t, 7)
	now = func() time.Time { return time.Now().Add(SessionTTL + time.Hour) }
	defer func() { now = time.Now }()
	if _, ok := ParseSession(req); ok {
		t.Fatal("expired session should be rejected")
	}
}

func TestSessionWrongSecret(t *testing.T) {
	SetSecret("one")
	req := sessionRequest(t, 3)
	SetSecret("two")
	defer SetSecret("")
	if _, ok := ParseSession(req); ok {
		t.Fatal("session signed with another secret should be rejected")
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("redirect html", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contratos", nil))
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("json 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/contratos", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("verifier rejects", func(t *testing.T) {
		SetUserVerifier(func(context.Context, uint) bool { return false })
		defer SetUserVerifier(nil)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), 5))
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), 5))
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusTeapot {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	})
}

func TestCheckNewPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		want     error
	}{
		{"mismatch", "abcdef", "abcdeg", ErrPasswordMismatch},
		{"too short", "abc", "abc", ErrPasswordTooShort},
		{"ok", "abcdef", "abcdef", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckNewPassword(tt.password, tt.confirm); got != tt.want {
				t.Errorf("CheckNewPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashAndCompare(t *testing.T) {
	h, err := HashPassword("segredo")
	if err != nil {
		t.Fatal(err)
	}
	if !ComparePassword(h, "segredo") {
		t.Fatal("expected password to match")
	}
	if ComparePassword(h, "outro") {
		t.Fatal("expected mismatch")
	}
}

func TestRandomTokenUnique(t *testing.T) {
	a, _ := RandomToken(32)
	b, _ := RandomToken(32)
	if a == "" || a == b {
		t.Fatalf("tokens should be non-empty and distinct: %q %q", a, b)
	}
	if HashToken(a) == a || len(HashToken(a)) != 64 {
		t.Fatalf("unexpected token hash %q", HashToken(a))
	}
}
