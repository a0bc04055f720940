package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "doctor", "nurse", "pharmacist", "patient"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("ParseRole(%q): unexpected error: %v", s, err)
		}
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestSession_HasRole(t *testing.T) {
	sess := &Session{UserID: "u1", Roles: []Role{RoleNurse}}
	if !sess.HasRole(RoleNurse) {
		t.Error("expected nurse session to have nurse role")
	}
	if sess.HasRole(RoleDoctor) {
		t.Error("nurse session should not have doctor role")
	}

	admin := &Session{UserID: "u2", Roles: []Role{RoleAdmin}}
	if !admin.HasRole(RoleDoctor) {
		t.Error("admin should satisfy any role check")
	}

	var nilSess *Session
	if nilSess.HasRole(RoleAdmin) {
		t.Error("nil session should have no roles")
	}
}

func signToken(t *testing.T, key []byte, roles []string, opts ...func(*Claims)) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	}
	for _, opt := range opts {
		opt(claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func doRequest(mw echo.MiddlewareFunc, header string) (*Session, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured *Session
	h := mw(func(c echo.Context) error {
		captured = SessionFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	return captured, h(c)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	key := []byte("test-key")
	tok := signToken(t, key, []string{"doctor"})

	sess, err := doRequest(JWTMiddleware(JWTConfig{SigningKey: key}), "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session on context")
	}
	if sess.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", sess.UserID)
	}
	if !sess.HasRole(RoleDoctor) {
		t.Error("expected doctor role")
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := doRequest(JWTMiddleware(JWTConfig{SigningKey: []byte("k")}), "")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	tok := signToken(t, []byte("key-a"), []string{"admin"})
	_, err := doRequest(JWTMiddleware(JWTConfig{SigningKey: []byte("key-b")}), "Bearer "+tok)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_UnknownRolesDropped(t *testing.T) {
	key := []byte("test-key")
	tok := signToken(t, key, []string{"doctor", "wizard"})

	sess, err := doRequest(JWTMiddleware(JWTConfig{SigningKey: key}), "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sess.Roles) != 1 || sess.Roles[0] != RoleDoctor {
		t.Errorf("expected only doctor role, got %v", sess.Roles)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	sess, err := doRequest(DevAuthMiddleware(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess == nil || !sess.HasRole(RoleAdmin) {
		t.Error("expected admin dev session")
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(sess *Session, roles ...Role) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if sess != nil {
			req = req.WithContext(WithSession(req.Context(), sess))
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := RequireRole(roles...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		return h(c)
	}

	if err := run(&Session{Roles: []Role{RolePharmacist}}, RolePharmacist); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := run(&Session{Roles: []Role{RolePatient}}, RoleDoctor, RoleNurse)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}

	err = run(nil, RoleDoctor)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
