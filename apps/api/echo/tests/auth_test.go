package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func TestHome(t *testing.T) {
	f := setup(t)
	rec := f.do(http.MethodGet, "/", "")
	wantCode(t, rec, http.StatusOK)
	if got := rec.Body.String(); got != "Welcome to Shule API!" {
		t.Errorf("body = %q", got)
	}
}

func TestAuthLogin(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.usrRepo, "Gone", "gone", "gone@test.cd", testPassword, user.RoleStaff, false)

	t.Run("ok", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"username": "admin", "password": testPassword})
		rec := f.do(http.MethodPost, "/v1/auth/login", "", body)
		wantCode(t, rec, http.StatusOK)

		var pair user.TokenPair
		decode(t, rec, &pair)
		if pair.Access == "" || pair.Refresh == "" {
			t.Fatalf("incomplete token pair: %+v", pair)
		}
		if _, err := user.VerifyToken(pair.Access, user.TokenUseAccess); err != nil {
			t.Errorf("access token does not verify: %v", err)
		}
		if _, err := user.VerifyToken(pair.Refresh, user.TokenUseRefresh); err != nil {
			t.Errorf("refresh token does not verify: %v", err)
		}
	})

	t.Run("email works as username", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"username": "admin@test.cd", "password": testPassword})
		rec := f.do(http.MethodPost, "/v1/auth/login", "", body)
		wantCode(t, rec, http.StatusOK)
	})

	invalidCreds := []struct {
		name, username, password string
	}{
		{"wrong password", "admin", "not-the-password"},
		{"unknown user", "nobody", testPassword},
		{"deactivated user", "gone", testPassword},
	}
	for _, tc := range invalidCreds {
		t.Run(tc.name, func(t *testing.T) {
			body := marshallObj(t, map[string]string{"username": tc.username, "password": tc.password})
			rec := f.do(http.MethodPost, "/v1/auth/login", "", body)
			wantCode(t, rec, http.StatusBadRequest)

			var resp httpErr
			decode(t, rec, &resp)
			if resp.Error != "invalid credentials" {
				t.Errorf("error = %q, want %q", resp.Error, "invalid credentials")
			}
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/auth/login", "", []byte("{}"))
		wantCode(t, rec, http.StatusBadRequest)
	})
}

func TestAuthTokenRefresh(t *testing.T) {
	f := setup(t)

	pair, err := user.IssueTokens(f.s1Usr)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("rotation", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"refresh": pair.Refresh})
		rec := f.do(http.MethodPost, "/v1/auth/token-refresh", "", body)
		wantCode(t, rec, http.StatusOK)

		var fresh user.TokenPair
		decode(t, rec, &fresh)
		if fresh.Access == "" || fresh.Refresh == "" {
			t.Fatalf("incomplete token pair: %+v", fresh)
		}

		// the used refresh token is superseded
		rec = f.do(http.MethodPost, "/v1/auth/token-refresh", "", body)
		wantCode(t, rec, http.StatusUnauthorized)

		// the fresh one still rotates
		body = marshallObj(t, map[string]string{"refresh": fresh.Refresh})
		rec = f.do(http.MethodPost, "/v1/auth/token-refresh", "", body)
		wantCode(t, rec, http.StatusOK)
	})

	t.Run("access token rejected", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"refresh": pair.Access})
		rec := f.do(http.MethodPost, "/v1/auth/token-refresh", "", body)
		wantCode(t, rec, http.StatusUnauthorized)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		body := marshallObj(t, map[string]string{"refresh": "not.a.token"})
		rec := f.do(http.MethodPost, "/v1/auth/token-refresh", "", body)
		wantCode(t, rec, http.StatusUnauthorized)
	})
}

func TestAuthRequired(t *testing.T) {
	f := setup(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/students", "")
		wantCode(t, rec, http.StatusUnauthorized)

		var resp httpErr
		decode(t, rec, &resp)
		if resp != errMissingToken {
			t.Errorf("body = %+v, want %+v", resp, errMissingToken)
		}
	})

	t.Run("refresh token is no bearer token", func(t *testing.T) {
		pair, err := user.IssueTokens(f.s1Usr)
		if err != nil {
			t.Fatal(err)
		}
		rec := f.do(http.MethodGet, "/v1/students", pair.Refresh)
		wantCode(t, rec, http.StatusUnauthorized)
	})

	t.Run("deactivated user", func(t *testing.T) {
		usr := testutil.CreateUser(t, f.usrRepo, "Left", "left", "left@test.cd", testPassword, user.RoleStaff, false)
		rec := f.do(http.MethodGet, "/v1/students", f.token(t, usr))
		wantCode(t, rec, http.StatusUnauthorized)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := user.User{ID: "u-ghost", Username: "ghost", Role: user.RoleStaff, IsActive: true}
		rec := f.do(http.MethodGet, "/v1/students", f.token(t, ghost))
		wantCode(t, rec, http.StatusUnauthorized)
	})
}
