package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/config"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
)

type stubRevocations struct {
	revoked bool
	err     error
	calls   []string
}

func (s *stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.calls = append(s.calls, jti)
	return s.revoked, s.err
}

func testConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "library", ExpirationMinutes: 30}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test", Output: &bytes.Buffer{}})
}

func mintToken(t *testing.T, payload pkgAuth.AccessTokenPayload) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig(), time.Now(), payload)
	require.NoError(t, err)
	return token
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"user_id": p.UserID, "is_staff": p.IsStaff})
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthenticatePassesGuestsThrough(t *testing.T) {
	h := Authenticate(testConfig(), nil, testLogger())(principalEcho())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthenticateSeedsPrincipal(t *testing.T) {
	userID := uuid.New()
	revocations := &stubRevocations{}
	h := Authenticate(testConfig(), revocations, testLogger())(principalEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, pkgAuth.AccessTokenPayload{UserID: userID, IsStaff: true, JTI: "jti-1"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"`+userID.String()+`","is_staff":true}`, rec.Body.String())
	assert.Equal(t, []string{"jti-1"}, revocations.calls)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	cases := map[string]string{
		"garbage": "Bearer not-a-jwt",
		"empty":   "Bearer ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			h := Authenticate(testConfig(), nil, testLogger())(principalEcho())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
		})
	}
}

func TestAuthenticateRejectsRevokedTokens(t *testing.T) {
	token := mintToken(t, pkgAuth.AccessTokenPayload{UserID: uuid.New()})

	h := Authenticate(testConfig(), &stubRevocations{revoked: true}, testLogger())(principalEcho())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h = Authenticate(testConfig(), &stubRevocations{err: errors.New("redis down")}, testLogger())(principalEcho())
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAuthAndStaff(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	member := WithPrincipal(context.Background(), pkgAuth.Principal{UserID: uuid.New()})
	staff := WithPrincipal(context.Background(), pkgAuth.Principal{UserID: uuid.New(), IsStaff: true})

	cases := []struct {
		name    string
		handler http.Handler
		ctx     context.Context
		want    int
	}{
		{"auth guest", RequireAuth(nil)(ok), context.Background(), http.StatusUnauthorized},
		{"auth member", RequireAuth(nil)(ok), member, http.StatusOK},
		{"staff guest", RequireStaff(nil)(ok), context.Background(), http.StatusUnauthorized},
		{"staff member", RequireStaff(nil)(ok), member, http.StatusForbidden},
		{"staff staff", RequireStaff(nil)(ok), staff, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tc.ctx)
			tc.handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	h := RequestID(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-1")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get("X-Request-Id"))
	assert.NoError(t, err)
}

func TestRecovererWritesInternalError(t *testing.T) {
	h := Recoverer(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rec))
}

func TestLoggingRecordsStatus(t *testing.T) {
	var out bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &out})
	h := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, out.String(), `"status":418`)
	assert.Contains(t, out.String(), `"path":"/books"`)
}
