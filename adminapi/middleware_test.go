package adminapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testTokenTTL = time.Hour

func TestAuthRejectsMissingToken(t *testing.T) {
	verifier := NewTokenVerifier("secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shards", nil)
	w := httptest.NewRecorder()
	Auth(verifier)(next).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAcceptsValidToken(t *testing.T) {
	verifier := NewTokenVerifier("secret")
	token, err := verifier.IssueToken("op", testTokenTTL)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	Auth(verifier)(next).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthExemptsHealthz(t *testing.T) {
	verifier := NewTokenVerifier("secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	Auth(verifier)(next).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryConvertsPanicToInternalError(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shards", nil)
	w := httptest.NewRecorder()
	Recovery(zaptest.NewLogger(t))(panicky).ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSHandlesPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/shards", nil)
	w := httptest.NewRecorder()
	CORS(next).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
