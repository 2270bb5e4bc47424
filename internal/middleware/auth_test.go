package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func passthrough(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestSharedKeyAuth(t *testing.T) {
	t.Run("open when unconfigured", func(t *testing.T) {
		var called bool
		h := SharedKeyAuth("")(passthrough(&called))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", nil))
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		var called bool
		h := SharedKeyAuth("secret")(passthrough(&called))
		req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects missing key", func(t *testing.T) {
		var called bool
		h := SharedKeyAuth("secret")(passthrough(&called))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", nil))
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts matching key", func(t *testing.T) {
		var called bool
		h := SharedKeyAuth("secret")(passthrough(&called))
		req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
		req.Header.Set("X-API-Key", "secret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.True(t, called)
	})
}

func TestBearerAuth(t *testing.T) {
	tokens := map[string]string{"tok-alice": "alice"}

	t.Run("resolves owner into context", func(t *testing.T) {
		var owner string
		h := BearerAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner = GetOwnerFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.Header.Set("Authorization", "Bearer tok-alice")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "alice", owner)
	})

	t.Run("bare token accepted", func(t *testing.T) {
		var owner string
		h := BearerAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner = GetOwnerFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.Header.Set("Authorization", "tok-alice")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "alice", owner)
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		var called bool
		h := BearerAuth(tokens)(passthrough(&called))
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		var called bool
		h := BearerAuth(tokens)(passthrough(&called))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetOwnerFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetOwnerFromContext(req.Context()))
}
