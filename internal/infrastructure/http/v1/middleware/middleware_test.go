package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"partsflow/internal/core/apperror"
	appctx "partsflow/internal/core/context"
	"partsflow/internal/infrastructure/storage/postgres"
	"partsflow/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler())
	r.GET("/not-found", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("sales order", "42"))
	})
	r.GET("/internal", func(c *gin.Context) {
		_ = c.Error(apperror.NewInternal(errors.New("connection reset")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
		_ = c.Error(errors.New("late"))
	})

	t.Run("app error keeps code and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/not-found", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperror.CodeNotFound, decodeError(t, w).Code)
	})

	t.Run("internal error is masked", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/internal", nil)
		req.Header.Set(HeaderRequestID, "req-1")
		r.ServeHTTP(w, req)

		body := decodeError(t, w)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", body.Message)
		assert.Equal(t, "req-1", body.Details["request_id"])
		assert.NotContains(t, w.Body.String(), "connection reset")
	})

	t.Run("unknown error becomes 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apperror.CodeInternal, decodeError(t, w).Code)
	})

	t.Run("written response is left alone", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/written", nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	r := gin.New()
	r.Use(ErrorHandler(), func(c *gin.Context) {
		ctx := logger.WithLogger(c.Request.Context(), log)
		ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "trace-1", RequestID: "req-1"})
		ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "clerk-7"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, Recovery())
	r.GET("/orders/:id", func(c *gin.Context) {
		panic("nil map")
	})
	r.GET("/abort", func(c *gin.Context) {
		panic(http.ErrAbortHandler)
	})

	t.Run("responds 500 without internals", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "nil map")
	})

	t.Run("logs route caller and trace", func(t *testing.T) {
		entries := logs.FilterMessage("handler panicked").All()
		require.Len(t, entries, 1)

		fields := entries[0].ContextMap()
		assert.Equal(t, "nil map", fields["panic"])
		assert.Equal(t, http.MethodGet, fields["method"])
		assert.Equal(t, "/orders/:id", fields["route"])
		assert.Equal(t, "clerk-7", fields["actor"])
		assert.Equal(t, "clerk-7", fields["user_id"])
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "trace-1", fields["trace_id"])
		assert.Contains(t, fields["stack"], "runtime/debug.Stack")
	})

	t.Run("abort handler panics through", func(t *testing.T) {
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
		})
	})
}

func TestTrace(t *testing.T) {
	r := gin.New()
	r.Use(Trace())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetRequestID(c.Request.Context()))
	})

	t.Run("propagates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "abc")
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc", w.Body.String())
		assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
	})

	t.Run("generates ids", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.NotEmpty(t, w.Body.String())
		assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
	})
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(false))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
}

type stubValidator struct {
	token string
	user  *appctx.UserContext
}

func (v stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != v.token {
		return nil, errors.New("bad token")
	}
	return v.user, nil
}

func TestAuth(t *testing.T) {
	validator := stubValidator{
		token: "good",
		user:  &appctx.UserContext{UserID: "u-1", Roles: []string{"sales"}},
	}

	r := gin.New()
	r.Use(ErrorHandler(), Auth(validator))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", status: http.StatusOK, body: "u-1"},
		{name: "scheme is case insensitive", header: "bearer good", status: http.StatusOK, body: "u-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	validator := stubValidator{token: "clerk", user: &appctx.UserContext{UserID: "u-2", Roles: []string{"sales"}}}
	keeper := stubValidator{token: "keeper", user: &appctx.UserContext{UserID: "u-3", Roles: []string{RoleWarehouse}}}

	newEngine := func(v JWTValidator) *gin.Engine {
		r := gin.New()
		r.Use(ErrorHandler(), Auth(v))
		r.POST("/returns/approve", RequireRole(RoleAdmin, RoleWarehouse), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	t.Run("missing role is forbidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/returns/approve", nil)
		req.Header.Set("Authorization", "Bearer clerk")
		newEngine(validator).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.CodeForbidden, decodeError(t, w).Code)
	})

	t.Run("any listed role passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/returns/approve", nil)
		req.Header.Set("Authorization", "Bearer keeper")
		newEngine(keeper).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("without auth the caller is unknown", func(t *testing.T) {
		r := gin.New()
		r.Use(ErrorHandler())
		r.POST("/returns/approve", RequireRole(RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/returns/approve", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// memoryIdempotencyStore mirrors the key lifecycle of the postgres store.
type memoryIdempotencyStore struct {
	mu       sync.Mutex
	pending  map[string]bool
	finished map[string]*postgres.IdempotencyReplay
	hashes   map[string]string
	released []string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{
		pending:  make(map[string]bool),
		finished: make(map[string]*postgres.IdempotencyReplay),
		hashes:   make(map[string]string),
	}
}

func (s *memoryIdempotencyStore) AcquireKey(_ context.Context, key, _, operation, requestHash string) (*postgres.IdempotencyReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.hashes[key]; ok && h != operation+requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if replay, ok := s.finished[key]; ok {
		return replay, nil
	}
	if s.pending[key] {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	s.pending[key] = true
	s.hashes[key] = operation + requestHash
	return nil, nil
}

func (s *memoryIdempotencyStore) finish(key string, status int, contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	s.finished[key] = &postgres.IdempotencyReplay{
		StatusCode:  status,
		ContentType: contentType,
		Body:        append([]byte(nil), body...),
	}
}

func (s *memoryIdempotencyStore) CompleteKey(_ context.Context, key string, status int, contentType string, body []byte) error {
	s.finish(key, status, contentType, body)
	return nil
}

func (s *memoryIdempotencyStore) FailKey(_ context.Context, key string, status int, contentType string, body []byte) error {
	s.finish(key, status, contentType, body)
	return nil
}

func (s *memoryIdempotencyStore) ReleaseKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	delete(s.hashes, key)
	s.released = append(s.released, key)
	return nil
}

func TestIdempotency(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0

	r := gin.New()
	r.Use(ErrorHandler(), Idempotency(store))
	r.POST("/orders", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"number": "SO-202503-0001", "call": calls})
	})
	r.POST("/rejected", func(c *gin.Context) {
		calls++
		_ = c.Error(apperror.NewInsufficientStock("BRK-001", 5, 2))
	})
	r.POST("/broken", func(c *gin.Context) {
		calls++
		_ = c.Error(errors.New("db down"))
	})

	post := func(path, key, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("success is replayed", func(t *testing.T) {
		calls = 0
		first := post("/orders", "k-1", `{"a":1}`)
		second := post("/orders", "k-1", `{"a":1}`)

		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, 1, calls)
	})

	t.Run("different body with same key is rejected", func(t *testing.T) {
		w := post("/orders", "k-1", `{"a":2}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("business failure is stored", func(t *testing.T) {
		calls = 0
		first := post("/rejected", "k-2", `{}`)
		second := post("/rejected", "k-2", `{}`)

		assert.Equal(t, apperror.CodeInsufficientStock, decodeError(t, first).Code)
		assert.Equal(t, first.Code, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, 1, calls)
	})

	t.Run("server failure releases key", func(t *testing.T) {
		calls = 0
		first := post("/broken", "k-3", `{}`)
		second := post("/broken", "k-3", `{}`)

		assert.Equal(t, http.StatusInternalServerError, first.Code)
		assert.Equal(t, http.StatusInternalServerError, second.Code)
		assert.Equal(t, 2, calls)
		assert.Contains(t, store.released, "k-3")
	})

	t.Run("no key passes through", func(t *testing.T) {
		calls = 0
		post("/orders", "", `{}`)
		post("/orders", "", `{}`)
		assert.Equal(t, 2, calls)
	})
}
