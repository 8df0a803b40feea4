package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coffee-pos/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name          string
		allowed       []string
		origin        string
		method        string
		wantStatus    int
		wantOrigin    string
		expectHandler bool
	}{
		{
			name:          "Wildcard preflight",
			allowed:       []string{"*"},
			origin:        "https://till.example",
			method:        http.MethodOptions,
			wantStatus:    http.StatusNoContent,
			wantOrigin:    "*",
			expectHandler: false,
		},
		{
			name:          "Listed origin is echoed",
			allowed:       []string{"https://till.example", "https://office.example"},
			origin:        "https://office.example",
			method:        http.MethodGet,
			wantStatus:    http.StatusOK,
			wantOrigin:    "https://office.example",
			expectHandler: true,
		},
		{
			name:          "Unlisted origin gets no allow header",
			allowed:       []string{"https://till.example"},
			origin:        "https://evil.example",
			method:        http.MethodPost,
			wantStatus:    http.StatusOK,
			wantOrigin:    "",
			expectHandler: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := CORS(tt.allowed)(okHandler(&called))

			req := httptest.NewRequest(tt.method, "/api/products", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.expectHandler, called)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	logger := zerolog.Nop()
	validAPIKey := "till-key-123"

	tests := []struct {
		name           string
		method         string
		path           string
		apiKey         string
		expectedStatus int
		expectHandler  bool
	}{
		{name: "Valid API key", method: http.MethodGet, path: "/api/products", apiKey: validAPIKey, expectedStatus: http.StatusOK, expectHandler: true},
		{name: "Invalid API key", method: http.MethodPost, path: "/api/orders", apiKey: "till-key-124", expectedStatus: http.StatusUnauthorized},
		{name: "Missing API key", method: http.MethodGet, path: "/api/orders", expectedStatus: http.StatusUnauthorized},
		{name: "Health check bypasses auth", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK, expectHandler: true},
		{name: "Preflight bypasses auth", method: http.MethodOptions, path: "/api/orders", expectedStatus: http.StatusOK, expectHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := APIKeyAuth(validAPIKey, logger)(okHandler(&called))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set(HeaderAPIKey, tt.apiKey)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, called)
			if w.Code == http.StatusUnauthorized {
				var body model.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, model.ErrCodeUnauthorised, body.Error)
				assert.False(t, body.OK)
			}
		})
	}
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	t.Run("Generated", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders", nil))

		id := w.Header().Get(HeaderRequestID)
		require.NotEmpty(t, id)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, id, entry["request_id"])
		assert.Equal(t, float64(http.StatusCreated), entry["status"])
		assert.Equal(t, "/api/orders", entry["path"])
	})

	t.Run("Propagated", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
		assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
	})
}

func TestLoggingErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name           string
		panicValue     any
		expectedStatus int
	}{
		{name: "No panic", expectedStatus: http.StatusOK},
		{name: "Panic with string", panicValue: "something went wrong", expectedStatus: http.StatusInternalServerError},
		{name: "Panic with error", panicValue: assert.AnError, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.panicValue != nil {
					panic(tt.panicValue)
				}
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.panicValue != nil {
				assert.Contains(t, w.Body.String(), model.ErrCodeInternalError)
				assert.NotContains(t, w.Body.String(), "something went wrong")
			}
		})
	}
}
