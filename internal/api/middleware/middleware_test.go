package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabforge/vocab-api/internal/api/middleware"
	"github.com/vocabforge/vocab-api/internal/api/shared"
	"github.com/vocabforge/vocab-api/internal/mocks"
	"github.com/vocabforge/vocab-api/internal/service/auth"
)

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name        string
		header      string
		validateErr error
		wantStatus  int
		wantBody    string
	}{
		{name: "valid token", header: "Bearer good-token", wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good-token", wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantBody: "Authorization header required"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: "Invalid authorization format"},
		{name: "no token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantBody: "Invalid authorization format"},
		{
			name:        "expired token",
			header:      "Bearer old",
			validateErr: auth.ErrExpiredToken,
			wantStatus:  http.StatusUnauthorized,
			wantBody:    "Token expired",
		},
		{
			name:        "invalid token",
			header:      "Bearer bad",
			validateErr: auth.ErrInvalidToken,
			wantStatus:  http.StatusUnauthorized,
			wantBody:    "Invalid token",
		},
		{
			name:        "wrong token type",
			header:      "Bearer refresh",
			validateErr: auth.ErrWrongTokenType,
			wantStatus:  http.StatusUnauthorized,
			wantBody:    "Invalid token",
		},
		{
			name:        "unexpected failure",
			header:      "Bearer x",
			validateErr: errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantBody:    "Authentication error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtService := mocks.NewMockJWTServiceFor(userID)
			jwtService.ValidateErr = tt.validateErr

			var gotUserID uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = shared.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/progress/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			middleware.NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotUserID)
			} else {
				assert.Contains(t, w.Body.String(), tt.wantBody)
				assert.Equal(t, uuid.Nil, gotUserID)
			}
		})
	}
}

func TestAuthenticate_PassesTokenToService(t *testing.T) {
	var gotToken string
	jwtService := &mocks.MockJWTService{
		ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
			gotToken = token
			return &auth.Claims{UserID: uuid.New()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer  abc.def.ghi ")
	w := httptest.NewRecorder()

	middleware.NewAuthMiddleware(jwtService).
		Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(w, req)

	assert.Equal(t, "abc.def.ghi", gotToken)
}

func TestTraceMiddleware(t *testing.T) {
	var gotTraceID string
	handler := middleware.NewTraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = shared.GetTraceID(r.Context())
	}))

	t.Run("generates a trace id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Len(t, gotTraceID, 32)
		assert.Equal(t, gotTraceID, w.Header().Get(shared.TraceIDHeader))
	})

	t.Run("reuses a well-formed client trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(shared.TraceIDHeader, "client-trace-0001")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "client-trace-0001", gotTraceID)
		assert.Equal(t, "client-trace-0001", w.Header().Get(shared.TraceIDHeader))
	})

	t.Run("replaces a malformed client trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(shared.TraceIDHeader, "bad id <script>")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Len(t, gotTraceID, 32)
		assert.NotEqual(t, "bad id <script>", gotTraceID)
	})
}
