package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/customcraft/internal/auth"
	"github.com/MrJamesThe3rd/customcraft/internal/http/middleware"
)

func TestRequireAdmin(t *testing.T) {
	token, err := auth.IssueToken("token-secret", time.Minute)
	require.NoError(t, err)

	type testCase struct {
		name       string
		header     string
		value      string
		wantStatus int
	}

	tests := []testCase{
		{name: "AdminKeyHeader", header: middleware.AdminKeyHeader, value: "SpinjistuMaster", wantStatus: http.StatusOK},
		{name: "BearerKey", header: "Authorization", value: "Bearer SpinjistuMaster", wantStatus: http.StatusOK},
		{name: "BearerToken", header: "Authorization", value: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "WrongKey", header: middleware.AdminKeyHeader, value: "guess", wantStatus: http.StatusUnauthorized},
		{name: "NoCredential", wantStatus: http.StatusUnauthorized},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middleware.RequireAdmin(auth.New("SpinjistuMaster", "token-secret"))(next)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestNewStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := chimw.RequestID(middleware.NewStructuredLogger(logger)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}),
	))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/test-rcon", nil))

	var entry struct {
		Level   string `json:"level"`
		Msg     string `json:"msg"`
		Request struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"request"`
		Response struct {
			Status int `json:"status"`
		} `json:"response"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "server error", entry.Msg)
	assert.Equal(t, "/api/test-rcon", entry.Request.Path)
	assert.NotEmpty(t, entry.Request.ID)
	assert.Equal(t, http.StatusBadGateway, entry.Response.Status)
}
