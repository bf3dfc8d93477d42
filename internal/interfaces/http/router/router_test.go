package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"z-novel-assistant/internal/config"
	"z-novel-assistant/internal/interfaces/http/handler"
	"z-novel-assistant/pkg/utils"
)

func newTestRouter() *Router {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.App.Name = "z-novel-assistant"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"

	return New(cfg, utils.NewJWTManager("secret", "z-novel"), Handlers{
		Health:    handler.NewHealthHandler("test"),
		Assistant: handler.NewAssistantHandler(nil, nil, nil),
	})
}

func TestRouter_Endpoints(t *testing.T) {
	r := newTestRouter().Engine()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/v1/assistant/stream", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
