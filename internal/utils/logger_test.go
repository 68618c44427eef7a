package utils

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Same(t, slog.Default(), GetLoggerFromContext(c))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c.Set("logger", logger)
	assert.Same(t, logger, GetLoggerFromContext(c))
}

func TestContextLogger_AttachesRequestScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req, err := http.NewRequest(http.MethodGet, "/api/v1/quizzes", nil)
	require.NoError(t, err)
	c.Request = req

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ContextLogger(logger)(c)

	scoped := GetLoggerFromContext(c)
	assert.NotSame(t, slog.Default(), scoped)
	assert.NotSame(t, logger, scoped)
}
