package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 6.67, Round2(2.0/3.0*10))
	assert.Equal(t, 3.33, Round2(1.0/3.0*10))
	assert.Equal(t, 10.0, Round2(10))
	assert.Equal(t, 0.0, Round2(0))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****wxyz", MaskSecret("sk-abcdwxyz"))
}

func TestPaginate(t *testing.T) {
	limit, offset := Paginate(0, 0)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	limit, offset = Paginate(3, 500)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 200, offset)
}

func TestContextLoggerAddsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	r.Use(ContextLogger(logger))
	r.Use(LoggerMiddleware(logger))
	r.GET("/ping", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var access map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "req-42", access["request_id"])
	assert.Equal(t, "WARN", access["level"])
	assert.EqualValues(t, http.StatusTeapot, access["status"])
}
