package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

type fakeParser map[string]*casdoorsdk.Claims

func (f fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, errors.New("bad signature")
}

func TestCasdoorAuthMiddleware(t *testing.T) {
	parser := fakeParser{
		"known":   {User: casdoorsdk.User{Id: "t1"}},
		"unknown": {User: casdoorsdk.User{Id: "new", Email: "moi@school.vn", Type: "giáo viên"}},
		"no-id":   {User: casdoorsdk.User{}},
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	auth := newCasdoorAuthMiddleware(parser, testUsers, logger)

	router := gin.New()
	router.GET("/me", auth.AuthMiddleware(), func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, user)
	})
	router.GET("/maybe", auth.OptionalAuthMiddleware(), func(c *gin.Context) {
		_, err := GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": err == nil})
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		body   string
	}{
		{"missing header", "/me", "", http.StatusUnauthorized, "authorization header missing"},
		{"wrong scheme", "/me", "Basic known", http.StatusUnauthorized, "invalid authorization header format"},
		{"bad token", "/me", "Bearer forged", http.StatusUnauthorized, "invalid token"},
		{"no user id", "/me", "Bearer no-id", http.StatusUnauthorized, "no user id"},
		{"known user", "/me", "Bearer known", http.StatusOK, `"email":"gv1@school.vn"`},
		{"claims fallback", "/me", "bearer unknown", http.StatusOK, `"role":"teacher"`},
		{"optional without token", "/maybe", "", http.StatusOK, `"authenticated":false`},
		{"optional with token", "/maybe", "Bearer known", http.StatusOK, `"authenticated":true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role models.UserRole
		want int
	}{
		{models.RoleTeacher, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
		{models.RoleStudent, http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) {
				if tt.role != "" {
					c.Set(ctxUserRole, tt.role)
				}
				c.Next()
			}, RequireRole(models.RoleTeacher), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
