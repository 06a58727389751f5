package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/config"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// Context keys written by the auth middleware.
const (
	ctxUserID    = "user_id"
	ctxUser      = "user"
	ctxUserRole  = "user_role"
	ctxUserEmail = "user_email"
)

type tokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorAuthMiddleware authenticates bearer tokens issued by Casdoor.
type CasdoorAuthMiddleware struct {
	parser   tokenParser
	userRepo repositories.UserRepository
	logger   utils.Logger
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return newCasdoorAuthMiddleware(client, userRepo, logger)
}

func newCasdoorAuthMiddleware(parser tokenParser, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{
		parser:   parser,
		userRepo: userRepo,
		logger:   logger,
	}
}

// AuthMiddleware rejects requests without a valid token.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		claims, err := cam.parser.ParseJwtToken(token)
		if err != nil {
			utils.FromGin(c, cam.logger).Debug("Rejected token", "error", err)
			abortUnauthorized(c, "invalid token")
			return
		}

		user, err := cam.resolveUser(c.Request.Context(), claims)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present and
// lets the request through otherwise.
func (cam *CasdoorAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.Next()
			return
		}
		claims, err := cam.parser.ParseJwtToken(token)
		if err != nil {
			c.Next()
			return
		}
		if user, err := cam.resolveUser(c.Request.Context(), claims); err == nil {
			SetUser(c, user)
		}
		c.Next()
	}
}

func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return RequireRole(roles...)
}

// RequireRole lets through the listed roles. Admins always pass.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden", Details: err.Error()})
			return
		}
		if role != models.RoleAdmin && !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Forbidden",
				Details: fmt.Sprintf("insufficient permissions, required role: %v", roles),
			})
			return
		}
		c.Next()
	}
}

// resolveUser prefers the account from the identity provider and falls back
// to the claims when the lookup fails.
func (cam *CasdoorAuthMiddleware) resolveUser(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	if claims.Id == "" {
		return nil, errors.New("token carries no user id")
	}

	user, err := cam.userRepo.GetByID(ctx, claims.Id)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		utils.FromContext(ctx).Warn("User lookup failed, using token claims", "user_id", claims.Id, "error", err)
	}

	user = casdoor.ToModel(&claims.User)
	user.ID = claims.Id
	return user, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header missing")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errors.New("invalid authorization header format")
	}
	return token, nil
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized", Details: msg})
}

// SetUser stores the authenticated user in the gin context.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(ctxUserID, user.ID)
	c.Set(ctxUser, user)
	c.Set(ctxUserRole, user.Role)
	c.Set(ctxUserEmail, user.Email)
}

func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get(ctxUser)
	if !exists {
		return nil, errors.New("user not found in context")
	}
	userModel, ok := user.(*models.User)
	if !ok {
		return nil, errors.New("invalid user type in context")
	}
	return userModel, nil
}

func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	id, ok := userID.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return id, nil
}

func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get(ctxUserRole)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
