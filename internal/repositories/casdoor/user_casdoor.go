package casdoor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/classroom-service/internal/cache"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// casdoorAPI is the subset of the SDK client used here.
type casdoorAPI interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
	GetPaginationUsers(p int, pageSize int, queryMap map[string]string) ([]*casdoorsdk.User, int, error)
}

type UserCasdoor struct {
	client casdoorAPI
	cache  *cache.CacheHelper
	ttl    time.Duration
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return newUserCasdoor(client, redisClient)
}

func newUserCasdoor(client casdoorAPI, redisClient *redis.Client) *UserCasdoor {
	return &UserCasdoor{
		client: client,
		cache:  cache.NewCacheHelper(redisClient, cache.UserCacheConfig.Prefix),
		ttl:    cache.UserCacheConfig.TTL,
	}
}

func (u *UserCasdoor) remember(ctx context.Context, user *models.User) {
	_ = u.cache.Set(ctx, "id:"+user.ID, user, u.ttl)
	if user.Email != "" {
		_ = u.cache.Set(ctx, "email:"+strings.ToLower(user.Email), user, u.ttl)
	}
}

func (u *UserCasdoor) lookup(ctx context.Context, key string) *models.User {
	var user models.User
	if err := u.cache.Get(ctx, key, &user); err != nil {
		return nil
	}
	return &user
}

// ToModel converts a Casdoor account. Roles are matched by name; the admin
// flag or an admin role wins over everything else.
func ToModel(cu *casdoorsdk.User) *models.User {
	if cu == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if cu.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, cu.CreatedTime)
	}
	if cu.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, cu.UpdatedTime)
	}

	user := &models.User{
		ID:            cu.Id,
		Name:          cu.Name,
		FullName:      cu.DisplayName,
		Email:         cu.Email,
		Role:          resolveRole(cu),
		EmailVerified: cu.EmailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if cu.Avatar != "" {
		avatar := cu.Avatar
		user.AvatarURL = &avatar
	}
	if user.FullName == "" {
		user.FullName = cu.Name
	}
	return user
}

func resolveRole(cu *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, r := range cu.Roles {
		if r == nil {
			continue
		}
		roles = append(roles, MapRole(r.Name))
	}
	if cu.IsAdmin || slices.Contains(roles, models.RoleAdmin) {
		return models.RoleAdmin
	}
	if slices.Contains(roles, models.RoleTeacher) {
		return models.RoleTeacher
	}
	if len(roles) == 0 && cu.Type != "" {
		return MapRole(cu.Type)
	}
	return models.RoleStudent
}

// MapRole maps a Casdoor role or user type name, English or Vietnamese, to a role.
func MapRole(name string) models.UserRole {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator", "quan-tri", "quản trị":
		return models.RoleAdmin
	case "teacher", "instructor", "giao-vien", "giáo viên":
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}

func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	if cached := u.lookup(ctx, "id:"+id); cached != nil {
		return cached, nil
	}

	cu, err := u.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if cu == nil {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrUserNotFound)
	}

	user := ToModel(cu)
	u.remember(ctx, user)
	return user, nil
}

func (u *UserCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	key := "email:" + strings.ToLower(email)
	if cached := u.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	cu, err := u.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	if cu == nil {
		return nil, fmt.Errorf("user %s: %w", email, repositories.ErrUserNotFound)
	}

	user := ToModel(cu)
	u.remember(ctx, user)
	return user, nil
}

// GetByIDs skips ids that cannot be resolved.
func (u *UserCasdoor) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetByID(ctx, id)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (u *UserCasdoor) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if filters.Limit <= 0 {
		filters.Limit = 10
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	// Casdoor pages are 1-based
	page := filters.Offset/filters.Limit + 1

	query := map[string]string{}
	if filters.Query != "" {
		query["field"] = "email"
		query["value"] = filters.Query
	}

	casdoorUsers, count, err := u.client.GetPaginationUsers(page, filters.Limit, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users from Casdoor: %w", err)
	}

	users := make([]*models.User, 0, len(casdoorUsers))
	for _, cu := range casdoorUsers {
		if user := ToModel(cu); user != nil {
			users = append(users, user)
			u.remember(ctx, user)
		}
	}
	return users, int64(count), nil
}

func (u *UserCasdoor) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}
