package repositories

import (
	"context"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

type UserFilters struct {
	Query  string // matched against email
	Limit  int
	Offset int
}

// UserRepository reads accounts from the identity provider. This service
// never writes user data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
