package casdoor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type fakeCasdoor struct {
	users map[string]*casdoorsdk.User
	calls int
}

func (f *fakeCasdoor) GetUserByUserId(id string) (*casdoorsdk.User, error) {
	f.calls++
	return f.users[id], nil
}

func (f *fakeCasdoor) GetUserByEmail(email string) (*casdoorsdk.User, error) {
	f.calls++
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeCasdoor) GetPaginationUsers(p, size int, _ map[string]string) ([]*casdoorsdk.User, int, error) {
	f.calls++
	out := make([]*casdoorsdk.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func TestMapRole(t *testing.T) {
	assert.Equal(t, models.RoleAdmin, MapRole("Administrator"))
	assert.Equal(t, models.RoleTeacher, MapRole("giáo viên"))
	assert.Equal(t, models.RoleTeacher, MapRole("teacher"))
	assert.Equal(t, models.RoleStudent, MapRole("hoc-sinh"))
}

func TestToModel_RolePrecedence(t *testing.T) {
	u := ToModel(&casdoorsdk.User{
		Id:    "u1",
		Name:  "lan",
		Roles: []*casdoorsdk.Role{{Name: "student"}, {Name: "teacher"}},
	})
	assert.Equal(t, models.RoleTeacher, u.Role)
	assert.Equal(t, "lan", u.FullName)

	admin := ToModel(&casdoorsdk.User{Id: "u2", IsAdmin: true, Roles: []*casdoorsdk.Role{{Name: "teacher"}}})
	assert.Equal(t, models.RoleAdmin, admin.Role)

	typed := ToModel(&casdoorsdk.User{Id: "u3", Type: "teacher"})
	assert.Equal(t, models.RoleTeacher, typed.Role)

	assert.Nil(t, ToModel(nil))
}

func TestUserCasdoor_GetByIDUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	fake := &fakeCasdoor{users: map[string]*casdoorsdk.User{
		"u1": {Id: "u1", DisplayName: "Nguyễn Văn A", Email: "a@school.vn"},
	}}
	repo := newUserCasdoor(fake, rc)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	byEmail, err := repo.GetByEmail(ctx, "A@school.vn")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, first.FullName, second.FullName)
	assert.Equal(t, "u1", byEmail.ID)
}

func TestUserCasdoor_NotFound(t *testing.T) {
	repo := newUserCasdoor(&fakeCasdoor{users: map[string]*casdoorsdk.User{}}, nil)

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, repositories.IsNotFoundError(err))

	users, err := repo.GetByIDs(context.Background(), []string{"missing"})
	require.NoError(t, err)
	assert.Empty(t, users)
}
