package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/famiglia/ops-console/pkg/db/dbtest"
	"github.com/famiglia/ops-console/pkg/db/models"
	"github.com/famiglia/ops-console/pkg/enums"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUsers(t *testing.T, db *gorm.DB, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		user := models.User{
			ID:           int64(i),
			Name:         "User",
			Email:        "user" + string(rune('a'+i-1)) + "@famiglia.test",
			PasswordHash: "$2a$10$hash",
			Role:         enums.UserRoleCustomer,
			CreatedAt:    time.Date(2025, 1, i, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(&user).Error)
	}
}

func TestFindByEmailAndID(t *testing.T) {
	db := dbtest.Open(t)
	seedUsers(t, db, 3)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.FindByEmail(ctx, "userb@famiglia.test")
	require.NoError(t, err)
	require.Equal(t, int64(2), user.ID)

	user, err = repo.FindByID(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "userc@famiglia.test", user.Email)

	_, err = repo.FindByEmail(ctx, "nobody@famiglia.test")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, err = repo.FindByID(ctx, 404)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestListRecentOrdersByIDDesc(t *testing.T) {
	db := dbtest.Open(t)
	seedUsers(t, db, 5)
	repo := NewRepository(db)

	list, err := repo.ListRecent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []int64{5, 4, 3}, []int64{list[0].ID, list[1].ID, list[2].ID})

	dtos := FromModels(list)
	require.Equal(t, "usere@famiglia.test", dtos[0].Email)
}

func TestListIDs(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ids)
	require.Empty(t, ids)

	seedUsers(t, db, 2)
	ids, err = repo.ListIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids)
}
