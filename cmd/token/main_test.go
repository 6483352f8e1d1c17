package main

import (
	"testing"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"
	"github.com/groupvial/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAssignRoleCreatesAndPromotesUser(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:token_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))

	users := repository.NewUserRepository(db)
	identity := service.Identity{Subject: "local|host-1", Name: "Host One"}
	require.NoError(t, assignRole(users, nil, identity, constants.RoleHost))

	user, err := users.GetBySubject("local|host-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, constants.RoleHost, user.Role)

	assert.Error(t, assignRole(users, nil, identity, "owner"))
}
