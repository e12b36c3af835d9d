package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskroom/internal/config"
	"github.com/yukikurage/taskroom/internal/models"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialector(config.DBConfig{Driver: driver, Path: ":memory:"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, LogLevel("silent"))
	assert.Equal(t, logger.Info, LogLevel("INFO"))
	assert.Equal(t, logger.Warn, LogLevel(""))
}

func TestMigrateAndTenantScope(t *testing.T) {
	db, err := Connect(config.DBConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))

	rows := []models.Task{
		{Name: "mine", Severity: 1, Status: models.TaskStatusTodo, OwnerID: 1, OrganizationID: 10, CreatedByID: 1},
		{Name: "other org", Severity: 1, Status: models.TaskStatusTodo, OwnerID: 1, OrganizationID: 11, CreatedByID: 1},
		{Name: "other owner", Severity: 1, Status: models.TaskStatusTodo, OwnerID: 2, OrganizationID: 10, CreatedByID: 2},
	}
	require.NoError(t, db.Create(&rows).Error)

	var found []models.Task
	require.NoError(t, db.Scopes(Tenant(models.TenantScope{OwnerID: 1, OrganizationID: 10})).Find(&found).Error)
	require.Len(t, found, 1)
	assert.Equal(t, "mine", found[0].Name)

	assert.Error(t, VersionedStatus(db))
}
