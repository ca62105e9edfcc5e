package service_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/internal/repositories/provider"
	"github.com/Ramsey-B/fern/internal/repositories/service"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getTestDB connects to the database named by DB_* and resets the fern tables.
func getTestDB(t *testing.T) database.DB {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("Skipping integration test: DB_HOST is not set")
	}

	cfg := database.Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnv("DB_PORT", "5432"),
		UserName: getEnv("DB_USER_NAME", "user"),
		Password: getEnv("DB_PASSWORD", "password"),
		Name:     getEnv("DB_NAME", "fern"),
		SSLMode:  "disable",
	}
	sqlDB, err := sqlx.Connect("postgres", cfg.DSN())
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrations := database.NewMigrationService(getTestLogger(), &database.MigrationConfig{
		MigrationFolderPath: "../../../db/pg",
	})
	require.NoError(t, migrations.MigratePostgres(cfg.Name, sqlDB.DB))

	_, err = sqlDB.Exec("TRUNCATE services, service_providers")
	require.NoError(t, err)

	return database.NewDatabaseInstance(sqlDB, getTestLogger())
}

func insertService(t *testing.T, db database.DB, id, providerName string, location *string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO services (id, title, provider, location) VALUES ($1, $2, $3, $4)",
		id, "Service "+id, providerName, location)
	require.NoError(t, err)
}

func TestServiceRepository_SetLink(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	providers := provider.NewRepository(db, getTestLogger())
	services := service.NewRepository(db, getTestLogger())

	insertService(t, db, "s1", "Acme", nil)
	id, err := providers.Create(ctx, models.NewEntity{CanonicalName: "Acme", Slug: "acme", Location: "Unknown"})
	require.NoError(t, err)

	unlinked, err := services.ListUnlinked(ctx)
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, "Acme", unlinked[0].RawName)
	assert.Nil(t, unlinked[0].LocationHint)

	require.NoError(t, services.SetLink(ctx, "s1", id))

	err = services.SetLink(ctx, "s1", id)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))

	unlinked, err = services.ListUnlinked(ctx)
	require.NoError(t, err)
	assert.Empty(t, unlinked)
}

func TestProviderRepository_DuplicateSlug(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	providers := provider.NewRepository(db, getTestLogger())

	_, err := providers.Create(ctx, models.NewEntity{CanonicalName: "Acme", Slug: "acme", Location: "Unknown"})
	require.NoError(t, err)

	_, err = providers.Create(ctx, models.NewEntity{CanonicalName: "ACME", Slug: "acme", Location: "Unknown"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestAutoLink_Postgres(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	providers := provider.NewRepository(db, getTestLogger())
	services := service.NewRepository(db, getTestLogger())

	acmeID, err := providers.Create(ctx, models.NewEntity{CanonicalName: "ACME Cleaning", Slug: "acme-cleaning", Location: "Denver"})
	require.NoError(t, err)

	austin := "Austin"
	insertService(t, db, "s1", "Acme Cleaning", nil)
	insertService(t, db, "s2", "Acme Clening", nil)
	insertService(t, db, "s3", "Foo Bar", nil)
	insertService(t, db, "s4", "foo bar", &austin)

	o := linking.NewOrchestrator(getTestLogger(), services, providers, db, nil, linking.DefaultConfig())

	report, err := o.Run(ctx, linking.Options{})
	require.NoError(t, err)
	require.NoError(t, report.Validate())
	assert.Equal(t, 2, report.LinkedCount)
	assert.Equal(t, 2, report.CreatedCount)
	assert.Equal(t, acmeID, report.Decisions[0].EntityID)
	assert.Equal(t, report.Decisions[2].EntityID, report.Decisions[3].EntityID)

	all, err := providers.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	second, err := o.Run(ctx, linking.Options{})
	require.NoError(t, err)
	assert.Empty(t, second.Decisions)

	all, err = providers.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
