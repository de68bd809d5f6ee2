//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/infrastructure/migration"
)

// newPostgresFixture starts PostgreSQL, applies the embedded migrations and
// seeds the usual producer, plots and gestion.
func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("agrocert_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	return seedFixture(t, db)
}

func TestPostgres_FichaLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newPostgresFixture(t)
	repo := newFichaRepo(f)

	ficha := f.newFicha(t)
	created, err := repo.CreateFichaCompleta(ctx, &inspection.FichaCompleta{Ficha: *ficha, Sections: f.fullSections()})
	require.NoError(t, err)
	assert.Len(t, created.CropDetails, 2)
	assert.Len(t, created.NonConformities, 2)

	// Empty slice clears, absent section stays.
	sections := inspection.Sections{NonConformities: []inspection.NonConformity{}}
	updated, err := repo.UpdateFichaCompleta(ctx, &created.Ficha, sections)
	require.NoError(t, err)
	assert.Empty(t, updated.NonConformities)
	assert.Len(t, updated.CropDetails, 2)
	assert.NotNil(t, updated.DocumentationReview)

	ficha = &updated.Ficha
	ficha.Recommendations = "Mantener barreras vivas"
	ficha.InspectorSignature = "AQM"
	require.NoError(t, ficha.SubmitForReview())
	require.NoError(t, ficha.Approve(""))
	require.NoError(t, repo.UpdateRoot(ctx, ficha))

	sync := NewGormFichaSynchronizer(f.qe, zap.NewNop())
	require.NoError(t, sync.SyncApprovedFicha(ctx, ficha.ID))
	require.NoError(t, sync.SyncApprovedFicha(ctx, ficha.ID), "sync is idempotent")

	reloaded, err := repo.FindByID(ctx, ficha.ID)
	require.NoError(t, err)
	assert.Equal(t, inspection.SyncSynced, reloaded.SyncState)
	assert.Equal(t, inspection.FichaStatusApproved, reloaded.Status)

	rows, total, err := repo.List(ctx, inspection.ListFilter{CommunityIDs: []uuid.UUID{f.communityID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rows, 1)
}

func TestPostgres_MigrationsRoundTrip(t *testing.T) {
	f := newPostgresFixture(t)
	sqlDB, err := f.db.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Down())
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	require.NoError(t, m.Up())
}
