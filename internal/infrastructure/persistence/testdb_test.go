package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var allModels = []any{
	&models.ProducerModel{},
	&models.PlotModel{},
	&models.GestionModel{},
	&models.FichaModel{},
	&models.DocumentationReviewModel{},
	&models.MitigationEvaluationModel{},
	&models.PostHarvestEvaluationModel{},
	&models.KnowledgeEvaluationModel{},
	&models.CorrectiveActionModel{},
	&models.NonConformityModel{},
	&models.LivestockActivityModel{},
	&models.CropDetailModel{},
	&models.HarvestSaleModel{},
	&models.SowingPlanModel{},
	&models.InspectedPlotModel{},
}

// newTestDB opens a file-backed SQLite database so that separate pooled
// connections see the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "agrocert.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(allModels...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type fixture struct {
	db          *gorm.DB
	qe          *QueryExecutor
	communityID uuid.UUID
	gestion     models.GestionModel
	producer    models.ProducerModel
	plots       []models.PlotModel
}

// newFixture seeds one producer with two plots and the 2024 gestion
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return seedFixture(t, newTestDB(t))
}

func seedFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)

	f := &fixture{
		db:          db,
		qe:          NewQueryExecutor(db, zap.NewNop()),
		communityID: uuid.New(),
		gestion:     models.GestionModel{ID: uuid.New(), Year: 2024, Active: true},
	}
	f.producer = models.ProducerModel{
		Code:          "PRD-0001",
		Name:          "Juan Mamani",
		CommunityID:   f.communityID,
		Category:      "T2",
		CertifiedArea: decimal.Zero,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.plots = []models.PlotModel{
		{BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}, ProducerCode: "PRD-0001", Number: 1, DeclaredArea: decimal.RequireFromString("2.0"), Active: true},
		{BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}, ProducerCode: "PRD-0001", Number: 2, DeclaredArea: decimal.RequireFromString("1.5"), Active: true},
	}

	require.NoError(t, db.Create(&f.gestion).Error)
	require.NoError(t, db.Create(&f.producer).Error)
	require.NoError(t, db.Create(&f.plots).Error)
	return f
}

func (f *fixture) newFicha(t *testing.T) *inspection.Ficha {
	t.Helper()
	ficha, err := inspection.NewFicha(inspection.NewFichaParams{
		ProducerCode:   f.producer.Code,
		GestionID:      f.gestion.ID,
		GestionYear:    f.gestion.Year,
		InspectionDate: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		InspectorName:  "Ana Quispe",
		CreatedBy:      uuid.New(),
	})
	require.NoError(t, err)
	return ficha
}

func (f *fixture) fullSections() inspection.Sections {
	due := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	return inspection.Sections{
		DocumentationReview:  &inspection.DocumentationReview{AdmissionRequest: true, FieldDiary: true, Observations: "Diario al dia"},
		MitigationEvaluation: &inspection.MitigationEvaluation{NeighborContaminationRisk: true, BarrierType: "barrera viva"},
		NonConformities: []inspection.NonConformity{
			{Description: "Uso de envases sin limpiar", ProposedAction: "Lavado previo", DueDate: &due},
			{Description: "Falta registro de cosecha"},
		},
		CropDetails: []inspection.CropDetail{
			{PlotID: f.plots[0].ID, CropTypeID: uuid.New(), Area: decimal.RequireFromString("1.25"), Organic: true},
			{PlotID: f.plots[1].ID, CropTypeID: uuid.New(), Area: decimal.RequireFromString("0.75"), Organic: false},
		},
		InspectedPlots: []inspection.InspectedPlot{
			{PlotID: f.plots[0].ID, Rotation: true},
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}
