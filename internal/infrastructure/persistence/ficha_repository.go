package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Section tables. Table names are constants and are the only text ever
// concatenated into statements.
const (
	tableDocumentationReview   = "ficha_revision_documentacion"
	tableMitigationEvaluation  = "ficha_evaluacion_mitigacion"
	tablePostHarvestEvaluation = "ficha_evaluacion_poscosecha"
	tableKnowledgeEvaluation   = "ficha_evaluacion_conocimiento"
	tableCorrectiveActions     = "ficha_acciones_correctivas"
	tableNonConformities       = "ficha_no_conformidades"
	tableLivestockActivities   = "ficha_actividades_pecuarias"
	tableCropDetails           = "ficha_detalle_cultivos"
	tableHarvestSales          = "ficha_cosecha_ventas"
	tableSowingPlans           = "ficha_planificacion_siembra"
	tableInspectedPlots        = "ficha_parcelas_inspeccionadas"
)

const (
	defaultFichaListPageSize = 20
	maxFichaListPageSize     = 100

	fichaSelectByIDSQL = "SELECT * FROM fichas WHERE id = ?"
	fichaListBaseSQL   = "SELECT f.* FROM fichas f JOIN productores p ON p.code = f.producer_code WHERE 1 = 1"
	fichaListOrder     = " ORDER BY f.inspection_date DESC, f.created_at DESC"
	fichaRootUpdateSQL = "UPDATE fichas SET updated_at = ?, version = ?, inspection_date = ?, inspector_name = ?, " +
		"interviewee = ?, previous_category = ?, capture_origin = ?, sync_state = ?, status = ?, result = ?, " +
		"recommendations = ?, evaluation_comments = ?, inspector_signature = ?, producer_signature = ?, active = ? " +
		"WHERE id = ?"

	byPosition = " ORDER BY position"
	unordered  = ""
)

// GormFichaRepository implements inspection.FichaRepository.
//
// Reads go through the QueryExecutor on pooled connections. Create and
// replace run inside one TransactionScope: the root row, then every present
// section, so readers see either the previous aggregate or the new one.
type GormFichaRepository struct {
	qe     *QueryExecutor
	logger *zap.Logger
}

// NewGormFichaRepository creates a new GormFichaRepository
func NewGormFichaRepository(qe *QueryExecutor, log *zap.Logger) *GormFichaRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &GormFichaRepository{qe: qe, logger: log.Named("ficha_repository")}
}

// FindByID loads the root only
func (r *GormFichaRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Ficha, error) {
	m, err := ReadOne[models.FichaModel](ctx, r.qe, NewStatement("ficha.find_by_id", fichaSelectByIDSQL, id))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, shared.ErrNotFound
	}
	return m.ToDomain(), nil
}

// FindCompleta loads the root and then every section in parallel
func (r *GormFichaRepository) FindCompleta(ctx context.Context, id uuid.UUID) (*inspection.FichaCompleta, error) {
	ficha, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	agg := &inspection.FichaCompleta{Ficha: *ficha}
	g, gctx := errgroup.WithContext(ctx)

	loadSection(g, gctx, r.qe, tableDocumentationReview, id, unordered, func(rows []models.DocumentationReviewModel) {
		if len(rows) > 0 {
			agg.DocumentationReview = rows[0].ToDomain()
		}
	})
	loadSection(g, gctx, r.qe, tableMitigationEvaluation, id, unordered, func(rows []models.MitigationEvaluationModel) {
		if len(rows) > 0 {
			agg.MitigationEvaluation = rows[0].ToDomain()
		}
	})
	loadSection(g, gctx, r.qe, tablePostHarvestEvaluation, id, unordered, func(rows []models.PostHarvestEvaluationModel) {
		if len(rows) > 0 {
			agg.PostHarvestEvaluation = rows[0].ToDomain()
		}
	})
	loadSection(g, gctx, r.qe, tableKnowledgeEvaluation, id, unordered, func(rows []models.KnowledgeEvaluationModel) {
		if len(rows) > 0 {
			agg.KnowledgeEvaluation = rows[0].ToDomain()
		}
	})
	loadSection(g, gctx, r.qe, tableCorrectiveActions, id, byPosition, func(rows []models.CorrectiveActionModel) {
		agg.CorrectiveActions = models.CorrectiveActionsToDomain(rows)
	})
	loadSection(g, gctx, r.qe, tableNonConformities, id, byPosition, func(rows []models.NonConformityModel) {
		agg.NonConformities = models.NonConformitiesToDomain(rows)
	})
	loadSection(g, gctx, r.qe, tableLivestockActivities, id, byPosition, func(rows []models.LivestockActivityModel) {
		agg.LivestockActivities = models.LivestockActivitiesToDomain(rows)
	})
	loadSection(g, gctx, r.qe, tableCropDetails, id, byPosition, func(rows []models.CropDetailModel) {
		agg.CropDetails = models.CropDetailsToDomain(rows)
	})
	loadSection(g, gctx, r.qe, tableHarvestSales, id, byPosition, func(rows []models.HarvestSaleModel) {
		agg.HarvestSales = models.HarvestSalesToDomain(rows)
	})
	loadSection(g, gctx, r.qe, tableSowingPlans, id, byPosition, func(rows []models.SowingPlanModel) {
		agg.SowingPlans = models.SowingPlansToDomain(rows)
	})
	loadSection(g, gctx, r.qe, tableInspectedPlots, id, byPosition, func(rows []models.InspectedPlotModel) {
		agg.InspectedPlots = models.InspectedPlotsToDomain(rows)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return agg, nil
}

// loadSection reads every row of one section table. Each call assigns a
// different field of the aggregate, so the goroutines never share state.
func loadSection[M any](g *errgroup.Group, ctx context.Context, q *QueryExecutor, table string, fichaID uuid.UUID, order string, assign func([]M)) {
	g.Go(func() error {
		stmt := NewStatement("ficha.load_"+table, "SELECT * FROM "+table+" WHERE ficha_id = ?"+order, fichaID)
		rows, err := Read[M](ctx, q, stmt)
		if err != nil {
			return err
		}
		assign(rows)
		return nil
	})
}

// List returns a page of roots joined with their producer for community scoping
func (r *GormFichaRepository) List(ctx context.Context, filter inspection.ListFilter) ([]inspection.Ficha, int64, error) {
	if filter.CommunityIDs != nil && len(filter.CommunityIDs) == 0 {
		return []inspection.Ficha{}, 0, nil
	}

	var sb strings.Builder
	sb.WriteString(fichaListBaseSQL)
	args := make([]any, 0, 5)

	if !filter.IncludeInactive {
		sb.WriteString(" AND f.active = ?")
		args = append(args, true)
	}
	if filter.Status != "" {
		sb.WriteString(" AND f.status = ?")
		args = append(args, filter.Status)
	}
	if filter.GestionYear > 0 {
		sb.WriteString(" AND f.gestion_year = ?")
		args = append(args, filter.GestionYear)
	}
	if filter.ProducerCode != "" {
		sb.WriteString(" AND f.producer_code = ?")
		args = append(args, filter.ProducerCode)
	}
	if filter.CommunityIDs != nil {
		ids := make([]string, len(filter.CommunityIDs))
		for i, id := range filter.CommunityIDs {
			ids[i] = id.String()
		}
		sb.WriteString(" AND p.community_id IN ?")
		args = append(args, ids)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultFichaListPageSize
	}
	if pageSize > maxFichaListPageSize {
		pageSize = maxFichaListPageSize
	}

	page, err := ReadPaginated[models.FichaModel](ctx, r.qe,
		Statement{Name: "ficha.list", SQL: sb.String(), Args: args}, filter.Page, pageSize, fichaListOrder)
	if err != nil {
		return nil, 0, err
	}

	fichas := make([]inspection.Ficha, len(page.Rows))
	for i := range page.Rows {
		fichas[i] = *page.Rows[i].ToDomain()
	}
	return fichas, page.Total, nil
}

// CreateFichaCompleta inserts the root, then every present section, in one
// transaction and returns the aggregate as stored.
func (r *GormFichaRepository) CreateFichaCompleta(ctx context.Context, agg *inspection.FichaCompleta) (*inspection.FichaCompleta, error) {
	if agg == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Ficha aggregate is required")
	}
	root := models.FichaModelFromDomain(&agg.Ficha)
	sections := agg.Sections

	err := InTransaction(ctx, r.qe.DB(), r.logger, func(scope *TransactionScope) error {
		tx, err := scope.DB()
		if err != nil {
			return err
		}
		if err := tx.Create(root).Error; err != nil {
			return storeError("insert ficha", err)
		}
		sections.BindTo(root.ID)
		return replaceSections(scope, root.ID, &sections)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("ficha aggregate created", zap.String("ficha_id", root.ID.String()))
	return r.FindCompleta(ctx, root.ID)
}

// UpdateFichaCompleta writes the root and replaces every present section in
// one transaction. Absent sections (nil) keep their stored rows; present
// empty list sections are cleared.
func (r *GormFichaRepository) UpdateFichaCompleta(ctx context.Context, ficha *inspection.Ficha, sections inspection.Sections) (*inspection.FichaCompleta, error) {
	root := models.FichaModelFromDomain(ficha)

	err := InTransaction(ctx, r.qe.DB(), r.logger, func(scope *TransactionScope) error {
		res, err := scope.Exec(rootUpdateStatement("ficha.update_root", root))
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		sections.BindTo(root.ID)
		return replaceSections(scope, root.ID, &sections)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("ficha aggregate replaced", zap.String("ficha_id", root.ID.String()))
	return r.FindCompleta(ctx, root.ID)
}

// UpdateRoot persists root columns on a dedicated connection; sections are
// never touched.
func (r *GormFichaRepository) UpdateRoot(ctx context.Context, ficha *inspection.Ficha) error {
	res := r.qe.Write(ctx, rootUpdateStatement("ficha.update_root", models.FichaModelFromDomain(ficha)))
	if !res.Success {
		return res.Err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func rootUpdateStatement(name string, m *models.FichaModel) Statement {
	return NewStatement(name, fichaRootUpdateSQL,
		m.UpdatedAt, m.Version, m.InspectionDate, m.InspectorName, m.Interviewee,
		m.PreviousCategory, m.CaptureOrigin, m.SyncState, m.Status, m.Result,
		m.Recommendations, m.EvaluationComments, m.InspectorSignature,
		m.ProducerSignature, m.Active, m.ID,
	)
}

// replaceSections writes the present sections in a fixed order: the four 1:1
// sections are upserted, then each list section is deleted and reinserted.
func replaceSections(scope *TransactionScope, fichaID uuid.UUID, s *inspection.Sections) error {
	tx, err := scope.DB()
	if err != nil {
		return err
	}

	if s.DocumentationReview != nil {
		if err := upsertSection(tx, tableDocumentationReview, models.DocumentationReviewFromDomain(s.DocumentationReview)); err != nil {
			return err
		}
	}
	if s.MitigationEvaluation != nil {
		if err := upsertSection(tx, tableMitigationEvaluation, models.MitigationEvaluationFromDomain(s.MitigationEvaluation)); err != nil {
			return err
		}
	}
	if s.PostHarvestEvaluation != nil {
		if err := upsertSection(tx, tablePostHarvestEvaluation, models.PostHarvestEvaluationFromDomain(s.PostHarvestEvaluation)); err != nil {
			return err
		}
	}
	if s.KnowledgeEvaluation != nil {
		if err := upsertSection(tx, tableKnowledgeEvaluation, models.KnowledgeEvaluationFromDomain(s.KnowledgeEvaluation)); err != nil {
			return err
		}
	}

	if s.CorrectiveActions != nil {
		if err := replaceRows(scope, tableCorrectiveActions, fichaID, models.CorrectiveActionsFromDomain(s.CorrectiveActions)); err != nil {
			return err
		}
	}
	if s.NonConformities != nil {
		if err := replaceRows(scope, tableNonConformities, fichaID, models.NonConformitiesFromDomain(s.NonConformities)); err != nil {
			return err
		}
	}
	if s.LivestockActivities != nil {
		if err := replaceRows(scope, tableLivestockActivities, fichaID, models.LivestockActivitiesFromDomain(s.LivestockActivities)); err != nil {
			return err
		}
	}
	if s.CropDetails != nil {
		if err := replaceRows(scope, tableCropDetails, fichaID, models.CropDetailsFromDomain(s.CropDetails)); err != nil {
			return err
		}
	}
	if s.HarvestSales != nil {
		if err := replaceRows(scope, tableHarvestSales, fichaID, models.HarvestSalesFromDomain(s.HarvestSales)); err != nil {
			return err
		}
	}
	if s.SowingPlans != nil {
		if err := replaceRows(scope, tableSowingPlans, fichaID, models.SowingPlansFromDomain(s.SowingPlans)); err != nil {
			return err
		}
	}
	if s.InspectedPlots != nil {
		if err := replaceRows(scope, tableInspectedPlots, fichaID, models.InspectedPlotsFromDomain(s.InspectedPlots)); err != nil {
			return err
		}
	}
	return nil
}

// upsertSection inserts a 1:1 section row or overwrites the existing one
func upsertSection(tx *gorm.DB, table string, row any) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ficha_id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return storeError("upsert "+table, err)
	}
	return nil
}

// replaceRows deletes every row of a list section and bulk-inserts rows.
// An empty rows slice leaves the section empty.
func replaceRows[M any](scope *TransactionScope, table string, fichaID uuid.UUID, rows []M) error {
	if _, err := scope.Exec(NewStatement("ficha.clear_"+table, "DELETE FROM "+table+" WHERE ficha_id = ?", fichaID)); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := scope.DB()
	if err != nil {
		return err
	}
	if err := tx.Create(&rows).Error; err != nil {
		return storeError("insert "+table, err)
	}
	return nil
}

func storeError(op string, err error) error {
	return shared.WrapDomainError(shared.CodeInfrastructure, fmt.Sprintf("failed to %s", op), err)
}
