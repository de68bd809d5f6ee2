package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GormFichaSynchronizer propagates an approved ficha to the producer
// registry: inspected plot data is copied onto the producer's plots, and the
// producer's certification year and certified area are stamped.
//
// Every statement writes absolute values, so running it twice for the same
// ficha leaves the same state.
type GormFichaSynchronizer struct {
	qe     *QueryExecutor
	logger *zap.Logger
}

// NewGormFichaSynchronizer creates a new GormFichaSynchronizer
func NewGormFichaSynchronizer(qe *QueryExecutor, log *zap.Logger) *GormFichaSynchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &GormFichaSynchronizer{qe: qe, logger: log.Named("ficha_sync")}
}

// SyncApprovedFicha applies the approved ficha to the registry in one transaction
func (s *GormFichaSynchronizer) SyncApprovedFicha(ctx context.Context, fichaID uuid.UUID) error {
	root, err := ReadOne[models.FichaModel](ctx, s.qe, NewStatement("sync.load_ficha", fichaSelectByIDSQL, fichaID))
	if err != nil {
		return err
	}
	if root == nil {
		return shared.ErrNotFound
	}
	if root.Status != inspection.FichaStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot synchronize ficha in %s status; requires %s", root.Status, inspection.FichaStatusApproved))
	}

	plots, err := Read[models.InspectedPlotModel](ctx, s.qe, NewStatement("sync.load_inspected_plots",
		"SELECT * FROM "+tableInspectedPlots+" WHERE ficha_id = ?"+byPosition, fichaID))
	if err != nil {
		return err
	}
	crops, err := Read[models.CropDetailModel](ctx, s.qe, NewStatement("sync.load_crop_details",
		"SELECT * FROM "+tableCropDetails+" WHERE ficha_id = ?", fichaID))
	if err != nil {
		return err
	}

	certifiedArea := decimal.Zero
	for _, c := range crops {
		certifiedArea = certifiedArea.Add(c.Area)
	}
	now := time.Now()

	err = InTransaction(ctx, s.qe.DB(), s.logger, func(scope *TransactionScope) error {
		for _, p := range plots {
			res, err := scope.Exec(NewStatement("sync.update_plot",
				"UPDATE parcelas SET latitude = COALESCE(?, latitude), longitude = COALESCE(?, longitude), "+
					"rotation = ?, irrigation = ?, updated_at = ? WHERE id = ? AND producer_code = ?",
				nullableDecimal(p.Latitude), nullableDecimal(p.Longitude), p.Rotation, p.Irrigation, now,
				p.PlotID, root.ProducerCode))
			if err != nil {
				return err
			}
			if res.RowsAffected == 0 {
				return shared.NewDomainError(shared.CodeNotFound,
					fmt.Sprintf("Inspected plot %s is not registered to producer %s", p.PlotID, root.ProducerCode))
			}
		}

		res, err := scope.Exec(NewStatement("sync.update_producer",
			"UPDATE productores SET last_certified_year = ?, certified_area = ?, updated_at = ? WHERE code = ?",
			root.GestionYear, certifiedArea, now, root.ProducerCode))
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Producer %s not found", root.ProducerCode))
		}

		_, err = scope.Exec(NewStatement("sync.mark_synced",
			"UPDATE fichas SET sync_state = ? WHERE id = ?", inspection.SyncSynced, fichaID))
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("approved ficha synchronized",
		zap.String("ficha_id", fichaID.String()),
		zap.String("producer_code", root.ProducerCode),
		zap.Int("plots", len(plots)),
		zap.String("certified_area", certifiedArea.String()),
	)
	return nil
}

// nullableDecimal turns a missing coordinate into SQL NULL
func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
