package persistence

import (
	"context"

	"github.com/agrocert/backend/internal/domain/producer"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
)

// GormProducerRepository implements producer.ProducerRepository
type GormProducerRepository struct {
	qe *QueryExecutor
}

// NewGormProducerRepository creates a new GormProducerRepository
func NewGormProducerRepository(qe *QueryExecutor) *GormProducerRepository {
	return &GormProducerRepository{qe: qe}
}

// FindByCode finds a producer by its code
func (r *GormProducerRepository) FindByCode(ctx context.Context, code string) (*producer.Producer, error) {
	m, err := ReadOne[models.ProducerModel](ctx, r.qe,
		NewStatement("producer.find_by_code", "SELECT * FROM productores WHERE code = ?", code))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, shared.ErrNotFound
	}
	return m.ToDomain(), nil
}

// GormPlotRepository implements producer.PlotRepository
type GormPlotRepository struct {
	qe *QueryExecutor
}

// NewGormPlotRepository creates a new GormPlotRepository
func NewGormPlotRepository(qe *QueryExecutor) *GormPlotRepository {
	return &GormPlotRepository{qe: qe}
}

// FindActiveByProducer returns the producer's active plots ordered by number
func (r *GormPlotRepository) FindActiveByProducer(ctx context.Context, producerCode string) ([]producer.Plot, error) {
	rows, err := Read[models.PlotModel](ctx, r.qe, NewStatement("plot.find_active_by_producer",
		"SELECT * FROM parcelas WHERE producer_code = ? AND active = ? ORDER BY number", producerCode, true))
	if err != nil {
		return nil, err
	}

	plots := make([]producer.Plot, len(rows))
	for i := range rows {
		plots[i] = *rows[i].ToDomain()
	}
	return plots, nil
}

// GormGestionRepository implements producer.GestionRepository
type GormGestionRepository struct {
	qe *QueryExecutor
}

// NewGormGestionRepository creates a new GormGestionRepository
func NewGormGestionRepository(qe *QueryExecutor) *GormGestionRepository {
	return &GormGestionRepository{qe: qe}
}

// FindByID finds a certification period
func (r *GormGestionRepository) FindByID(ctx context.Context, id uuid.UUID) (*producer.Gestion, error) {
	m, err := ReadOne[models.GestionModel](ctx, r.qe,
		NewStatement("gestion.find_by_id", "SELECT * FROM gestiones WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, shared.ErrNotFound
	}
	return m.ToDomain(), nil
}
