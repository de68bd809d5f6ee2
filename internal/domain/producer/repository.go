package producer

import (
	"context"

	"github.com/google/uuid"
)

// ProducerRepository reads producers
type ProducerRepository interface {
	// FindByCode finds a producer by its code; returns shared.ErrNotFound when absent
	FindByCode(ctx context.Context, code string) (*Producer, error)
}

// PlotRepository reads a producer's plots
type PlotRepository interface {
	// FindActiveByProducer returns the active plots registered to a producer
	FindActiveByProducer(ctx context.Context, producerCode string) ([]Plot, error)
}

// GestionRepository reads certification periods
type GestionRepository interface {
	// FindByID finds a period; returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Gestion, error)
}
