package inspection

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a ficha listing
type ListFilter struct {
	Page         int
	PageSize     int
	Status       FichaStatus
	GestionYear  int
	ProducerCode string
	// CommunityIDs restricts results to producers in these communities.
	// Nil means unrestricted; an empty non-nil slice matches nothing.
	CommunityIDs    []uuid.UUID
	IncludeInactive bool
}

// FichaRepository persists the ficha aggregate
type FichaRepository interface {
	// FindByID loads the root only
	FindByID(ctx context.Context, id uuid.UUID) (*Ficha, error)
	// FindCompleta loads the root with every section
	FindCompleta(ctx context.Context, id uuid.UUID) (*FichaCompleta, error)
	// List returns a page of roots and the total count for the filter
	List(ctx context.Context, filter ListFilter) ([]Ficha, int64, error)
	// CreateFichaCompleta inserts the root and every present section in one transaction
	CreateFichaCompleta(ctx context.Context, agg *FichaCompleta) (*FichaCompleta, error)
	// UpdateFichaCompleta updates the root and replaces every present section in one transaction
	UpdateFichaCompleta(ctx context.Context, ficha *Ficha, sections Sections) (*FichaCompleta, error)
	// UpdateRoot persists root columns only; sections are never touched
	UpdateRoot(ctx context.Context, ficha *Ficha) error
}
