// Package producer holds the reference data an inspection is recorded against:
// producers, their registered plots and the certification periods (gestiones).
package producer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producer is an organic producer belonging to one community.
// Fichas reference a producer by its stable Code, not by a surrogate id.
type Producer struct {
	Code              string
	Name              string
	CommunityID       uuid.UUID
	Category          string
	LastCertifiedYear *int
	CertifiedArea     decimal.Decimal
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InCommunity reports whether the producer belongs to one of the given communities
func (p *Producer) InCommunity(communityIDs []uuid.UUID) bool {
	for _, id := range communityIDs {
		if id == p.CommunityID {
			return true
		}
	}
	return false
}

// Plot (parcela) is a registered plot owned by a producer.
// Plots are long-lived and referenced by crop-detail and sowing-plan rows.
type Plot struct {
	ID           uuid.UUID
	ProducerCode string
	Number       int
	DeclaredArea decimal.Decimal
	Latitude     *decimal.Decimal
	Longitude    *decimal.Decimal
	Rotation     bool
	Irrigation   bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Label returns a human-readable identifier for messages
func (p *Plot) Label() string {
	return fmt.Sprintf("plot %d", p.Number)
}

// Gestion is a certification period identified by its year.
type Gestion struct {
	ID     uuid.UUID
	Year   int
	Active bool
}
