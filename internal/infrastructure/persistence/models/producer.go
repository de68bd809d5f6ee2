package models

import (
	"time"

	"github.com/agrocert/backend/internal/domain/producer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProducerModel is the persistence model for producer.Producer
type ProducerModel struct {
	Code              string          `gorm:"type:varchar(30);primary_key"`
	Name              string          `gorm:"type:varchar(200);not null"`
	CommunityID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category          string          `gorm:"type:varchar(20)"`
	LastCertifiedYear *int            `gorm:"type:integer"`
	CertifiedArea     decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Active            bool            `gorm:"not null"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProducerModel) TableName() string {
	return "productores"
}

// ToDomain converts the persistence model to a domain Producer
func (m *ProducerModel) ToDomain() *producer.Producer {
	return &producer.Producer{
		Code:              m.Code,
		Name:              m.Name,
		CommunityID:       m.CommunityID,
		Category:          m.Category,
		LastCertifiedYear: m.LastCertifiedYear,
		CertifiedArea:     m.CertifiedArea,
		Active:            m.Active,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// ProducerModelFromDomain creates a persistence model from a domain Producer
func ProducerModelFromDomain(p *producer.Producer) *ProducerModel {
	return &ProducerModel{
		Code:              p.Code,
		Name:              p.Name,
		CommunityID:       p.CommunityID,
		Category:          p.Category,
		LastCertifiedYear: p.LastCertifiedYear,
		CertifiedArea:     p.CertifiedArea,
		Active:            p.Active,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// PlotModel is the persistence model for producer.Plot
type PlotModel struct {
	BaseModel
	ProducerCode string           `gorm:"type:varchar(30);not null;index"`
	Number       int              `gorm:"not null"`
	DeclaredArea decimal.Decimal  `gorm:"type:decimal(12,4);not null"`
	Latitude     *decimal.Decimal `gorm:"type:decimal(10,7)"`
	Longitude    *decimal.Decimal `gorm:"type:decimal(10,7)"`
	Rotation     bool             `gorm:"not null;default:false"`
	Irrigation   bool             `gorm:"not null;default:false"`
	Active       bool             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PlotModel) TableName() string {
	return "parcelas"
}

// ToDomain converts the persistence model to a domain Plot
func (m *PlotModel) ToDomain() *producer.Plot {
	return &producer.Plot{
		ID:           m.ID,
		ProducerCode: m.ProducerCode,
		Number:       m.Number,
		DeclaredArea: m.DeclaredArea,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		Rotation:     m.Rotation,
		Irrigation:   m.Irrigation,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PlotModelFromDomain creates a persistence model from a domain Plot
func PlotModelFromDomain(p *producer.Plot) *PlotModel {
	return &PlotModel{
		BaseModel:    BaseModel{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		ProducerCode: p.ProducerCode,
		Number:       p.Number,
		DeclaredArea: p.DeclaredArea,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Rotation:     p.Rotation,
		Irrigation:   p.Irrigation,
		Active:       p.Active,
	}
}

// GestionModel is the persistence model for producer.Gestion
type GestionModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	Year   int       `gorm:"not null;uniqueIndex"`
	Active bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GestionModel) TableName() string {
	return "gestiones"
}

// ToDomain converts the persistence model to a domain Gestion
func (m *GestionModel) ToDomain() *producer.Gestion {
	return &producer.Gestion{ID: m.ID, Year: m.Year, Active: m.Active}
}
