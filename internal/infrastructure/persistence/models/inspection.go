package models

import (
	"time"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FichaModel is the persistence model for the inspection.Ficha root
type FichaModel struct {
	AggregateModel
	ProducerCode       string                         `gorm:"type:varchar(30);not null;index"`
	GestionID          uuid.UUID                      `gorm:"type:uuid;not null;index"`
	GestionYear        int                            `gorm:"not null;index"`
	InspectionDate     time.Time                      `gorm:"not null"`
	InspectorName      string                         `gorm:"type:varchar(200);not null"`
	Interviewee        string                         `gorm:"type:varchar(200)"`
	PreviousCategory   string                         `gorm:"type:varchar(20)"`
	CaptureOrigin      inspection.CaptureOrigin       `gorm:"type:varchar(20);not null;default:'online'"`
	SyncState          inspection.SyncState           `gorm:"type:varchar(20);not null;default:'pending'"`
	Status             inspection.FichaStatus         `gorm:"type:varchar(20);not null;default:'borrador';index"`
	Result             inspection.CertificationResult `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Recommendations    string                         `gorm:"type:text"`
	EvaluationComments string                         `gorm:"type:text"`
	InspectorSignature string                         `gorm:"type:varchar(200)"`
	ProducerSignature  string                         `gorm:"type:varchar(200)"`
	CreatedBy          uuid.UUID                      `gorm:"type:uuid;not null"`
	Active             bool                           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FichaModel) TableName() string {
	return "fichas"
}

// ToDomain converts the persistence model to a domain Ficha
func (m *FichaModel) ToDomain() *inspection.Ficha {
	return &inspection.Ficha{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		ProducerCode:       m.ProducerCode,
		GestionID:          m.GestionID,
		GestionYear:        m.GestionYear,
		InspectionDate:     m.InspectionDate,
		InspectorName:      m.InspectorName,
		Interviewee:        m.Interviewee,
		PreviousCategory:   m.PreviousCategory,
		CaptureOrigin:      m.CaptureOrigin,
		SyncState:          m.SyncState,
		Status:             m.Status,
		Result:             m.Result,
		Recommendations:    m.Recommendations,
		EvaluationComments: m.EvaluationComments,
		InspectorSignature: m.InspectorSignature,
		ProducerSignature:  m.ProducerSignature,
		CreatedBy:          m.CreatedBy,
		Active:             m.Active,
	}
}

// FichaModelFromDomain creates a persistence model from a domain Ficha
func FichaModelFromDomain(f *inspection.Ficha) *FichaModel {
	m := &FichaModel{
		ProducerCode:       f.ProducerCode,
		GestionID:          f.GestionID,
		GestionYear:        f.GestionYear,
		InspectionDate:     f.InspectionDate,
		InspectorName:      f.InspectorName,
		Interviewee:        f.Interviewee,
		PreviousCategory:   f.PreviousCategory,
		CaptureOrigin:      f.CaptureOrigin,
		SyncState:          f.SyncState,
		Status:             f.Status,
		Result:             f.Result,
		Recommendations:    f.Recommendations,
		EvaluationComments: f.EvaluationComments,
		InspectorSignature: f.InspectorSignature,
		ProducerSignature:  f.ProducerSignature,
		CreatedBy:          f.CreatedBy,
		Active:             f.Active,
	}
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	return m
}

// ============================================
// 1:1 sections, keyed by ficha_id
// ============================================

// DocumentationReviewModel is the persistence model for inspection.DocumentationReview
type DocumentationReviewModel struct {
	FichaID            uuid.UUID `gorm:"type:uuid;primary_key"`
	AdmissionRequest   bool      `gorm:"not null;default:false"`
	StandardsAndRules  bool      `gorm:"not null;default:false"`
	ProductionContract bool      `gorm:"not null;default:false"`
	UnitSketch         bool      `gorm:"not null;default:false"`
	FieldDiary         bool      `gorm:"not null;default:false"`
	HarvestRecord      bool      `gorm:"not null;default:false"`
	PaymentReceipt     bool      `gorm:"not null;default:false"`
	Observations       string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DocumentationReviewModel) TableName() string {
	return "ficha_revision_documentacion"
}

// ToDomain converts the persistence model to the domain section
func (m *DocumentationReviewModel) ToDomain() *inspection.DocumentationReview {
	d := inspection.DocumentationReview(*m)
	return &d
}

// DocumentationReviewFromDomain creates a persistence model from the domain section
func DocumentationReviewFromDomain(d *inspection.DocumentationReview) *DocumentationReviewModel {
	m := DocumentationReviewModel(*d)
	return &m
}

// MitigationEvaluationModel is the persistence model for inspection.MitigationEvaluation
type MitigationEvaluationModel struct {
	FichaID                   uuid.UUID `gorm:"type:uuid;primary_key"`
	NeighborContaminationRisk bool      `gorm:"not null;default:false"`
	BarrierType               string    `gorm:"type:varchar(100)"`
	MitigationPractices       string    `gorm:"type:text"`
	Observations              string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (MitigationEvaluationModel) TableName() string {
	return "ficha_evaluacion_mitigacion"
}

// ToDomain converts the persistence model to the domain section
func (m *MitigationEvaluationModel) ToDomain() *inspection.MitigationEvaluation {
	d := inspection.MitigationEvaluation(*m)
	return &d
}

// MitigationEvaluationFromDomain creates a persistence model from the domain section
func MitigationEvaluationFromDomain(d *inspection.MitigationEvaluation) *MitigationEvaluationModel {
	m := MitigationEvaluationModel(*d)
	return &m
}

// PostHarvestEvaluationModel is the persistence model for inspection.PostHarvestEvaluation
type PostHarvestEvaluationModel struct {
	FichaID                   uuid.UUID `gorm:"type:uuid;primary_key"`
	StorageConditions         string    `gorm:"type:text"`
	CleanContainers           bool      `gorm:"not null;default:false"`
	SeparatedFromConventional bool      `gorm:"not null;default:false"`
	Observations              string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PostHarvestEvaluationModel) TableName() string {
	return "ficha_evaluacion_poscosecha"
}

// ToDomain converts the persistence model to the domain section
func (m *PostHarvestEvaluationModel) ToDomain() *inspection.PostHarvestEvaluation {
	d := inspection.PostHarvestEvaluation(*m)
	return &d
}

// PostHarvestEvaluationFromDomain creates a persistence model from the domain section
func PostHarvestEvaluationFromDomain(d *inspection.PostHarvestEvaluation) *PostHarvestEvaluationModel {
	m := PostHarvestEvaluationModel(*d)
	return &m
}

// KnowledgeEvaluationModel is the persistence model for inspection.KnowledgeEvaluation
type KnowledgeEvaluationModel struct {
	FichaID               uuid.UUID `gorm:"type:uuid;primary_key"`
	KnowsStandards        bool      `gorm:"not null;default:false"`
	KnowsProhibitedInputs bool      `gorm:"not null;default:false"`
	KnowsInternalControl  bool      `gorm:"not null;default:false"`
	Observations          string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (KnowledgeEvaluationModel) TableName() string {
	return "ficha_evaluacion_conocimiento"
}

// ToDomain converts the persistence model to the domain section
func (m *KnowledgeEvaluationModel) ToDomain() *inspection.KnowledgeEvaluation {
	d := inspection.KnowledgeEvaluation(*m)
	return &d
}

// KnowledgeEvaluationFromDomain creates a persistence model from the domain section
func KnowledgeEvaluationFromDomain(d *inspection.KnowledgeEvaluation) *KnowledgeEvaluationModel {
	m := KnowledgeEvaluationModel(*d)
	return &m
}

// ============================================
// 1:n sections, replaced as a whole
// ============================================

// CorrectiveActionModel is the persistence model for inspection.CorrectiveAction
type CorrectiveActionModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	FichaID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Position       int        `gorm:"not null"`
	Description    string     `gorm:"type:text;not null"`
	Implementation string     `gorm:"type:text"`
	DueDate        *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (CorrectiveActionModel) TableName() string {
	return "ficha_acciones_correctivas"
}

// NonConformityModel is the persistence model for inspection.NonConformity
type NonConformityModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	FichaID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Position       int        `gorm:"not null"`
	Description    string     `gorm:"type:text;not null"`
	ProposedAction string     `gorm:"type:text"`
	DueDate        *time.Time `gorm:"type:date"`
	FollowUpStatus string     `gorm:"type:varchar(30)"`
}

// TableName returns the table name for GORM
func (NonConformityModel) TableName() string {
	return "ficha_no_conformidades"
}

// LivestockActivityModel is the persistence model for inspection.LivestockActivity
type LivestockActivityModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	FichaID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Position         int       `gorm:"not null"`
	AnimalType       string    `gorm:"type:varchar(100);not null"`
	HeadCount        int       `gorm:"not null;default:0"`
	ManagementSystem string    `gorm:"type:varchar(100)"`
	ManureUse        string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LivestockActivityModel) TableName() string {
	return "ficha_actividades_pecuarias"
}

// CropDetailModel is the persistence model for inspection.CropDetail
type CropDetailModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	FichaID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position         int             `gorm:"not null"`
	PlotID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	CropTypeID       uuid.UUID       `gorm:"type:uuid;not null"`
	Area             decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	CurrentSituation string          `gorm:"type:varchar(100)"`
	SeedOrigin       string          `gorm:"type:varchar(100)"`
	Organic          bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CropDetailModel) TableName() string {
	return "ficha_detalle_cultivos"
}

// HarvestSaleModel is the persistence model for inspection.HarvestSale
type HarvestSaleModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	FichaID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position           int             `gorm:"not null"`
	CropTypeID         uuid.UUID       `gorm:"type:uuid;not null"`
	Area               decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	EstimatedHarvestQQ decimal.Decimal `gorm:"column:estimated_harvest_qq;type:decimal(12,2);not null;default:0"`
	SoldQQ             decimal.Decimal `gorm:"column:sold_qq;type:decimal(12,2);not null;default:0"`
	Destination        string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (HarvestSaleModel) TableName() string {
	return "ficha_cosecha_ventas"
}

// SowingPlanModel is the persistence model for inspection.SowingPlan
type SowingPlanModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	FichaID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position     int             `gorm:"not null"`
	PlotID       uuid.UUID       `gorm:"type:uuid;not null"`
	CropTypeID   uuid.UUID       `gorm:"type:uuid"`
	PlannedArea  decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Season       string          `gorm:"type:varchar(50)"`
	Observations string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SowingPlanModel) TableName() string {
	return "ficha_planificacion_siembra"
}

// InspectedPlotModel is the persistence model for inspection.InspectedPlot
type InspectedPlotModel struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key"`
	FichaID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Position     int              `gorm:"not null"`
	PlotID       uuid.UUID        `gorm:"type:uuid;not null"`
	Latitude     *decimal.Decimal `gorm:"type:decimal(10,7)"`
	Longitude    *decimal.Decimal `gorm:"type:decimal(10,7)"`
	Rotation     bool             `gorm:"not null;default:false"`
	Irrigation   bool             `gorm:"not null;default:false"`
	Observations string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InspectedPlotModel) TableName() string {
	return "ficha_parcelas_inspeccionadas"
}

// ============================================
// Row conversions
// ============================================

// The list-section models mirror their domain rows field for field, so the
// conversions below are plain struct conversions.

// CorrectiveActionsFromDomain converts domain rows to models
func CorrectiveActionsFromDomain(rows []inspection.CorrectiveAction) []CorrectiveActionModel {
	return convertRows(rows, func(r inspection.CorrectiveAction) CorrectiveActionModel { return CorrectiveActionModel(r) })
}

// CorrectiveActionsToDomain converts models to domain rows
func CorrectiveActionsToDomain(rows []CorrectiveActionModel) []inspection.CorrectiveAction {
	return convertRows(rows, func(r CorrectiveActionModel) inspection.CorrectiveAction { return inspection.CorrectiveAction(r) })
}

// NonConformitiesFromDomain converts domain rows to models
func NonConformitiesFromDomain(rows []inspection.NonConformity) []NonConformityModel {
	return convertRows(rows, func(r inspection.NonConformity) NonConformityModel { return NonConformityModel(r) })
}

// NonConformitiesToDomain converts models to domain rows
func NonConformitiesToDomain(rows []NonConformityModel) []inspection.NonConformity {
	return convertRows(rows, func(r NonConformityModel) inspection.NonConformity { return inspection.NonConformity(r) })
}

// LivestockActivitiesFromDomain converts domain rows to models
func LivestockActivitiesFromDomain(rows []inspection.LivestockActivity) []LivestockActivityModel {
	return convertRows(rows, func(r inspection.LivestockActivity) LivestockActivityModel { return LivestockActivityModel(r) })
}

// LivestockActivitiesToDomain converts models to domain rows
func LivestockActivitiesToDomain(rows []LivestockActivityModel) []inspection.LivestockActivity {
	return convertRows(rows, func(r LivestockActivityModel) inspection.LivestockActivity { return inspection.LivestockActivity(r) })
}

// CropDetailsFromDomain converts domain rows to models
func CropDetailsFromDomain(rows []inspection.CropDetail) []CropDetailModel {
	return convertRows(rows, func(r inspection.CropDetail) CropDetailModel { return CropDetailModel(r) })
}

// CropDetailsToDomain converts models to domain rows
func CropDetailsToDomain(rows []CropDetailModel) []inspection.CropDetail {
	return convertRows(rows, func(r CropDetailModel) inspection.CropDetail { return inspection.CropDetail(r) })
}

// HarvestSalesFromDomain converts domain rows to models
func HarvestSalesFromDomain(rows []inspection.HarvestSale) []HarvestSaleModel {
	return convertRows(rows, func(r inspection.HarvestSale) HarvestSaleModel { return HarvestSaleModel(r) })
}

// HarvestSalesToDomain converts models to domain rows
func HarvestSalesToDomain(rows []HarvestSaleModel) []inspection.HarvestSale {
	return convertRows(rows, func(r HarvestSaleModel) inspection.HarvestSale { return inspection.HarvestSale(r) })
}

// SowingPlansFromDomain converts domain rows to models
func SowingPlansFromDomain(rows []inspection.SowingPlan) []SowingPlanModel {
	return convertRows(rows, func(r inspection.SowingPlan) SowingPlanModel { return SowingPlanModel(r) })
}

// SowingPlansToDomain converts models to domain rows
func SowingPlansToDomain(rows []SowingPlanModel) []inspection.SowingPlan {
	return convertRows(rows, func(r SowingPlanModel) inspection.SowingPlan { return inspection.SowingPlan(r) })
}

// InspectedPlotsFromDomain converts domain rows to models
func InspectedPlotsFromDomain(rows []inspection.InspectedPlot) []InspectedPlotModel {
	return convertRows(rows, func(r inspection.InspectedPlot) InspectedPlotModel { return InspectedPlotModel(r) })
}

// InspectedPlotsToDomain converts models to domain rows
func InspectedPlotsToDomain(rows []InspectedPlotModel) []inspection.InspectedPlot {
	return convertRows(rows, func(r InspectedPlotModel) inspection.InspectedPlot { return inspection.InspectedPlot(r) })
}

func convertRows[S, D any](rows []S, conv func(S) D) []D {
	if rows == nil {
		return nil
	}
	out := make([]D, len(rows))
	for i, r := range rows {
		out[i] = conv(r)
	}
	return out
}
