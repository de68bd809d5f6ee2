package inspection

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentationReview is the checklist of producer documents seen during the inspection (1:1)
type DocumentationReview struct {
	FichaID            uuid.UUID
	AdmissionRequest   bool
	StandardsAndRules  bool
	ProductionContract bool
	UnitSketch         bool
	FieldDiary         bool
	HarvestRecord      bool
	PaymentReceipt     bool
	Observations       string
}

// MitigationEvaluation records contamination risk and barriers (1:1)
type MitigationEvaluation struct {
	FichaID                   uuid.UUID
	NeighborContaminationRisk bool
	BarrierType               string
	MitigationPractices       string
	Observations              string
}

// PostHarvestEvaluation records storage and handling after harvest (1:1)
type PostHarvestEvaluation struct {
	FichaID                   uuid.UUID
	StorageConditions         string
	CleanContainers           bool
	SeparatedFromConventional bool
	Observations              string
}

// KnowledgeEvaluation records what the producer knows of the organic standard (1:1)
type KnowledgeEvaluation struct {
	FichaID               uuid.UUID
	KnowsStandards        bool
	KnowsProhibitedInputs bool
	KnowsInternalControl  bool
	Observations          string
}

// CorrectiveAction is an action agreed with the producer
type CorrectiveAction struct {
	ID             uuid.UUID
	FichaID        uuid.UUID
	Position       int
	Description    string
	Implementation string
	DueDate        *time.Time
}

// NonConformity is a deviation from the standard found during the inspection
type NonConformity struct {
	ID             uuid.UUID
	FichaID        uuid.UUID
	Position       int
	Description    string
	ProposedAction string
	DueDate        *time.Time
	FollowUpStatus string
}

// LivestockActivity describes animals kept on the production unit
type LivestockActivity struct {
	ID               uuid.UUID
	FichaID          uuid.UUID
	Position         int
	AnimalType       string
	HeadCount        int
	ManagementSystem string
	ManureUse        string
}

// CropDetail allocates an area of one plot to one crop. These rows are what
// the surface validation rule reconciles against declared plot areas.
type CropDetail struct {
	ID               uuid.UUID
	FichaID          uuid.UUID
	Position         int
	PlotID           uuid.UUID
	CropTypeID       uuid.UUID
	Area             decimal.Decimal
	CurrentSituation string
	SeedOrigin       string
	Organic          bool
}

// HarvestSale records the estimated harvest and sales of a crop
type HarvestSale struct {
	ID                 uuid.UUID
	FichaID            uuid.UUID
	Position           int
	CropTypeID         uuid.UUID
	Area               decimal.Decimal
	EstimatedHarvestQQ decimal.Decimal
	SoldQQ             decimal.Decimal
	Destination        string
}

// SowingPlan is a planned sowing for the next season
type SowingPlan struct {
	ID           uuid.UUID
	FichaID      uuid.UUID
	Position     int
	PlotID       uuid.UUID
	CropTypeID   uuid.UUID
	PlannedArea  decimal.Decimal
	Season       string
	Observations string
}

// InspectedPlot holds the plot data captured in the field. On approval these
// values are copied onto the producer's plot.
type InspectedPlot struct {
	ID           uuid.UUID
	FichaID      uuid.UUID
	Position     int
	PlotID       uuid.UUID
	Latitude     *decimal.Decimal
	Longitude    *decimal.Decimal
	Rotation     bool
	Irrigation   bool
	Observations string
}
