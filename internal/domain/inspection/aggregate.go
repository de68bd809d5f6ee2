package inspection

import (
	"fmt"

	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Sections holds the dependent sections of a ficha.
//
// A nil field means the section is absent from the request and is left
// untouched. A non-nil empty slice means the section is present and empty,
// and clears any stored rows.
type Sections struct {
	DocumentationReview   *DocumentationReview
	MitigationEvaluation  *MitigationEvaluation
	PostHarvestEvaluation *PostHarvestEvaluation
	KnowledgeEvaluation   *KnowledgeEvaluation
	CorrectiveActions     []CorrectiveAction
	NonConformities       []NonConformity
	LivestockActivities   []LivestockActivity
	CropDetails           []CropDetail
	HarvestSales          []HarvestSale
	SowingPlans           []SowingPlan
	InspectedPlots        []InspectedPlot
}

// FichaCompleta is a ficha with all of its sections
type FichaCompleta struct {
	Ficha Ficha
	Sections
}

// Validate checks section rows for values that are never acceptable
func (s *Sections) Validate() error {
	for i, c := range s.CropDetails {
		if c.PlotID == uuid.Nil {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Crop detail %d has no plot", i+1))
		}
		if c.CropTypeID == uuid.Nil {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Crop detail %d has no crop type", i+1))
		}
		if !c.Area.IsPositive() {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Crop detail %d area must be positive", i+1))
		}
	}
	for i, p := range s.SowingPlans {
		if p.PlotID == uuid.Nil {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Sowing plan %d has no plot", i+1))
		}
		if p.PlannedArea.IsNegative() {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Sowing plan %d area cannot be negative", i+1))
		}
	}
	for i, p := range s.InspectedPlots {
		if p.PlotID == uuid.Nil {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Inspected plot %d has no plot", i+1))
		}
	}
	for i, l := range s.LivestockActivities {
		if l.HeadCount < 0 {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Livestock activity %d head count cannot be negative", i+1))
		}
	}
	return nil
}

// BindTo attaches every present section to fichaID. Rows of list sections get
// fresh identities and their position in the request, since a replace never
// preserves row identity.
func (s *Sections) BindTo(fichaID uuid.UUID) {
	if s.DocumentationReview != nil {
		s.DocumentationReview.FichaID = fichaID
	}
	if s.MitigationEvaluation != nil {
		s.MitigationEvaluation.FichaID = fichaID
	}
	if s.PostHarvestEvaluation != nil {
		s.PostHarvestEvaluation.FichaID = fichaID
	}
	if s.KnowledgeEvaluation != nil {
		s.KnowledgeEvaluation.FichaID = fichaID
	}
	for i := range s.CorrectiveActions {
		s.CorrectiveActions[i].ID, s.CorrectiveActions[i].FichaID, s.CorrectiveActions[i].Position = uuid.New(), fichaID, i
	}
	for i := range s.NonConformities {
		s.NonConformities[i].ID, s.NonConformities[i].FichaID, s.NonConformities[i].Position = uuid.New(), fichaID, i
	}
	for i := range s.LivestockActivities {
		s.LivestockActivities[i].ID, s.LivestockActivities[i].FichaID, s.LivestockActivities[i].Position = uuid.New(), fichaID, i
	}
	for i := range s.CropDetails {
		s.CropDetails[i].ID, s.CropDetails[i].FichaID, s.CropDetails[i].Position = uuid.New(), fichaID, i
	}
	for i := range s.HarvestSales {
		s.HarvestSales[i].ID, s.HarvestSales[i].FichaID, s.HarvestSales[i].Position = uuid.New(), fichaID, i
	}
	for i := range s.SowingPlans {
		s.SowingPlans[i].ID, s.SowingPlans[i].FichaID, s.SowingPlans[i].Position = uuid.New(), fichaID, i
	}
	for i := range s.InspectedPlots {
		s.InspectedPlots[i].ID, s.InspectedPlots[i].FichaID, s.InspectedPlots[i].Position = uuid.New(), fichaID, i
	}
}

// IsEmpty returns true if no section is present
func (s *Sections) IsEmpty() bool {
	return s.DocumentationReview == nil && s.MitigationEvaluation == nil &&
		s.PostHarvestEvaluation == nil && s.KnowledgeEvaluation == nil &&
		s.CorrectiveActions == nil && s.NonConformities == nil &&
		s.LivestockActivities == nil && s.CropDetails == nil &&
		s.HarvestSales == nil && s.SowingPlans == nil && s.InspectedPlots == nil
}
