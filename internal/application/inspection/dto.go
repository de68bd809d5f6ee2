package inspection

import (
	"encoding/json"
	"time"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/domain/producer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthContext is the caller's authorization scope. Elevated callers see every
// producer; everyone else is limited to producers of their communities.
type AuthContext struct {
	UserID       uuid.UUID
	Elevated     bool
	CommunityIDs []uuid.UUID
}

// canAccess reports whether the caller may act on fichas of p
func (a AuthContext) canAccess(p *producer.Producer) bool {
	return a.Elevated || p.InCommunity(a.CommunityIDs)
}

// communityFilter returns the listing restriction: nil for elevated callers,
// otherwise a non-nil slice so that a caller without communities sees nothing.
func (a AuthContext) communityFilter() []uuid.UUID {
	if a.Elevated {
		return nil
	}
	if a.CommunityIDs == nil {
		return []uuid.UUID{}
	}
	return a.CommunityIDs
}

// ==================== Section DTOs ====================

// SectionsDTO carries the dependent sections of a ficha. In requests an
// omitted key leaves the stored section untouched while an empty array clears it.
type SectionsDTO struct {
	DocumentationReview   *DocumentationReviewDTO   `json:"documentation_review,omitempty"`
	MitigationEvaluation  *MitigationEvaluationDTO  `json:"mitigation_evaluation,omitempty"`
	PostHarvestEvaluation *PostHarvestEvaluationDTO `json:"post_harvest_evaluation,omitempty"`
	KnowledgeEvaluation   *KnowledgeEvaluationDTO   `json:"knowledge_evaluation,omitempty"`
	CorrectiveActions     []CorrectiveActionDTO     `json:"corrective_actions,omitempty" binding:"omitempty,dive"`
	NonConformities       []NonConformityDTO        `json:"non_conformities,omitempty" binding:"omitempty,dive"`
	LivestockActivities   []LivestockActivityDTO    `json:"livestock_activities,omitempty" binding:"omitempty,dive"`
	CropDetails           []CropDetailDTO           `json:"crop_details,omitempty" binding:"omitempty,dive"`
	HarvestSales          []HarvestSaleDTO          `json:"harvest_sales,omitempty" binding:"omitempty,dive"`
	SowingPlans           []SowingPlanDTO           `json:"sowing_plans,omitempty" binding:"omitempty,dive"`
	InspectedPlots        []InspectedPlotDTO        `json:"inspected_plots,omitempty" binding:"omitempty,dive"`
}

// DocumentationReviewDTO is the documents checklist
type DocumentationReviewDTO struct {
	AdmissionRequest   bool   `json:"admission_request"`
	StandardsAndRules  bool   `json:"standards_and_rules"`
	ProductionContract bool   `json:"production_contract"`
	UnitSketch         bool   `json:"unit_sketch"`
	FieldDiary         bool   `json:"field_diary"`
	HarvestRecord      bool   `json:"harvest_record"`
	PaymentReceipt     bool   `json:"payment_receipt"`
	Observations       string `json:"observations"`
}

// MitigationEvaluationDTO is the contamination risk evaluation
type MitigationEvaluationDTO struct {
	NeighborContaminationRisk bool   `json:"neighbor_contamination_risk"`
	BarrierType               string `json:"barrier_type"`
	MitigationPractices       string `json:"mitigation_practices"`
	Observations              string `json:"observations"`
}

// PostHarvestEvaluationDTO is the post-harvest handling evaluation
type PostHarvestEvaluationDTO struct {
	StorageConditions         string `json:"storage_conditions"`
	CleanContainers           bool   `json:"clean_containers"`
	SeparatedFromConventional bool   `json:"separated_from_conventional"`
	Observations              string `json:"observations"`
}

// KnowledgeEvaluationDTO is the standards knowledge evaluation
type KnowledgeEvaluationDTO struct {
	KnowsStandards        bool   `json:"knows_standards"`
	KnowsProhibitedInputs bool   `json:"knows_prohibited_inputs"`
	KnowsInternalControl  bool   `json:"knows_internal_control"`
	Observations          string `json:"observations"`
}

// CorrectiveActionDTO is an agreed corrective action
type CorrectiveActionDTO struct {
	ID             uuid.UUID  `json:"id,omitempty"`
	Description    string     `json:"description" binding:"required,max=2000"`
	Implementation string     `json:"implementation"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

// NonConformityDTO is a non-conformity found in the field
type NonConformityDTO struct {
	ID             uuid.UUID  `json:"id,omitempty"`
	Description    string     `json:"description" binding:"required,max=2000"`
	ProposedAction string     `json:"proposed_action"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	FollowUpStatus string     `json:"follow_up_status"`
}

// LivestockActivityDTO describes animals on the unit
type LivestockActivityDTO struct {
	ID               uuid.UUID `json:"id,omitempty"`
	AnimalType       string    `json:"animal_type" binding:"required,max=100"`
	HeadCount        int       `json:"head_count" binding:"gte=0"`
	ManagementSystem string    `json:"management_system"`
	ManureUse        string    `json:"manure_use"`
}

// CropDetailDTO allocates plot area to a crop
type CropDetailDTO struct {
	ID               uuid.UUID       `json:"id,omitempty"`
	PlotID           uuid.UUID       `json:"plot_id" binding:"required"`
	CropTypeID       uuid.UUID       `json:"crop_type_id" binding:"required"`
	Area             decimal.Decimal `json:"area" binding:"gt=0"`
	CurrentSituation string          `json:"current_situation"`
	SeedOrigin       string          `json:"seed_origin"`
	Organic          bool            `json:"organic"`
}

// HarvestSaleDTO is an estimated harvest and sale
type HarvestSaleDTO struct {
	ID                 uuid.UUID       `json:"id,omitempty"`
	CropTypeID         uuid.UUID       `json:"crop_type_id" binding:"required"`
	Area               decimal.Decimal `json:"area" binding:"gte=0"`
	EstimatedHarvestQQ decimal.Decimal `json:"estimated_harvest_qq" binding:"gte=0"`
	SoldQQ             decimal.Decimal `json:"sold_qq" binding:"gte=0"`
	Destination        string          `json:"destination"`
}

// SowingPlanDTO is a planned sowing
type SowingPlanDTO struct {
	ID           uuid.UUID       `json:"id,omitempty"`
	PlotID       uuid.UUID       `json:"plot_id" binding:"required"`
	CropTypeID   uuid.UUID       `json:"crop_type_id" binding:"required"`
	PlannedArea  decimal.Decimal `json:"planned_area" binding:"gte=0"`
	Season       string          `json:"season"`
	Observations string          `json:"observations"`
}

// InspectedPlotDTO is the plot data captured in the field
type InspectedPlotDTO struct {
	ID           uuid.UUID        `json:"id,omitempty"`
	PlotID       uuid.UUID        `json:"plot_id" binding:"required"`
	Latitude     *decimal.Decimal `json:"latitude,omitempty"`
	Longitude    *decimal.Decimal `json:"longitude,omitempty"`
	Rotation     bool             `json:"rotation"`
	Irrigation   bool             `json:"irrigation"`
	Observations string           `json:"observations"`
}

// ==================== Request DTOs ====================

// CreateFichaRequest opens a ficha together with any sections captured so far
type CreateFichaRequest struct {
	ProducerCode       string    `json:"producer_code" binding:"required,max=50"`
	GestionID          uuid.UUID `json:"gestion_id" binding:"required"`
	InspectionDate     time.Time `json:"inspection_date" binding:"required"`
	InspectorName      string    `json:"inspector_name" binding:"required,max=200"`
	Interviewee        string    `json:"interviewee" binding:"max=200"`
	PreviousCategory   string    `json:"previous_category" binding:"max=20"`
	CaptureOrigin      string    `json:"capture_origin" binding:"omitempty,oneof=online offline"`
	Recommendations    string    `json:"recommendations"`
	EvaluationComments string    `json:"evaluation_comments"`
	InspectorSignature string    `json:"inspector_signature"`
	ProducerSignature  string    `json:"producer_signature"`
	SectionsDTO
}

// UpdateFichaRequest edits a draft. Nil root fields are left unchanged.
type UpdateFichaRequest struct {
	InspectionDate     *time.Time `json:"inspection_date"`
	InspectorName      *string    `json:"inspector_name" binding:"omitempty,max=200"`
	Interviewee        *string    `json:"interviewee" binding:"omitempty,max=200"`
	PreviousCategory   *string    `json:"previous_category" binding:"omitempty,max=20"`
	CaptureOrigin      *string    `json:"capture_origin" binding:"omitempty,oneof=online offline"`
	Recommendations    *string    `json:"recommendations"`
	EvaluationComments *string    `json:"evaluation_comments"`
	InspectorSignature *string    `json:"inspector_signature"`
	ProducerSignature  *string    `json:"producer_signature"`
	SectionsDTO
}

// ListFichasRequest filters a ficha listing
type ListFichasRequest struct {
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status          string `form:"status" binding:"omitempty,oneof=borrador revision aprobado rechazado"`
	GestionYear     int    `form:"gestion_year" binding:"omitempty,min=1900"`
	ProducerCode    string `form:"producer_code" binding:"omitempty,max=50"`
	IncludeInactive bool   `form:"include_inactive"`
}

// ApproveFichaRequest approves a ficha under review
type ApproveFichaRequest struct {
	Comments string `json:"comments" binding:"max=2000"`
}

// RejectFichaRequest rejects a ficha under review
type RejectFichaRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// SaveDraftRequest stores a work-in-progress ficha
type SaveDraftRequest struct {
	ProducerCode string          `json:"producer_code" binding:"required,max=50"`
	GestionYear  int             `json:"gestion_year" binding:"required,min=1900"`
	Payload      json.RawMessage `json:"payload" binding:"required"`
}

// DraftKeyRequest addresses a saved draft of the caller
type DraftKeyRequest struct {
	ProducerCode string `form:"producer_code" binding:"required,max=50"`
	GestionYear  int    `form:"gestion_year" binding:"required,min=1900"`
}

// ==================== Response DTOs ====================

// FichaResponse is the ficha root
type FichaResponse struct {
	ID                 uuid.UUID `json:"id"`
	ProducerCode       string    `json:"producer_code"`
	GestionID          uuid.UUID `json:"gestion_id"`
	GestionYear        int       `json:"gestion_year"`
	InspectionDate     time.Time `json:"inspection_date"`
	InspectorName      string    `json:"inspector_name"`
	Interviewee        string    `json:"interviewee"`
	PreviousCategory   string    `json:"previous_category"`
	CaptureOrigin      string    `json:"capture_origin"`
	SyncState          string    `json:"sync_state"`
	Status             string    `json:"status"`
	Result             string    `json:"result"`
	Recommendations    string    `json:"recommendations"`
	EvaluationComments string    `json:"evaluation_comments"`
	InspectorSignature string    `json:"inspector_signature"`
	ProducerSignature  string    `json:"producer_signature"`
	CreatedBy          uuid.UUID `json:"created_by"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Version            int       `json:"version"`
}

// FichaCompletaResponse is a ficha with all of its sections
type FichaCompletaResponse struct {
	Ficha    FichaResponse `json:"ficha"`
	Sections SectionsDTO   `json:"sections"`
}

// SubmitForReviewResponse is the submitted ficha plus any non-blocking surface warnings
type SubmitForReviewResponse struct {
	Ficha           FichaResponse `json:"ficha"`
	SurfaceWarnings []string      `json:"surface_warnings,omitempty"`
}

// DraftResponse is a saved draft
type DraftResponse struct {
	ProducerCode string          `json:"producer_code"`
	GestionYear  int             `json:"gestion_year"`
	CreatedBy    uuid.UUID       `json:"created_by"`
	Payload      json.RawMessage `json:"payload"`
	SavedAt      time.Time       `json:"saved_at"`
}

// ==================== Converters ====================

func (r CreateFichaRequest) toParams(gestion *producer.Gestion, createdBy uuid.UUID) inspection.NewFichaParams {
	return inspection.NewFichaParams{
		ProducerCode:       r.ProducerCode,
		GestionID:          gestion.ID,
		GestionYear:        gestion.Year,
		InspectionDate:     r.InspectionDate,
		InspectorName:      r.InspectorName,
		Interviewee:        r.Interviewee,
		PreviousCategory:   r.PreviousCategory,
		CaptureOrigin:      inspection.CaptureOrigin(r.CaptureOrigin),
		Recommendations:    r.Recommendations,
		EvaluationComments: r.EvaluationComments,
		InspectorSignature: r.InspectorSignature,
		ProducerSignature:  r.ProducerSignature,
		CreatedBy:          createdBy,
	}
}

func (r UpdateFichaRequest) toChanges() inspection.RootChanges {
	c := inspection.RootChanges{
		InspectionDate:     r.InspectionDate,
		InspectorName:      r.InspectorName,
		Interviewee:        r.Interviewee,
		PreviousCategory:   r.PreviousCategory,
		Recommendations:    r.Recommendations,
		EvaluationComments: r.EvaluationComments,
		InspectorSignature: r.InspectorSignature,
		ProducerSignature:  r.ProducerSignature,
	}
	if r.CaptureOrigin != nil {
		origin := inspection.CaptureOrigin(*r.CaptureOrigin)
		c.CaptureOrigin = &origin
	}
	return c
}

// ToDomain converts the DTO, keeping the nil-versus-empty distinction of every list.
func (s SectionsDTO) ToDomain() inspection.Sections {
	var out inspection.Sections
	if d := s.DocumentationReview; d != nil {
		out.DocumentationReview = &inspection.DocumentationReview{
			AdmissionRequest:   d.AdmissionRequest,
			StandardsAndRules:  d.StandardsAndRules,
			ProductionContract: d.ProductionContract,
			UnitSketch:         d.UnitSketch,
			FieldDiary:         d.FieldDiary,
			HarvestRecord:      d.HarvestRecord,
			PaymentReceipt:     d.PaymentReceipt,
			Observations:       d.Observations,
		}
	}
	if m := s.MitigationEvaluation; m != nil {
		out.MitigationEvaluation = &inspection.MitigationEvaluation{
			NeighborContaminationRisk: m.NeighborContaminationRisk,
			BarrierType:               m.BarrierType,
			MitigationPractices:       m.MitigationPractices,
			Observations:              m.Observations,
		}
	}
	if p := s.PostHarvestEvaluation; p != nil {
		out.PostHarvestEvaluation = &inspection.PostHarvestEvaluation{
			StorageConditions:         p.StorageConditions,
			CleanContainers:           p.CleanContainers,
			SeparatedFromConventional: p.SeparatedFromConventional,
			Observations:              p.Observations,
		}
	}
	if k := s.KnowledgeEvaluation; k != nil {
		out.KnowledgeEvaluation = &inspection.KnowledgeEvaluation{
			KnowsStandards:        k.KnowsStandards,
			KnowsProhibitedInputs: k.KnowsProhibitedInputs,
			KnowsInternalControl:  k.KnowsInternalControl,
			Observations:          k.Observations,
		}
	}
	if s.CorrectiveActions != nil {
		out.CorrectiveActions = make([]inspection.CorrectiveAction, len(s.CorrectiveActions))
		for i, a := range s.CorrectiveActions {
			out.CorrectiveActions[i] = inspection.CorrectiveAction{
				Description:    a.Description,
				Implementation: a.Implementation,
				DueDate:        a.DueDate,
			}
		}
	}
	if s.NonConformities != nil {
		out.NonConformities = make([]inspection.NonConformity, len(s.NonConformities))
		for i, n := range s.NonConformities {
			out.NonConformities[i] = inspection.NonConformity{
				Description:    n.Description,
				ProposedAction: n.ProposedAction,
				DueDate:        n.DueDate,
				FollowUpStatus: n.FollowUpStatus,
			}
		}
	}
	if s.LivestockActivities != nil {
		out.LivestockActivities = make([]inspection.LivestockActivity, len(s.LivestockActivities))
		for i, l := range s.LivestockActivities {
			out.LivestockActivities[i] = inspection.LivestockActivity{
				AnimalType:       l.AnimalType,
				HeadCount:        l.HeadCount,
				ManagementSystem: l.ManagementSystem,
				ManureUse:        l.ManureUse,
			}
		}
	}
	if s.CropDetails != nil {
		out.CropDetails = make([]inspection.CropDetail, len(s.CropDetails))
		for i, c := range s.CropDetails {
			out.CropDetails[i] = inspection.CropDetail{
				PlotID:           c.PlotID,
				CropTypeID:       c.CropTypeID,
				Area:             c.Area,
				CurrentSituation: c.CurrentSituation,
				SeedOrigin:       c.SeedOrigin,
				Organic:          c.Organic,
			}
		}
	}
	if s.HarvestSales != nil {
		out.HarvestSales = make([]inspection.HarvestSale, len(s.HarvestSales))
		for i, h := range s.HarvestSales {
			out.HarvestSales[i] = inspection.HarvestSale{
				CropTypeID:         h.CropTypeID,
				Area:               h.Area,
				EstimatedHarvestQQ: h.EstimatedHarvestQQ,
				SoldQQ:             h.SoldQQ,
				Destination:        h.Destination,
			}
		}
	}
	if s.SowingPlans != nil {
		out.SowingPlans = make([]inspection.SowingPlan, len(s.SowingPlans))
		for i, p := range s.SowingPlans {
			out.SowingPlans[i] = inspection.SowingPlan{
				PlotID:       p.PlotID,
				CropTypeID:   p.CropTypeID,
				PlannedArea:  p.PlannedArea,
				Season:       p.Season,
				Observations: p.Observations,
			}
		}
	}
	if s.InspectedPlots != nil {
		out.InspectedPlots = make([]inspection.InspectedPlot, len(s.InspectedPlots))
		for i, p := range s.InspectedPlots {
			out.InspectedPlots[i] = inspection.InspectedPlot{
				PlotID:       p.PlotID,
				Latitude:     p.Latitude,
				Longitude:    p.Longitude,
				Rotation:     p.Rotation,
				Irrigation:   p.Irrigation,
				Observations: p.Observations,
			}
		}
	}
	return out
}

// ToFichaResponse converts a ficha root
func ToFichaResponse(f *inspection.Ficha) FichaResponse {
	return FichaResponse{
		ID:                 f.ID,
		ProducerCode:       f.ProducerCode,
		GestionID:          f.GestionID,
		GestionYear:        f.GestionYear,
		InspectionDate:     f.InspectionDate,
		InspectorName:      f.InspectorName,
		Interviewee:        f.Interviewee,
		PreviousCategory:   f.PreviousCategory,
		CaptureOrigin:      string(f.CaptureOrigin),
		SyncState:          string(f.SyncState),
		Status:             string(f.Status),
		Result:             string(f.Result),
		Recommendations:    f.Recommendations,
		EvaluationComments: f.EvaluationComments,
		InspectorSignature: f.InspectorSignature,
		ProducerSignature:  f.ProducerSignature,
		CreatedBy:          f.CreatedBy,
		Active:             f.Active,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
		Version:            f.Version,
	}
}

// ToFichaResponses converts a page of roots
func ToFichaResponses(fichas []inspection.Ficha) []FichaResponse {
	responses := make([]FichaResponse, len(fichas))
	for i := range fichas {
		responses[i] = ToFichaResponse(&fichas[i])
	}
	return responses
}

// ToFichaCompletaResponse converts a full aggregate
func ToFichaCompletaResponse(agg *inspection.FichaCompleta) FichaCompletaResponse {
	return FichaCompletaResponse{
		Ficha:    ToFichaResponse(&agg.Ficha),
		Sections: toSectionsDTO(agg.Sections),
	}
}

func toSectionsDTO(s inspection.Sections) SectionsDTO {
	var out SectionsDTO
	if d := s.DocumentationReview; d != nil {
		out.DocumentationReview = &DocumentationReviewDTO{
			AdmissionRequest:   d.AdmissionRequest,
			StandardsAndRules:  d.StandardsAndRules,
			ProductionContract: d.ProductionContract,
			UnitSketch:         d.UnitSketch,
			FieldDiary:         d.FieldDiary,
			HarvestRecord:      d.HarvestRecord,
			PaymentReceipt:     d.PaymentReceipt,
			Observations:       d.Observations,
		}
	}
	if m := s.MitigationEvaluation; m != nil {
		out.MitigationEvaluation = &MitigationEvaluationDTO{
			NeighborContaminationRisk: m.NeighborContaminationRisk,
			BarrierType:               m.BarrierType,
			MitigationPractices:       m.MitigationPractices,
			Observations:              m.Observations,
		}
	}
	if p := s.PostHarvestEvaluation; p != nil {
		out.PostHarvestEvaluation = &PostHarvestEvaluationDTO{
			StorageConditions:         p.StorageConditions,
			CleanContainers:           p.CleanContainers,
			SeparatedFromConventional: p.SeparatedFromConventional,
			Observations:              p.Observations,
		}
	}
	if k := s.KnowledgeEvaluation; k != nil {
		out.KnowledgeEvaluation = &KnowledgeEvaluationDTO{
			KnowsStandards:        k.KnowsStandards,
			KnowsProhibitedInputs: k.KnowsProhibitedInputs,
			KnowsInternalControl:  k.KnowsInternalControl,
			Observations:          k.Observations,
		}
	}
	out.CorrectiveActions = make([]CorrectiveActionDTO, len(s.CorrectiveActions))
	for i, a := range s.CorrectiveActions {
		out.CorrectiveActions[i] = CorrectiveActionDTO{ID: a.ID, Description: a.Description, Implementation: a.Implementation, DueDate: a.DueDate}
	}
	out.NonConformities = make([]NonConformityDTO, len(s.NonConformities))
	for i, n := range s.NonConformities {
		out.NonConformities[i] = NonConformityDTO{ID: n.ID, Description: n.Description, ProposedAction: n.ProposedAction, DueDate: n.DueDate, FollowUpStatus: n.FollowUpStatus}
	}
	out.LivestockActivities = make([]LivestockActivityDTO, len(s.LivestockActivities))
	for i, l := range s.LivestockActivities {
		out.LivestockActivities[i] = LivestockActivityDTO{ID: l.ID, AnimalType: l.AnimalType, HeadCount: l.HeadCount, ManagementSystem: l.ManagementSystem, ManureUse: l.ManureUse}
	}
	out.CropDetails = make([]CropDetailDTO, len(s.CropDetails))
	for i, c := range s.CropDetails {
		out.CropDetails[i] = CropDetailDTO{ID: c.ID, PlotID: c.PlotID, CropTypeID: c.CropTypeID, Area: c.Area, CurrentSituation: c.CurrentSituation, SeedOrigin: c.SeedOrigin, Organic: c.Organic}
	}
	out.HarvestSales = make([]HarvestSaleDTO, len(s.HarvestSales))
	for i, h := range s.HarvestSales {
		out.HarvestSales[i] = HarvestSaleDTO{ID: h.ID, CropTypeID: h.CropTypeID, Area: h.Area, EstimatedHarvestQQ: h.EstimatedHarvestQQ, SoldQQ: h.SoldQQ, Destination: h.Destination}
	}
	out.SowingPlans = make([]SowingPlanDTO, len(s.SowingPlans))
	for i, p := range s.SowingPlans {
		out.SowingPlans[i] = SowingPlanDTO{ID: p.ID, PlotID: p.PlotID, CropTypeID: p.CropTypeID, PlannedArea: p.PlannedArea, Season: p.Season, Observations: p.Observations}
	}
	out.InspectedPlots = make([]InspectedPlotDTO, len(s.InspectedPlots))
	for i, p := range s.InspectedPlots {
		out.InspectedPlots[i] = InspectedPlotDTO{ID: p.ID, PlotID: p.PlotID, Latitude: p.Latitude, Longitude: p.Longitude, Rotation: p.Rotation, Irrigation: p.Irrigation, Observations: p.Observations}
	}
	return out
}

// ToDraftResponse converts a saved draft
func ToDraftResponse(d *inspection.Draft) DraftResponse {
	return DraftResponse{
		ProducerCode: d.Key.ProducerCode,
		GestionYear:  d.Key.GestionYear,
		CreatedBy:    d.Key.CreatedBy,
		Payload:      d.Payload,
		SavedAt:      d.SavedAt,
	}
}
