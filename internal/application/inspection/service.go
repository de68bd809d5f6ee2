package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/domain/producer"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/logger"
	"github.com/agrocert/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const serviceName = "FichaService"

// Synchronizer propagates an approved ficha to the producer's master data.
// Implementations must be safe to call again for the same ficha.
type Synchronizer interface {
	SyncApprovedFicha(ctx context.Context, fichaID uuid.UUID) error
}

// ServiceConfig holds the workflow knobs of FichaService
type ServiceConfig struct {
	// SurfaceTolerance of zero warns on any deviation; negative means unset
	SurfaceTolerance decimal.Decimal
	SyncTimeout      time.Duration
	DraftTTL         time.Duration
}

// DefaultServiceConfig returns the configuration used when none is given
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SurfaceTolerance: inspection.DefaultSurfaceTolerance,
		SyncTimeout:      30 * time.Second,
		DraftTTL:         7 * 24 * time.Hour,
	}
}

// FichaService orchestrates the ficha workflow: creation and replacement of
// the aggregate, the review transitions and the approval saga.
type FichaService struct {
	fichaRepo    inspection.FichaRepository
	producerRepo producer.ProducerRepository
	plotRepo     producer.PlotRepository
	gestionRepo  producer.GestionRepository
	synchronizer Synchronizer
	draftStore   inspection.DraftStore
	metrics      *telemetry.InspectionMetrics
	logger       *zap.Logger
	cfg          ServiceConfig
}

// NewFichaService creates a new FichaService
func NewFichaService(
	fichaRepo inspection.FichaRepository,
	producerRepo producer.ProducerRepository,
	plotRepo producer.PlotRepository,
	gestionRepo producer.GestionRepository,
	synchronizer Synchronizer,
	cfg ServiceConfig,
) *FichaService {
	if cfg.SurfaceTolerance.IsNegative() {
		cfg.SurfaceTolerance = inspection.DefaultSurfaceTolerance
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = DefaultServiceConfig().DraftTTL
	}
	return &FichaService{
		fichaRepo:    fichaRepo,
		producerRepo: producerRepo,
		plotRepo:     plotRepo,
		gestionRepo:  gestionRepo,
		synchronizer: synchronizer,
		logger:       zap.NewNop(),
		cfg:          cfg,
	}
}

// SetDraftStore sets the saved-draft store
func (s *FichaService) SetDraftStore(store inspection.DraftStore) {
	s.draftStore = store
}

// SetMetrics sets the workflow metrics
func (s *FichaService) SetMetrics(m *telemetry.InspectionMetrics) {
	s.metrics = m
}

// SetLogger sets the base logger
func (s *FichaService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *FichaService) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, s.logger)
}

// Create opens a ficha with its sections in one transaction. The matching
// saved draft, if any, is deleted afterwards on a best-effort basis.
func (s *FichaService) Create(ctx context.Context, auth AuthContext, req CreateFichaRequest) (resp *FichaCompletaResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Create",
		attribute.String(telemetry.SpanAttrProducerCode, req.ProducerCode))
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	if auth.UserID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Caller identity is required")
	}
	if _, err := s.authorizeProducer(ctx, auth, req.ProducerCode); err != nil {
		return nil, err
	}
	gestion, err := s.gestionRepo.FindByID(ctx, req.GestionID)
	if err != nil {
		return nil, err
	}

	// NewFicha enforces that the inspection date falls in the gestion year
	ficha, err := inspection.NewFicha(req.toParams(gestion, auth.UserID))
	if err != nil {
		return nil, err
	}
	sections := req.SectionsDTO.ToDomain()
	if err := sections.Validate(); err != nil {
		return nil, err
	}

	created, err := s.fichaRepo.CreateFichaCompleta(ctx, &inspection.FichaCompleta{Ficha: *ficha, Sections: sections})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordFichaCreated(ctx, string(created.Ficha.CaptureOrigin))
	s.log(ctx).Info("Ficha created",
		zap.String("ficha_id", created.Ficha.ID.String()),
		zap.String("producer_code", created.Ficha.ProducerCode),
		zap.Int("gestion_year", created.Ficha.GestionYear),
	)

	s.discardDraft(ctx, inspection.DraftKey{
		ProducerCode: created.Ficha.ProducerCode,
		GestionYear:  created.Ficha.GestionYear,
		CreatedBy:    auth.UserID,
	})

	response := ToFichaCompletaResponse(created)
	return &response, nil
}

// discardDraft deletes the saved draft that a creation supersedes. Failures
// are logged and never affect the caller.
func (s *FichaService) discardDraft(ctx context.Context, key inspection.DraftKey) {
	if s.draftStore == nil {
		return
	}
	if err := s.draftStore.Delete(ctx, key); err != nil {
		s.log(ctx).Warn("Failed to delete saved draft after ficha creation",
			zap.String("draft_key", key.String()),
			zap.Error(err),
		)
	}
}

// Get returns the full aggregate of a ficha the caller may see
func (s *FichaService) Get(ctx context.Context, auth AuthContext, id uuid.UUID) (resp *FichaCompletaResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Get",
		attribute.String(telemetry.SpanAttrFichaID, id.String()))
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	agg, err := s.fichaRepo.FindCompleta(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeProducer(ctx, auth, agg.Ficha.ProducerCode); err != nil {
		return nil, err
	}
	response := ToFichaCompletaResponse(agg)
	return &response, nil
}

// List returns a page of fichas restricted to the caller's communities
func (s *FichaService) List(ctx context.Context, auth AuthContext, req ListFichasRequest) (items []FichaResponse, total int64, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "List")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}
	status := inspection.FichaStatus(req.Status)
	if status != "" && !status.IsValid() {
		return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown ficha status %q", req.Status))
	}

	fichas, total, err := s.fichaRepo.List(ctx, inspection.ListFilter{
		Page:            req.Page,
		PageSize:        req.PageSize,
		Status:          status,
		GestionYear:     req.GestionYear,
		ProducerCode:    req.ProducerCode,
		CommunityIDs:    auth.communityFilter(),
		IncludeInactive: req.IncludeInactive,
	})
	if err != nil {
		return nil, 0, err
	}
	return ToFichaResponses(fichas), total, nil
}

// Update edits an active draft. Sections omitted from the request keep their
// stored rows; sections sent as empty arrays are cleared.
func (s *FichaService) Update(ctx context.Context, auth AuthContext, id uuid.UUID, req UpdateFichaRequest) (resp *FichaCompletaResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Update",
		attribute.String(telemetry.SpanAttrFichaID, id.String()))
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	ficha, err := s.loadAuthorized(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if err := ficha.ApplyChanges(req.toChanges()); err != nil {
		return nil, err
	}
	sections := req.SectionsDTO.ToDomain()
	if err := sections.Validate(); err != nil {
		return nil, err
	}
	ficha.IncrementVersion()

	updated, err := s.fichaRepo.UpdateFichaCompleta(ctx, ficha, sections)
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("Ficha updated", zap.String("ficha_id", id.String()))
	response := ToFichaCompletaResponse(updated)
	return &response, nil
}

// SubmitForReview moves a draft to revision. When the ficha has crop rows
// the surface rule runs against the producer's active plots first; its
// errors block the submission and its warnings are returned and logged.
func (s *FichaService) SubmitForReview(ctx context.Context, auth AuthContext, id uuid.UUID) (resp *SubmitForReviewResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "SubmitForReview",
		attribute.String(telemetry.SpanAttrFichaID, id.String()))
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	root, err := s.loadAuthorized(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if err := root.CheckCanSubmitForReview(); err != nil {
		return nil, err
	}

	agg, err := s.fichaRepo.FindCompleta(ctx, id)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if len(agg.CropDetails) > 0 {
		plots, err := s.plotRepo.FindActiveByProducer(ctx, agg.Ficha.ProducerCode)
		if err != nil {
			return nil, err
		}
		result := inspection.ValidateSurfaces(plots, agg.CropDetails,
			inspection.SurfacePolicy{ToleranceRatio: s.cfg.SurfaceTolerance})
		if !result.Valid {
			s.metrics.RecordSurfaceErrors(ctx, len(result.Errors))
			s.log(ctx).Info("Ficha blocked by surface validation",
				zap.String("ficha_id", id.String()),
				zap.Strings("errors", result.Errors),
			)
			return nil, &SurfaceValidationError{Result: result}
		}
		if len(result.Warnings) > 0 {
			warnings = result.Warnings
			telemetry.AddEvent(span, "surface.warnings")
			s.log(ctx).Warn("Surface validation warnings",
				zap.String("ficha_id", id.String()),
				zap.Strings("warnings", result.Warnings),
			)
		}
	}

	ficha := &agg.Ficha
	if err := ficha.SubmitForReview(); err != nil {
		return nil, err
	}
	if err := s.persistRoot(ctx, ficha); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, "submit_for_review", string(ficha.Status))
	s.log(ctx).Info("Ficha submitted for review", zap.String("ficha_id", id.String()))

	return &SubmitForReviewResponse{Ficha: ToFichaResponse(ficha), SurfaceWarnings: warnings}, nil
}

// Approve approves a ficha under review and synchronizes it downstream.
//
// The approval is persisted before synchronization runs. If synchronization
// fails, the ficha is moved to rechazado with the failure as the reason, that
// state is persisted, and an *ApprovalRevertedError is returned.
func (s *FichaService) Approve(ctx context.Context, auth AuthContext, id uuid.UUID, req ApproveFichaRequest) (resp *FichaResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Approve",
		attribute.String(telemetry.SpanAttrFichaID, id.String()))
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	ficha, err := s.loadAuthorized(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if err := ficha.Approve(req.Comments); err != nil {
		return nil, err
	}
	if err := s.persistRoot(ctx, ficha); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, "approve", string(ficha.Status))

	syncErr := s.synchronize(ctx, id)
	if syncErr == nil {
		ficha.MarkSynced()
		telemetry.AddEvent(span, "ficha.synced")
		s.log(ctx).Info("Ficha approved and synchronized", zap.String("ficha_id", id.String()))
		response := ToFichaResponse(ficha)
		return &response, nil
	}

	s.log(ctx).Warn("Synchronization failed after approval, compensating",
		zap.String("ficha_id", id.String()),
		zap.Error(syncErr),
	)
	return nil, s.compensateApproval(ctx, ficha, syncErr)
}

func (s *FichaService) synchronize(ctx context.Context, id uuid.UUID) error {
	if s.synchronizer == nil {
		return shared.NewDomainError(shared.CodeInfrastructure, "No synchronizer configured")
	}
	syncCtx := ctx
	if s.cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		syncCtx, cancel = context.WithTimeout(ctx, s.cfg.SyncTimeout)
		defer cancel()
	}
	start := time.Now()
	err := s.synchronizer.SyncApprovedFicha(syncCtx, id)
	s.metrics.RecordSync(ctx, time.Since(start), err)
	return err
}

// compensateApproval forces the approved ficha into rechazado. It runs
// detached from the caller's cancellation so a dropped request cannot leave
// an unsynchronized approval behind.
func (s *FichaService) compensateApproval(ctx context.Context, ficha *inspection.Ficha, syncErr error) error {
	if err := ficha.CompensateApproval(fmt.Sprintf("Synchronization failed: %v", syncErr)); err != nil {
		return err
	}
	if err := s.persistRoot(context.WithoutCancel(ctx), ficha); err != nil {
		s.log(ctx).Error("Failed to persist approval compensation",
			zap.String("ficha_id", ficha.ID.String()),
			zap.NamedError("sync_error", syncErr),
			zap.Error(err),
		)
		return shared.WrapDomainError(shared.CodeInfrastructure,
			"Synchronization failed after approval and the approval could not be reverted",
			errors.Join(syncErr, err))
	}
	s.metrics.RecordApprovalReverted(ctx)
	s.metrics.RecordTransition(ctx, "compensate_approval", string(ficha.Status))
	return &ApprovalRevertedError{FichaID: ficha.ID, Cause: syncErr}
}

// Reject rejects a ficha under review. It has no downstream effects.
func (s *FichaService) Reject(ctx context.Context, auth AuthContext, id uuid.UUID, req RejectFichaRequest) (*FichaResponse, error) {
	return s.transition(ctx, auth, id, "reject", func(f *inspection.Ficha) error {
		return f.Reject(req.Reason)
	})
}

// ReturnToDraft reopens a rejected ficha for editing
func (s *FichaService) ReturnToDraft(ctx context.Context, auth AuthContext, id uuid.UUID) (*FichaResponse, error) {
	return s.transition(ctx, auth, id, "return_to_draft", (*inspection.Ficha).ReturnToDraft)
}

// Deactivate soft-deletes a draft ficha
func (s *FichaService) Deactivate(ctx context.Context, auth AuthContext, id uuid.UUID) error {
	_, err := s.transition(ctx, auth, id, "deactivate", (*inspection.Ficha).Deactivate)
	return err
}

// transition loads the ficha, applies a guarded state change and persists the root
func (s *FichaService) transition(ctx context.Context, auth AuthContext, id uuid.UUID, name string, apply func(*inspection.Ficha) error) (resp *FichaResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, name,
		attribute.String(telemetry.SpanAttrFichaID, id.String()))
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	ficha, err := s.loadAuthorized(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if err := apply(ficha); err != nil {
		return nil, err
	}
	if err := s.persistRoot(ctx, ficha); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(ctx, name, string(ficha.Status))
	s.log(ctx).Info("Ficha transition applied",
		zap.String("ficha_id", id.String()),
		zap.String("transition", name),
		zap.String("status", string(ficha.Status)),
	)
	response := ToFichaResponse(ficha)
	return &response, nil
}

// loadAuthorized loads an active ficha root and checks the caller's scope
func (s *FichaService) loadAuthorized(ctx context.Context, auth AuthContext, id uuid.UUID) (*inspection.Ficha, error) {
	ficha, err := s.fichaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeProducer(ctx, auth, ficha.ProducerCode); err != nil {
		return nil, err
	}
	if !ficha.Active {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Ficha is inactive")
	}
	return ficha, nil
}

// authorizeProducer loads the producer and checks it is within the caller's communities
func (s *FichaService) authorizeProducer(ctx context.Context, auth AuthContext, code string) (*producer.Producer, error) {
	p, err := s.producerRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !auth.canAccess(p) {
		s.log(ctx).Info("Producer outside caller scope",
			zap.String("producer_code", code),
			zap.String("user_id", auth.UserID.String()),
		)
		return nil, shared.NewDomainError(shared.CodeForbidden, "Producer is outside your communities")
	}
	return p, nil
}

func (s *FichaService) persistRoot(ctx context.Context, ficha *inspection.Ficha) error {
	ficha.IncrementVersion()
	return s.fichaRepo.UpdateRoot(ctx, ficha)
}

// SaveDraft stores the caller's work-in-progress ficha for a producer and period
func (s *FichaService) SaveDraft(ctx context.Context, auth AuthContext, req SaveDraftRequest) (resp *DraftResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "SaveDraft",
		attribute.String(telemetry.SpanAttrProducerCode, req.ProducerCode))
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	store, err := s.drafts()
	if err != nil {
		return nil, err
	}
	key := inspection.DraftKey{ProducerCode: req.ProducerCode, GestionYear: req.GestionYear, CreatedBy: auth.UserID}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if !json.Valid(req.Payload) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Draft payload must be a JSON document")
	}
	if _, err := s.authorizeProducer(ctx, auth, req.ProducerCode); err != nil {
		return nil, err
	}

	draft := inspection.Draft{Key: key, Payload: req.Payload, SavedAt: time.Now()}
	if err := store.Save(ctx, draft, s.cfg.DraftTTL); err != nil {
		return nil, err
	}
	response := ToDraftResponse(&draft)
	return &response, nil
}

// GetDraft returns the caller's saved draft
func (s *FichaService) GetDraft(ctx context.Context, auth AuthContext, req DraftKeyRequest) (*DraftResponse, error) {
	store, err := s.drafts()
	if err != nil {
		return nil, err
	}
	key := inspection.DraftKey{ProducerCode: req.ProducerCode, GestionYear: req.GestionYear, CreatedBy: auth.UserID}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	draft, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	response := ToDraftResponse(draft)
	return &response, nil
}

// DeleteDraft removes the caller's saved draft. Deleting a missing draft succeeds.
func (s *FichaService) DeleteDraft(ctx context.Context, auth AuthContext, req DraftKeyRequest) error {
	store, err := s.drafts()
	if err != nil {
		return err
	}
	key := inspection.DraftKey{ProducerCode: req.ProducerCode, GestionYear: req.GestionYear, CreatedBy: auth.UserID}
	if err := key.Validate(); err != nil {
		return err
	}
	return store.Delete(ctx, key)
}

func (s *FichaService) drafts() (inspection.DraftStore, error) {
	if s.draftStore == nil {
		return nil, shared.NewDomainError(shared.CodeInfrastructure, "Draft store is not configured")
	}
	return s.draftStore, nil
}
