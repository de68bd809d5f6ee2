// Package inspection models the field-inspection record (ficha) used for
// organic certification: its workflow, its dependent sections and the
// surface reconciliation rule that gates submission for review.
package inspection

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Minimum lengths for user-entered workflow fields
const (
	MinRecommendationsLength    = 10
	MinInspectorSignatureLength = 3
	MinRejectionReasonLength    = 10
)

// FichaStatus is the workflow state of a ficha
type FichaStatus string

const (
	FichaStatusDraft    FichaStatus = "borrador"
	FichaStatusReview   FichaStatus = "revision"
	FichaStatusApproved FichaStatus = "aprobado"
	FichaStatusRejected FichaStatus = "rechazado"
)

// IsValid checks if the status is a known FichaStatus
func (s FichaStatus) IsValid() bool {
	switch s {
	case FichaStatusDraft, FichaStatusReview, FichaStatusApproved, FichaStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of FichaStatus
func (s FichaStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s FichaStatus) CanTransitionTo(target FichaStatus) bool {
	switch s {
	case FichaStatusDraft:
		return target == FichaStatusReview
	case FichaStatusReview:
		return target == FichaStatusApproved || target == FichaStatusRejected
	case FichaStatusRejected:
		return target == FichaStatusDraft
	case FichaStatusApproved:
		return false // Terminal
	}
	return false
}

// CertificationResult is the certification outcome derived from the workflow state
type CertificationResult string

const (
	ResultPending  CertificationResult = "pendiente"
	ResultApproved CertificationResult = "aprobado"
	ResultRejected CertificationResult = "rechazado"
)

// ResultFor returns the only outcome consistent with a workflow state
func ResultFor(status FichaStatus) CertificationResult {
	switch status {
	case FichaStatusApproved:
		return ResultApproved
	case FichaStatusRejected:
		return ResultRejected
	}
	return ResultPending
}

// CaptureOrigin records where a ficha was captured
type CaptureOrigin string

const (
	CaptureOnline  CaptureOrigin = "online"
	CaptureOffline CaptureOrigin = "offline"
)

// IsValid checks if the origin is known
func (o CaptureOrigin) IsValid() bool {
	return o == CaptureOnline || o == CaptureOffline
}

// SyncState tracks downstream synchronization of a ficha
type SyncState string

const (
	SyncPending  SyncState = "pending"
	SyncSynced   SyncState = "synced"
	SyncConflict SyncState = "conflict"
)

// Ficha is the inspection record aggregate root: one inspection of one
// producer in one certification period (gestion).
//
// State is only changed through the guarded methods below. A failed
// transition leaves every field untouched.
type Ficha struct {
	shared.BaseAggregateRoot
	ProducerCode       string
	GestionID          uuid.UUID
	GestionYear        int
	InspectionDate     time.Time
	InspectorName      string
	Interviewee        string
	PreviousCategory   string
	CaptureOrigin      CaptureOrigin
	SyncState          SyncState
	Status             FichaStatus
	Result             CertificationResult
	Recommendations    string
	EvaluationComments string
	InspectorSignature string
	ProducerSignature  string
	CreatedBy          uuid.UUID
	Active             bool
}

// NewFichaParams holds the root fields required to open a ficha
type NewFichaParams struct {
	ProducerCode       string
	GestionID          uuid.UUID
	GestionYear        int
	InspectionDate     time.Time
	InspectorName      string
	Interviewee        string
	PreviousCategory   string
	CaptureOrigin      CaptureOrigin
	Recommendations    string
	EvaluationComments string
	InspectorSignature string
	ProducerSignature  string
	CreatedBy          uuid.UUID
}

// NewFicha creates a ficha in borrador state
func NewFicha(p NewFichaParams) (*Ficha, error) {
	if strings.TrimSpace(p.ProducerCode) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Producer code cannot be empty")
	}
	if p.GestionID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Gestion cannot be empty")
	}
	if p.InspectionDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Inspection date is required")
	}
	if err := checkInspectionYear(p.InspectionDate, p.GestionYear); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.InspectorName) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Inspector name cannot be empty")
	}
	if p.CreatedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Creator cannot be empty")
	}
	origin := p.CaptureOrigin
	if origin == "" {
		origin = CaptureOnline
	}
	if !origin.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown capture origin %q", origin))
	}

	return &Ficha{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		ProducerCode:       strings.TrimSpace(p.ProducerCode),
		GestionID:          p.GestionID,
		GestionYear:        p.GestionYear,
		InspectionDate:     p.InspectionDate,
		InspectorName:      strings.TrimSpace(p.InspectorName),
		Interviewee:        p.Interviewee,
		PreviousCategory:   p.PreviousCategory,
		CaptureOrigin:      origin,
		SyncState:          SyncPending,
		Status:             FichaStatusDraft,
		Result:             ResultPending,
		Recommendations:    p.Recommendations,
		EvaluationComments: p.EvaluationComments,
		InspectorSignature: p.InspectorSignature,
		ProducerSignature:  p.ProducerSignature,
		CreatedBy:          p.CreatedBy,
		Active:             true,
	}, nil
}

func checkInspectionYear(date time.Time, gestionYear int) error {
	if date.Year() != gestionYear {
		return shared.NewDomainError(shared.CodeValidationFailed,
			fmt.Sprintf("Inspection date year %d does not match gestion %d", date.Year(), gestionYear))
	}
	return nil
}

// RootChanges carries optional root-field edits; nil fields are left unchanged
type RootChanges struct {
	InspectionDate     *time.Time
	InspectorName      *string
	Interviewee        *string
	PreviousCategory   *string
	CaptureOrigin      *CaptureOrigin
	Recommendations    *string
	EvaluationComments *string
	InspectorSignature *string
	ProducerSignature  *string
}

// ApplyChanges edits root fields. Only allowed while the ficha is an active draft.
func (f *Ficha) ApplyChanges(c RootChanges) error {
	if !f.CanEdit() {
		return invalidTransition("edit", f.Status, FichaStatusDraft)
	}
	if c.InspectionDate != nil {
		if err := checkInspectionYear(*c.InspectionDate, f.GestionYear); err != nil {
			return err
		}
	}
	if c.InspectorName != nil && strings.TrimSpace(*c.InspectorName) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Inspector name cannot be empty")
	}
	if c.CaptureOrigin != nil && !c.CaptureOrigin.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown capture origin %q", *c.CaptureOrigin))
	}

	if c.InspectionDate != nil {
		f.InspectionDate = *c.InspectionDate
	}
	if c.InspectorName != nil {
		f.InspectorName = strings.TrimSpace(*c.InspectorName)
	}
	if c.Interviewee != nil {
		f.Interviewee = *c.Interviewee
	}
	if c.PreviousCategory != nil {
		f.PreviousCategory = *c.PreviousCategory
	}
	if c.CaptureOrigin != nil {
		f.CaptureOrigin = *c.CaptureOrigin
	}
	if c.Recommendations != nil {
		f.Recommendations = *c.Recommendations
	}
	if c.EvaluationComments != nil {
		f.EvaluationComments = *c.EvaluationComments
	}
	if c.InspectorSignature != nil {
		f.InspectorSignature = *c.InspectorSignature
	}
	if c.ProducerSignature != nil {
		f.ProducerSignature = *c.ProducerSignature
	}
	f.touch()
	return nil
}

// CheckCanSubmitForReview reports whether SubmitForReview is legal from the
// current state, without looking at field contents or mutating anything.
func (f *Ficha) CheckCanSubmitForReview() error {
	if !f.Status.CanTransitionTo(FichaStatusReview) {
		return invalidTransition("submit for review", f.Status, FichaStatusDraft)
	}
	return nil
}

// SubmitForReview moves a draft to revision.
// Requires recommendations and the inspector's signature.
func (f *Ficha) SubmitForReview() error {
	if err := f.CheckCanSubmitForReview(); err != nil {
		return err
	}
	if runeLen(f.Recommendations) < MinRecommendationsLength {
		return shared.NewDomainError(shared.CodeValidationFailed,
			fmt.Sprintf("Recommendations must be at least %d characters", MinRecommendationsLength))
	}
	if runeLen(f.InspectorSignature) < MinInspectorSignatureLength {
		return shared.NewDomainError(shared.CodeValidationFailed,
			fmt.Sprintf("Inspector signature must be at least %d characters", MinInspectorSignatureLength))
	}

	f.Status = FichaStatusReview
	f.touch()
	return nil
}

// Approve approves a ficha under review. Comments are optional.
func (f *Ficha) Approve(comments string) error {
	if !f.Status.CanTransitionTo(FichaStatusApproved) {
		return invalidTransition("approve", f.Status, FichaStatusReview)
	}

	if strings.TrimSpace(comments) != "" {
		f.EvaluationComments = comments
	}
	f.Result = ResultApproved
	f.Status = FichaStatusApproved
	f.touch()
	return nil
}

// Reject rejects a ficha under review; the reason is recorded as evaluation comments
func (f *Ficha) Reject(reason string) error {
	if !f.Status.CanTransitionTo(FichaStatusRejected) {
		return invalidTransition("reject", f.Status, FichaStatusReview)
	}
	if runeLen(reason) < MinRejectionReasonLength {
		return shared.NewDomainError(shared.CodeValidationFailed,
			fmt.Sprintf("Rejection reason must be at least %d characters", MinRejectionReasonLength))
	}

	f.EvaluationComments = reason
	f.Result = ResultRejected
	f.Status = FichaStatusRejected
	f.touch()
	return nil
}

// ReturnToDraft reopens a rejected ficha for editing. This is the only way
// back into the editable state.
func (f *Ficha) ReturnToDraft() error {
	if !f.Status.CanTransitionTo(FichaStatusDraft) {
		return invalidTransition("return to draft", f.Status, FichaStatusRejected)
	}

	f.Result = ResultPending
	f.Status = FichaStatusDraft
	f.touch()
	return nil
}

// CompensateApproval forces an approved ficha into rechazado after the
// downstream synchronization of the approval failed. aprobado -> rechazado is
// not part of the user-facing transition table; only the approval saga calls
// this, and the reason comes from the failure rather than from user input, so
// no minimum length applies.
func (f *Ficha) CompensateApproval(reason string) error {
	if f.Status != FichaStatusApproved {
		return invalidTransition("compensate approval of", f.Status, FichaStatusApproved)
	}
	if strings.TrimSpace(reason) == "" {
		reason = "synchronization failed"
	}

	f.EvaluationComments = reason
	f.Result = ResultRejected
	f.Status = FichaStatusRejected
	f.touch()
	return nil
}

// Deactivate soft-deletes a draft ficha
func (f *Ficha) Deactivate() error {
	if f.Status != FichaStatusDraft {
		return invalidTransition("deactivate", f.Status, FichaStatusDraft)
	}
	if !f.Active {
		return shared.NewDomainError(shared.CodeInvalidState, "Ficha is already inactive")
	}

	f.Active = false
	f.touch()
	return nil
}

// MarkSynced records a successful downstream synchronization
func (f *Ficha) MarkSynced() {
	f.SyncState = SyncSynced
	f.touch()
}

// CanEdit returns true if root fields and sections may be replaced
func (f *Ficha) CanEdit() bool {
	return f.Active && f.Status == FichaStatusDraft
}

// IsTerminal returns true once the ficha is approved
func (f *Ficha) IsTerminal() bool {
	return f.Status == FichaStatusApproved
}

// ResultConsistent checks the outcome invariant: pendiente unless the ficha
// is approved or rejected, in which case it mirrors the state.
func (f *Ficha) ResultConsistent() bool {
	return f.Result == ResultFor(f.Status)
}

func (f *Ficha) touch() {
	f.UpdatedAt = time.Now()
}

func invalidTransition(action string, current, required FichaStatus) error {
	return shared.NewDomainError(shared.CodeInvalidState,
		fmt.Sprintf("Cannot %s ficha in %s status; requires %s", action, current, required))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
