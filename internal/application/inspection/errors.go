package inspection

import (
	"fmt"
	"strings"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ApprovalRevertedError reports that an approval was persisted, its
// downstream synchronization failed, and the ficha was moved to rechazado.
// It matches shared.ErrApprovalReverted with errors.Is and exposes the
// synchronization failure through Unwrap.
type ApprovalRevertedError struct {
	FichaID uuid.UUID
	Cause   error
}

func (e *ApprovalRevertedError) Error() string {
	return fmt.Sprintf("approval of ficha %s was reverted: synchronization failed: %v", e.FichaID, e.Cause)
}

// Unwrap exposes the domain code first so boundary code that looks for a
// *shared.DomainError sees APPROVAL_REVERTED rather than the cause's code.
func (e *ApprovalRevertedError) Unwrap() []error {
	errs := []error{shared.NewDomainError(shared.CodeApprovalReverted,
		"Approval was reverted because synchronization failed; the ficha is now rechazado")}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// SurfaceValidationError carries the blocking result of the surface rule
type SurfaceValidationError struct {
	Result inspection.SurfaceValidationResult
}

func (e *SurfaceValidationError) Error() string {
	return "surface validation failed: " + strings.Join(e.Result.Errors, "; ")
}

func (e *SurfaceValidationError) Unwrap() error {
	return shared.NewDomainError(shared.CodeSurfaceValidation, e.Error())
}
