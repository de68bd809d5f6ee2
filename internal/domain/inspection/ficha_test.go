package inspection

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestFicha(t *testing.T) *Ficha {
	ficha, err := NewFicha(NewFichaParams{
		ProducerCode:   "PRD-0001",
		GestionID:      uuid.New(),
		GestionYear:    2024,
		InspectionDate: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		InspectorName:  "Ana Quispe",
		CreatedBy:      uuid.New(),
	})
	require.NoError(t, err)
	return ficha
}

func readyForReview(t *testing.T) *Ficha {
	ficha := createTestFicha(t)
	ficha.Recommendations = "Mantener barreras vivas en el lindero norte"
	ficha.InspectorSignature = "AQM"
	return ficha
}

func fichaInReview(t *testing.T) *Ficha {
	ficha := readyForReview(t)
	require.NoError(t, ficha.SubmitForReview())
	return ficha
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
}

// ============================================
// FichaStatus Tests
// ============================================

func TestFichaStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  FichaStatus
		isValid bool
	}{
		{FichaStatusDraft, true},
		{FichaStatusReview, true},
		{FichaStatusApproved, true},
		{FichaStatusRejected, true},
		{FichaStatus("cerrado"), false},
		{FichaStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestFichaStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     FichaStatus
		to       FichaStatus
		canTrans bool
	}{
		{FichaStatusDraft, FichaStatusReview, true},
		{FichaStatusDraft, FichaStatusApproved, false},
		{FichaStatusDraft, FichaStatusRejected, false},
		{FichaStatusReview, FichaStatusApproved, true},
		{FichaStatusReview, FichaStatusRejected, true},
		{FichaStatusReview, FichaStatusDraft, false},
		{FichaStatusRejected, FichaStatusDraft, true},
		{FichaStatusRejected, FichaStatusReview, false},
		{FichaStatusRejected, FichaStatusApproved, false},
		// aprobado is terminal
		{FichaStatusApproved, FichaStatusDraft, false},
		{FichaStatusApproved, FichaStatusReview, false},
		{FichaStatusApproved, FichaStatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// NewFicha Tests
// ============================================

func TestNewFicha(t *testing.T) {
	t.Run("creates draft with pending result", func(t *testing.T) {
		ficha := createTestFicha(t)

		assert.NotEqual(t, uuid.Nil, ficha.ID)
		assert.Equal(t, FichaStatusDraft, ficha.Status)
		assert.Equal(t, ResultPending, ficha.Result)
		assert.Equal(t, CaptureOnline, ficha.CaptureOrigin)
		assert.Equal(t, SyncPending, ficha.SyncState)
		assert.True(t, ficha.Active)
		assert.True(t, ficha.ResultConsistent())
	})

	t.Run("rejects inspection date outside gestion year", func(t *testing.T) {
		_, err := NewFicha(NewFichaParams{
			ProducerCode:   "PRD-0001",
			GestionID:      uuid.New(),
			GestionYear:    2024,
			InspectionDate: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			InspectorName:  "Ana Quispe",
			CreatedBy:      uuid.New(),
		})
		assertDomainCode(t, err, shared.CodeValidationFailed)
		assert.Contains(t, err.Error(), "2023")
	})

	t.Run("requires producer and inspector", func(t *testing.T) {
		_, err := NewFicha(NewFichaParams{
			GestionID:      uuid.New(),
			GestionYear:    2024,
			InspectionDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			InspectorName:  "Ana",
			CreatedBy:      uuid.New(),
		})
		assertDomainCode(t, err, shared.CodeInvalidInput)

		_, err = NewFicha(NewFichaParams{
			ProducerCode:   "PRD-0001",
			GestionID:      uuid.New(),
			GestionYear:    2024,
			InspectionDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			InspectorName:  "   ",
			CreatedBy:      uuid.New(),
		})
		assertDomainCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("rejects unknown capture origin", func(t *testing.T) {
		_, err := NewFicha(NewFichaParams{
			ProducerCode:   "PRD-0001",
			GestionID:      uuid.New(),
			GestionYear:    2024,
			InspectionDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			InspectorName:  "Ana",
			CaptureOrigin:  CaptureOrigin("fax"),
			CreatedBy:      uuid.New(),
		})
		assertDomainCode(t, err, shared.CodeInvalidInput)
	})
}

// ============================================
// Workflow Tests
// ============================================

func TestFicha_SubmitForReview(t *testing.T) {
	t.Run("moves draft to revision", func(t *testing.T) {
		ficha := readyForReview(t)
		before := ficha.UpdatedAt

		require.NoError(t, ficha.SubmitForReview())
		assert.Equal(t, FichaStatusReview, ficha.Status)
		assert.Equal(t, ResultPending, ficha.Result)
		assert.False(t, ficha.UpdatedAt.Before(before))
	})

	t.Run("short recommendations leave ficha untouched", func(t *testing.T) {
		ficha := readyForReview(t)
		ficha.Recommendations = "corto"
		snapshot := *ficha

		err := ficha.SubmitForReview()
		assertDomainCode(t, err, shared.CodeValidationFailed)
		assert.Equal(t, snapshot, *ficha)
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		ficha := readyForReview(t)
		ficha.Recommendations = "ñañañañaña"
		require.NoError(t, ficha.SubmitForReview())
	})

	t.Run("short signature is rejected", func(t *testing.T) {
		ficha := readyForReview(t)
		ficha.InspectorSignature = " A "
		err := ficha.SubmitForReview()
		assertDomainCode(t, err, shared.CodeValidationFailed)
		assert.Equal(t, FichaStatusDraft, ficha.Status)
	})

	t.Run("not allowed from revision", func(t *testing.T) {
		ficha := fichaInReview(t)
		err := ficha.SubmitForReview()
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Contains(t, err.Error(), "revision")
		assert.Contains(t, err.Error(), "borrador")
	})
}

func TestFicha_Approve(t *testing.T) {
	t.Run("approves from revision", func(t *testing.T) {
		ficha := fichaInReview(t)
		require.NoError(t, ficha.Approve("Cumple la norma"))

		assert.Equal(t, FichaStatusApproved, ficha.Status)
		assert.Equal(t, ResultApproved, ficha.Result)
		assert.Equal(t, "Cumple la norma", ficha.EvaluationComments)
		assert.True(t, ficha.IsTerminal())
		assert.True(t, ficha.ResultConsistent())
	})

	t.Run("empty comments keep existing ones", func(t *testing.T) {
		ficha := fichaInReview(t)
		ficha.EvaluationComments = "previo"
		require.NoError(t, ficha.Approve(""))
		assert.Equal(t, "previo", ficha.EvaluationComments)
	})

	t.Run("not allowed from draft", func(t *testing.T) {
		ficha := createTestFicha(t)
		err := ficha.Approve("")
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Equal(t, ResultPending, ficha.Result)
	})
}

func TestFicha_Reject(t *testing.T) {
	t.Run("rejects from revision with reason", func(t *testing.T) {
		ficha := fichaInReview(t)
		require.NoError(t, ficha.Reject("Uso de fertilizante sintético"))

		assert.Equal(t, FichaStatusRejected, ficha.Status)
		assert.Equal(t, ResultRejected, ficha.Result)
		assert.Equal(t, "Uso de fertilizante sintético", ficha.EvaluationComments)
	})

	t.Run("short reason leaves ficha in revision", func(t *testing.T) {
		ficha := fichaInReview(t)
		err := ficha.Reject("no")
		assertDomainCode(t, err, shared.CodeValidationFailed)
		assert.Equal(t, FichaStatusReview, ficha.Status)
		assert.Equal(t, ResultPending, ficha.Result)
	})

	t.Run("approved ficha cannot be rejected", func(t *testing.T) {
		ficha := fichaInReview(t)
		require.NoError(t, ficha.Approve(""))
		err := ficha.Reject(strings.Repeat("x", 20))
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Equal(t, FichaStatusApproved, ficha.Status)
	})
}

func TestFicha_ReturnToDraft(t *testing.T) {
	ficha := fichaInReview(t)
	require.NoError(t, ficha.Reject("Falta croquis de la unidad"))

	require.NoError(t, ficha.ReturnToDraft())
	assert.Equal(t, FichaStatusDraft, ficha.Status)
	assert.Equal(t, ResultPending, ficha.Result)
	assert.True(t, ficha.CanEdit())

	err := ficha.ReturnToDraft()
	assertDomainCode(t, err, shared.CodeInvalidState)
}

func TestFicha_CompensateApproval(t *testing.T) {
	t.Run("forces approved ficha to rejected without length check", func(t *testing.T) {
		ficha := fichaInReview(t)
		require.NoError(t, ficha.Approve(""))

		require.NoError(t, ficha.CompensateApproval("timeout"))
		assert.Equal(t, FichaStatusRejected, ficha.Status)
		assert.Equal(t, ResultRejected, ficha.Result)
		assert.Equal(t, "timeout", ficha.EvaluationComments)
		assert.True(t, ficha.ResultConsistent())
	})

	t.Run("only applies to approved fichas", func(t *testing.T) {
		ficha := fichaInReview(t)
		err := ficha.CompensateApproval("timeout")
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Equal(t, FichaStatusReview, ficha.Status)
	})
}

func TestFicha_Deactivate(t *testing.T) {
	ficha := createTestFicha(t)
	require.NoError(t, ficha.Deactivate())
	assert.False(t, ficha.Active)
	assert.False(t, ficha.CanEdit())

	assertDomainCode(t, ficha.Deactivate(), shared.CodeInvalidState)

	inReview := fichaInReview(t)
	assertDomainCode(t, inReview.Deactivate(), shared.CodeInvalidState)
	assert.True(t, inReview.Active)
}

func TestFicha_ApplyChanges(t *testing.T) {
	t.Run("edits draft root fields", func(t *testing.T) {
		ficha := createTestFicha(t)
		name := "Luis Mamani"
		date := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, ficha.ApplyChanges(RootChanges{InspectorName: &name, InspectionDate: &date}))
		assert.Equal(t, name, ficha.InspectorName)
		assert.Equal(t, date, ficha.InspectionDate)
	})

	t.Run("validates before mutating", func(t *testing.T) {
		ficha := createTestFicha(t)
		name := "Luis Mamani"
		wrongYear := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		err := ficha.ApplyChanges(RootChanges{InspectorName: &name, InspectionDate: &wrongYear})
		assertDomainCode(t, err, shared.CodeValidationFailed)
		assert.Equal(t, "Ana Quispe", ficha.InspectorName)
	})

	t.Run("not allowed outside draft", func(t *testing.T) {
		ficha := fichaInReview(t)
		name := "Luis Mamani"
		err := ficha.ApplyChanges(RootChanges{InspectorName: &name})
		assertDomainCode(t, err, shared.CodeInvalidState)
	})
}

func TestResultFor(t *testing.T) {
	assert.Equal(t, ResultPending, ResultFor(FichaStatusDraft))
	assert.Equal(t, ResultPending, ResultFor(FichaStatusReview))
	assert.Equal(t, ResultApproved, ResultFor(FichaStatusApproved))
	assert.Equal(t, ResultRejected, ResultFor(FichaStatusRejected))
}
