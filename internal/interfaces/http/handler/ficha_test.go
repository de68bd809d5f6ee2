package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	inspectionapp "github.com/agrocert/backend/internal/application/inspection"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/auth"
	"github.com/agrocert/backend/internal/interfaces/http/dto"
	"github.com/agrocert/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFichaService struct {
	mock.Mock
}

func (m *MockFichaService) Create(ctx context.Context, a inspectionapp.AuthContext, req inspectionapp.CreateFichaRequest) (*inspectionapp.FichaCompletaResponse, error) {
	args := m.Called(ctx, a, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspectionapp.FichaCompletaResponse), args.Error(1)
}

func (m *MockFichaService) Get(ctx context.Context, a inspectionapp.AuthContext, id uuid.UUID) (*inspectionapp.FichaCompletaResponse, error) {
	args := m.Called(ctx, a, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspectionapp.FichaCompletaResponse), args.Error(1)
}

func (m *MockFichaService) List(ctx context.Context, a inspectionapp.AuthContext, req inspectionapp.ListFichasRequest) ([]inspectionapp.FichaResponse, int64, error) {
	args := m.Called(ctx, a, req)
	items, _ := args.Get(0).([]inspectionapp.FichaResponse)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *MockFichaService) Update(ctx context.Context, a inspectionapp.AuthContext, id uuid.UUID, req inspectionapp.UpdateFichaRequest) (*inspectionapp.FichaCompletaResponse, error) {
	args := m.Called(ctx, a, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspectionapp.FichaCompletaResponse), args.Error(1)
}

func (m *MockFichaService) SubmitForReview(ctx context.Context, a inspectionapp.AuthContext, id uuid.UUID) (*inspectionapp.SubmitForReviewResponse, error) {
	args := m.Called(ctx, a, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspectionapp.SubmitForReviewResponse), args.Error(1)
}

func (m *MockFichaService) Approve(ctx context.Context, a inspectionapp.AuthContext, id uuid.UUID, req inspectionapp.ApproveFichaRequest) (*inspectionapp.FichaResponse, error) {
	args := m.Called(ctx, a, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspectionapp.FichaResponse), args.Error(1)
}

func (m *MockFichaService) Reject(ctx context.Context, a inspectionapp.AuthContext, id uuid.UUID, req inspectionapp.RejectFichaRequest) (*inspectionapp.FichaResponse, error) {
	args := m.Called(ctx, a, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspectionapp.FichaResponse), args.Error(1)
}

func (m *MockFichaService) ReturnToDraft(ctx context.Context, a inspectionapp.AuthContext, id uuid.UUID) (*inspectionapp.FichaResponse, error) {
	args := m.Called(ctx, a, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspectionapp.FichaResponse), args.Error(1)
}

func (m *MockFichaService) Deactivate(ctx context.Context, a inspectionapp.AuthContext, id uuid.UUID) error {
	return m.Called(ctx, a, id).Error(0)
}

// newFichaRouter mounts the handler behind a stand-in for the JWT middleware.
// A nil claims value leaves the request unauthenticated.
func newFichaRouter(svc *MockFichaService, claims *auth.Claims) *gin.Engine {
	middleware.SetupValidator()
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(func(c *gin.Context) {
		if claims != nil {
			setJWTContext(c, claims)
		}
		c.Next()
	})
	NewFichaHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFichaHandler_Create(t *testing.T) {
	community := uuid.New()
	claims := testClaims("tecnico", community)
	gestionID := uuid.New()
	plotID := uuid.New()
	cropID := uuid.New()

	t.Run("success passes sections through", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)

		ficha := inspectionapp.FichaResponse{ID: uuid.New(), ProducerCode: "P-001", Status: "borrador"}
		svc.On("Create", mock.Anything, mock.MatchedBy(func(a inspectionapp.AuthContext) bool {
			return a.UserID.String() == claims.UserID && !a.Elevated && len(a.CommunityIDs) == 1
		}), mock.MatchedBy(func(req inspectionapp.CreateFichaRequest) bool {
			return req.ProducerCode == "P-001" && len(req.CropDetails) == 1 &&
				req.CropDetails[0].Area.String() == "1.5" && req.CorrectiveActions == nil
		})).Return(&inspectionapp.FichaCompletaResponse{Ficha: ficha}, nil)

		body := `{
			"producer_code": "P-001",
			"gestion_id": "` + gestionID.String() + `",
			"inspection_date": "2026-03-10T00:00:00Z",
			"inspector_name": "Juan Perez",
			"crop_details": [{"plot_id": "` + plotID.String() + `", "crop_type_id": "` + cropID.String() + `", "area": "1.5"}]
		}`
		w := doRequest(r, http.MethodPost, "/api/v1/fichas", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		svc.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)

		w := doRequest(r, http.MethodPost, "/api/v1/fichas", `{"inspector_name":"x","crop_details":[{"area":"-1"}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := map[string]bool{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["producer_code"])
		assert.True(t, fields["gestion_id"])
		assert.True(t, fields["crop_details[0].area"])
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, nil)

		w := doRequest(r, http.MethodPost, "/api/v1/fichas", `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("forbidden producer", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)
		svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeForbidden, "Producer is outside your communities"))

		body := `{"producer_code":"P-009","gestion_id":"` + gestionID.String() + `","inspection_date":"2026-03-10T00:00:00Z","inspector_name":"Ana"}`
		w := doRequest(r, http.MethodPost, "/api/v1/fichas", body)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decodeResponse(t, w).Error.Code)
	})
}

func TestFichaHandler_Get(t *testing.T) {
	claims := testClaims(auth.RoleAdmin)
	id := uuid.New()

	svc := new(MockFichaService)
	r := newFichaRouter(svc, claims)
	svc.On("Get", mock.Anything, mock.MatchedBy(func(a inspectionapp.AuthContext) bool { return a.Elevated }), id).
		Return(&inspectionapp.FichaCompletaResponse{Ficha: inspectionapp.FichaResponse{ID: id}}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/fichas/"+id.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/fichas/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "Get", 1)
}

func TestFichaHandler_List(t *testing.T) {
	claims := testClaims("tecnico", uuid.New())
	svc := new(MockFichaService)
	r := newFichaRouter(svc, claims)

	svc.On("List", mock.Anything, mock.Anything, inspectionapp.ListFichasRequest{
		Page: 2, PageSize: 10, Status: "revision", GestionYear: 2026,
	}).Return([]inspectionapp.FichaResponse{{ID: uuid.New()}}, int64(11), nil)

	w := doRequest(r, http.MethodGet, "/api/v1/fichas?page=2&page_size=10&status=revision&gestion_year=2026", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(11), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	w = doRequest(r, http.MethodGet, "/api/v1/fichas?status=revisado", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFichaHandler_Update_EmptyVersusAbsent(t *testing.T) {
	claims := testClaims("tecnico", uuid.New())
	id := uuid.New()
	svc := new(MockFichaService)
	r := newFichaRouter(svc, claims)

	svc.On("Update", mock.Anything, mock.Anything, id, mock.MatchedBy(func(req inspectionapp.UpdateFichaRequest) bool {
		// an explicit [] clears the section, an omitted key leaves it alone
		return req.NonConformities != nil && len(req.NonConformities) == 0 &&
			req.CropDetails == nil && req.InspectorName != nil && *req.InspectorName == "Ana"
	})).Return(&inspectionapp.FichaCompletaResponse{}, nil)

	w := doRequest(r, http.MethodPut, "/api/v1/fichas/"+id.String(), `{"inspector_name":"Ana","non_conformities":[]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestFichaHandler_Transitions(t *testing.T) {
	claims := testClaims(auth.RoleGerente)
	id := uuid.New()
	base := "/api/v1/fichas/" + id.String()

	t.Run("submit returns warnings", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)
		svc.On("SubmitForReview", mock.Anything, mock.Anything, id).Return(&inspectionapp.SubmitForReviewResponse{
			Ficha:           inspectionapp.FichaResponse{ID: id, Status: "revision"},
			SurfaceWarnings: []string{"allocated total deviates 50% from declared total"},
		}, nil)

		w := doRequest(r, http.MethodPost, base+"/enviar-revision", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "surface_warnings")
	})

	t.Run("approve without body", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)
		svc.On("Approve", mock.Anything, mock.Anything, id, inspectionapp.ApproveFichaRequest{}).
			Return(&inspectionapp.FichaResponse{ID: id, Status: "aprobado", SyncState: "synced"}, nil)

		w := doRequest(r, http.MethodPost, base+"/aprobar", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("approve reverted answers conflict", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)
		svc.On("Approve", mock.Anything, mock.Anything, id, inspectionapp.ApproveFichaRequest{Comments: "ok"}).
			Return(nil, &inspectionapp.ApprovalRevertedError{FichaID: id, Cause: errors.New("ledger down")})

		w := doRequest(r, http.MethodPost, base+"/aprobar", `{"comments":"ok"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeApprovalReverted, decodeResponse(t, w).Error.Code)
		assert.NotContains(t, w.Body.String(), "ledger down")
	})

	t.Run("reject requires reason", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)

		w := doRequest(r, http.MethodPost, base+"/rechazar", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reject short reason is a business rule", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)
		svc.On("Reject", mock.Anything, mock.Anything, id, inspectionapp.RejectFichaRequest{Reason: "corto"}).
			Return(nil, shared.NewDomainError(shared.CodeValidationFailed, "Rejection reason must be at least 10 characters"))

		w := doRequest(r, http.MethodPost, base+"/rechazar", `{"reason":"corto"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeValidationFailed, decodeResponse(t, w).Error.Code)
	})

	t.Run("return to draft from wrong state", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)
		svc.On("ReturnToDraft", mock.Anything, mock.Anything, id).
			Return(nil, shared.NewDomainError(shared.CodeInvalidState, "Only fichas in revision can be returned to draft"))

		w := doRequest(r, http.MethodPost, base+"/devolver-borrador", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockFichaService)
		r := newFichaRouter(svc, claims)
		svc.On("Deactivate", mock.Anything, mock.Anything, id).Return(nil)

		w := doRequest(r, http.MethodDelete, base, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
