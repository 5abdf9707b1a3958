package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/stockroute-backend/api/middleware"
	internalalerts "github.com/angelmondragon/stockroute-backend/internal/alerts"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
)

type stubAlertService struct {
	listParams  internalalerts.ListParams
	ackActor    *uuid.UUID
	acknowledge func(alertID uuid.UUID) (*models.Alert, error)
}

func (s *stubAlertService) Get(ctx context.Context, tenantID, alertID uuid.UUID) (*models.Alert, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
}

func (s *stubAlertService) List(ctx context.Context, params internalalerts.ListParams) (*internalalerts.ListResult, error) {
	s.listParams = params
	return &internalalerts.ListResult{Items: []models.Alert{}}, nil
}

func (s *stubAlertService) Acknowledge(ctx context.Context, tenantID, alertID uuid.UUID, actorID *uuid.UUID) (*models.Alert, error) {
	s.ackActor = actorID
	return s.acknowledge(alertID)
}

func alertRequest(method, target string, tenantID uuid.UUID, alertID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	if alertID != "" {
		rctx.URLParams.Add("alertID", alertID)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithTenantID(ctx, tenantID.String()))
}

func TestListAlertsFilters(t *testing.T) {
	svc := &stubAlertService{}
	tenantID := uuid.New()
	resp := httptest.NewRecorder()

	List(svc, logger.Nop()).ServeHTTP(resp, alertRequest(http.MethodGet, "/api/v1/alerts?type=low_stock&acknowledged=false", tenantID, ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listParams.TenantID != tenantID {
		t.Fatalf("expected tenant %s", tenantID)
	}
	if svc.listParams.Type == nil || *svc.listParams.Type != enums.AlertTypeLowStock {
		t.Fatalf("expected low_stock filter got %v", svc.listParams.Type)
	}
	if svc.listParams.Acknowledged == nil || *svc.listParams.Acknowledged {
		t.Fatalf("expected acknowledged=false filter")
	}
}

func TestListAlertsRejectsUnknownType(t *testing.T) {
	resp := httptest.NewRecorder()

	List(&stubAlertService{}, logger.Nop()).ServeHTTP(resp, alertRequest(http.MethodGet, "/api/v1/alerts?type=overstock", uuid.New(), ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetAlertNotFound(t *testing.T) {
	alertID := uuid.NewString()
	resp := httptest.NewRecorder()

	Get(&stubAlertService{}, logger.Nop()).ServeHTTP(resp, alertRequest(http.MethodGet, "/api/v1/alerts/"+alertID, uuid.New(), alertID))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAcknowledgeRecordsActor(t *testing.T) {
	alertID := uuid.New()
	actorID := uuid.New()
	svc := &stubAlertService{
		acknowledge: func(id uuid.UUID) (*models.Alert, error) {
			return &models.Alert{ID: id, Acknowledged: true, AcknowledgedBy: &actorID}, nil
		},
	}
	req := alertRequest(http.MethodPost, "/api/v1/alerts/"+alertID.String()+"/acknowledge", uuid.New(), alertID.String())
	req = req.WithContext(middleware.WithUserID(req.Context(), actorID.String()))
	resp := httptest.NewRecorder()

	Acknowledge(svc, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.ackActor == nil || *svc.ackActor != actorID {
		t.Fatalf("expected actor %s forwarded", actorID)
	}
}

func TestAcknowledgeAnonymousActor(t *testing.T) {
	alertID := uuid.New()
	svc := &stubAlertService{
		acknowledge: func(id uuid.UUID) (*models.Alert, error) {
			return &models.Alert{ID: id, Acknowledged: true}, nil
		},
	}
	resp := httptest.NewRecorder()

	Acknowledge(svc, logger.Nop()).ServeHTTP(resp, alertRequest(http.MethodPost, "/api/v1/alerts/"+alertID.String()+"/acknowledge", uuid.New(), alertID.String()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.ackActor != nil {
		t.Fatalf("expected nil actor got %s", svc.ackActor)
	}
}
