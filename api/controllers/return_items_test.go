package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/internal/returns"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/pagination"
)

type stubReturnsService struct {
	item       *returns.ReturnItemDTO
	list       *returns.ListResponse
	err        error
	lastStatus returns.StatusFilter
	lastParams pagination.Params
	deleted    []uuid.UUID
}

func (s *stubReturnsService) Create(ctx context.Context, userID uuid.UUID, req returns.CreateReturnItemRequest) (*returns.ReturnItemDTO, error) {
	return s.item, s.err
}

func (s *stubReturnsService) Get(ctx context.Context, userID, itemID uuid.UUID) (*returns.ReturnItemDTO, error) {
	return s.item, s.err
}

func (s *stubReturnsService) List(ctx context.Context, userID uuid.UUID, status returns.StatusFilter, params pagination.Params) (*returns.ListResponse, error) {
	s.lastStatus = status
	s.lastParams = params
	return s.list, s.err
}

func (s *stubReturnsService) Update(ctx context.Context, userID, itemID uuid.UUID, req returns.UpdateReturnItemRequest) (*returns.ReturnItemDTO, error) {
	return s.item, s.err
}

func (s *stubReturnsService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	s.deleted = append(s.deleted, itemID)
	return s.err
}

func itemFixture() *returns.ReturnItemDTO {
	return &returns.ReturnItemDTO{
		ID:             uuid.New(),
		RetailerID:     uuid.New(),
		RetailerName:   "Costco",
		PurchaseDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ReturnDeadline: time.Date(2024, 7, 30, 0, 0, 0, 0, time.UTC),
	}
}

func returnItemsRouter(svc returns.Service, owner *models.User) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), owner)))
		})
	})
	r.Get("/api/v1/return-items", ReturnItemsList(svc, nil))
	r.Post("/api/v1/return-items", ReturnItemsCreate(svc, nil))
	r.Get("/api/v1/return-items/{itemID}", ReturnItemsGet(svc, nil))
	r.Delete("/api/v1/return-items/{itemID}", ReturnItemsDelete(svc, nil))
	return r
}

func TestReturnItemsCreateStatus(t *testing.T) {
	svc := &stubReturnsService{item: itemFixture()}
	router := returnItemsRouter(svc, &models.User{ID: uuid.New()})

	payload := map[string]any{
		"retailer_id":   uuid.New().String(),
		"purchase_date": "2024-05-01T00:00:00Z",
		"price":         42.5,
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/return-items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestReturnItemsListQueryParams(t *testing.T) {
	svc := &stubReturnsService{list: &returns.ListResponse{Items: []returns.ReturnItemDTO{*itemFixture()}}}
	router := returnItemsRouter(svc, &models.User{ID: uuid.New()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/return-items?status=returned&limit=10&cursor=abc", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastStatus != returns.StatusReturned {
		t.Fatalf("expected returned filter, got %q", svc.lastStatus)
	}
	if svc.lastParams.Limit != 10 || svc.lastParams.Cursor != "abc" {
		t.Fatalf("unexpected params: %+v", svc.lastParams)
	}
}

func TestReturnItemsListIncludeHistory(t *testing.T) {
	svc := &stubReturnsService{list: &returns.ListResponse{}}
	router := returnItemsRouter(svc, &models.User{ID: uuid.New()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/return-items?include_history=true", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastStatus != returns.StatusAll {
		t.Fatalf("expected all filter with include_history, got %q", svc.lastStatus)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/return-items", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if svc.lastStatus != returns.StatusActive {
		t.Fatalf("expected active default, got %q", svc.lastStatus)
	}
}

func TestReturnItemsGetRejectsBadID(t *testing.T) {
	svc := &stubReturnsService{item: itemFixture()}
	router := returnItemsRouter(svc, &models.User{ID: uuid.New()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/return-items/not-a-uuid", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp.Body); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", code)
	}
}

func TestReturnItemsDeletePassesID(t *testing.T) {
	svc := &stubReturnsService{}
	router := returnItemsRouter(svc, &models.User{ID: uuid.New()})
	itemID := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/return-items/"+itemID.String(), nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != itemID {
		t.Fatalf("expected delete of %s, got %v", itemID, svc.deleted)
	}
}
