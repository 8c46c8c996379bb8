package retailers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/retoro-app/retoro-backend/pkg/db"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

// defaultWindowDays is applied when an invoice names a retailer we have no
// policy for yet.
const defaultWindowDays = 30

// Service defines the behavior needed by the retailers controller and the
// invoice pipeline.
type Service interface {
	List(ctx context.Context, search string) ([]RetailerDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*RetailerDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateRetailerRequest) (*RetailerDTO, error)
	FindOrCreateByName(ctx context.Context, userID uuid.UUID, name string) (*models.RetailerPolicy, error)
}

type repository interface {
	List(ctx context.Context, search string) ([]models.RetailerPolicy, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RetailerPolicy, error)
	FindByName(ctx context.Context, name string) (*models.RetailerPolicy, error)
	Create(ctx context.Context, policy *models.RetailerPolicy) error
}

type service struct {
	repo repository
}

// NewService constructs a retailers service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("retailers repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, search string) ([]RetailerDTO, error) {
	policies, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list retailers")
	}
	return FromModels(policies), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RetailerDTO, error) {
	policy, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load retailer")
	}
	return FromModel(policy), nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRetailerRequest) (*RetailerDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer name is required")
	}
	if req.ReturnWindowDays == nil || *req.ReturnWindowDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return window must be 0 or greater")
	}

	policy := &models.RetailerPolicy{
		Name:             name,
		ReturnWindowDays: *req.ReturnWindowDays,
		WebsiteURL:       req.WebsiteURL,
		ReturnPortalURL:  req.ReturnPortalURL,
		HasFreeReturns:   req.HasFreeReturns,
		IsCustom:         true,
		CreatedBy:        &userID,
	}
	if err := s.repo.Create(ctx, policy); err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a retailer with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create retailer")
	}
	return FromModel(policy), nil
}

// FindOrCreateByName resolves an invoice seller name to a retailer policy,
// creating a custom one with the default window when no match exists.
// Concurrent creates for the same name race on the unique index; the loser
// re-reads the winner's row.
func (s *service) FindOrCreateByName(ctx context.Context, userID uuid.UUID, name string) (*models.RetailerPolicy, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer name is required")
	}

	existing, err := s.repo.FindByName(ctx, trimmed)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup retailer")
	}

	policy := &models.RetailerPolicy{
		Name:             trimmed,
		ReturnWindowDays: defaultWindowDays,
		WebsiteURL:       websiteFromName(trimmed),
		HasFreeReturns:   false,
		IsCustom:         true,
		CreatedBy:        &userID,
	}
	if err := s.repo.Create(ctx, policy); err != nil {
		if pkgdb.IsUniqueViolation(err) {
			winner, ferr := s.repo.FindByName(ctx, trimmed)
			if ferr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, ferr, "reload retailer after conflict")
			}
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create retailer")
	}
	return policy, nil
}

// websiteFromName guesses a URL when the seller name looks like a domain.
func websiteFromName(name string) *string {
	if !strings.Contains(name, ".") || strings.Contains(name, " ") {
		return nil
	}
	url := "https://" + strings.ToLower(name)
	return &url
}
