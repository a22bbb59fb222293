package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
}

type PharmacyInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
}

// AccountService handles users and pharmacy onboarding.
type AccountService struct {
	repo   *repository.Registry
	logger *zap.Logger
}

func NewAccountService(repo *repository.Registry, logger *zap.Logger) *AccountService {
	return &AccountService{repo: repo, logger: logger}
}

func (s *AccountService) RegisterCustomer(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, models.RoleCustomer, nil, in)
}

// CreateAdmin bootstraps a platform administrator. It is only reachable from the CLI.
func (s *AccountService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, models.RoleAdmin, nil, in)
}

// CreateStaff adds a staff account bound to one pharmacy.
func (s *AccountService) CreateStaff(ctx context.Context, pharmacyID int64, in RegisterInput) (*models.User, error) {
	if _, err := s.repo.Pharmacies.GetByID(ctx, pharmacyID); err != nil {
		return nil, notFound(err, "pharmacy", pharmacyID)
	}
	return s.createUser(ctx, models.RoleStaff, &pharmacyID, in)
}

func (s *AccountService) createUser(ctx context.Context, role string, pharmacyID *int64, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.Validation("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}

	var pw models.Password
	if err := pw.Set(in.Password); err != nil {
		return nil, err
	}
	u := &models.User{
		Role:         role,
		Email:        email,
		PasswordHash: pw.Hash,
		FullName:     strings.TrimSpace(in.FullName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Active:       true,
		PharmacyID:   pharmacyID,
	}
	if err := s.repo.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Duplicate("user", "email")
		}
		return nil, err
	}
	s.logger.Info("user created", zap.Int64("user_id", u.ID), zap.String("role", role))
	return u, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords look the same to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	pw := models.Password{Hash: u.PasswordHash}
	ok, err := pw.Matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if !u.Active {
		return nil, apperrors.Forbidden("account is disabled")
	}
	return u, nil
}

func (s *AccountService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// CreatePharmacy onboards a tenant; the slug is derived from the name.
func (s *AccountService) CreatePharmacy(ctx context.Context, in PharmacyInput) (*models.Pharmacy, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("pharmacy name is required")
	}
	p := &models.Pharmacy{
		Name:    name,
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		Active:  true,
	}
	err := withUniqueSlug(ctx, name, "pharmacy", func(ctx context.Context, slug string) error {
		p.Slug = slug
		return s.repo.Pharmacies.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("pharmacy created", zap.Int64("pharmacy_id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}
