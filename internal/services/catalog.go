package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

const defaultLowStockThreshold = 5

// ProductInput is the writable part of a product.
type ProductInput struct {
	CategoryID        int64
	Name              string
	SKU               string
	Description       string
	Price             decimal.Decimal
	DiscountedPrice   *decimal.Decimal
	StockQuantity     int
	LowStockThreshold *int
	Active            *bool
	Featured          bool
}

// CatalogService manages a pharmacy's products and categories.
type CatalogService struct {
	repo   *repository.Registry
	logger *zap.Logger
}

func NewCatalogService(repo *repository.Registry, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) validateProduct(ctx context.Context, pharmacyID int64, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.SKU) == "" {
		return apperrors.Validation("name and sku are required")
	}
	if !in.Price.IsPositive() {
		return apperrors.Validation("price must be positive")
	}
	if in.DiscountedPrice != nil && in.DiscountedPrice.IsNegative() {
		return apperrors.Validation("discounted price cannot be negative")
	}
	if in.StockQuantity < 0 {
		return apperrors.Validation("stock quantity cannot be negative")
	}
	if in.LowStockThreshold != nil && *in.LowStockThreshold < 0 {
		return apperrors.Validation("low stock threshold cannot be negative")
	}
	c, err := s.repo.Categories.GetByID(ctx, in.CategoryID)
	if err != nil {
		return notFound(err, "category", in.CategoryID)
	}
	if c.PharmacyID != pharmacyID {
		return apperrors.NotFound("category", in.CategoryID)
	}
	return nil
}

func applyProductInput(p *models.Product, in ProductInput) {
	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.SKU = strings.TrimSpace(in.SKU)
	p.Description = in.Description
	p.Price = in.Price
	p.DiscountedPrice = decimal.NullDecimal{}
	if in.DiscountedPrice != nil {
		p.DiscountedPrice = decimal.NewNullDecimal(*in.DiscountedPrice)
	}
	p.StockQuantity = in.StockQuantity
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.Featured = in.Featured
}

func (s *CatalogService) CreateProduct(ctx context.Context, pharmacyID int64, in ProductInput) (*models.Product, error) {
	if err := s.validateProduct(ctx, pharmacyID, in); err != nil {
		return nil, err
	}
	p := &models.Product{PharmacyID: pharmacyID, Active: true, LowStockThreshold: defaultLowStockThreshold}
	applyProductInput(p, in)

	err := withUniqueSlug(ctx, p.Name, "product", func(ctx context.Context, slug string) error {
		p.Slug = slug
		return s.repo.Products.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.Int64("product_id", p.ID), zap.Int64("pharmacy_id", pharmacyID), zap.String("sku", p.SKU))
	return p, nil
}

// UpdateProduct replaces the writable fields. The slug stays stable across renames.
func (s *CatalogService) UpdateProduct(ctx context.Context, pharmacyID, productID int64, in ProductInput) (*models.Product, error) {
	p, err := s.GetProduct(ctx, pharmacyID, productID)
	if err != nil {
		return nil, err
	}
	if err := s.validateProduct(ctx, pharmacyID, in); err != nil {
		return nil, err
	}
	applyProductInput(p, in)

	if err := s.repo.Products.Update(ctx, p); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, apperrors.Duplicate("product", dup.Field)
		}
		return nil, notFound(err, "product", productID)
	}
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, pharmacyID, productID int64) (*models.Product, error) {
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product", productID)
	}
	if p.PharmacyID != pharmacyID {
		return nil, apperrors.NotFound("product", productID)
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]models.Product, error) {
	return s.repo.Products.List(ctx, f)
}

// StorefrontProducts lists the active products of an active pharmacy.
func (s *CatalogService) StorefrontProducts(ctx context.Context, pharmacyID int64, categoryID *int64, search string) ([]models.Product, error) {
	if err := s.requireActivePharmacy(ctx, pharmacyID); err != nil {
		return nil, err
	}
	return s.repo.Products.List(ctx, repository.ProductFilter{
		PharmacyID: pharmacyID,
		CategoryID: categoryID,
		ActiveOnly: true,
		Search:     strings.TrimSpace(search),
	})
}

// LowStock lists products at or below their threshold.
func (s *CatalogService) LowStock(ctx context.Context, pharmacyID int64) ([]models.Product, error) {
	return s.repo.Products.List(ctx, repository.ProductFilter{PharmacyID: pharmacyID, LowStockOnly: true})
}

func (s *CatalogService) CreateCategory(ctx context.Context, pharmacyID int64, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("category name is required")
	}
	c := &models.Category{PharmacyID: pharmacyID, Name: name}
	err := withUniqueSlug(ctx, name, "category", func(ctx context.Context, slug string) error {
		c.Slug = slug
		return s.repo.Categories.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, pharmacyID int64) ([]models.Category, error) {
	return s.repo.Categories.ListByPharmacy(ctx, pharmacyID)
}

// StorefrontCategories is ListCategories for the public storefront.
func (s *CatalogService) StorefrontCategories(ctx context.Context, pharmacyID int64) ([]models.Category, error) {
	if err := s.requireActivePharmacy(ctx, pharmacyID); err != nil {
		return nil, err
	}
	return s.repo.Categories.ListByPharmacy(ctx, pharmacyID)
}

func (s *CatalogService) requireActivePharmacy(ctx context.Context, pharmacyID int64) error {
	ph, err := s.repo.Pharmacies.GetByID(ctx, pharmacyID)
	if err != nil {
		return notFound(err, "pharmacy", pharmacyID)
	}
	if !ph.Active {
		return apperrors.NotFound("pharmacy", pharmacyID)
	}
	return nil
}
