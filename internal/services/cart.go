package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// CartService is the cart aggregate: one cart per (customer, pharmacy), quantities only,
// prices always read live from the product.
type CartService struct {
	repo   *repository.Registry
	logger *zap.Logger
}

func NewCartService(repo *repository.Registry, logger *zap.Logger) *CartService {
	return &CartService{repo: repo, logger: logger}
}

// GetOrCreate returns the customer's cart for the pharmacy, creating an empty one on first use.
func (s *CartService) GetOrCreate(ctx context.Context, customerID, pharmacyID int64) (*models.Cart, error) {
	cart, err := s.repo.Carts.GetByCustomerAndPharmacy(ctx, customerID, pharmacyID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if _, err := s.repo.Pharmacies.GetByID(ctx, pharmacyID); err != nil {
		return nil, notFound(err, "pharmacy", pharmacyID)
	}

	cart = &models.Cart{CustomerID: customerID, PharmacyID: pharmacyID}
	err = s.repo.Carts.Create(ctx, cart)
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a creation race with a concurrent request
		return s.repo.Carts.GetByCustomerAndPharmacy(ctx, customerID, pharmacyID)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// View returns the cart with its items and live product data attached.
func (s *CartService) View(ctx context.Context, customerID, pharmacyID int64) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, customerID, pharmacyID)
	if err != nil {
		return nil, err
	}
	if cart.Items, err = s.repo.Carts.ListItems(ctx, cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

// lockedCart opens the cart for writing inside the current transaction.
func (s *CartService) lockedCart(ctx context.Context, customerID, pharmacyID int64) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, customerID, pharmacyID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Carts.Lock(ctx, cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

// productFor loads a product and hides products of other pharmacies.
func (s *CartService) productFor(ctx context.Context, pharmacyID, productID int64) (*models.Product, error) {
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product", productID)
	}
	if p.PharmacyID != pharmacyID {
		return nil, apperrors.NotFound("product", productID)
	}
	return p, nil
}

// AddItem adds quantity units of the product, summing with an existing line.
func (s *CartService) AddItem(ctx context.Context, customerID, pharmacyID, productID int64, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.lockedCart(ctx, customerID, pharmacyID)
		if err != nil {
			return err
		}
		product, err := s.productFor(ctx, pharmacyID, productID)
		if err != nil {
			return err
		}
		if !product.Active {
			return apperrors.ProductUnavailable(productID)
		}

		total := quantity
		existing, err := s.repo.Carts.GetItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			total += existing.Quantity
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if product.StockQuantity < total {
			return apperrors.InsufficientStock(productID, total)
		}
		return s.repo.Carts.SaveItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: total})
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, customerID, pharmacyID)
}

// UpdateQuantity sets the line quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, pharmacyID, productID int64, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, customerID, pharmacyID, productID)
	}

	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.lockedCart(ctx, customerID, pharmacyID)
		if err != nil {
			return err
		}
		if _, err := s.repo.Carts.GetItem(ctx, cart.ID, productID); err != nil {
			return notFound(err, "cart item", productID)
		}
		product, err := s.productFor(ctx, pharmacyID, productID)
		if err != nil {
			return err
		}
		if !product.Active {
			return apperrors.ProductUnavailable(productID)
		}
		if product.StockQuantity < quantity {
			return apperrors.InsufficientStock(productID, quantity)
		}
		return s.repo.Carts.SaveItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity})
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, customerID, pharmacyID)
}

// RemoveItem drops the line if present.
func (s *CartService) RemoveItem(ctx context.Context, customerID, pharmacyID, productID int64) (*models.Cart, error) {
	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.lockedCart(ctx, customerID, pharmacyID)
		if err != nil {
			return err
		}
		if err := s.repo.Carts.DeleteItem(ctx, cart.ID, productID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, customerID, pharmacyID)
}

func (s *CartService) Clear(ctx context.Context, customerID, pharmacyID int64) (*models.Cart, error) {
	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.lockedCart(ctx, customerID, pharmacyID)
		if err != nil {
			return err
		}
		return s.repo.Carts.Clear(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, customerID, pharmacyID)
}

// Validate reports EmptyCart or CartItemsUnavailable. It never mutates the cart.
func (s *CartService) Validate(cart *models.Cart) error {
	if cart.IsEmpty() {
		return apperrors.EmptyCart()
	}
	if unavailable := cart.UnavailableItems(); len(unavailable) > 0 {
		ids := make([]int64, 0, len(unavailable))
		for _, item := range unavailable {
			ids = append(ids, item.ProductID)
		}
		return apperrors.CartItemsUnavailable(ids)
	}
	return nil
}
