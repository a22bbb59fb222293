package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/audit"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// CheckoutInput carries the delivery details of a new order.
type CheckoutInput struct {
	PharmacyID         int64
	DeliveryType       models.DeliveryType
	ShippingAddress    string
	ShippingCity       string
	ShippingDistrict   string
	ShippingPostalCode string
	ShippingPhone      string
	Notes              string
}

// StatusUpdate is a staff status change. Tracking fields are optional side-channel data.
type StatusUpdate struct {
	Status         models.OrderStatus
	TrackingNumber *string
	CargoCompany   *string
	Note           string
}

// Scope restricts which orders a caller may see. Nil fields do not restrict.
type Scope struct {
	CustomerID *int64
	PharmacyID *int64
}

func CustomerScope(customerID int64) Scope { return Scope{CustomerID: &customerID} }

func PharmacyScope(pharmacyID int64) Scope { return Scope{PharmacyID: &pharmacyID} }

// SystemScope is used by background jobs.
func SystemScope() Scope { return Scope{} }

func (sc Scope) allows(o *models.Order) bool {
	if sc.CustomerID != nil && o.CustomerID != *sc.CustomerID {
		return false
	}
	if sc.PharmacyID != nil && o.PharmacyID != *sc.PharmacyID {
		return false
	}
	return true
}

const overdueBatchSize = 100

// OrderService owns checkout and every post-creation transition.
type OrderService struct {
	repo     *repository.Registry
	carts    *CartService
	ledger   *Ledger
	shipping ShippingRates
	audit    *audit.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(repo *repository.Registry, carts *CartService, ledger *Ledger, shipping ShippingRates,
	rec *audit.Recorder, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		carts:    carts,
		ledger:   ledger,
		shipping: shipping,
		audit:    rec,
		logger:   logger,
		now:      utcNow,
	}
}

// FormatOrderNumber renders ORD-<year>-<5-digit sequence>.
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%05d", year, seq)
}

// CreateFromCart turns the customer's cart into a PENDING order in one transaction:
// validate, snapshot items, decrement stock, clear the cart. Any failure leaves stock untouched.
func (s *OrderService) CreateFromCart(ctx context.Context, customerID int64, in CheckoutInput) (*models.Order, error) {
	if !in.DeliveryType.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown delivery type %q", in.DeliveryType))
	}
	if strings.TrimSpace(in.ShippingAddress) == "" || strings.TrimSpace(in.ShippingCity) == "" ||
		strings.TrimSpace(in.ShippingPhone) == "" {
		return nil, apperrors.Validation("shipping address, city and phone are required")
	}

	var order *models.Order
	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		// 1. Lock the cart and re-read its lines with fresh product data
		cart, err := s.repo.Carts.GetByCustomerAndPharmacy(ctx, customerID, in.PharmacyID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.EmptyCart()
		}
		if err != nil {
			return err
		}
		if err := s.repo.Carts.Lock(ctx, cart.ID); err != nil {
			return err
		}
		if cart.Items, err = s.repo.Carts.ListItems(ctx, cart.ID); err != nil {
			return err
		}
		if err := s.carts.Validate(cart); err != nil {
			return err
		}

		// 2. Number the order and price it
		now := s.now()
		seq, err := s.repo.Orders.NextSequence(ctx, now.Year())
		if err != nil {
			return fmt.Errorf("next order sequence: %w", err)
		}

		subtotal := cart.Subtotal()
		shipping := s.shipping.For(in.DeliveryType)
		order = &models.Order{
			OrderNumber:        FormatOrderNumber(now.Year(), seq),
			PharmacyID:         in.PharmacyID,
			CustomerID:         customerID,
			Status:             models.OrderStatusPending,
			DeliveryType:       in.DeliveryType,
			Subtotal:           subtotal,
			ShippingCost:       shipping,
			TotalAmount:        subtotal.Add(shipping),
			ShippingAddress:    in.ShippingAddress,
			ShippingCity:       in.ShippingCity,
			ShippingDistrict:   in.ShippingDistrict,
			ShippingPostalCode: in.ShippingPostalCode,
			ShippingPhone:      in.ShippingPhone,
			Notes:              in.Notes,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.repo.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		// 3. Snapshot each line and take its stock
		for i := range cart.Items {
			ci := &cart.Items[i]
			item := models.OrderItem{
				OrderID:     order.ID,
				ProductID:   ci.ProductID,
				ProductName: ci.Product.Name,
				ProductSKU:  ci.Product.SKU,
				Quantity:    ci.Quantity,
				UnitPrice:   ci.UnitPrice(),
				TotalPrice:  ci.LineTotal(),
				CreatedAt:   now,
			}
			if err := s.repo.Orders.AddItem(ctx, &item); err != nil {
				return fmt.Errorf("add order item: %w", err)
			}
			if err := s.ledger.Decrement(ctx, ci.ProductID, ci.Quantity); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		// 4. Empty the cart
		return s.repo.Carts.Clear(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("pharmacy_id", order.PharmacyID),
		zap.Int64("customer_id", customerID),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	s.record(ctx, order, models.AuditOrderCreated, &customerID, "", order.Status, map[string]any{
		"totalAmount": order.TotalAmount.StringFixed(2),
		"items":       len(order.Items),
	})
	return order, nil
}

// Get returns the order if the scope may see it.
func (s *OrderService) Get(ctx context.Context, scope Scope, orderNumber string) (*models.Order, error) {
	o, err := s.repo.Orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFound(err, "order", orderNumber)
	}
	if !scope.allows(o) {
		return nil, apperrors.NotFound("order", orderNumber)
	}
	return o, nil
}

func (s *OrderService) lockScoped(ctx context.Context, scope Scope, orderNumber string) (*models.Order, error) {
	o, err := s.repo.Orders.LockByNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFound(err, "order", orderNumber)
	}
	if !scope.allows(o) {
		return nil, apperrors.NotFound("order", orderNumber)
	}
	return o, nil
}

// List returns the orders visible to scope, newest first. status may be nil.
func (s *OrderService) List(ctx context.Context, scope Scope, status *models.OrderStatus) ([]models.Order, error) {
	if status != nil && !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", *status))
	}
	return s.repo.Orders.List(ctx, repository.OrderFilter{
		CustomerID: scope.CustomerID,
		PharmacyID: scope.PharmacyID,
		Status:     status,
	})
}

// transition applies one edge of the state machine and persists it.
func (s *OrderService) transition(ctx context.Context, o *models.Order, next models.OrderStatus, trigger models.Trigger) error {
	if !o.Status.CanTransitionTo(next, trigger) {
		return apperrors.InvalidStatusTransition(string(o.Status), string(next))
	}
	o.StampStatus(next, s.now())
	return s.repo.Orders.Update(ctx, o)
}

func (s *OrderService) restoreStock(ctx context.Context, o *models.Order) error {
	for _, item := range o.Items {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("restore stock for product %d: %w", item.ProductID, err)
		}
	}
	return nil
}

// UpdateStatus is the staff entry point. CANCELLED is routed through Cancel so stock is restored.
// Sending the current status with tracking fields only updates tracking.
func (s *OrderService) UpdateStatus(ctx context.Context, pharmacyID, actorID int64, orderNumber string, upd StatusUpdate) (*models.Order, error) {
	if !upd.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", upd.Status))
	}
	if upd.Status == models.OrderStatusCancelled {
		return s.Cancel(ctx, PharmacyScope(pharmacyID), &actorID, orderNumber, upd.Note)
	}

	var from models.OrderStatus
	trackingChanged := false
	var order *models.Order
	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.lockScoped(ctx, PharmacyScope(pharmacyID), orderNumber)
		if err != nil {
			return err
		}
		from = o.Status
		trackingChanged = applyTracking(o, upd)

		if upd.Status == o.Status {
			if !trackingChanged {
				return apperrors.InvalidStatusTransition(string(o.Status), string(upd.Status))
			}
			o.UpdatedAt = s.now()
			if err := s.repo.Orders.Update(ctx, o); err != nil {
				return err
			}
		} else if err := s.transition(ctx, o, upd.Status, models.TriggerStaff); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != order.Status {
		s.logger.Info("order status changed",
			zap.String("order_number", order.OrderNumber),
			zap.String("from", string(from)),
			zap.String("to", string(order.Status)))
		s.record(ctx, order, models.AuditOrderStatusChanged, &actorID, from, order.Status, noteMetadata(upd.Note))
	}
	if trackingChanged {
		s.record(ctx, order, models.AuditOrderTracking, &actorID, "", "", map[string]any{
			"trackingNumber": derefString(order.TrackingNumber),
			"cargoCompany":   derefString(order.CargoCompany),
		})
	}
	return order, nil
}

func applyTracking(o *models.Order, upd StatusUpdate) bool {
	changed := false
	if upd.TrackingNumber != nil && derefString(o.TrackingNumber) != *upd.TrackingNumber {
		v := *upd.TrackingNumber
		o.TrackingNumber = &v
		changed = true
	}
	if upd.CargoCompany != nil && derefString(o.CargoCompany) != *upd.CargoCompany {
		v := *upd.CargoCompany
		o.CargoCompany = &v
		changed = true
	}
	return changed
}

// Cancel moves a PENDING or CONFIRMED order to CANCELLED and returns every item's stock, once.
// actorID is nil for system cancellations.
func (s *OrderService) Cancel(ctx context.Context, scope Scope, actorID *int64, orderNumber, reason string) (*models.Order, error) {
	return s.cancel(ctx, scope, actorID, orderNumber, reason, nil)
}

// errNoLongerOverdue aborts a system cancel whose order was paid or moved on after it was listed.
var errNoLongerOverdue = errors.New("order is no longer overdue")

// cancel runs the cancellation under the order's row lock. When eligible is set it is
// checked against the locked order first.
func (s *OrderService) cancel(ctx context.Context, scope Scope, actorID *int64, orderNumber, reason string,
	eligible func(ctx context.Context, o *models.Order) error) (*models.Order, error) {
	var order *models.Order
	var from models.OrderStatus
	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.lockScoped(ctx, scope, orderNumber)
		if err != nil {
			return err
		}
		if eligible != nil {
			if err := eligible(ctx, o); err != nil {
				return err
			}
		}
		if !o.Status.IsCancellable() {
			return apperrors.OrderNotCancellable(o.OrderNumber, string(o.Status))
		}
		from = o.Status
		if reason = strings.TrimSpace(reason); reason != "" {
			o.CancellationReason = &reason
		}
		o.CancelledBy = actorID
		if err := s.transition(ctx, o, models.OrderStatusCancelled, models.TriggerStaff); err != nil {
			return err
		}
		if err := s.restoreStock(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("reason", reason))
	s.record(ctx, order, models.AuditOrderCancelled, actorID, from, order.Status, noteMetadata(reason))
	return order, nil
}

// applyPaymentResult moves a PENDING order along a payment edge inside the caller's transaction.
// It returns false, leaving the order untouched, when the order is no longer PENDING.
func (s *OrderService) applyPaymentResult(ctx context.Context, orderID int64, success bool) (*models.Order, bool, error) {
	o, err := s.repo.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, notFound(err, "order", orderID)
	}
	if o, err = s.repo.Orders.LockByNumber(ctx, o.OrderNumber); err != nil {
		return nil, false, err
	}
	if o.Status != models.OrderStatusPending {
		return o, false, nil
	}

	next := models.OrderStatusConfirmed
	if !success {
		next = models.OrderStatusPaymentFailed
	}
	if err := s.transition(ctx, o, next, models.TriggerPayment); err != nil {
		return nil, false, err
	}
	if !success {
		if err := s.restoreStock(ctx, o); err != nil {
			return nil, false, err
		}
	}
	return o, true, nil
}

// CancelOverdue cancels PENDING orders older than ttl that have no successful payment.
// Individual failures are logged and skipped. It returns how many orders were cancelled.
func (s *OrderService) CancelOverdue(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.now().Add(-ttl)
	pending := models.OrderStatusPending
	orders, err := s.repo.Orders.List(ctx, repository.OrderFilter{
		Status:        &pending,
		CreatedBefore: &cutoff,
		Limit:         overdueBatchSize,
	})
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return cancelled, err
		}
		_, err := s.cancel(ctx, SystemScope(), nil, o.OrderNumber, "payment not completed in time", s.stillUnpaid)
		switch {
		case errors.Is(err, errNoLongerOverdue):
			s.logger.Debug("overdue order settled before sweep", zap.String("order_number", o.OrderNumber))
			continue
		case err != nil:
			s.logger.Warn("overdue cancel skipped", zap.String("order_number", o.OrderNumber), zap.Error(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// stillUnpaid re-checks a listed order under its lock: it must still be PENDING with no
// successful payment.
func (s *OrderService) stillUnpaid(ctx context.Context, o *models.Order) error {
	if o.Status != models.OrderStatusPending {
		return errNoLongerOverdue
	}
	p, err := s.repo.Payments.GetByOrderID(ctx, o.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("overdue payment check: %w", err)
	case p.Status == models.PaymentStatusSuccess:
		return errNoLongerOverdue
	}
	return nil
}

func (s *OrderService) record(ctx context.Context, o *models.Order, action string, actorID *int64,
	from, to models.OrderStatus, metadata map[string]any) {
	pharmacyID := o.PharmacyID
	s.audit.Record(ctx, models.AuditEntry{
		Action:     action,
		EntityType: "order",
		EntityID:   o.OrderNumber,
		PharmacyID: &pharmacyID,
		ActorID:    actorID,
		FromStatus: string(from),
		ToStatus:   string(to),
		Metadata:   metadata,
	})
}

func noteMetadata(note string) map[string]any {
	if note == "" {
		return nil
	}
	return map[string]any{"note": note}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseOrderStatus accepts a status in any letter case.
func ParseOrderStatus(raw string) (models.OrderStatus, error) {
	st := models.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", apperrors.Validation(fmt.Sprintf("unknown status %q", raw))
	}
	return st, nil
}
