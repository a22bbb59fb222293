package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/audit"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Callback outcomes sent by the payment provider.
const (
	CallbackSuccess = "SUCCESS"
	CallbackFailure = "FAILURE"
)

// CallbackInput is the provider's result for one payment, keyed by conversation id.
type CallbackInput struct {
	Status         string
	ConversationID string
	TransactionID  string
	PaymentID      string
	CardLastFour   string
	CardBrand      string
	ErrorCode      string
	ErrorMessage   string
}

// PaymentService records payment attempts, provider results and refunds.
type PaymentService struct {
	repo   *repository.Registry
	orders *OrderService
	audit  *audit.Recorder
	logger *zap.Logger
	now    func() time.Time
}

func NewPaymentService(repo *repository.Registry, orders *OrderService, rec *audit.Recorder, logger *zap.Logger) *PaymentService {
	return &PaymentService{repo: repo, orders: orders, audit: rec, logger: logger, now: utcNow}
}

// CreatePayment opens the single payment of a PENDING order for its full total.
func (s *PaymentService) CreatePayment(ctx context.Context, customerID int64, orderNumber string) (*models.Payment, error) {
	order, err := s.orders.Get(ctx, CustomerScope(customerID), orderNumber)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperrors.Validation("order " + orderNumber + " is not awaiting payment")
	}

	payment := &models.Payment{
		OrderID:        order.ID,
		Status:         models.PaymentStatusPending,
		Amount:         order.TotalAmount,
		RefundedAmount: decimal.Zero,
		ConversationID: uuid.NewString(),
	}
	err = s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.repo.Payments.GetByOrderID(ctx, order.ID)
		if err == nil {
			return apperrors.Duplicate("payment", "order")
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := s.repo.Payments.Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Duplicate("payment", "order")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, payment, order.PharmacyID, models.AuditPaymentCreated, &customerID, "", payment.Status, map[string]any{
		"orderNumber": order.OrderNumber,
		"amount":      payment.Amount.StringFixed(2),
	})
	return payment, nil
}

// GetForOrder returns the payment of an order, or nil when none was created yet.
func (s *PaymentService) GetForOrder(ctx context.Context, orderID int64) (*models.Payment, error) {
	p, err := s.repo.Payments.GetByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// HandleCallback applies a provider result. A payment that is already settled is returned
// unchanged, so provider retries are harmless. If the order left PENDING in the meantime the
// payment is still recorded but the order status is not touched.
func (s *PaymentService) HandleCallback(ctx context.Context, in CallbackInput) (*models.Payment, error) {
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if status == "FAILED" {
		status = CallbackFailure
	}
	if status != CallbackSuccess && status != CallbackFailure {
		return nil, apperrors.Validation("callback status must be SUCCESS or FAILURE")
	}
	if in.ConversationID == "" {
		return nil, apperrors.Validation("conversationId is required")
	}
	success := status == CallbackSuccess

	var (
		payment   *models.Payment
		order     *models.Order
		applied   bool
		duplicate bool
	)
	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		// 1. Find the payment; a settled one means the provider is retrying
		p, err := s.repo.Payments.GetByConversationID(ctx, in.ConversationID)
		if err != nil {
			return notFound(err, "payment", in.ConversationID)
		}
		payment = p
		if p.IsSettled() {
			duplicate = true
			return nil
		}

		// 2. Record the provider's result
		now := s.now()
		if success {
			p.Status = models.PaymentStatusSuccess
			p.TransactionID = optional(in.TransactionID)
			p.PaymentID = optional(in.PaymentID)
			p.CardLastFour = optional(lastFour(in.CardLastFour))
			p.CardBrand = optional(in.CardBrand)
			p.PaidAt = &now
		} else {
			p.Status = models.PaymentStatusFailed
			p.ErrorCode = optional(in.ErrorCode)
			p.ErrorMessage = optional(in.ErrorMessage)
		}
		if err := s.repo.Payments.Update(ctx, p); err != nil {
			return err
		}

		// 3. Move the order along, if it is still waiting for payment
		order, applied, err = s.orders.applyPaymentResult(ctx, p.OrderID, success)
		return err
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		s.logger.Info("duplicate payment callback ignored",
			zap.String("conversation_id", in.ConversationID),
			zap.String("payment_status", string(payment.Status)))
		return payment, nil
	}

	action := models.AuditPaymentSucceeded
	if !success {
		action = models.AuditPaymentFailed
	}
	s.record(ctx, payment, order.PharmacyID, action, nil, models.PaymentStatusPending, payment.Status, map[string]any{
		"orderNumber": order.OrderNumber,
	})

	if !applied {
		s.logger.Warn("payment result for order that is no longer pending",
			zap.String("order_number", order.OrderNumber),
			zap.String("order_status", string(order.Status)),
			zap.String("payment_status", string(payment.Status)))
		return payment, nil
	}

	from := models.OrderStatusPending
	s.logger.Info("order payment result applied",
		zap.String("order_number", order.OrderNumber),
		zap.String("to", string(order.Status)))
	s.orders.record(ctx, order, models.AuditOrderStatusChanged, nil, from, order.Status, map[string]any{"trigger": "payment"})
	return payment, nil
}

// Refund refunds the order's payment. A nil amount refunds everything that is left.
func (s *PaymentService) Refund(ctx context.Context, pharmacyID, actorID int64, orderNumber string, amount *decimal.Decimal) (*models.Payment, error) {
	if amount != nil && !amount.IsPositive() {
		return nil, apperrors.Validation("refund amount must be positive")
	}

	var (
		payment *models.Payment
		order   *models.Order
		from    models.PaymentStatus
		refund  decimal.Decimal
	)
	err := s.repo.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orders.Get(ctx, PharmacyScope(pharmacyID), orderNumber); err != nil {
			return err
		}
		p, err := s.repo.Payments.GetByOrderID(ctx, order.ID)
		if err != nil {
			return notFound(err, "payment for order", orderNumber)
		}
		from = p.Status
		before := p.RefundedAmount

		if amount == nil {
			err = processFullRefund(p, s.now())
		} else {
			err = processPartialRefund(p, *amount, s.now())
		}
		if err != nil {
			return err
		}
		refund = p.RefundedAmount.Sub(before)
		payment = p
		return s.repo.Payments.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment refunded",
		zap.String("order_number", orderNumber),
		zap.String("amount", refund.StringFixed(2)),
		zap.String("refunded_total", payment.RefundedAmount.StringFixed(2)),
		zap.String("status", string(payment.Status)))
	s.record(ctx, payment, order.PharmacyID, models.AuditPaymentRefunded, &actorID, from, payment.Status, map[string]any{
		"orderNumber":   orderNumber,
		"amount":        refund.StringFixed(2),
		"refundedTotal": payment.RefundedAmount.StringFixed(2),
	})
	return payment, nil
}

// processFullRefund is only legal from SUCCESS.
func processFullRefund(p *models.Payment, now time.Time) error {
	if p.Status != models.PaymentStatusSuccess {
		return apperrors.RefundNotAllowed(string(p.Status))
	}
	p.RefundedAmount = p.Amount
	p.Status = models.PaymentStatusRefunded
	p.RefundedAt = &now
	return nil
}

// processPartialRefund accumulates refunds and flips to REFUNDED once everything is returned.
func processPartialRefund(p *models.Payment, amount decimal.Decimal, now time.Time) error {
	if p.Status != models.PaymentStatusSuccess {
		return apperrors.RefundNotAllowed(string(p.Status))
	}
	remaining := p.RefundableAmount()
	if amount.GreaterThan(remaining) {
		return apperrors.RefundExceedsPayment(amount.StringFixed(2), remaining.StringFixed(2))
	}
	p.RefundedAmount = p.RefundedAmount.Add(amount)
	p.RefundedAt = &now
	if p.RefundedAmount.Equal(p.Amount) {
		p.Status = models.PaymentStatusRefunded
	}
	return nil
}

func (s *PaymentService) record(ctx context.Context, p *models.Payment, pharmacyID int64, action string, actorID *int64,
	from, to models.PaymentStatus, metadata map[string]any) {
	s.audit.Record(ctx, models.AuditEntry{
		Action:     action,
		EntityType: "payment",
		EntityID:   p.ConversationID,
		PharmacyID: &pharmacyID,
		ActorID:    actorID,
		FromStatus: string(from),
		ToStatus:   string(to),
		Metadata:   metadata,
	})
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// lastFour keeps only the trailing four characters; providers sometimes send the masked PAN.
func lastFour(card string) string {
	card = strings.TrimSpace(card)
	if len(card) > 4 {
		return card[len(card)-4:]
	}
	return card
}
