package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the provider outcome and any refunds.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Payment is the model for the 'payments' table. One payment per order.
type Payment struct {
	ID             int64           `json:"id" db:"id"`
	OrderID        int64           `json:"orderId" db:"order_id"`
	Status         PaymentStatus   `json:"status" db:"status"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	RefundedAmount decimal.Decimal `json:"refundedAmount" db:"refunded_amount"`

	// --- Provider Correlation ---
	ConversationID string  `json:"conversationId" db:"conversation_id"`
	TransactionID  *string `json:"transactionId,omitempty" db:"transaction_id"`
	PaymentID      *string `json:"paymentId,omitempty" db:"provider_payment_id"`

	// --- Card (masked) ---
	CardLastFour *string `json:"cardLastFour,omitempty" db:"card_last_four"`
	CardBrand    *string `json:"cardBrand,omitempty" db:"card_brand"`

	// --- Failure ---
	ErrorCode    *string `json:"errorCode,omitempty" db:"error_code"`
	ErrorMessage *string `json:"errorMessage,omitempty" db:"error_message"`

	PaidAt     *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	RefundedAt *time.Time `json:"refundedAt,omitempty" db:"refunded_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// RefundableAmount is what is left to refund.
func (p *Payment) RefundableAmount() decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}

func (p *Payment) IsSettled() bool {
	return p.Status != PaymentStatusPending
}
