package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/models"
)

func paidOrder(t *testing.T, f *fixture) (*models.Order, *models.Payment) {
	t.Helper()
	ctx := context.Background()
	p := f.product(t, "Paracetamol", "PRC", "100", 10)
	o := f.placeOrder(t, f.customer.ID, p.ID, 3)
	pay, err := f.svc.Payments.CreatePayment(ctx, f.customer.ID, o.OrderNumber)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	pay, err = f.svc.Payments.HandleCallback(ctx, CallbackInput{
		Status: CallbackSuccess, ConversationID: pay.ConversationID, TransactionID: "tx-1",
		PaymentID: "pay-1", CardLastFour: "5528790000000008", CardBrand: "MASTER_CARD",
	})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	return o, pay
}

func TestPayment_SuccessConfirmsOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o, pay := paidOrder(t, f)

	if pay.Status != models.PaymentStatusSuccess || pay.PaidAt == nil || *pay.CardLastFour != "0008" {
		t.Fatalf("payment: %+v", pay)
	}
	if !pay.Amount.Equal(decimal.NewFromInt(320)) {
		t.Fatalf("amount: %s", pay.Amount)
	}
	got, _ := f.svc.Orders.Get(ctx, SystemScope(), o.OrderNumber)
	if got.Status != models.OrderStatusConfirmed || got.ConfirmedAt == nil {
		t.Fatalf("order: %+v", got)
	}

	// provider retries are idempotent
	again, err := f.svc.Payments.HandleCallback(ctx, CallbackInput{Status: CallbackFailure, ConversationID: pay.ConversationID})
	if err != nil || again.Status != models.PaymentStatusSuccess {
		t.Fatalf("duplicate callback: %v %+v", err, again)
	}
}

func TestPayment_FailureRestoresStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Paracetamol", "PRC", "100", 10)
	o := f.placeOrder(t, f.customer.ID, p.ID, 3)
	pay, err := f.svc.Payments.CreatePayment(ctx, f.customer.ID, o.OrderNumber)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	pay, err = f.svc.Payments.HandleCallback(ctx, CallbackInput{
		Status: "failure", ConversationID: pay.ConversationID, ErrorCode: "10051", ErrorMessage: "insufficient funds",
	})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if pay.Status != models.PaymentStatusFailed || *pay.ErrorCode != "10051" {
		t.Fatalf("payment: %+v", pay)
	}
	got, _ := f.svc.Orders.Get(ctx, SystemScope(), o.OrderNumber)
	if got.Status != models.OrderStatusPaymentFailed {
		t.Fatalf("order status: %s", got.Status)
	}
	if s := f.stock(t, p.ID); s != 10 {
		t.Fatalf("stock: %d", s)
	}
	if !got.Status.IsTerminal() {
		t.Fatalf("PAYMENT_FAILED must be terminal")
	}
}

func TestPayment_CallbackAfterCancelLeavesOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Paracetamol", "PRC", "100", 10)
	o := f.placeOrder(t, f.customer.ID, p.ID, 3)
	pay, err := f.svc.Payments.CreatePayment(ctx, f.customer.ID, o.OrderNumber)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if _, err := f.svc.Orders.Cancel(ctx, CustomerScope(f.customer.ID), &f.customer.ID, o.OrderNumber, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	pay, err = f.svc.Payments.HandleCallback(ctx, CallbackInput{Status: CallbackSuccess, ConversationID: pay.ConversationID})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if pay.Status != models.PaymentStatusSuccess {
		t.Fatalf("payment should still be recorded: %s", pay.Status)
	}
	got, _ := f.svc.Orders.Get(ctx, SystemScope(), o.OrderNumber)
	if got.Status != models.OrderStatusCancelled {
		t.Fatalf("order status: %s", got.Status)
	}
	if s := f.stock(t, p.ID); s != 10 {
		t.Fatalf("stock: %d", s)
	}
}

func TestPayment_CreateRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o, _ := paidOrder(t, f)

	// order is CONFIRMED now
	_, err := f.svc.Payments.CreatePayment(ctx, f.customer.ID, o.OrderNumber)
	expectCode(t, err, apperrors.CodeValidation)

	p := f.product(t, "Ibuprofen", "IBU", "5", 10)
	o2 := f.placeOrder(t, f.customer.ID, p.ID, 1)
	if _, err := f.svc.Payments.CreatePayment(ctx, f.customer.ID, o2.OrderNumber); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = f.svc.Payments.CreatePayment(ctx, f.customer.ID, o2.OrderNumber)
	expectCode(t, err, apperrors.CodeDuplicateResource)

	_, err = f.svc.Payments.HandleCallback(ctx, CallbackInput{Status: CallbackSuccess, ConversationID: "nope"})
	expectCode(t, err, apperrors.CodeNotFound)
	_, err = f.svc.Payments.HandleCallback(ctx, CallbackInput{Status: "maybe", ConversationID: "nope"})
	expectCode(t, err, apperrors.CodeValidation)
}

func TestRefund_PartialCap(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o, _ := paidOrder(t, f)
	refund := func(v int64) (*models.Payment, error) {
		amount := decimal.NewFromInt(v)
		return f.svc.Payments.Refund(ctx, f.pharmacy.ID, f.staff.ID, o.OrderNumber, &amount)
	}

	pay, err := refund(200)
	if err != nil || pay.Status != models.PaymentStatusSuccess || !pay.RefundedAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("first refund: %v %+v", err, pay)
	}

	_, err = refund(150)
	expectCode(t, err, apperrors.CodeRefundExceedsPayment)

	pay, err = refund(120)
	if err != nil || pay.Status != models.PaymentStatusRefunded || !pay.RefundedAmount.Equal(decimal.NewFromInt(320)) {
		t.Fatalf("final refund: %v %+v", err, pay)
	}

	_, err = refund(1)
	expectCode(t, err, apperrors.CodeRefundNotAllowed)
	_, err = f.svc.Payments.Refund(ctx, f.pharmacy.ID, f.staff.ID, o.OrderNumber, nil)
	expectCode(t, err, apperrors.CodeRefundNotAllowed)
}

func TestRefund_Full(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o, _ := paidOrder(t, f)

	pay, err := f.svc.Payments.Refund(ctx, f.pharmacy.ID, f.staff.ID, o.OrderNumber, nil)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if pay.Status != models.PaymentStatusRefunded || !pay.RefundedAmount.Equal(pay.Amount) || pay.RefundedAt == nil {
		t.Fatalf("payment: %+v", pay)
	}
}

func TestRefund_RequiresSuccessfulPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Ibuprofen", "IBU", "5", 10)
	o := f.placeOrder(t, f.customer.ID, p.ID, 1)

	_, err := f.svc.Payments.Refund(ctx, f.pharmacy.ID, f.staff.ID, o.OrderNumber, nil)
	expectCode(t, err, apperrors.CodeNotFound)

	if _, err := f.svc.Payments.CreatePayment(ctx, f.customer.ID, o.OrderNumber); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = f.svc.Payments.Refund(ctx, f.pharmacy.ID, f.staff.ID, o.OrderNumber, nil)
	expectCode(t, err, apperrors.CodeRefundNotAllowed)

	zero := decimal.Zero
	_, err = f.svc.Payments.Refund(ctx, f.pharmacy.ID, f.staff.ID, o.OrderNumber, &zero)
	expectCode(t, err, apperrors.CodeValidation)
}
