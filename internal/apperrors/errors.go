// Package apperrors defines the typed failures raised by the service layer and
// their translation to HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code returned to API clients.
type Code string

const (
	CodeNotFound                Code = "RESOURCE_NOT_FOUND"
	CodeValidation              Code = "VALIDATION_FAILED"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeForbidden               Code = "FORBIDDEN"
	CodeInsufficientStock       Code = "INSUFFICIENT_STOCK"
	CodeProductUnavailable      Code = "PRODUCT_UNAVAILABLE"
	CodeEmptyCart               Code = "EMPTY_CART"
	CodeCartItemsUnavailable    Code = "CART_ITEMS_UNAVAILABLE"
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CodeOrderNotCancellable     Code = "ORDER_NOT_CANCELLABLE"
	CodeDuplicateResource       Code = "DUPLICATE_RESOURCE"
	CodeRefundNotAllowed        Code = "REFUND_NOT_ALLOWED"
	CodeRefundExceedsPayment    Code = "REFUND_EXCEEDS_PAYMENT"
	CodeRateLimited             Code = "RATE_LIMITED"
	CodeInternal                Code = "INTERNAL_ERROR"
)

// Error is a domain failure with a stable code.
type Error struct {
	Code    Code
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error around a lower-level cause.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetails attaches structured details that are echoed to the client.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func NotFound(resource string, key any) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s %v not found", resource, key))
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func InsufficientStock(productID int64, requested int) *Error {
	return New(CodeInsufficientStock, fmt.Sprintf("not enough stock for product %d", productID)).
		WithDetails(map[string]any{"productId": productID, "requested": requested})
}

func ProductUnavailable(productID int64) *Error {
	return New(CodeProductUnavailable, fmt.Sprintf("product %d is not available", productID)).
		WithDetails(map[string]any{"productId": productID})
}

func EmptyCart() *Error {
	return New(CodeEmptyCart, "your cart is empty")
}

func CartItemsUnavailable(productIDs []int64) *Error {
	return New(CodeCartItemsUnavailable, "some cart items are no longer available").
		WithDetails(map[string]any{"productIds": productIDs})
}

func InvalidStatusTransition(from, to string) *Error {
	return New(CodeInvalidStatusTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func OrderNotCancellable(orderNumber, status string) *Error {
	return New(CodeOrderNotCancellable, fmt.Sprintf("order %s cannot be cancelled in status %s", orderNumber, status))
}

func Duplicate(resource, field string) *Error {
	return New(CodeDuplicateResource, fmt.Sprintf("%s with this %s already exists", resource, field))
}

func RefundNotAllowed(status string) *Error {
	return New(CodeRefundNotAllowed, fmt.Sprintf("refund not allowed for payment in status %s", status))
}

func RefundExceedsPayment(requested, remaining string) *Error {
	return New(CodeRefundExceedsPayment, "refund would exceed the paid amount").
		WithDetails(map[string]any{"requested": requested, "remaining": remaining})
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps a code to the response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeEmptyCart, CodeCartItemsUnavailable, CodeInvalidStatusTransition,
		CodeOrderNotCancellable, CodeRefundNotAllowed, CodeRefundExceedsPayment:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeInsufficientStock, CodeProductUnavailable, CodeDuplicateResource:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
