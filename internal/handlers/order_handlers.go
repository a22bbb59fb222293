package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/services"
)

type CheckoutRequest struct {
	PharmacyID         int64  `json:"pharmacyId" binding:"required,gt=0"`
	DeliveryType       string `json:"deliveryType" binding:"required,deliverytype" enums:"COURIER,CARGO"`
	ShippingAddress    string `json:"shippingAddress" binding:"required"`
	ShippingCity       string `json:"shippingCity" binding:"required"`
	ShippingDistrict   string `json:"shippingDistrict"`
	ShippingPostalCode string `json:"shippingPostalCode"`
	ShippingPhone      string `json:"shippingPhone" binding:"required"`
	Notes              string `json:"notes"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type StatusUpdateRequest struct {
	Status         string  `json:"status" binding:"required"`
	TrackingNumber *string `json:"trackingNumber"`
	CargoCompany   *string `json:"cargoCompany"`
	Note           string  `json:"note"`
}

// RefundRequest refunds the given amount, or everything that is left when amount is absent.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount" swaggertype:"string"`
}

// PaymentCallbackRequest is what the payment provider sends back, as query or form
// parameters. A JSON body is accepted too.
type PaymentCallbackRequest struct {
	Status         string `json:"status" form:"status" binding:"required"`
	ConversationID string `json:"conversationId" form:"conversationId" binding:"required"`
	TransactionID  string `json:"transactionId" form:"transactionId"`
	PaymentID      string `json:"paymentId" form:"paymentId"`
	CardLastFour   string `json:"cardLastFour" form:"cardLastFour"`
	CardBrand      string `json:"cardBrand" form:"cardBrand"`
	ErrorCode      string `json:"errorCode" form:"errorCode"`
	ErrorMessage   string `json:"errorMessage" form:"errorMessage"`
}

type OrderDetailResponse struct {
	*models.Order
	Payment *models.Payment `json:"payment,omitempty"`
}

func (h *Handlers) orderDetail(c *gin.Context, scope services.Scope) {
	ctx := c.Request.Context()
	o, err := h.Orders.Get(ctx, scope, c.Param("orderNumber"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	p, err := h.Payments.GetForOrder(ctx, o.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderDetailResponse{Order: o, Payment: p})
}

func (h *Handlers) listOrders(c *gin.Context, scope services.Scope) {
	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		st, err := services.ParseOrderStatus(raw)
		if err != nil {
			h.respondError(c, err)
			return
		}
		status = &st
	}
	list, err := h.Orders.List(c.Request.Context(), scope, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

//
// --- Customer orders ---
//

// Checkout
// @Summary Turn the customer's cart into an order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body CheckoutRequest true "Checkout"
// @Success 201 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /customer/orders [post]
func (h *Handlers) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	o, err := h.Orders.CreateFromCart(c.Request.Context(), userID(c), services.CheckoutInput{
		PharmacyID:         req.PharmacyID,
		DeliveryType:       models.DeliveryType(req.DeliveryType),
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingDistrict:   req.ShippingDistrict,
		ShippingPostalCode: req.ShippingPostalCode,
		ShippingPhone:      req.ShippingPhone,
		Notes:              req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// GetMyOrders
// @Summary The customer's orders, newest first
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {array} models.Order
// @Router /customer/orders [get]
func (h *Handlers) GetMyOrders(c *gin.Context) {
	h.listOrders(c, services.CustomerScope(userID(c)))
}

// GetMyOrder
// @Summary One of the customer's orders with its payment
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param orderNumber path string true "Order number"
// @Success 200 {object} OrderDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /customer/orders/{orderNumber} [get]
func (h *Handlers) GetMyOrder(c *gin.Context) {
	h.orderDetail(c, services.CustomerScope(userID(c)))
}

// CancelMyOrder
// @Summary Cancel an order that has not been prepared yet
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderNumber path string true "Order number"
// @Param input body CancelRequest false "Reason"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Router /customer/orders/{orderNumber}/cancel [post]
func (h *Handlers) CancelMyOrder(c *gin.Context) {
	id := userID(c)
	h.cancel(c, services.CustomerScope(id), id)
}

// CreatePayment
// @Summary Open the payment of a pending order
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param orderNumber path string true "Order number"
// @Success 201 {object} models.Payment
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /customer/orders/{orderNumber}/payment [post]
func (h *Handlers) CreatePayment(c *gin.Context) {
	p, err := h.Payments.CreatePayment(c.Request.Context(), userID(c), c.Param("orderNumber"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PaymentCallback
// @Summary Payment provider result
// @Tags payments
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param X-Callback-Token header string false "Shared secret"
// @Param status query string true "SUCCESS or FAILURE"
// @Param conversationId query string true "Conversation id returned by createPayment"
// @Param transactionId query string false "Provider transaction id"
// @Success 200 {object} models.Payment
// @Failure 404 {object} ErrorResponse
// @Router /public/payments/callback [post]
func (h *Handlers) PaymentCallback(c *gin.Context) {
	var req PaymentCallbackRequest
	if err := bindCallback(c, &req); err != nil {
		h.badRequest(c, err)
		return
	}
	p, err := h.Payments.HandleCallback(c.Request.Context(), services.CallbackInput{
		Status:         req.Status,
		ConversationID: req.ConversationID,
		TransactionID:  req.TransactionID,
		PaymentID:      req.PaymentID,
		CardLastFour:   req.CardLastFour,
		CardBrand:      req.CardBrand,
		ErrorCode:      req.ErrorCode,
		ErrorMessage:   req.ErrorMessage,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// bindCallback picks the binder from the content type (form, multipart or JSON).
// Parameters sent only in the query string still bind when the body is empty or unusable.
func bindCallback(c *gin.Context, req *PaymentCallbackRequest) error {
	err := c.ShouldBind(req)
	if err == nil {
		return nil
	}
	*req = PaymentCallbackRequest{}
	if qerr := c.ShouldBindQuery(req); qerr == nil {
		return nil
	}
	return err
}

//
// --- Staff orders ---
//

// ListPharmacyOrders
// @Summary Orders of the staff member's pharmacy
// @Tags staff-orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {array} models.Order
// @Router /staff/orders [get]
func (h *Handlers) ListPharmacyOrders(c *gin.Context) {
	h.listOrders(c, services.PharmacyScope(staffPharmacyID(c)))
}

// GetPharmacyOrder
// @Summary One order of the pharmacy with its payment
// @Tags staff-orders
// @Produce json
// @Security BearerAuth
// @Param orderNumber path string true "Order number"
// @Success 200 {object} OrderDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /staff/orders/{orderNumber} [get]
func (h *Handlers) GetPharmacyOrder(c *gin.Context) {
	h.orderDetail(c, services.PharmacyScope(staffPharmacyID(c)))
}

// UpdateOrderStatus
// @Summary Move an order along its lifecycle, or update tracking
// @Tags staff-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderNumber path string true "Order number"
// @Param input body StatusUpdateRequest true "Status"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Router /staff/orders/{orderNumber}/status [patch]
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	status, err := services.ParseOrderStatus(req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	o, err := h.Orders.UpdateStatus(c.Request.Context(), staffPharmacyID(c), userID(c), c.Param("orderNumber"), services.StatusUpdate{
		Status:         status,
		TrackingNumber: req.TrackingNumber,
		CargoCompany:   req.CargoCompany,
		Note:           req.Note,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// CancelPharmacyOrder
// @Summary Cancel an order on behalf of the pharmacy
// @Tags staff-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderNumber path string true "Order number"
// @Param input body CancelRequest false "Reason"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Router /staff/orders/{orderNumber}/cancel [post]
func (h *Handlers) CancelPharmacyOrder(c *gin.Context) {
	h.cancel(c, services.PharmacyScope(staffPharmacyID(c)), userID(c))
}

// RefundOrder
// @Summary Refund an order's payment, fully or in part
// @Tags staff-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderNumber path string true "Order number"
// @Param input body RefundRequest false "Amount"
// @Success 200 {object} models.Payment
// @Failure 400 {object} ErrorResponse
// @Router /staff/orders/{orderNumber}/refund [post]
func (h *Handlers) RefundOrder(c *gin.Context) {
	var req RefundRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, err)
		return
	}
	p, err := h.Payments.Refund(c.Request.Context(), staffPharmacyID(c), userID(c), c.Param("orderNumber"), req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// cancel accepts an optional JSON body with a reason.
func (h *Handlers) cancel(c *gin.Context, scope services.Scope, actorID int64) {
	var req CancelRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, err)
		return
	}
	o, err := h.Orders.Cancel(c.Request.Context(), scope, &actorID, c.Param("orderNumber"), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// bindOptionalJSON treats an empty body as an empty object.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
