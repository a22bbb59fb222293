package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/pharmastore-golang/internal/models"
)

//
// --- Cart Handlers (Customer-Only) ---
//

type AddToCartRequest struct {
	PharmacyID int64 `json:"pharmacyId" binding:"required,gt=0"`
	ProductID  int64 `json:"productId" binding:"required,gt=0"`
	Quantity   int   `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest sets a line quantity; zero removes the line.
type UpdateCartItemRequest struct {
	PharmacyID int64 `json:"pharmacyId" binding:"required,gt=0"`
	Quantity   int   `json:"quantity" binding:"gte=0"`
}

type CartItemResponse struct {
	ProductID     int64           `json:"productId"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice" swaggertype:"string"`
	LineTotal     decimal.Decimal `json:"lineTotal" swaggertype:"string"`
	StockQuantity int             `json:"stockQuantity"`
	Available     bool            `json:"available"`
}

// CartResponse is the cart read model: live prices, totals and availability per line.
type CartResponse struct {
	ID            int64              `json:"id"`
	PharmacyID    int64              `json:"pharmacyId"`
	Items         []CartItemResponse `json:"items"`
	TotalQuantity int                `json:"totalQuantity"`
	Subtotal      decimal.Decimal    `json:"subtotal" swaggertype:"string"`
	CanCheckout   bool               `json:"canCheckout"`
}

func newCartResponse(cart *models.Cart) CartResponse {
	resp := CartResponse{
		ID:            cart.ID,
		PharmacyID:    cart.PharmacyID,
		Items:         make([]CartItemResponse, 0, len(cart.Items)),
		TotalQuantity: cart.TotalQuantity(),
		Subtotal:      cart.Subtotal(),
		CanCheckout:   !cart.IsEmpty() && len(cart.UnavailableItems()) == 0,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		line := CartItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice(),
			LineTotal: item.LineTotal(),
			Available: item.Available(),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.SKU = item.Product.SKU
			line.StockQuantity = item.Product.StockQuantity
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func (h *Handlers) respondCart(c *gin.Context, cart *models.Cart, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// GetCart
// @Summary The customer's cart for one pharmacy
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param pharmacyId query int true "Pharmacy ID"
// @Success 200 {object} CartResponse
// @Router /customer/cart [get]
func (h *Handlers) GetCart(c *gin.Context) {
	pharmacyID, err := queryPharmacyID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	cart, err := h.Carts.View(c.Request.Context(), userID(c), pharmacyID)
	h.respondCart(c, cart, err)
}

// AddToCart
// @Summary Add units of a product, summing with an existing line
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body AddToCartRequest true "Item"
// @Success 200 {object} CartResponse
// @Failure 409 {object} ErrorResponse
// @Router /customer/cart/items [post]
func (h *Handlers) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	cart, err := h.Carts.AddItem(c.Request.Context(), userID(c), req.PharmacyID, req.ProductID, req.Quantity)
	h.respondCart(c, cart, err)
}

// UpdateCartItem
// @Summary Set the quantity of a cart line
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productId path int true "Product ID"
// @Param input body UpdateCartItemRequest true "Quantity"
// @Success 200 {object} CartResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /customer/cart/items/{productId} [put]
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	productID, err := pathID(c, "productId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	cart, err := h.Carts.UpdateQuantity(c.Request.Context(), userID(c), req.PharmacyID, productID, req.Quantity)
	h.respondCart(c, cart, err)
}

// DeleteCartItem
// @Summary Remove a line from the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productId path int true "Product ID"
// @Param pharmacyId query int true "Pharmacy ID"
// @Success 200 {object} CartResponse
// @Router /customer/cart/items/{productId} [delete]
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	productID, err := pathID(c, "productId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	pharmacyID, err := queryPharmacyID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	cart, err := h.Carts.RemoveItem(c.Request.Context(), userID(c), pharmacyID, productID)
	h.respondCart(c, cart, err)
}

// ClearCart
// @Summary Empty the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param pharmacyId query int true "Pharmacy ID"
// @Success 200 {object} CartResponse
// @Router /customer/cart [delete]
func (h *Handlers) ClearCart(c *gin.Context) {
	pharmacyID, err := queryPharmacyID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	cart, err := h.Carts.Clear(c.Request.Context(), userID(c), pharmacyID)
	h.respondCart(c, cart, err)
}
