package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/repository"
	"github.com/01moynul/pharmastore-golang/internal/services"
)

// ProductRequest is the body of product create and update. Prices accept JSON numbers or strings.
type ProductRequest struct {
	CategoryID        int64            `json:"categoryId" binding:"required,gt=0"`
	Name              string           `json:"name" binding:"required"`
	SKU               string           `json:"sku" binding:"required"`
	Description       string           `json:"description"`
	Price             *decimal.Decimal `json:"price" binding:"required" swaggertype:"string"`
	DiscountedPrice   *decimal.Decimal `json:"discountedPrice" swaggertype:"string"`
	StockQuantity     int              `json:"stockQuantity" binding:"gte=0"`
	LowStockThreshold *int             `json:"lowStockThreshold" binding:"omitempty,gte=0"`
	Active            *bool            `json:"active"`
	Featured          bool             `json:"featured"`
}

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		CategoryID:        r.CategoryID,
		Name:              r.Name,
		SKU:               r.SKU,
		Description:       r.Description,
		Price:             *r.Price,
		DiscountedPrice:   r.DiscountedPrice,
		StockQuantity:     r.StockQuantity,
		LowStockThreshold: r.LowStockThreshold,
		Active:            r.Active,
		Featured:          r.Featured,
	}
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// optionalQueryID parses an optional positive id from the query string.
func optionalQueryID(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.Validation("invalid " + name)
	}
	return &id, nil
}

// CreateProduct
// @Summary Create a product in the staff member's pharmacy
// @Tags staff-products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body ProductRequest true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /staff/products [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	p, err := h.Catalog.CreateProduct(c.Request.Context(), staffPharmacyID(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct
// @Summary Replace a product's writable fields
// @Tags staff-products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param input body ProductRequest true "Product"
// @Success 200 {object} models.Product
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /staff/products/{id} [put]
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	p, err := h.Catalog.UpdateProduct(c.Request.Context(), staffPharmacyID(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetProduct
// @Summary Get one of the pharmacy's products
// @Tags staff-products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} ErrorResponse
// @Router /staff/products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	p, err := h.Catalog.GetProduct(c.Request.Context(), staffPharmacyID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListProducts
// @Summary List the pharmacy's products, including inactive ones
// @Tags staff-products
// @Produce json
// @Security BearerAuth
// @Param categoryId query int false "Category filter"
// @Param q query string false "Name search"
// @Success 200 {array} models.Product
// @Router /staff/products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	categoryID, err := optionalQueryID(c, "categoryId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, err := h.Catalog.ListProducts(c.Request.Context(), repository.ProductFilter{
		PharmacyID: staffPharmacyID(c),
		CategoryID: categoryID,
		Search:     c.Query("q"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// LowStockProducts
// @Summary Active products at or below their low-stock threshold
// @Tags staff-products
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Product
// @Router /staff/products/low-stock [get]
func (h *Handlers) LowStockProducts(c *gin.Context) {
	list, err := h.Catalog.LowStock(c.Request.Context(), staffPharmacyID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// CreateCategory
// @Summary Create a category in the staff member's pharmacy
// @Tags staff-products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body CategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 409 {object} ErrorResponse
// @Router /staff/categories [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	cat, err := h.Catalog.CreateCategory(c.Request.Context(), staffPharmacyID(c), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// ListCategories
// @Summary List the pharmacy's categories
// @Tags staff-products
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Router /staff/categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	list, err := h.Catalog.ListCategories(c.Request.Context(), staffPharmacyID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

//
// --- Public storefront ---
//

// StorefrontProducts
// @Summary Active products of a pharmacy
// @Tags storefront
// @Produce json
// @Param pharmacyId path int true "Pharmacy ID"
// @Param categoryId query int false "Category filter"
// @Param q query string false "Name search"
// @Success 200 {array} models.Product
// @Failure 404 {object} ErrorResponse
// @Router /public/pharmacies/{pharmacyId}/products [get]
func (h *Handlers) StorefrontProducts(c *gin.Context) {
	pharmacyID, err := pathID(c, "pharmacyId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	categoryID, err := optionalQueryID(c, "categoryId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, err := h.Catalog.StorefrontProducts(c.Request.Context(), pharmacyID, categoryID, c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// StorefrontCategories
// @Summary Categories of a pharmacy
// @Tags storefront
// @Produce json
// @Param pharmacyId path int true "Pharmacy ID"
// @Success 200 {array} models.Category
// @Failure 404 {object} ErrorResponse
// @Router /public/pharmacies/{pharmacyId}/categories [get]
func (h *Handlers) StorefrontCategories(c *gin.Context) {
	pharmacyID, err := pathID(c, "pharmacyId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, err := h.Catalog.StorefrontCategories(c.Request.Context(), pharmacyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// nonNil keeps empty lists rendering as [] instead of null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
