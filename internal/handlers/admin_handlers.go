package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/pharmastore-golang/internal/services"
)

//
// --- Admin Handlers (tenant onboarding) ---
//

type CreatePharmacyRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// CreatePharmacy
// @Summary Onboard a pharmacy
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body CreatePharmacyRequest true "Pharmacy"
// @Success 201 {object} models.Pharmacy
// @Failure 400 {object} ErrorResponse
// @Router /admin/pharmacies [post]
func (h *Handlers) CreatePharmacy(c *gin.Context) {
	var req CreatePharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	p, err := h.Accounts.CreatePharmacy(c.Request.Context(), services.PharmacyInput{
		Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address, City: req.City,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// CreateStaff
// @Summary Create a staff account bound to a pharmacy
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pharmacy ID"
// @Param input body RegisterRequest true "Account"
// @Success 201 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/pharmacies/{id}/staff [post]
func (h *Handlers) CreateStaff(c *gin.Context) {
	pharmacyID, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	u, err := h.Accounts.CreateStaff(c.Request.Context(), pharmacyID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}
