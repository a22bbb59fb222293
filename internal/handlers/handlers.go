package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/auth"
	"github.com/01moynul/pharmastore-golang/internal/middleware"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/services"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Accounts *services.AccountService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Tokens   *auth.Manager
	Logger   *zap.Logger
}

func New(svc *services.Services, tokens *auth.Manager, logger *zap.Logger) *Handlers {
	registerValidators()
	return &Handlers{
		Accounts: svc.Accounts,
		Catalog:  svc.Catalog,
		Carts:    svc.Carts,
		Orders:   svc.Orders,
		Payments: svc.Payments,
		Tokens:   tokens,
		Logger:   logger,
	}
}

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// respondError maps service errors to the response envelope. Anything that is not an
// *apperrors.Error is logged and hidden behind a 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code == apperrors.CodeInternal {
		h.Logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.KeyRequestID)),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: string(apperrors.CodeInternal)})
		return
	}
	c.JSON(apperrors.HTTPStatus(appErr.Code), ErrorResponse{Error: appErr.Message, Code: string(appErr.Code), Details: appErr.Details})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		h.respondError(c, apperrors.Validation("invalid input").WithDetails(fields))
		return
	}
	h.respondError(c, apperrors.Validation("invalid input: "+err.Error()))
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(middleware.KeyUserID)
}

// staffPharmacyID is only called behind RequireRole(staff), which guarantees the key.
func staffPharmacyID(c *gin.Context) int64 {
	return c.GetInt64(middleware.KeyPharmacyID)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid " + name)
	}
	return id, nil
}

func queryPharmacyID(c *gin.Context) (int64, error) {
	raw := c.Query("pharmacyId")
	if raw == "" {
		return 0, apperrors.Validation("pharmacyId is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid pharmacyId")
	}
	return id, nil
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("deliverytype", func(fl validator.FieldLevel) bool {
			return models.DeliveryType(fl.Field().String()).Valid()
		})
	}
}
