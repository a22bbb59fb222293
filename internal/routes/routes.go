package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/handlers"
	"github.com/01moynul/pharmastore-golang/internal/middleware"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/ratelimit"
)

// Options carries the router settings that come from configuration.
type Options struct {
	CORSOrigin     string
	CallbackSecret string
	Limiter        ratelimit.Store
	Logger         *zap.Logger
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(opts.CORSOrigin))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(opts.Logger))
	if opts.Limiter != nil {
		router.Use(middleware.RateLimit(opts.Limiter))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authenticated := middleware.Auth(h.Tokens, h.Accounts)

	v1 := router.Group("/v1")
	{
		// --- Public ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)

		public := v1.Group("/public")
		{
			public.GET("/pharmacies/:pharmacyId/products", h.StorefrontProducts)
			public.GET("/pharmacies/:pharmacyId/categories", h.StorefrontCategories)
			public.POST("/payments/callback", middleware.CallbackToken(opts.CallbackSecret), h.PaymentCallback)
		}

		// --- Customer ---
		customer := v1.Group("/customer")
		customer.Use(authenticated, middleware.RequireRole(models.RoleCustomer))
		{
			customer.GET("/cart", h.GetCart)
			customer.DELETE("/cart", h.ClearCart)
			customer.POST("/cart/items", h.AddToCart)
			customer.PUT("/cart/items/:productId", h.UpdateCartItem)
			customer.DELETE("/cart/items/:productId", h.DeleteCartItem)

			customer.POST("/orders", h.Checkout)
			customer.GET("/orders", h.GetMyOrders)
			customer.GET("/orders/:orderNumber", h.GetMyOrder)
			customer.POST("/orders/:orderNumber/cancel", h.CancelMyOrder)
			customer.POST("/orders/:orderNumber/payment", h.CreatePayment)
		}

		// --- Pharmacy staff ---
		staff := v1.Group("/staff")
		staff.Use(authenticated, middleware.RequireRole(models.RoleStaff))
		{
			staff.POST("/products", h.CreateProduct)
			staff.GET("/products", h.ListProducts)
			staff.GET("/products/low-stock", h.LowStockProducts)
			staff.GET("/products/:id", h.GetProduct)
			staff.PUT("/products/:id", h.UpdateProduct)

			staff.POST("/categories", h.CreateCategory)
			staff.GET("/categories", h.ListCategories)

			staff.GET("/orders", h.ListPharmacyOrders)
			staff.GET("/orders/:orderNumber", h.GetPharmacyOrder)
			staff.PATCH("/orders/:orderNumber/status", h.UpdateOrderStatus)
			staff.POST("/orders/:orderNumber/cancel", h.CancelPharmacyOrder)
			staff.POST("/orders/:orderNumber/refund", h.RefundOrder)
		}

		// --- Platform admin ---
		admin := v1.Group("/admin")
		admin.Use(authenticated, middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/pharmacies", h.CreatePharmacy)
			admin.POST("/pharmacies/:id/staff", h.CreateStaff)
		}
	}

	return router
}
