package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	Auth            *AuthHTTP
	Store           *StoreHTTP
	Cart            *CartHTTP
	Discounts       *DiscountHTTP
	AdminProducts   *AdminProductHTTP
	AdminCategories *AdminCategoryHTTP
	AdminUsers      *AdminUserHTTP
	AdminDiscounts  *AdminDiscountHTTP
	AdminAudit      *AdminAuditHTTP
	JWTSecret       []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := &AuthMiddleware{JWTSecret: d.JWTSecret}

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.LogOut, authMW.RequireAuth)
	auth.POST("/password", d.Auth.ChangePassword, authMW.RequireAuth)

	store := e.Group("/store")
	store.GET("/products", d.Store.GetProducts)
	store.GET("/products/:id", d.Store.GetProduct)
	store.GET("/search", d.Store.Search)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.PATCH("/items", d.Cart.SetQuantity)
	cart.DELETE("", d.Cart.ClearCart)

	discounts := e.Group("/discounts", authMW.RequireAuth)
	discounts.POST("/verify", d.Discounts.Verify)
	discounts.POST("/redeem", d.Discounts.Redeem)

	admin := e.Group("/admin", authMW.RequireAdmin)

	products := admin.Group("/products")
	products.GET("", d.AdminProducts.List)
	products.GET("/:id", d.AdminProducts.Get)
	products.POST("", d.AdminProducts.Create)
	products.PATCH("/:id", d.AdminProducts.Update)
	products.PUT("/:id/listed", d.AdminProducts.SetListed)
	products.DELETE("/:id", d.AdminProducts.Delete)

	categories := admin.Group("/categories")
	categories.GET("", d.AdminCategories.List)
	categories.POST("", d.AdminCategories.Create)
	categories.PATCH("/:id", d.AdminCategories.Rename)
	categories.DELETE("/:id", d.AdminCategories.Delete)

	users := admin.Group("/users")
	users.GET("", d.AdminUsers.List)
	users.POST("", d.AdminUsers.Create)
	users.PATCH("/:id", d.AdminUsers.Update)
	users.PUT("/:id/role", d.AdminUsers.SetRole)
	users.DELETE("/:id", d.AdminUsers.Delete)

	adminDiscounts := admin.Group("/discounts")
	adminDiscounts.GET("", d.AdminDiscounts.List)
	adminDiscounts.POST("", d.AdminDiscounts.Create)
	adminDiscounts.PATCH("/:id", d.AdminDiscounts.Update)
	adminDiscounts.PUT("/:id/toggle", d.AdminDiscounts.Toggle)
	adminDiscounts.DELETE("/:id", d.AdminDiscounts.Delete)

	admin.GET("/logs/export", d.AdminAudit.ExportLogs)
	admin.GET("/dashboard/stats", d.AdminAudit.Stats)
	admin.GET("/dashboard/alerts", d.AdminAudit.Alerts)
	admin.GET("/settings", d.AdminAudit.GetSettings)
	admin.PUT("/settings", d.AdminAudit.PutSettings)
}
