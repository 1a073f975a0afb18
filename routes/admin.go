package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/cart"
	orderControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/order"
	"github.com/AngelShahi/Susankyabazzar-sub000/middleware"
)

// SetupAdminRoutes registers the admin panel endpoints. Requires the API key
// middleware.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB) {
	admin := r.Group("/admin")
	admin.Use(middleware.ValidateAPIKey)
	{
		orders := admin.Group("/orders")
		{
			orders.GET("", orderControllers.GetAllOrdersHandler(db))
			orders.GET("/export", orderControllers.ExportOrdersToExcel(db))
			orders.GET("/ws", orderControllers.OrderWebSocketHandler)
			orders.PUT("/:orderID/pay", orderControllers.PayOrderHandler(db))
			orders.PUT("/:orderID/deliver", orderControllers.DeliverOrderHandler(db))
			orders.PUT("/:orderID/cancel", orderControllers.CancelOrderHandler(db, true))
		}

		admin.GET("/users/:user_id/cart", cartControllers.GetAdminUserCart(db))
	}
}
