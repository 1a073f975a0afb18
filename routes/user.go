package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/cart"
	khaltiControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/khalti"
	orderControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/order"
	"github.com/AngelShahi/Susankyabazzar-sub000/middleware"
)

// SetupUserRoutes registers the customer-facing endpoints. Requires JWT
// middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	guard := cartControllers.NewInflight()

	authed := r.Group("/")
	authed.Use(middleware.ValidateToken)
	{
		// Shopping cart
		cartGroup := authed.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetCart(db))                         // GET /cart
			cartGroup.POST("", cartControllers.UpsertCartItem(db, guard))          // POST /cart
			cartGroup.DELETE("/item/:id", cartControllers.DeleteCartItem(db))      // DELETE /cart/item/:id
			cartGroup.DELETE("", cartControllers.ClearCart(db))                    // DELETE /cart
			cartGroup.PUT("/shipping", cartControllers.UpdateShippingAddress(db))  // PUT /cart/shipping
			cartGroup.PUT("/payment", cartControllers.UpdatePaymentMethod(db))     // PUT /cart/payment
		}

		// Orders
		orderGroup := authed.Group("/orders")
		{
			orderGroup.POST("", orderControllers.PlaceOrderHandler(db))
			orderGroup.GET("", orderControllers.GetMyOrdersHandler(db))
			orderGroup.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))
			orderGroup.PUT("/:orderID/cancel", orderControllers.CancelOrderHandler(db, false))
			orderGroup.PUT("/:orderID/payment-proof", orderControllers.UploadPaymentProofHandler(db))
			orderGroup.POST("/:orderID/khalti/initialize", khaltiControllers.InitializePaymentHandler(db))
		}
	}
}
