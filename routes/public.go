package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	khaltiControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/khalti"
	productControllers "github.com/AngelShahi/Susankyabazzar-sub000/controllers/product"
)

// SetupPublicRoutes registers the unauthenticated endpoints: product browsing
// and the Khalti return callback (the gateway redirects the browser here, so
// no bearer token is available).
func SetupPublicRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/products", productControllers.GetProducts(db))
	r.GET("/products/:id", productControllers.GetProductByID(db))

	r.GET("/payments/khalti/callback", khaltiControllers.PaymentCallbackHandler(db))
}
