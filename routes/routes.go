package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/controllers"
	"github.com/worshipstreet/storefront-backend/services"
)

// OwnerKeyMiddleware resolves the cart owner from the identification headers.
// Exactly one of x-user-id / x-session-id must be present on cart-scoped
// requests; absence of both (or both at once) is a 400.
func OwnerKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userHeader := c.GetHeader("x-user-id")
		sessionHeader := c.GetHeader("x-session-id")

		if (userHeader == "") == (sessionHeader == "") {
			c.AbortWithStatusJSON(http.StatusBadRequest, controllers.Envelope{
				Success: false,
				Error:   "exactly one of x-user-id or x-session-id is required",
			})
			return
		}

		var owner services.OwnerKey
		if userHeader != "" {
			userID, err := uuid.Parse(userHeader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, controllers.Envelope{
					Success: false,
					Error:   "invalid x-user-id",
				})
				return
			}
			owner.UserID = &userID
		} else {
			sid := sessionHeader
			owner.SessionID = &sid
		}

		c.Set(controllers.OwnerContextKey, owner)
		c.Next()
	}
}

// Register wires all endpoints onto the engine.
func Register(
	r *gin.Engine,
	cart *controllers.CartController,
	order *controllers.OrderController,
	inventory *controllers.InventoryController,
) {
	cartRoutes := r.Group("/cart")
	cartRoutes.Use(OwnerKeyMiddleware())
	{
		cartRoutes.GET("", cart.GetCart)
		cartRoutes.GET("/totals", cart.GetTotals)
		cartRoutes.POST("/items", cart.AddItem)
		cartRoutes.PUT("/items/:itemId", cart.UpdateItem)
		cartRoutes.DELETE("/items/:itemId", cart.RemoveItem)
		cartRoutes.DELETE("", cart.ClearCart)
	}
	// Transfer carries both ids in the body, not the owner headers.
	r.POST("/cart/transfer", cart.Transfer)

	orderRoutes := r.Group("/orders")
	{
		orderRoutes.POST("/checkout", order.CheckoutCart)
		orderRoutes.GET("/:id", order.GetOrder)
		orderRoutes.PATCH("/:id/status", order.SetStatus)
		orderRoutes.PATCH("/:id/payment-status", order.SetPaymentStatus)
		orderRoutes.POST("/:id/paypal-complete", order.PayPalComplete)
		orderRoutes.POST("/:id/fulfill", order.Fulfill)
		orderRoutes.GET("/:id/allocations", order.GetAllocations)
	}

	inventoryRoutes := r.Group("/inventory")
	{
		inventoryRoutes.GET("/:variantId", inventory.Check)
		inventoryRoutes.POST("/:variantId/adjust", inventory.Adjust)
	}
}
