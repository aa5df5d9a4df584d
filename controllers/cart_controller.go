package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/services"
)

// OwnerContextKey is where the owner-key middleware stores the resolved owner.
const OwnerContextKey = "cart_owner"

// CartController handles cart-scoped requests
type CartController struct {
	Carts *services.CartService
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

type addItemRequest struct {
	ProductID      uuid.UUID  `json:"product_id" binding:"required"`
	VariantID      *uuid.UUID `json:"variant_id"`
	CustomDesignID *uuid.UUID `json:"custom_design_id"`
	Quantity       int        `json:"quantity" binding:"required,min=1"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type transferRequest struct {
	SessionID string    `json:"session_id" binding:"required"`
	UserID    uuid.UUID `json:"user_id" binding:"required"`
}

func ownerFromContext(c *gin.Context) (services.OwnerKey, bool) {
	v, exists := c.Get(OwnerContextKey)
	if !exists {
		return services.OwnerKey{}, false
	}
	owner, ok := v.(services.OwnerKey)
	return owner, ok
}

// GetCart returns the owner's current cart with items and computed totals.
func (cc *CartController) GetCart(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "missing cart owner"})
		return
	}

	cart, err := cc.Carts.GetOrCreate(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	totals, err := cc.Carts.ComputeTotals(c.Request.Context(), cart.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"cart": cart, "totals": totals})
}

// GetTotals returns the computed totals without the full cart payload.
func (cc *CartController) GetTotals(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "missing cart owner"})
		return
	}

	cart, err := cc.Carts.GetOrCreate(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	totals, err := cc.Carts.ComputeTotals(c.Request.Context(), cart.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, totals)
}

// AddItem adds a line to the owner's cart, merging with an identical line.
func (cc *CartController) AddItem(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "missing cart owner"})
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	cart, err := cc.Carts.GetOrCreate(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := cc.Carts.AddItem(c.Request.Context(), cart.ID, services.AddItemInput{
		ProductID:      req.ProductID,
		VariantID:      req.VariantID,
		CustomDesignID: req.CustomDesignID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, item)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (cc *CartController) UpdateItem(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "missing cart owner"})
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid item id"})
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	cart, err := cc.Carts.GetOrCreate(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := cc.Carts.UpdateItemQuantity(c.Request.Context(), cart.ID, itemID, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		respondMessage(c, "item removed")
		return
	}
	respondOK(c, item)
}

// RemoveItem deletes one line from the owner's cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "missing cart owner"})
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid item id"})
		return
	}

	cart, err := cc.Carts.GetOrCreate(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := cc.Carts.RemoveItem(c.Request.Context(), cart.ID, itemID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "item removed")
}

// ClearCart removes all lines from the owner's cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "missing cart owner"})
		return
	}

	cart, err := cc.Carts.GetOrCreate(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := cc.Carts.ClearCart(c.Request.Context(), cart.ID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "cart cleared")
}

// Transfer merges a guest cart into the user's cart. Per-line failures are
// reported in the result rather than aborting the merge.
func (cc *CartController) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	result, err := cc.Carts.TransferGuestCartToUser(c.Request.Context(), req.SessionID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
