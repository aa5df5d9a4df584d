package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/services"
)

// InventoryController handles stock checks and admin adjustments
type InventoryController struct {
	Inventory *services.InventoryService
}

// NewInventoryController creates a new InventoryController
func NewInventoryController(inventory *services.InventoryService) *InventoryController {
	return &InventoryController{Inventory: inventory}
}

type adjustRequest struct {
	Delta int    `json:"delta"`
	Mode  string `json:"mode" binding:"required,oneof=set increment decrement"`
}

// Check reports availability of a variant for an optional ?quantity=N.
func (ic *InventoryController) Check(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid variant id"})
		return
	}

	quantity := 1
	if raw := c.Query("quantity"); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil || quantity < 1 {
			c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid quantity"})
			return
		}
	}

	check, err := ic.Inventory.Check(c.Request.Context(), variantID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, check)
}

// Adjust mutates a variant's stock counter.
func (ic *InventoryController) Adjust(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid variant id"})
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	rec, err := ic.Inventory.Adjust(c.Request.Context(), variantID, req.Delta, req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rec)
}
