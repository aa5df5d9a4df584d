package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/services"
)

// OrderController handles checkout, payments and order lifecycle requests
type OrderController struct {
	Checkout    *services.CheckoutService
	Payments    *services.PaymentService
	Status      *services.OrderStatusService
	Allocations *services.AllocationService
}

// NewOrderController creates a new OrderController
func NewOrderController(
	checkout *services.CheckoutService,
	payments *services.PaymentService,
	status *services.OrderStatusService,
	allocations *services.AllocationService,
) *OrderController {
	return &OrderController{
		Checkout:    checkout,
		Payments:    payments,
		Status:      status,
		Allocations: allocations,
	}
}

type checkoutRequest struct {
	CartID          uuid.UUID      `json:"cart_id" binding:"required"`
	Email           string         `json:"email" binding:"required,email"`
	PaymentMethod   string         `json:"payment_method" binding:"required"`
	Notes           string         `json:"notes"`
	BillingAddress  models.Address `json:"billing_address" binding:"required"`
	ShippingAddress models.Address `json:"shipping_address" binding:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type paypalCompleteRequest struct {
	PayPalOrderID      string          `json:"paypalOrderId" binding:"required"`
	PayPalOrderDetails json.RawMessage `json:"paypalOrderDetails"`
}

type fulfillRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required,min=1"`
}

func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid order id"})
		return uuid.Nil, false
	}
	return id, true
}

// CheckoutCart converts a cart into an order.
func (oc *OrderController) CheckoutCart(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	input := services.CheckoutInput{
		CartID:          req.CartID,
		Email:           req.Email,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
	}
	if userID := c.GetHeader("x-user-id"); userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			input.UserID = &parsed
		}
	}

	result, err := oc.Checkout.CreateOrderFromCart(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, result)
}

// GetOrder returns an order with its items.
func (oc *OrderController) GetOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := oc.Status.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// SetStatus advances the order-status axis.
func (oc *OrderController) SetStatus(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	order, err := oc.Status.SetStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// SetPaymentStatus sets the payment axis; a transition to paid triggers
// profit allocation.
func (oc *OrderController) SetPaymentStatus(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	allocations, err := oc.Payments.SetPaymentStatus(c.Request.Context(), orderID, req.PaymentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"payment_status": req.PaymentStatus, "allocations": allocations})
}

// PayPalComplete is the idempotent payment-capture callback. Duplicate
// deliveries return success without re-processing.
func (oc *OrderController) PayPalComplete(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req paypalCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	result, err := oc.Payments.CompletePayment(c.Request.Context(), orderID, req.PayPalOrderID, services.CompletePaymentInput{
		Method:         "paypal",
		GatewayPayload: string(req.PayPalOrderDetails),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Fulfill marks order items fulfilled and recomputes the fulfillment axis.
func (oc *OrderController) Fulfill(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req fulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid payload"})
		return
	}

	order, err := oc.Status.FulfillItems(c.Request.Context(), orderID, req.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// GetAllocations returns the persisted profit allocations for an order.
func (oc *OrderController) GetAllocations(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	allocations, err := oc.Allocations.ListAllocations(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, allocations)
}
