package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/models"
	"github.com/joshua-takyi/eventgate/internal/services"
)

type createOrderRequest struct {
	EventID      string `json:"event_id" binding:"required"`
	TicketTypeID string `json:"ticket_type_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gte=1"`
}

func CreateOrder(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		eventID, err := primitive.ObjectIDFromHex(req.EventID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid event id"))
			return
		}
		ticketTypeID, err := primitive.ObjectIDFromHex(req.TicketTypeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid ticket type id"))
			return
		}

		order, err := p.CreateOrder(c.Request.Context(), eventID, ticketTypeID, claims.ObjectID(), req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(order, "order created successfully"))
	}
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// VerifyPayment confirms the checkout callback and issues the ticket.
func VerifyPayment(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentClaims(c); !ok {
			return
		}

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		ticket, err := p.VerifyPayment(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(ticket, "payment verified successfully"))
	}
}

// PaymentWebhook handles gateway callbacks. The raw body is needed for
// signature verification, so it is read before any binding.
func PaymentWebhook(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("unable to read request body"))
			return
		}

		signature := c.GetHeader("X-Razorpay-Signature")
		if err := p.HandleWebhook(c.Request.Context(), body, signature); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "webhook processed"))
	}
}
