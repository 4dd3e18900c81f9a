package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/models"
	"github.com/joshua-takyi/eventgate/internal/services"
)

func ListMyTickets(t *services.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		tickets, err := t.ListUserTickets(c.Request.Context(), claims.ObjectID())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(tickets, ""))
	}
}

// GetTicket serves one ticket to its holder, an admin, or the event's
// organizer.
func GetTicket(t *services.TicketService, e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, ok := eventIDParam(c, "id")
		if !ok {
			return
		}

		ticket, err := t.GetTicket(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		if !claims.IsOwner(ticket.User.Hex()) && !claims.IsAdmin() {
			event, eventErr := e.GetEvent(c.Request.Context(), ticket.Event)
			if eventErr != nil || !event.IsOrganizer(claims.ObjectID()) {
				c.JSON(http.StatusForbidden, models.ErrorResponse("access denied"))
				return
			}
		}

		c.JSON(http.StatusOK, models.SuccessResponse(ticket, ""))
	}
}

type freeTicketRequest struct {
	EventID      string `json:"event_id" binding:"required"`
	TicketTypeID string `json:"ticket_type_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gte=1"`
}

// CreateFreeTicket is the zero-cost booking path: same issuance workflow
// as a paid purchase, no gateway involved.
func CreateFreeTicket(t *services.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		var req freeTicketRequest
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

		ticket, err := t.IssueFreeTicket(c.Request.Context(), eventID, ticketTypeID, claims.ObjectID(), req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(ticket, "ticket booked successfully"))
	}
}

type verifyTicketRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
	QRData   string `json:"qr_data" binding:"required"`
}

// VerifyTicket is the staff door scan.
func VerifyTicket(t *services.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		var req verifyTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		ticketID, err := primitive.ObjectIDFromHex(req.TicketID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid ticket id"))
			return
		}

		ticket, err := t.VerifyAndCheckIn(c.Request.Context(), ticketID, req.QRData, claims)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(ticket, "ticket verified successfully"))
	}
}

func ListEventTickets(t *services.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		eventID, ok := eventIDParam(c, "eventId")
		if !ok {
			return
		}

		tickets, err := t.ListEventTickets(c.Request.Context(), eventID, claims)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(tickets, ""))
	}
}

type publicStatusResponse struct {
	Status       services.TicketStatus `json:"status"`
	TicketNumber string                `json:"ticket_number"`
	TicketType   string                `json:"ticket_type"`
	Quantity     int                   `json:"quantity"`
}

// PublicTicketStatus answers a signed, unauthenticated status link. No
// check-in state is touched here.
func PublicTicketStatus(t *services.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := eventIDParam(c, "id")
		if !ok {
			return
		}

		sig := c.Query("sig")
		ts, err := strconv.ParseInt(c.Query("ts"), 10, 64)
		if sig == "" || err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("missing signature or timestamp"))
			return
		}

		status, ticket, err := t.PublicStatus(c.Request.Context(), id, sig, ts)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(publicStatusResponse{
			Status:       status,
			TicketNumber: ticket.TicketNumber,
			TicketType:   ticket.TicketType,
			Quantity:     ticket.Quantity,
		}, ""))
	}
}
