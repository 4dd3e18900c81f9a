package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/models"
	"github.com/joshua-takyi/eventgate/internal/services"
)

func eventIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid id format"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func CreateEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, models.ErrorResponse("only admins can create events"))
			return
		}

		var event models.Event
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		created, err := e.CreateEvent(c.Request.Context(), &event, claims.ObjectID())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(created, "event created successfully"))
	}
}

// ListEvents is reachable with or without a token: anonymous callers and
// plain users only ever see published events.
func ListEvents(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limitInt, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limitInt <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid limit parameter"))
			return
		}
		offsetInt, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil || offsetInt < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid offset parameter"))
			return
		}

		query := models.EventQuery{
			Status: models.EventStatus(c.Query("status")),
			Search: c.Query("search"),
			Sort:   c.Query("sort"),
		}
		if from := c.Query("start_date"); from != "" {
			if t, parseErr := time.Parse(time.RFC3339, from); parseErr == nil {
				query.StartFrom = t
			}
		}
		if to := c.Query("end_date"); to != "" {
			if t, parseErr := time.Parse(time.RFC3339, to); parseErr == nil {
				query.StartTo = t
			}
		}

		if !isAdminRequest(c) && query.Status != models.EventPublished {
			query.Status = models.EventPublished
		}

		events, total, err := e.ListEvents(c.Request.Context(), query, offsetInt, limitInt)
		if err != nil {
			respondError(c, err)
			return
		}

		page := (offsetInt / limitInt) + 1
		c.JSON(http.StatusOK, models.PaginatedResponse(events, page, limitInt, total))
	}
}

func isAdminRequest(c *gin.Context) bool {
	userClaims, exists := c.Get("user")
	if !exists {
		return false
	}
	claims, ok := userClaims.(*helpers.AuthClaims)
	return ok && claims.IsAdmin()
}

func GetEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := eventIDParam(c, "id")
		if !ok {
			return
		}

		event, err := e.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		// Drafts and cancelled events are only visible to the organizer
		// and admins.
		if event.Status != models.EventPublished {
			userClaims, exists := c.Get("user")
			claims, okClaims := userClaims.(*helpers.AuthClaims)
			if !exists || !okClaims || (!claims.IsAdmin() && !event.IsOrganizer(claims.ObjectID())) {
				c.JSON(http.StatusForbidden, models.ErrorResponse("access denied"))
				return
			}
		}

		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

func UpdateEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, ok := eventIDParam(c, "id")
		if !ok {
			return
		}

		event, err := e.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !claims.IsAdmin() && !event.IsOrganizer(claims.ObjectID()) {
			c.JSON(http.StatusForbidden, models.ErrorResponse("access denied"))
			return
		}

		var update services.EventUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		updated, err := e.UpdateEvent(c.Request.Context(), id, update)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(updated, "event updated successfully"))
	}
}

func DeleteEvent(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, ok := eventIDParam(c, "id")
		if !ok {
			return
		}

		event, err := e.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !claims.IsAdmin() && !event.IsOrganizer(claims.ObjectID()) {
			c.JSON(http.StatusForbidden, models.ErrorResponse("access denied"))
			return
		}

		if err := e.DeleteEvent(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "event removed"))
	}
}

func ListMyEvents(e *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		events, err := e.ListEventsByOrganizer(c.Request.Context(), claims.ObjectID())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(events, ""))
	}
}
