package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/dto"
	"github.com/aahara/rescue-backend/internal/models"
	"github.com/aahara/rescue-backend/internal/repository"
	"github.com/aahara/rescue-backend/internal/service"
)

// VolunteerHandler обслуживает маршруты профилей волонтёров.
type VolunteerHandler struct {
	volunteers *service.VolunteerService
}

// NewVolunteerHandler создаёт новый хэндлер.
func NewVolunteerHandler(volunteers *service.VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{volunteers: volunteers}
}

// GetMyProfile обрабатывает GET /volunteers/me.
func (h *VolunteerHandler) GetMyProfile(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.volunteers.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "профиль волонтёра не найден"})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateAvailability обрабатывает PATCH /volunteers/me/availability.
func (h *VolunteerHandler) UpdateAvailability(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	location, err := req.Geo.Point()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.volunteers.UpdateAvailability(c.Request.Context(), userID, req.IsAvailable, req.MaxConcurrentOrders, location)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "профиль волонтёра не найден"})
		case errors.Is(err, repository.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, gin.H{"error": "лимит одновременных заказов волонтёра исчерпан"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ListRescueRequests обрабатывает GET /orders/rescues/:volunteerId.
func (h *VolunteerHandler) ListRescueRequests(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	role, _ := currentUserRole(c)

	volunteerID, err := uuid.Parse(c.Param("volunteerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор волонтёра"})
		return
	}

	if volunteerID != userID && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "у вас нет прав на эту выборку"})
		return
	}

	requests, err := h.volunteers.ListRescueRequests(c.Request.Context(), volunteerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, requests)
}
