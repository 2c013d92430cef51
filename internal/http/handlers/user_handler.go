package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/repository"
	"github.com/aahara/rescue-backend/internal/service"
)

// UserHandler обслуживает маршруты пользователей.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler создаёт новый хэндлер.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetUser обрабатывает GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор пользователя"})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "пользователь не найден"})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListMyTrustHistory обрабатывает GET /users/me/trust-history.
func (h *UserHandler) ListMyTrustHistory(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit := parseIntQuery(c, "limit", 50)

	history, err := h.users.ListTrustHistory(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, history)
}
