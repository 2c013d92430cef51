package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/dto"
	"github.com/aahara/rescue-backend/internal/models"
	"github.com/aahara/rescue-backend/internal/repository"
	"github.com/aahara/rescue-backend/internal/service"
)

// OrderHandler обслуживает маршруты заказов.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт новый хэндлер.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder обрабатывает POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	dropGeo, err := req.DropGeo.Point()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		BuyerID:             userID,
		ListingID:           listingID,
		Quantity:            req.Quantity,
		Fulfillment:         req.Fulfillment,
		DropGeo:             dropGeo,
		DropAddress:         req.DropAddress,
		PickupScheduledAt:   req.PickupScheduledAt,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewOrderResponse(order, userID))
}

// GetOrder обрабатывает GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	role, _ := currentUserRole(c)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор заказа"})
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID, userID, role)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order, userID))
}

// AcceptRescue обрабатывает POST /orders/:id/accept — отклик волонтёра.
func (h *OrderHandler) AcceptRescue(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор заказа"})
		return
	}

	order, err := h.orders.AcceptRescue(c.Request.Context(), orderID, userID)
	if err != nil {
		// Проигравший гонку принятия получает конфликт, не внутреннюю ошибку.
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order, userID))
}

// VerifyOtp обрабатывает POST /orders/:id/verify-otp.
func (h *OrderHandler) VerifyOtp(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор заказа"})
		return
	}

	var req dto.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "код передачи обязателен"})
		return
	}

	order, err := h.orders.VerifyOtp(c.Request.Context(), orderID, userID, req.Code)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order, userID))
}

// UpdateStatus обрабатывает PATCH /orders/:id/status (только админ).
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор заказа"})
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "статус обязателен"})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order, userID))
}

// Cancel обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	role, _ := currentUserRole(c)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор заказа"})
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), service.CancelOrderInput{
		OrderID: orderID,
		ActorID: userID,
		Role:    role,
		Reason:  req.Reason,
	})
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order, userID))
}

// ListByBuyer обрабатывает GET /orders/buyer/:buyerId.
func (h *OrderHandler) ListByBuyer(c *gin.Context) {
	h.listByParty(c, "buyerId", h.orders.ListByBuyer)
}

// ListBySeller обрабатывает GET /orders/seller/:sellerId.
func (h *OrderHandler) ListBySeller(c *gin.Context) {
	h.listByParty(c, "sellerId", h.orders.ListBySeller)
}

// ListByVolunteer обрабатывает GET /orders/volunteer/:volunteerId.
func (h *OrderHandler) ListByVolunteer(c *gin.Context) {
	h.listByParty(c, "volunteerId", h.orders.ListByVolunteer)
}

// listByParty — общий код выборок по стороне заказа. Чужие выборки доступны
// только админу.
func (h *OrderHandler) listByParty(
	c *gin.Context,
	param string,
	list func(ctx context.Context, id uuid.UUID, status string) ([]models.Order, error),
) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	role, _ := currentUserRole(c)

	partyID, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор пользователя"})
		return
	}

	if partyID != userID && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "у вас нет прав на эту выборку"})
		return
	}

	orders, err := list(c.Request.Context(), partyID, c.Query("status"))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderListResponse(orders, userID))
}

func (h *OrderHandler) respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "заказ не найден"})
	case errors.Is(err, repository.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "объявление не найдено"})
	case errors.Is(err, repository.ErrListingNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "объявление не активно"})
	case errors.Is(err, repository.ErrListingExpired):
		c.JSON(http.StatusConflict, gin.H{"error": "окно самовывоза объявления закончилось"})
	case errors.Is(err, repository.ErrInsufficientQuantity):
		c.JSON(http.StatusConflict, gin.H{"error": "недостаточно остатка по объявлению"})
	case errors.Is(err, repository.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "операция недопустима в текущем состоянии заказа"})
	case errors.Is(err, repository.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "лимит одновременных заказов волонтёра исчерпан"})
	case errors.Is(err, repository.ErrInvalidOtp):
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный код передачи"})
	case errors.Is(err, repository.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "профиль волонтёра не найден"})
	default:
		_ = c.Error(err)
	}
}
