package dto

import (
	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/models"
)

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standardized success payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OrderResponse скрывает коды передачи от тех, кому они не предназначены:
// pickup_otp видит только продавец, handover_otp — только покупатель.
// Волонтёр узнаёт коды при физической встрече, не из API.
type OrderResponse struct {
	*models.Order
	PickupOtp   *string `json:"pickup_otp,omitempty"`
	HandoverOtp *string `json:"handover_otp,omitempty"`
}

// NewOrderResponse собирает представление заказа для конкретного зрителя.
func NewOrderResponse(order *models.Order, viewerID uuid.UUID) *OrderResponse {
	resp := &OrderResponse{Order: order}

	if viewerID == order.SellerID {
		resp.PickupOtp = order.PickupOtp
	}
	if viewerID == order.BuyerID && order.HandoverOtp != "" {
		handover := order.HandoverOtp
		resp.HandoverOtp = &handover
	}

	return resp
}

// NewOrderListResponse собирает список представлений заказов.
func NewOrderListResponse(orders []models.Order, viewerID uuid.UUID) []*OrderResponse {
	resp := make([]*OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, NewOrderResponse(&orders[i], viewerID))
	}
	return resp
}
