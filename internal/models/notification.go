package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений, которые формирует движок.
const (
	NotificationRescueRequest  = "rescue_request"
	NotificationOrderUpdate    = "order_update"
	NotificationDeliveryUpdate = "delivery_update"
)

// Notification — запись ленты уведомлений пользователя. Движок создаёт её
// и отдаёт транспорту; доставка не гарантируется и не подтверждается.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Type      string          `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    *time.Time      `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Полезные нагрузки уведомлений — фиксированный набор типизированных
// вариантов, по одному на тип уведомления.

// RescueRequestPayload сопровождает приглашение волонтёру на доставку.
type RescueRequestPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	ListingID uuid.UUID `json:"listing_id"`
	Score     float64   `json:"score"`
	Distance  string    `json:"distance"`
	Action    string    `json:"action"`
}

// OrderUpdatePayload сопровождает смену статуса заказа.
type OrderUpdatePayload struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

// DeliveryUpdatePayload сопровождает изменения способа доставки.
type DeliveryUpdatePayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	Status      string    `json:"status"`
	Fulfillment string    `json:"fulfillment"`
}
