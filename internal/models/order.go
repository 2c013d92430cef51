package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/geo"
)

// Статусы заказа.
const (
	OrderStatusPlaced            = "placed"
	OrderStatusAwaitingVolunteer = "awaiting_volunteer"
	OrderStatusVolunteerAssigned = "volunteer_assigned"
	OrderStatusPickedUp          = "picked_up"
	OrderStatusInTransit         = "in_transit"
	OrderStatusDelivered         = "delivered"
	OrderStatusCancelled         = "cancelled"
	OrderStatusFailed            = "failed"
)

// Способы получения заказа.
const (
	FulfillmentSelfPickup        = "self_pickup"
	FulfillmentVolunteerDelivery = "volunteer_delivery"
)

// Кто отменил заказ.
const (
	CancelledByBuyer     = "buyer"
	CancelledBySeller    = "seller"
	CancelledByVolunteer = "volunteer"
	CancelledBySystem    = "system"
)

// ValidOrderStatuses содержит допустимые статусы заказа.
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPlaced:            {},
	OrderStatusAwaitingVolunteer: {},
	OrderStatusVolunteerAssigned: {},
	OrderStatusPickedUp:          {},
	OrderStatusInTransit:         {},
	OrderStatusDelivered:         {},
	OrderStatusCancelled:         {},
	OrderStatusFailed:            {},
}

// ValidFulfillments содержит допустимые способы получения.
var ValidFulfillments = map[string]struct{}{
	FulfillmentSelfPickup:        {},
	FulfillmentVolunteerDelivery: {},
}

// Order — единица работы движка: бронь части объявления одним покупателем.
// Терминальные статусы (delivered, cancelled, failed) неизменяемы.
type Order struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ListingID       uuid.UUID  `db:"listing_id" json:"listing_id"`
	SellerID        uuid.UUID  `db:"seller_id" json:"seller_id"`
	BuyerID         uuid.UUID  `db:"buyer_id" json:"buyer_id"`
	VolunteerID     *uuid.UUID `db:"volunteer_id" json:"volunteer_id,omitempty"`
	QuantityOrdered int        `db:"quantity_ordered" json:"quantity_ordered"`
	Fulfillment     string     `db:"fulfillment" json:"fulfillment"`
	Status          string     `db:"status" json:"status"`

	PickupGeo         geo.NullPoint `db:"pickup_geo" json:"pickup_geo,omitempty"`
	PickupAddress     *string       `db:"pickup_address" json:"pickup_address,omitempty"`
	PickupScheduledAt *time.Time    `db:"pickup_scheduled_at" json:"pickup_scheduled_at,omitempty"`
	DropGeo           geo.NullPoint `db:"drop_geo" json:"drop_geo,omitempty"`
	DropAddress       *string       `db:"drop_address" json:"drop_address,omitempty"`

	ItemTotal   float64 `db:"item_total" json:"item_total"`
	DeliveryFee float64 `db:"delivery_fee" json:"delivery_fee"`
	PlatformFee float64 `db:"platform_fee" json:"platform_fee"`
	Total       float64 `db:"total" json:"total"`

	// Одноразовые коды передачи: pickup_otp подтверждает передачу
	// продавец -> волонтёр, handover_otp — передачу покупателю.
	PickupOtp   *string `db:"pickup_otp" json:"pickup_otp,omitempty"`
	HandoverOtp string  `db:"handover_otp" json:"handover_otp"`

	PlacedAt    time.Time  `db:"placed_at" json:"placed_at"`
	AcceptedAt  *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	PickedUpAt  *time.Time `db:"picked_up_at" json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	CancelledBy  *string `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason *string `db:"cancel_reason" json:"cancel_reason,omitempty"`

	SpecialInstructions *string `db:"special_instructions" json:"special_instructions,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InitialOrderStatus возвращает стартовый статус заказа для способа получения.
func InitialOrderStatus(fulfillment string) string {
	if fulfillment == FulfillmentVolunteerDelivery {
		return OrderStatusAwaitingVolunteer
	}
	return OrderStatusPlaced
}

// IsTerminalStatus сообщает, является ли статус терминальным.
func IsTerminalStatus(status string) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// orderTransitions — таблица допустимых переходов машины состояний заказа.
// Используется и кодами передачи, и административным обновлением статуса.
var orderTransitions = map[string]map[string]struct{}{
	OrderStatusPlaced: {
		OrderStatusPickedUp:  {},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
		OrderStatusFailed:    {},
	},
	OrderStatusAwaitingVolunteer: {
		OrderStatusVolunteerAssigned: {},
		OrderStatusPlaced:            {},
		OrderStatusPickedUp:          {},
		OrderStatusCancelled:         {},
		OrderStatusFailed:            {},
	},
	OrderStatusVolunteerAssigned: {
		OrderStatusPickedUp:  {},
		OrderStatusCancelled: {},
		OrderStatusFailed:    {},
	},
	OrderStatusPickedUp: {
		OrderStatusInTransit: {},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
		OrderStatusFailed:    {},
	},
	OrderStatusInTransit: {
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
		OrderStatusFailed:    {},
	},
}

// CanTransition проверяет допустимость перехода from -> to.
// Из терминальных статусов переходов нет.
func CanTransition(from, to string) bool {
	next, ok := orderTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Виды одноразовых кодов передачи.
const (
	OtpKindPickup   = "pickup"
	OtpKindHandover = "handover"
)

// ExpectedOtp определяет по текущему статусу и способу получения, какой код
// сейчас ожидается и в какой статус переводит его подтверждение.
// ok == false означает, что в текущем состоянии коды не принимаются.
func ExpectedOtp(status, fulfillment string) (kind string, next string, ok bool) {
	switch status {
	case OrderStatusPlaced:
		if fulfillment == FulfillmentSelfPickup {
			return OtpKindHandover, OrderStatusDelivered, true
		}
		return OtpKindPickup, OrderStatusPickedUp, true
	case OrderStatusAwaitingVolunteer, OrderStatusVolunteerAssigned:
		return OtpKindPickup, OrderStatusPickedUp, true
	case OrderStatusPickedUp, OrderStatusInTransit:
		return OtpKindHandover, OrderStatusDelivered, true
	}
	return "", "", false
}
