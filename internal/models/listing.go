package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/geo"
)

// Статусы объявления о еде.
const (
	ListingStatusActive    = "active"
	ListingStatusCompleted = "completed"
	ListingStatusCancelled = "cancelled"
	ListingStatusExpired   = "expired"
)

// ValidListingStatuses содержит допустимые статусы объявлений.
var ValidListingStatuses = map[string]struct{}{
	ListingStatusActive:    {},
	ListingStatusCompleted: {},
	ListingStatusCancelled: {},
	ListingStatusExpired:   {},
}

// Listing описывает партию излишков еды, выставленную продавцом.
// remaining_quantity меняется только созданием и отменой заказов.
type Listing struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	SellerID          uuid.UUID     `db:"seller_id" json:"seller_id"`
	FoodName          string        `db:"food_name" json:"food_name"`
	FoodType          string        `db:"food_type" json:"food_type"`
	Category          string        `db:"category" json:"category"`
	QuantityText      string        `db:"quantity_text" json:"quantity_text"`
	TotalQuantity     int           `db:"total_quantity" json:"total_quantity"`
	RemainingQuantity int           `db:"remaining_quantity" json:"remaining_quantity"`
	Description       *string       `db:"description" json:"description,omitempty"`
	DiscountedPrice   float64       `db:"discounted_price" json:"discounted_price"`
	IsFree            bool          `db:"is_free" json:"is_free"`
	PickupFrom        time.Time     `db:"pickup_from" json:"pickup_from"`
	PickupTo          time.Time     `db:"pickup_to" json:"pickup_to"`
	PickupGeo         geo.NullPoint `db:"pickup_geo" json:"pickup_geo,omitempty"`
	PickupAddress     *string       `db:"pickup_address" json:"pickup_address,omitempty"`
	Status            string        `db:"status" json:"status"`
	SafetyThreshold   *time.Time    `db:"safety_threshold" json:"safety_threshold,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// IsExpired сообщает, закончилось ли окно самовывоза.
func (l *Listing) IsExpired(now time.Time) bool {
	return !now.Before(l.PickupTo)
}
