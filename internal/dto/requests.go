package dto

import (
	"fmt"
	"time"

	"github.com/aahara/rescue-backend/internal/geo"
	"github.com/aahara/rescue-backend/internal/validation"
)

// GeoInput принимает географическую точку в двух форматах: пара lng/lat либо
// GeoJSON-массив coordinates [lng, lat], который шлют старые клиенты.
// Дальше границы HTTP живёт только канонический geo.Point.
type GeoInput struct {
	Lng         *float64  `json:"lng"`
	Lat         *float64  `json:"lat"`
	Coordinates []float64 `json:"coordinates"`
}

// Point нормализует вход в канонический geo.Point.
func (g *GeoInput) Point() (*geo.Point, error) {
	if g == nil {
		return nil, nil
	}

	var lng, lat float64
	switch {
	case g.Lng != nil && g.Lat != nil:
		lng, lat = *g.Lng, *g.Lat
	case len(g.Coordinates) == 2:
		lng, lat = g.Coordinates[0], g.Coordinates[1]
	default:
		return nil, fmt.Errorf("точка должна содержать lng/lat либо coordinates [lng, lat]")
	}

	if err := validation.ValidateCoordinates(lng, lat); err != nil {
		return nil, err
	}

	return &geo.Point{Lng: lng, Lat: lat}, nil
}

// CreateListingRequest represents the request to publish a food listing
type CreateListingRequest struct {
	FoodName        string    `json:"food_name" binding:"required"`
	FoodType        string    `json:"food_type" binding:"required"`
	Category        string    `json:"category"`
	QuantityText    string    `json:"quantity_text"`
	TotalQuantity   int       `json:"total_quantity" binding:"required"`
	Description     *string   `json:"description"`
	DiscountedPrice float64   `json:"discounted_price"`
	IsFree          bool      `json:"is_free"`
	PreparedAt      time.Time `json:"prepared_at" binding:"required"`
	PickupFrom      time.Time `json:"pickup_from" binding:"required"`
	PickupTo        time.Time `json:"pickup_to" binding:"required"`
	PickupGeo       *GeoInput `json:"pickup_geo"`
	PickupAddress   *string   `json:"pickup_address"`
}

// CreateOrderRequest represents the request to place an order
type CreateOrderRequest struct {
	ListingID           string     `json:"listing_id" binding:"required"`
	Quantity            int        `json:"quantity" binding:"required"`
	Fulfillment         string     `json:"fulfillment" binding:"required"`
	DropGeo             *GeoInput  `json:"drop_geo"`
	DropAddress         *string    `json:"drop_address"`
	PickupScheduledAt   *time.Time `json:"pickup_scheduled_at"`
	SpecialInstructions *string    `json:"special_instructions"`
}

// VerifyOtpRequest represents the request to confirm a handover code
type VerifyOtpRequest struct {
	Code string `json:"code" binding:"required"`
}

// UpdateOrderStatusRequest represents the administrative status update
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CancelOrderRequest represents the request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// UpdateAvailabilityRequest represents the volunteer availability update
type UpdateAvailabilityRequest struct {
	IsAvailable         *bool     `json:"is_available"`
	MaxConcurrentOrders *int      `json:"max_concurrent_orders"`
	Geo                 *GeoInput `json:"geo"`
}
