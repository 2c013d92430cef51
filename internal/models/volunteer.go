package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/geo"
)

// Способы передвижения волонтёра.
const (
	TransportWalk  = "walk"
	TransportCycle = "cycle"
	TransportBike  = "bike"
	TransportCar   = "car"
)

// VolunteerProfile хранит доступность и бюджет одновременных заказов
// волонтёра. Инвариант: 0 <= active_orders <= max_concurrent_orders;
// is_available принудительно сбрасывается при достижении лимита.
type VolunteerProfile struct {
	ID                  uuid.UUID     `db:"id" json:"id"`
	UserID              uuid.UUID     `db:"user_id" json:"user_id"`
	TransportMode       string        `db:"transport_mode" json:"transport_mode"`
	IsAvailable         bool          `db:"is_available" json:"is_available"`
	MaxConcurrentOrders int           `db:"max_concurrent_orders" json:"max_concurrent_orders"`
	ActiveOrders        int           `db:"active_orders" json:"active_orders"`
	Geo                 geo.NullPoint `db:"geo" json:"geo,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// HasSpareCapacity сообщает, может ли волонтёр взять ещё один заказ.
func (p *VolunteerProfile) HasSpareCapacity() bool {
	return p.ActiveOrders < p.MaxConcurrentOrders
}

// VolunteerCandidate — волонтёр-кандидат на доставку вместе с его
// доверительным рейтингом (из записи пользователя).
type VolunteerCandidate struct {
	Profile    VolunteerProfile
	TrustScore int
}
