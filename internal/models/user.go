package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей. Учётные записи создаёт и ведёт внешний сервис
// идентификации, здесь хранится только то, что нужно движку заказов.
const (
	RoleBuyer     = "buyer"
	RoleSeller    = "seller"
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// Границы доверительного рейтинга.
const (
	TrustScoreMin = 10
	TrustScoreMax = 100
)

// User описывает участника платформы (покупатель, продавец, волонтёр).
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Role       string    `db:"role" json:"role"`
	TrustScore int       `db:"trust_score" json:"trust_score"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TrustHistoryEntry фиксирует изменение доверительного рейтинга.
type TrustHistoryEntry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Delta     int        `db:"delta" json:"delta"`
	Reason    string     `db:"reason" json:"reason"`
	OrderID   *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	CreatedBy string     `db:"created_by" json:"created_by"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
