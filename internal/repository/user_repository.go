package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aahara/rescue-backend/internal/models"
)

// UserRepository отдаёт записи пользователей (их ведёт внешний сервис
// идентификации) и историю доверительного рейтинга.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт новый экземпляр.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT id, name, email, phone, role, trust_score, created_at, updated_at FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

// ListTrustHistory возвращает изменения рейтинга пользователя, новые первыми.
func (r *UserRepository) ListTrustHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.TrustHistoryEntry, error) {
	var entries []models.TrustHistoryEntry
	query := `
		SELECT id, user_id, delta, reason, order_id, created_by, created_at
		FROM trust_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("user repository: list trust history %w", err)
	}
	return entries, nil
}

// awardTrustBonusTx начисляет бонус к рейтингу с отсечкой на максимуме и
// записывает изменение в историю. Рейтинг этим движком не уменьшается.
func awardTrustBonusTx(ctx context.Context, tx *sqlx.Tx, userID, orderID uuid.UUID, bonus int) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE users SET trust_score = LEAST(trust_score + $1, $2), updated_at = NOW() WHERE id = $3`,
		bonus, models.TrustScoreMax, userID,
	)
	if err != nil {
		return fmt.Errorf("user repository: award trust bonus %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: award trust bonus rows affected %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO trust_history (user_id, delta, reason, order_id, created_by)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, bonus, "successful delivery", orderID, "system",
	); err != nil {
		return fmt.Errorf("user repository: insert trust history %w", err)
	}

	return nil
}
