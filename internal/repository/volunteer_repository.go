package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aahara/rescue-backend/internal/geo"
	"github.com/aahara/rescue-backend/internal/models"
)

// VolunteerRepository отвечает за профили волонтёров: доступность,
// бюджет одновременных заказов и поиск кандидатов на доставку.
type VolunteerRepository struct {
	db *sqlx.DB
}

// NewVolunteerRepository создаёт новый экземпляр.
func NewVolunteerRepository(db *sqlx.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

const volunteerColumns = `
	id, user_id, transport_mode, is_available, max_concurrent_orders,
	active_orders, geo, created_at, updated_at
`

// GetByUserID возвращает профиль волонтёра по идентификатору пользователя.
func (r *VolunteerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.VolunteerProfile, error) {
	var profile models.VolunteerProfile
	query := `SELECT ` + volunteerColumns + ` FROM volunteer_profiles WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("volunteer repository: get by user id %w", err)
	}
	return &profile, nil
}

// UpdateAvailability меняет доступность, лимит и координаты волонтёра.
// Доступность нельзя включить при исчерпанном бюджете заказов.
func (r *VolunteerRepository) UpdateAvailability(ctx context.Context, userID uuid.UUID, isAvailable *bool, maxConcurrent *int, location *geo.Point) (*models.VolunteerProfile, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("volunteer repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var profile models.VolunteerProfile
	query := `SELECT ` + volunteerColumns + ` FROM volunteer_profiles WHERE user_id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			err = ErrProfileNotFound
		} else {
			err = fmt.Errorf("volunteer repository: lock %w", err)
		}
		return nil, err
	}

	if maxConcurrent != nil {
		if *maxConcurrent < 1 {
			err = fmt.Errorf("volunteer repository: лимит одновременных заказов должен быть не меньше 1")
			return nil, err
		}
		if *maxConcurrent < profile.ActiveOrders {
			err = ErrCapacityExceeded
			return nil, err
		}
		profile.MaxConcurrentOrders = *maxConcurrent
	}

	if isAvailable != nil {
		if *isAvailable && !profile.HasSpareCapacity() {
			err = ErrCapacityExceeded
			return nil, err
		}
		profile.IsAvailable = *isAvailable
	}

	if location != nil {
		profile.Geo = geo.SomePoint(*location)
	}

	if _, err = tx.ExecContext(
		ctx,
		`UPDATE volunteer_profiles
		 SET is_available = $1, max_concurrent_orders = $2, geo = $3, updated_at = NOW()
		 WHERE user_id = $4`,
		profile.IsAvailable, profile.MaxConcurrentOrders, profile.Geo, userID,
	); err != nil {
		err = fmt.Errorf("volunteer repository: update availability %w", err)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("volunteer repository: commit %w", err)
	}

	return &profile, nil
}

// FindCandidates возвращает доступных волонтёров со свободным бюджетом и
// известными координатами вместе с их доверительным рейтингом.
// Фильтрация по радиусу выполняется вызывающим кодом по точным расстояниям.
func (r *VolunteerRepository) FindCandidates(ctx context.Context) ([]models.VolunteerCandidate, error) {
	query := `
		SELECT
			vp.id, vp.user_id, vp.transport_mode, vp.is_available,
			vp.max_concurrent_orders, vp.active_orders, vp.geo,
			vp.created_at, vp.updated_at,
			u.trust_score
		FROM volunteer_profiles vp
		JOIN users u ON u.id = vp.user_id
		WHERE vp.is_available = TRUE
		  AND vp.active_orders < vp.max_concurrent_orders
		  AND vp.geo IS NOT NULL
		  AND u.role = $1
	`

	rows, err := r.db.QueryxContext(ctx, query, models.RoleVolunteer)
	if err != nil {
		return nil, fmt.Errorf("volunteer repository: find candidates %w", err)
	}
	defer rows.Close()

	var candidates []models.VolunteerCandidate
	for rows.Next() {
		var c models.VolunteerCandidate
		if err := rows.Scan(
			&c.Profile.ID,
			&c.Profile.UserID,
			&c.Profile.TransportMode,
			&c.Profile.IsAvailable,
			&c.Profile.MaxConcurrentOrders,
			&c.Profile.ActiveOrders,
			&c.Profile.Geo,
			&c.Profile.CreatedAt,
			&c.Profile.UpdatedAt,
			&c.TrustScore,
		); err != nil {
			return nil, fmt.Errorf("volunteer repository: scan candidate %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("volunteer repository: iterate candidates %w", err)
	}

	return candidates, nil
}

// occupyVolunteerSlotTx занимает один слот волонтёра под блокировкой строки.
// При достижении лимита is_available принудительно сбрасывается.
func occupyVolunteerSlotTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	var profile models.VolunteerProfile
	query := `SELECT ` + volunteerColumns + ` FROM volunteer_profiles WHERE user_id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return ErrProfileNotFound
		}
		return fmt.Errorf("volunteer repository: lock %w", err)
	}

	if !profile.HasSpareCapacity() {
		return ErrCapacityExceeded
	}

	profile.ActiveOrders++
	profile.IsAvailable = profile.HasSpareCapacity()

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE volunteer_profiles SET active_orders = $1, is_available = $2, updated_at = NOW() WHERE user_id = $3`,
		profile.ActiveOrders, profile.IsAvailable, userID,
	); err != nil {
		return fmt.Errorf("volunteer repository: occupy slot %w", err)
	}

	return nil
}

// releaseVolunteerSlotTx освобождает слот при терминальном статусе заказа и
// возвращает волонтёру доступность.
func releaseVolunteerSlotTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE volunteer_profiles
		 SET active_orders = GREATEST(active_orders - 1, 0), is_available = TRUE, updated_at = NOW()
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("volunteer repository: release slot %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("volunteer repository: release slot rows affected %w", err)
	}
	if affected == 0 {
		return ErrProfileNotFound
	}

	return nil
}
