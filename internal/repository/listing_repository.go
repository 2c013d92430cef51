package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aahara/rescue-backend/internal/models"
)

// ListingRepository отвечает за работу с объявлениями о еде.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository создаёт новый экземпляр.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `
	id, seller_id, food_name, food_type, category, quantity_text,
	total_quantity, remaining_quantity, description, discounted_price, is_free,
	pickup_from, pickup_to, pickup_geo, pickup_address, status,
	safety_threshold, created_at, updated_at
`

// Create сохраняет новое объявление.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO listings (
			seller_id, food_name, food_type, category, quantity_text,
			total_quantity, remaining_quantity, description, discounted_price,
			is_free, pickup_from, pickup_to, pickup_geo, pickup_address,
			status, safety_threshold
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		listing.SellerID,
		listing.FoodName,
		listing.FoodType,
		listing.Category,
		listing.QuantityText,
		listing.TotalQuantity,
		listing.RemainingQuantity,
		listing.Description,
		listing.DiscountedPrice,
		listing.IsFree,
		listing.PickupFrom,
		listing.PickupTo,
		listing.PickupGeo,
		listing.PickupAddress,
		listing.Status,
		listing.SafetyThreshold,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt); err != nil {
		return fmt.Errorf("listing repository: create %w", err)
	}

	return nil
}

// GetByID возвращает объявление по идентификатору.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listing repository: get by id %w", err)
	}
	return &listing, nil
}

// List возвращает объявления с фильтром по статусу и пагинацией.
func (r *ListingRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	args := []interface{}{}
	argIndex := 1

	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	var listings []models.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("listing repository: list %w", err)
	}

	return listings, nil
}

// ListBySeller возвращает объявления продавца.
func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	query := `SELECT ` + listingColumns + ` FROM listings WHERE seller_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &listings, query, sellerID); err != nil {
		return nil, fmt.Errorf("listing repository: list by seller %w", err)
	}
	return listings, nil
}

// Cancel переводит объявление продавца в статус cancelled.
// Уже размещённые заказы не трогает: их судьбу решает отмена заказа.
func (r *ListingRepository) Cancel(ctx context.Context, id, sellerID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	query := `
		UPDATE listings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND seller_id = $3 AND status IN ($4, $5)
		RETURNING ` + listingColumns

	err := r.db.QueryRowxContext(
		ctx, query,
		models.ListingStatusCancelled, id, sellerID,
		models.ListingStatusActive, models.ListingStatusCompleted,
	).StructScan(&listing)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listing repository: cancel %w", err)
	}

	return &listing, nil
}

// ExpireDue переводит активные объявления с прошедшим окном самовывоза в
// статус expired. Возвращает количество затронутых строк.
func (r *ListingRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE listings SET status = $1, updated_at = NOW() WHERE status = $2 AND pickup_to <= $3`,
		models.ListingStatusExpired, models.ListingStatusActive, now,
	)
	if err != nil {
		return 0, fmt.Errorf("listing repository: expire due %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("listing repository: expire due rows affected %w", err)
	}

	return affected, nil
}

// lockListingTx читает объявление с блокировкой строки внутри транзакции.
// Сериализует конкурирующие брони по одному объявлению.
func lockListingTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &listing, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listing repository: lock %w", err)
	}
	return &listing, nil
}

// reserveListingTx атомарно уменьшает остаток и при исчерпании переводит
// объявление в completed. Вызывается только под блокировкой lockListingTx.
func reserveListingTx(ctx context.Context, tx *sqlx.Tx, listing *models.Listing, quantity int, now time.Time) error {
	if listing.Status != models.ListingStatusActive {
		return ErrListingNotActive
	}
	if listing.IsExpired(now) {
		return ErrListingExpired
	}
	if quantity > listing.RemainingQuantity {
		return ErrInsufficientQuantity
	}

	listing.RemainingQuantity -= quantity
	if listing.RemainingQuantity == 0 {
		listing.Status = models.ListingStatusCompleted
	}

	_, err := tx.ExecContext(
		ctx,
		`UPDATE listings SET remaining_quantity = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		listing.RemainingQuantity, listing.Status, listing.ID,
	)
	if err != nil {
		return fmt.Errorf("listing repository: reserve %w", err)
	}

	return nil
}

// restoreListingTx возвращает количество отменённого заказа в остаток.
// Объявление со статусом completed снова становится active; явно отменённые
// и истёкшие объявления сохраняют свой статус.
func restoreListingTx(ctx context.Context, tx *sqlx.Tx, listingID uuid.UUID, quantity int) error {
	listing, err := lockListingTx(ctx, tx, listingID)
	if err != nil {
		return err
	}

	listing.RemainingQuantity += quantity
	if listing.Status == models.ListingStatusCompleted && listing.RemainingQuantity > 0 {
		listing.Status = models.ListingStatusActive
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE listings SET remaining_quantity = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		listing.RemainingQuantity, listing.Status, listing.ID,
	)
	if err != nil {
		return fmt.Errorf("listing repository: restore %w", err)
	}

	return nil
}
