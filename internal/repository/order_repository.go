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

// OrderRepository отвечает за заказы и их атомарные единицы работы:
// бронь остатка при создании, назначение волонтёра, переходы статусов
// и отмену. Каждая операция — одна транзакция с блокировками строк,
// так что из нескольких конкурирующих вызовов применяется ровно один.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, listing_id, seller_id, buyer_id, volunteer_id, quantity_ordered,
	fulfillment, status, pickup_geo, pickup_address, pickup_scheduled_at,
	drop_geo, drop_address, item_total, delivery_fee, platform_fee, total,
	pickup_otp, handover_otp, placed_at, accepted_at, picked_up_at,
	delivered_at, cancelled_at, cancelled_by, cancel_reason,
	special_instructions, created_at, updated_at
`

// CreateWithReservation создаёт заказ и бронирует остаток объявления в одной
// транзакции. Возвращает объявление после брони (для диспетчеризации и
// уведомлений). Ошибки предусловий откатывают транзакцию целиком.
func (r *OrderRepository) CreateWithReservation(ctx context.Context, order *models.Order) (*models.Listing, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var listing *models.Listing
	listing, err = lockListingTx(ctx, tx, order.ListingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err = reserveListingTx(ctx, tx, listing, order.QuantityOrdered, now); err != nil {
		return nil, err
	}

	order.SellerID = listing.SellerID
	order.Status = models.InitialOrderStatus(order.Fulfillment)
	order.PlacedAt = now

	query := `
		INSERT INTO orders (
			listing_id, seller_id, buyer_id, quantity_ordered, fulfillment,
			status, pickup_geo, pickup_address, pickup_scheduled_at, drop_geo,
			drop_address, item_total, delivery_fee, platform_fee, total,
			pickup_otp, handover_otp, placed_at, special_instructions
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`

	if err = tx.QueryRowxContext(
		ctx,
		query,
		order.ListingID,
		order.SellerID,
		order.BuyerID,
		order.QuantityOrdered,
		order.Fulfillment,
		order.Status,
		order.PickupGeo,
		order.PickupAddress,
		order.PickupScheduledAt,
		order.DropGeo,
		order.DropAddress,
		order.ItemTotal,
		order.DeliveryFee,
		order.PlatformFee,
		order.Total,
		order.PickupOtp,
		order.HandoverOtp,
		order.PlacedAt,
		order.SpecialInstructions,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, fmt.Errorf("order repository: insert order %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit %w", err)
	}

	return listing, nil
}

// AssignVolunteer разрешает гонку принятия доставки: переводит заказ из
// awaiting_volunteer в volunteer_assigned, занимает слот волонтёра и гасит
// остальные приглашения — всё в одной транзакции. Проигравший вызов увидит
// уже изменённый статус и получит ErrInvalidState.
func (r *OrderRepository) AssignVolunteer(ctx context.Context, orderID, volunteerID uuid.UUID) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var order *models.Order
	order, err = lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusAwaitingVolunteer {
		err = ErrInvalidState
		return nil, err
	}

	if err = occupyVolunteerSlotTx(ctx, tx, volunteerID); err != nil {
		return nil, err
	}

	now := time.Now()
	order.Status = models.OrderStatusVolunteerAssigned
	order.VolunteerID = &volunteerID
	order.AcceptedAt = &now

	if _, err = tx.ExecContext(
		ctx,
		`UPDATE orders SET status = $1, volunteer_id = $2, accepted_at = $3, updated_at = NOW() WHERE id = $4`,
		order.Status, volunteerID, now, orderID,
	); err != nil {
		return nil, fmt.Errorf("order repository: assign volunteer %w", err)
	}

	if err = markRescueRequestsReadTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit %w", err)
	}

	return order, nil
}

// ApplyOtpTransition проверяет одноразовый код передачи и применяет
// соответствующий переход. При доставке в той же транзакции освобождается
// слот волонтёра и начисляется бонус к рейтингу. Неверный код оставляет
// состояние нетронутым; повторная отправка уже использованного кода
// завершается ErrInvalidState либо ErrInvalidOtp, но не вторым переходом.
func (r *OrderRepository) ApplyOtpTransition(ctx context.Context, orderID uuid.UUID, code string, trustBonus int) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var order *models.Order
	order, err = lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	kind, next, ok := models.ExpectedOtp(order.Status, order.Fulfillment)
	if !ok {
		err = ErrInvalidState
		return nil, err
	}

	expected := order.HandoverOtp
	if kind == models.OtpKindPickup {
		if order.PickupOtp == nil {
			err = ErrInvalidState
			return nil, err
		}
		expected = *order.PickupOtp
	}

	if expected == "" || expected != code {
		err = ErrInvalidOtp
		return nil, err
	}

	if err = r.applyTransitionTx(ctx, tx, order, next, trustBonus); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit %w", err)
	}

	return order, nil
}

// UpdateStatus — административный путь смены статуса в обход кодов передачи.
// Таблица переходов и побочные эффекты терминальных статусов соблюдаются.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, target string, trustBonus int) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var order *models.Order
	order, err = lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, target) {
		err = ErrInvalidState
		return nil, err
	}

	if target == models.OrderStatusCancelled {
		if err = r.cancelTx(ctx, tx, order, models.CancelledBySystem, "administrative status update"); err != nil {
			return nil, err
		}
	} else {
		if err = r.applyTransitionTx(ctx, tx, order, target, trustBonus); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit %w", err)
	}

	return order, nil
}

// ForceSelfPickup — резервный переход диспетчера: если волонтёр так и не
// нашёлся, заказ возвращается в placed с получением самовывозом.
// Если заказ уже покинул awaiting_volunteer, возвращает ErrInvalidState.
func (r *OrderRepository) ForceSelfPickup(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var order *models.Order
	order, err = lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusAwaitingVolunteer {
		err = ErrInvalidState
		return nil, err
	}

	order.Status = models.OrderStatusPlaced
	order.Fulfillment = models.FulfillmentSelfPickup

	if _, err = tx.ExecContext(
		ctx,
		`UPDATE orders SET status = $1, fulfillment = $2, updated_at = NOW() WHERE id = $3`,
		order.Status, order.Fulfillment, orderID,
	); err != nil {
		return nil, fmt.Errorf("order repository: force self pickup %w", err)
	}

	if err = markRescueRequestsReadTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit %w", err)
	}

	return order, nil
}

// Cancel отменяет заказ: возвращает остаток объявлению, освобождает слот
// волонтёра и переводит заказ в cancelled — одной транзакцией.
func (r *OrderRepository) Cancel(ctx context.Context, orderID uuid.UUID, cancelledBy, reason string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var order *models.Order
	order, err = lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if models.IsTerminalStatus(order.Status) {
		err = ErrInvalidState
		return nil, err
	}

	if err = r.cancelTx(ctx, tx, order, cancelledBy, reason); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit %w", err)
	}

	return order, nil
}

// cancelTx применяет эффекты отмены к заблокированному заказу.
func (r *OrderRepository) cancelTx(ctx context.Context, tx *sqlx.Tx, order *models.Order, cancelledBy, reason string) error {
	if err := restoreListingTx(ctx, tx, order.ListingID, order.QuantityOrdered); err != nil {
		return err
	}

	if order.VolunteerID != nil && !models.IsTerminalStatus(order.Status) {
		if err := releaseVolunteerSlotTx(ctx, tx, *order.VolunteerID); err != nil {
			return err
		}
	}

	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelledBy = &cancelledBy
	order.CancelReason = &reason

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE orders
		 SET status = $1, cancelled_at = $2, cancelled_by = $3, cancel_reason = $4, updated_at = NOW()
		 WHERE id = $5`,
		order.Status, now, cancelledBy, reason, order.ID,
	); err != nil {
		return fmt.Errorf("order repository: cancel %w", err)
	}

	if err := markRescueRequestsReadTx(ctx, tx, order.ID); err != nil {
		return err
	}

	return nil
}

// applyTransitionTx применяет нетерминальный либо терминальный переход к
// заблокированному заказу, проставляя отметку времени и побочные эффекты.
func (r *OrderRepository) applyTransitionTx(ctx context.Context, tx *sqlx.Tx, order *models.Order, target string, trustBonus int) error {
	now := time.Now()
	order.Status = target

	switch target {
	case models.OrderStatusPickedUp:
		order.PickedUpAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	case models.OrderStatusCancelled:
		order.CancelledAt = &now
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE orders
		 SET status = $1, picked_up_at = $2, delivered_at = $3, cancelled_at = $4, updated_at = NOW()
		 WHERE id = $5`,
		order.Status, order.PickedUpAt, order.DeliveredAt, order.CancelledAt, order.ID,
	); err != nil {
		return fmt.Errorf("order repository: transition %w", err)
	}

	// Терминальный переход освобождает слот волонтёра; бонус к рейтингу
	// начисляется только за доставку.
	if models.IsTerminalStatus(target) && order.VolunteerID != nil {
		if err := releaseVolunteerSlotTx(ctx, tx, *order.VolunteerID); err != nil {
			return err
		}
		if target == models.OrderStatusDelivered && trustBonus > 0 {
			if err := awardTrustBonusTx(ctx, tx, *order.VolunteerID, order.ID, trustBonus); err != nil {
				return err
			}
		}
	}

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}
	return &order, nil
}

// ListByParty возвращает заказы стороны (buyer_id / seller_id / volunteer_id)
// с опциональным фильтром по статусу.
func (r *OrderRepository) listByParty(ctx context.Context, column string, partyID uuid.UUID, status string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1`
	args := []interface{}{partyID}

	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list by %s %w", column, err)
	}

	return orders, nil
}

// ListByBuyer возвращает заказы покупателя.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, status string) ([]models.Order, error) {
	return r.listByParty(ctx, "buyer_id", buyerID, status)
}

// ListBySeller возвращает заказы продавца.
func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status string) ([]models.Order, error) {
	return r.listByParty(ctx, "seller_id", sellerID, status)
}

// ListByVolunteer возвращает заказы волонтёра.
func (r *OrderRepository) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID, status string) ([]models.Order, error) {
	return r.listByParty(ctx, "volunteer_id", volunteerID, status)
}

// lockOrderTx читает заказ с блокировкой строки внутри транзакции.
func lockOrderTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &order, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: lock %w", err)
	}
	return &order, nil
}
