package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/geo"
	"github.com/aahara/rescue-backend/internal/goroutine"
	"github.com/aahara/rescue-backend/internal/logger"
	"github.com/aahara/rescue-backend/internal/models"
)

// Доля платформы от стоимости платного заказа.
const platformFeeRate = 0.05

// OrderRepository описывает взаимодействие сервиса с хранилищем заказов.
type OrderRepository interface {
	CreateWithReservation(ctx context.Context, order *models.Order) (*models.Listing, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ApplyOtpTransition(ctx context.Context, orderID uuid.UUID, code string, trustBonus int) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target string, trustBonus int) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, cancelledBy, reason string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, status string) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, status string) ([]models.Order, error)
	ListByVolunteer(ctx context.Context, volunteerID uuid.UUID, status string) ([]models.Order, error)
}

// ListingReader читает объявления для проверок перед созданием заказа.
type ListingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// OrderService содержит бизнес-логику жизненного цикла заказа: создание с
// бронью остатка, коды передачи, отмену и уведомление сторон.
type OrderService struct {
	orders        OrderRepository
	listings      ListingReader
	notifications Notifier
	dispatcher    *DispatchService

	trustBonus            int
	notifyCancellingActor bool
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(
	orders OrderRepository,
	listings ListingReader,
	notifications Notifier,
	dispatcher *DispatchService,
	trustBonus int,
	notifyCancellingActor bool,
) *OrderService {
	return &OrderService{
		orders:                orders,
		listings:              listings,
		notifications:         notifications,
		dispatcher:            dispatcher,
		trustBonus:            trustBonus,
		notifyCancellingActor: notifyCancellingActor,
	}
}

// CreateOrderInput описывает входные данные для создания заказа.
type CreateOrderInput struct {
	BuyerID             uuid.UUID
	ListingID           uuid.UUID
	Quantity            int
	Fulfillment         string
	DropGeo             *geo.Point
	DropAddress         *string
	PickupScheduledAt   *time.Time
	SpecialInstructions *string
}

// CreateOrder создаёт заказ с бронью остатка объявления. После фиксации
// транзакции продавец получает уведомление, а заказ с доставкой уходит
// диспетчеру волонтёров в фоне.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("order service: количество должно быть не меньше 1")
	}
	if _, ok := models.ValidFulfillments[in.Fulfillment]; !ok {
		return nil, fmt.Errorf("order service: некорректный способ получения %q", in.Fulfillment)
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}

	if listing.SellerID == in.BuyerID {
		return nil, fmt.Errorf("order service: нельзя заказать собственное объявление")
	}
	if in.Fulfillment == models.FulfillmentVolunteerDelivery && in.DropGeo == nil {
		return nil, fmt.Errorf("order service: для доставки волонтёром нужны координаты получателя")
	}

	handoverOtp, err := GenerateOtp()
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ListingID:           in.ListingID,
		BuyerID:             in.BuyerID,
		QuantityOrdered:     in.Quantity,
		Fulfillment:         in.Fulfillment,
		PickupGeo:           listing.PickupGeo,
		PickupAddress:       listing.PickupAddress,
		PickupScheduledAt:   in.PickupScheduledAt,
		DropAddress:         in.DropAddress,
		HandoverOtp:         handoverOtp,
		SpecialInstructions: in.SpecialInstructions,
	}

	if in.DropGeo != nil {
		order.DropGeo = geo.SomePoint(*in.DropGeo)
	}

	// Код передачи продавец -> волонтёр нужен только при доставке.
	if in.Fulfillment == models.FulfillmentVolunteerDelivery {
		pickupOtp, err := GenerateOtp()
		if err != nil {
			return nil, err
		}
		order.PickupOtp = &pickupOtp
	}

	s.applyPricing(order, listing)

	listing, err = s.orders.CreateWithReservation(ctx, order)
	if err != nil {
		return nil, err
	}

	if _, err := s.notifications.Notify(
		ctx,
		order.SellerID,
		models.NotificationOrderUpdate,
		"Новый заказ",
		fmt.Sprintf("«%s»: забронировано %d шт.", listing.FoodName, order.QuantityOrdered),
		models.OrderUpdatePayload{OrderID: order.ID, Status: order.Status},
	); err != nil {
		logger.Log.Warnf("order service: уведомление продавцу %s не отправлено: %v", order.SellerID, err)
	}

	if order.Status == models.OrderStatusAwaitingVolunteer {
		dispatchOrder := *order
		dispatchListing := *listing
		goroutine.SafeGo(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.dispatcher.Dispatch(ctx, &dispatchOrder, &dispatchListing)
		})
	}

	return order, nil
}

// applyPricing рассчитывает стоимость заказа по объявлению. Доставка
// волонтёрами бесплатна; комиссия платформы берётся только с платных заказов.
func (s *OrderService) applyPricing(order *models.Order, listing *models.Listing) {
	if listing.IsFree {
		return
	}

	order.ItemTotal = roundMoney(listing.DiscountedPrice * float64(order.QuantityOrdered))
	order.PlatformFee = roundMoney(order.ItemTotal * platformFeeRate)
	order.Total = roundMoney(order.ItemTotal + order.DeliveryFee + order.PlatformFee)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// AcceptRescue — отклик волонтёра на приглашение к доставке.
func (s *OrderService) AcceptRescue(ctx context.Context, orderID, volunteerID uuid.UUID) (*models.Order, error) {
	return s.dispatcher.Accept(ctx, orderID, volunteerID)
}

// VerifyOtp проверяет одноразовый код передачи, предъявленный участником
// заказа, и применяет соответствующий переход. Стороны заказа узнают о смене
// статуса уведомлением.
func (s *OrderService) VerifyOtp(ctx context.Context, orderID, actorID uuid.UUID, code string) (*models.Order, error) {
	if code == "" {
		return nil, fmt.Errorf("order service: код передачи не может быть пустым")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(order, actorID) {
		return nil, fmt.Errorf("order service: у вас нет прав на этот заказ")
	}

	order, err = s.orders.ApplyOtpTransition(ctx, orderID, code, s.trustBonus)
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, order, actorID)

	return order, nil
}

// UpdateStatus — административная смена статуса в обход кодов передачи.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target string) (*models.Order, error) {
	if _, ok := models.ValidOrderStatuses[target]; !ok {
		return nil, fmt.Errorf("order service: некорректный статус заказа %q", target)
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, target, s.trustBonus)
	if err != nil {
		return nil, err
	}

	if models.IsTerminalStatus(order.Status) {
		s.dispatcher.CancelFallback(order.ID)
	}

	s.notifyStatusChange(ctx, order, uuid.Nil)

	return order, nil
}

// CancelOrderInput описывает входные данные отмены.
type CancelOrderInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Role    string
	Reason  string
}

// CancelOrder отменяет заказ от имени одной из сторон: остаток возвращается
// объявлению, слот волонтёра освобождается, резервный таймер снимается.
func (s *OrderService) CancelOrder(ctx context.Context, in CancelOrderInput) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	cancelledBy, err := s.resolveCanceller(order, in.ActorID, in.Role)
	if err != nil {
		return nil, err
	}

	reason := in.Reason
	if reason == "" {
		reason = "cancelled by " + cancelledBy
	}

	order, err = s.orders.Cancel(ctx, in.OrderID, cancelledBy, reason)
	if err != nil {
		return nil, err
	}

	s.dispatcher.CancelFallback(order.ID)

	payload := models.OrderUpdatePayload{OrderID: order.ID, Status: order.Status}
	for _, recipient := range s.cancellationRecipients(order, in.ActorID) {
		if _, err := s.notifications.Notify(
			ctx,
			recipient,
			models.NotificationOrderUpdate,
			"Заказ отменён",
			fmt.Sprintf("Заказ отменён (%s)", reason),
			payload,
		); err != nil {
			logger.Log.Warnf("order service: уведомление об отмене не отправлено %s: %v", recipient, err)
		}
	}

	return order, nil
}

// resolveCanceller определяет, от чьего имени выполняется отмена, и проверяет
// права инициатора.
func (s *OrderService) resolveCanceller(order *models.Order, actorID uuid.UUID, role string) (string, error) {
	if role == models.RoleAdmin {
		return models.CancelledBySystem, nil
	}

	switch actorID {
	case order.BuyerID:
		return models.CancelledByBuyer, nil
	case order.SellerID:
		return models.CancelledBySeller, nil
	}
	if order.VolunteerID != nil && *order.VolunteerID == actorID {
		return models.CancelledByVolunteer, nil
	}

	return "", fmt.Errorf("order service: у вас нет прав на отмену этого заказа")
}

// cancellationRecipients возвращает получателей уведомления об отмене.
// Инициатор отмены по умолчанию исключается.
func (s *OrderService) cancellationRecipients(order *models.Order, actorID uuid.UUID) []uuid.UUID {
	parties := []uuid.UUID{order.BuyerID, order.SellerID}
	if order.VolunteerID != nil {
		parties = append(parties, *order.VolunteerID)
	}

	recipients := parties[:0]
	for _, p := range parties {
		if p == actorID && !s.notifyCancellingActor {
			continue
		}
		recipients = append(recipients, p)
	}
	return recipients
}

// notifyStatusChange сообщает сторонам заказа о смене статуса. Инициатор
// перехода не уведомляется: он получил новый статус в ответе.
func (s *OrderService) notifyStatusChange(ctx context.Context, order *models.Order, actorID uuid.UUID) {
	payload := models.OrderUpdatePayload{OrderID: order.ID, Status: order.Status}

	parties := []uuid.UUID{order.BuyerID, order.SellerID}
	if order.VolunteerID != nil {
		parties = append(parties, *order.VolunteerID)
	}

	for _, p := range parties {
		if p == actorID {
			continue
		}
		if _, err := s.notifications.Notify(
			ctx,
			p,
			models.NotificationOrderUpdate,
			"Статус заказа изменился",
			fmt.Sprintf("Новый статус заказа: %s", order.Status),
			payload,
		); err != nil {
			logger.Log.Warnf("order service: уведомление о статусе не отправлено %s: %v", p, err)
		}
	}
}

// GetOrder возвращает заказ, если запрашивающий — его участник либо админ.
func (s *OrderService) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, role string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin && !s.isParticipant(order, actorID) {
		return nil, fmt.Errorf("order service: у вас нет прав на этот заказ")
	}

	return order, nil
}

// ListByBuyer возвращает заказы покупателя.
func (s *OrderService) ListByBuyer(ctx context.Context, buyerID uuid.UUID, status string) ([]models.Order, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	return s.orders.ListByBuyer(ctx, buyerID, status)
}

// ListBySeller возвращает заказы продавца.
func (s *OrderService) ListBySeller(ctx context.Context, sellerID uuid.UUID, status string) ([]models.Order, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	return s.orders.ListBySeller(ctx, sellerID, status)
}

// ListByVolunteer возвращает заказы волонтёра.
func (s *OrderService) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID, status string) ([]models.Order, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	return s.orders.ListByVolunteer(ctx, volunteerID, status)
}

func (s *OrderService) isParticipant(order *models.Order, userID uuid.UUID) bool {
	if userID == order.BuyerID || userID == order.SellerID {
		return true
	}
	return order.VolunteerID != nil && *order.VolunteerID == userID
}

func validateStatusFilter(status string) error {
	if status == "" {
		return nil
	}
	if _, ok := models.ValidOrderStatuses[status]; !ok {
		return fmt.Errorf("order service: некорректный статус заказа %q", status)
	}
	return nil
}
