package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/geo"
	"github.com/aahara/rescue-backend/internal/logger"
	"github.com/aahara/rescue-backend/internal/models"
)

// Веса слагаемых рейтинга кандидата: близость даёт до 70 баллов,
// доверительный рейтинг — до 30.
const (
	proximityWeight = 70.0
	trustWeight     = 0.3
)

// DispatchConfig — параметры подбора волонтёров.
type DispatchConfig struct {
	RadiusMeters  float64
	MaxNotified   int
	FallbackDelay time.Duration
}

// CandidateFinder ищет волонтёров, пригодных для доставки.
type CandidateFinder interface {
	FindCandidates(ctx context.Context) ([]models.VolunteerCandidate, error)
}

// DispatchOrderRepository — операции над заказом, нужные диспетчеру.
type DispatchOrderRepository interface {
	AssignVolunteer(ctx context.Context, orderID, volunteerID uuid.UUID) (*models.Order, error)
	ForceSelfPickup(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// Notifier отправляет уведомление пользователю.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype, title, message string, payload interface{}) (*models.Notification, error)
}

// DispatchService подбирает волонтёров для заказов с доставкой: считает
// рейтинг кандидатов, рассылает приглашения и переводит заказ на самовывоз,
// если за отведённое время никто не откликнулся.
type DispatchService struct {
	orders        DispatchOrderRepository
	volunteers    CandidateFinder
	notifications Notifier
	scheduler     *FallbackScheduler
	cfg           DispatchConfig
}

// NewDispatchService создаёт диспетчер волонтёров.
func NewDispatchService(
	orders DispatchOrderRepository,
	volunteers CandidateFinder,
	notifications Notifier,
	scheduler *FallbackScheduler,
	cfg DispatchConfig,
) *DispatchService {
	return &DispatchService{
		orders:        orders,
		volunteers:    volunteers,
		notifications: notifications,
		scheduler:     scheduler,
		cfg:           cfg,
	}
}

// scoredCandidate — кандидат с посчитанным рейтингом и расстоянием до точки
// самовывоза.
type scoredCandidate struct {
	userID   uuid.UUID
	score    float64
	distance float64
}

// Dispatch рассылает приглашения лучшим кандидатам в радиусе и ставит
// резервный таймер. Таймер ставится даже если кандидатов не нашлось или
// подбор завершился ошибкой: заказ не должен зависнуть в ожидании волонтёра.
func (s *DispatchService) Dispatch(ctx context.Context, order *models.Order, listing *models.Listing) {
	defer s.scheduler.Schedule(order.ID, s.cfg.FallbackDelay, func() {
		s.handleFallback(order.ID)
	})

	ranked, err := s.rankCandidates(ctx, order, listing)
	if err != nil {
		logger.Log.Errorf("dispatch service: подбор кандидатов для заказа %s: %v", order.ID, err)
		return
	}

	if len(ranked) == 0 {
		logger.Log.Infof("dispatch service: для заказа %s не нашлось кандидатов в радиусе", order.ID)
		return
	}

	for _, c := range ranked {
		payload := models.RescueRequestPayload{
			OrderID:   order.ID,
			ListingID: listing.ID,
			Score:     c.score,
			Distance:  geo.HumanDistance(c.distance),
			Action:    "accept_rescue",
		}
		if _, err := s.notifications.Notify(
			ctx,
			c.userID,
			models.NotificationRescueRequest,
			"Нужна доставка рядом с вами",
			fmt.Sprintf("«%s» в %s от вас ждёт волонтёра", listing.FoodName, payload.Distance),
			payload,
		); err != nil {
			logger.Log.Warnf("dispatch service: приглашение волонтёру %s не отправлено: %v", c.userID, err)
		}
	}

	logger.Log.Infof("dispatch service: заказ %s — приглашено волонтёров: %d", order.ID, len(ranked))
}

// rankCandidates возвращает до MaxNotified лучших кандидатов в радиусе,
// отсортированных по убыванию рейтинга.
func (s *DispatchService) rankCandidates(ctx context.Context, order *models.Order, listing *models.Listing) ([]scoredCandidate, error) {
	if !listing.PickupGeo.Valid {
		return nil, fmt.Errorf("dispatch service: у объявления %s нет координат самовывоза", listing.ID)
	}
	origin := listing.PickupGeo.Point

	candidates, err := s.volunteers.FindCandidates(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		// Покупатель и продавец не возят собственный заказ.
		if c.Profile.UserID == order.BuyerID || c.Profile.UserID == order.SellerID {
			continue
		}
		if !c.Profile.Geo.Valid {
			continue
		}

		distance := geo.Distance(origin, c.Profile.Geo.Point)
		if distance > s.cfg.RadiusMeters {
			continue
		}

		ranked = append(ranked, scoredCandidate{
			userID:   c.Profile.UserID,
			score:    s.score(distance, c.TrustScore),
			distance: distance,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].distance < ranked[j].distance
	})

	if len(ranked) > s.cfg.MaxNotified {
		ranked = ranked[:s.cfg.MaxNotified]
	}

	return ranked, nil
}

// score считает рейтинг кандидата: близость к точке самовывоза плюс
// доверительный рейтинг.
func (s *DispatchService) score(distance float64, trustScore int) float64 {
	return (1-distance/s.cfg.RadiusMeters)*proximityWeight + float64(trustScore)*trustWeight
}

// Accept — отклик волонтёра на приглашение. Побеждает ровно один: остальным
// транзакция назначения вернёт ErrInvalidState. Победителю отменяется
// резервный таймер, покупатель и продавец узнают о назначении.
func (s *DispatchService) Accept(ctx context.Context, orderID, volunteerID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.AssignVolunteer(ctx, orderID, volunteerID)
	if err != nil {
		return nil, err
	}

	s.scheduler.Cancel(orderID)

	payload := models.OrderUpdatePayload{OrderID: order.ID, Status: order.Status}
	for _, recipient := range []uuid.UUID{order.BuyerID, order.SellerID} {
		if _, err := s.notifications.Notify(
			ctx,
			recipient,
			models.NotificationOrderUpdate,
			"Волонтёр найден",
			"Волонтёр принял доставку вашего заказа",
			payload,
		); err != nil {
			logger.Log.Warnf("dispatch service: уведомление о назначении не отправлено %s: %v", recipient, err)
		}
	}

	return order, nil
}

// CancelFallback снимает резервный таймер заказа (например, при отмене).
func (s *DispatchService) CancelFallback(orderID uuid.UUID) {
	s.scheduler.Cancel(orderID)
}

// handleFallback срабатывает по истечении резервного таймера: если заказ всё
// ещё ждёт волонтёра, он переводится на самовывоз. Если заказ уже назначен
// либо отменён, переход возвращает ErrInvalidState и таймер ничего не меняет.
func (s *DispatchService) handleFallback(orderID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order, err := s.orders.ForceSelfPickup(ctx, orderID)
	if err != nil {
		logger.Log.Infof("dispatch service: резервный переход для заказа %s не применён: %v", orderID, err)
		return
	}

	payload := models.DeliveryUpdatePayload{
		OrderID:     order.ID,
		Status:      order.Status,
		Fulfillment: order.Fulfillment,
	}
	if _, err := s.notifications.Notify(
		ctx,
		order.BuyerID,
		models.NotificationDeliveryUpdate,
		"Волонтёр не нашёлся",
		"Свободных волонтёров рядом нет, заказ переведён на самовывоз",
		payload,
	); err != nil {
		logger.Log.Warnf("dispatch service: уведомление о самовывозе не отправлено %s: %v", order.BuyerID, err)
	}

	logger.Log.Infof("dispatch service: заказ %s переведён на самовывоз по таймеру", orderID)
}
