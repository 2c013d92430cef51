package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aahara/rescue-backend/internal/geo"
	"github.com/aahara/rescue-backend/internal/models"
	"github.com/aahara/rescue-backend/internal/repository"
)

type mockDispatchOrderRepo struct {
	mock.Mock
}

func (m *mockDispatchOrderRepo) AssignVolunteer(ctx context.Context, orderID, volunteerID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID, volunteerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockDispatchOrderRepo) ForceSelfPickup(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockCandidateFinder struct {
	mock.Mock
}

func (m *mockCandidateFinder) FindCandidates(ctx context.Context) ([]models.VolunteerCandidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VolunteerCandidate), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, ntype, title, message string, payload interface{}) (*models.Notification, error) {
	args := m.Called(ctx, userID, ntype, title, message, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func candidate(userID uuid.UUID, lng, lat float64, trust int) models.VolunteerCandidate {
	return models.VolunteerCandidate{
		Profile: models.VolunteerProfile{
			UserID:      userID,
			IsAvailable: true,
			Geo:         geo.SomePoint(geo.Point{Lng: lng, Lat: lat}),
		},
		TrustScore: trust,
	}
}

func newTestDispatcher(orders *mockDispatchOrderRepo, finder *mockCandidateFinder, notifier *mockNotifier) *DispatchService {
	return NewDispatchService(orders, finder, notifier, NewFallbackScheduler(), DispatchConfig{
		RadiusMeters:  7000,
		MaxNotified:   2,
		FallbackDelay: time.Hour,
	})
}

func TestDispatchService_RankCandidates(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)
	ctx := context.Background()

	origin := geo.Point{Lng: 77.5946, Lat: 12.9716}
	listing := &models.Listing{ID: uuid.New(), PickupGeo: geo.SomePoint(origin)}
	order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New()}

	near := uuid.New()      // ~1 км, средний рейтинг
	far := uuid.New()       // ~5.5 км, высокий рейтинг
	outside := uuid.New()   // далеко за радиусом
	noGeo := uuid.New()     // без координат
	buyerAsVol := order.BuyerID

	noGeoCandidate := candidate(noGeo, 0, 0, 100)
	noGeoCandidate.Profile.Geo = geo.NullPoint{}

	finder.On("FindCandidates", ctx).Return([]models.VolunteerCandidate{
		candidate(far, 77.6446, 12.9716, 100),
		candidate(near, 77.6046, 12.9716, 50),
		candidate(outside, 78.5946, 12.9716, 100),
		noGeoCandidate,
		candidate(buyerAsVol, 77.5946, 12.9716, 100),
	}, nil)

	ranked, err := svc.rankCandidates(ctx, order, listing)
	require.NoError(t, err)

	// Покупатель, кандидат без координат и кандидат вне радиуса отсеяны.
	require.Len(t, ranked, 2)

	// Близость перевешивает рейтинг при этих параметрах.
	assert.Equal(t, near, ranked[0].userID)
	assert.Equal(t, far, ranked[1].userID)
	assert.Greater(t, ranked[0].score, ranked[1].score)
}

func TestDispatchService_RankCandidatesNoGeoListing(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)

	listing := &models.Listing{ID: uuid.New()}
	order := &models.Order{ID: uuid.New()}

	_, err := svc.rankCandidates(context.Background(), order, listing)
	assert.Error(t, err)
}

func TestDispatchService_Score(t *testing.T) {
	svc := newTestDispatcher(new(mockDispatchOrderRepo), new(mockCandidateFinder), new(mockNotifier))

	// Кандидат в точке самовывоза с максимальным рейтингом.
	assert.InDelta(t, 100, svc.score(0, 100), 1e-9)

	// Кандидат на границе радиуса с минимальным рейтингом.
	assert.InDelta(t, 3, svc.score(7000, 10), 1e-9)

	// Середина радиуса, средний рейтинг: 0.5*70 + 50*0.3.
	assert.InDelta(t, 50, svc.score(3500, 50), 1e-9)
}

func TestDispatchService_DispatchNotifiesAndSchedulesFallback(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)
	ctx := context.Background()

	origin := geo.Point{Lng: 77.5946, Lat: 12.9716}
	listing := &models.Listing{ID: uuid.New(), FoodName: "Плов", PickupGeo: geo.SomePoint(origin)}
	order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New()}

	volunteerID := uuid.New()
	finder.On("FindCandidates", ctx).Return([]models.VolunteerCandidate{
		candidate(volunteerID, 77.6046, 12.9716, 50),
	}, nil)
	notifier.On("Notify", ctx, volunteerID, models.NotificationRescueRequest, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)

	svc.Dispatch(ctx, order, listing)

	notifier.AssertNumberOfCalls(t, "Notify", 1)
	assert.True(t, svc.scheduler.Pending(order.ID))
}

func TestDispatchService_DispatchSchedulesFallbackWithoutCandidates(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)
	ctx := context.Background()

	listing := &models.Listing{ID: uuid.New()} // без координат
	order := &models.Order{ID: uuid.New()}

	svc.Dispatch(ctx, order, listing)

	// Подбор не удался, но заказ не должен зависнуть в ожидании.
	notifier.AssertNotCalled(t, "Notify")
	assert.True(t, svc.scheduler.Pending(order.ID))
}

func TestDispatchService_AcceptWinner(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)
	ctx := context.Background()

	orderID := uuid.New()
	volunteerID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()

	svc.scheduler.Schedule(orderID, time.Hour, func() {})

	assigned := &models.Order{
		ID:          orderID,
		BuyerID:     buyerID,
		SellerID:    sellerID,
		VolunteerID: &volunteerID,
		Status:      models.OrderStatusVolunteerAssigned,
	}
	orders.On("AssignVolunteer", ctx, orderID, volunteerID).Return(assigned, nil)
	notifier.On("Notify", ctx, buyerID, models.NotificationOrderUpdate, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)
	notifier.On("Notify", ctx, sellerID, models.NotificationOrderUpdate, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)

	order, err := svc.Accept(ctx, orderID, volunteerID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusVolunteerAssigned, order.Status)
	assert.False(t, svc.scheduler.Pending(orderID), "резервный таймер победителя снимается")
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestDispatchService_AcceptLoser(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)
	ctx := context.Background()

	orderID := uuid.New()
	loserID := uuid.New()

	svc.scheduler.Schedule(orderID, time.Hour, func() {})
	orders.On("AssignVolunteer", ctx, orderID, loserID).Return(nil, repository.ErrInvalidState)

	_, err := svc.Accept(ctx, orderID, loserID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	// Проигравший не снимает таймер и никого не уведомляет.
	assert.True(t, svc.scheduler.Pending(orderID))
	notifier.AssertNotCalled(t, "Notify")
}

func TestDispatchService_FallbackForcesSelfPickup(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)

	orderID := uuid.New()
	buyerID := uuid.New()

	converted := &models.Order{
		ID:          orderID,
		BuyerID:     buyerID,
		Status:      models.OrderStatusPlaced,
		Fulfillment: models.FulfillmentSelfPickup,
	}
	orders.On("ForceSelfPickup", mock.Anything, orderID).Return(converted, nil)
	notifier.On("Notify", mock.Anything, buyerID, models.NotificationDeliveryUpdate, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)

	svc.handleFallback(orderID)

	orders.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDispatchService_FallbackNoopWhenOrderMovedOn(t *testing.T) {
	orders := new(mockDispatchOrderRepo)
	finder := new(mockCandidateFinder)
	notifier := new(mockNotifier)
	svc := newTestDispatcher(orders, finder, notifier)

	orderID := uuid.New()
	orders.On("ForceSelfPickup", mock.Anything, orderID).Return(nil, repository.ErrInvalidState)

	// Заказ уже назначен либо отменён: таймер ничего не меняет.
	svc.handleFallback(orderID)

	notifier.AssertNotCalled(t, "Notify")
}
