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

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) CreateWithReservation(ctx context.Context, order *models.Order) (*models.Listing, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	listing := args.Get(0).(*models.Listing)
	order.ID = uuid.New()
	order.SellerID = listing.SellerID
	order.Status = models.InitialOrderStatus(order.Fulfillment)
	return listing, args.Error(1)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) ApplyOtpTransition(ctx context.Context, orderID uuid.UUID, code string, trustBonus int) (*models.Order, error) {
	args := m.Called(ctx, orderID, code, trustBonus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, target string, trustBonus int) (*models.Order, error) {
	args := m.Called(ctx, orderID, target, trustBonus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) Cancel(ctx context.Context, orderID uuid.UUID, cancelledBy, reason string) (*models.Order, error) {
	args := m.Called(ctx, orderID, cancelledBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, status string) ([]models.Order, error) {
	args := m.Called(ctx, buyerID, status)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, status string) ([]models.Order, error) {
	args := m.Called(ctx, sellerID, status)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID, status string) ([]models.Order, error) {
	args := m.Called(ctx, volunteerID, status)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) AssignVolunteer(ctx context.Context, orderID, volunteerID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID, volunteerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) ForceSelfPickup(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockListingReader struct {
	mock.Mock
}

func (m *mockListingReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

type orderServiceMocks struct {
	orders   *mockOrderRepo
	listings *mockListingReader
	notifier *mockNotifier
	finder   *mockCandidateFinder
}

func newTestOrderService(t *testing.T) (*OrderService, *orderServiceMocks) {
	t.Helper()

	m := &orderServiceMocks{
		orders:   new(mockOrderRepo),
		listings: new(mockListingReader),
		notifier: new(mockNotifier),
		finder:   new(mockCandidateFinder),
	}

	dispatcher := NewDispatchService(m.orders, m.finder, m.notifier, NewFallbackScheduler(), DispatchConfig{
		RadiusMeters:  7000,
		MaxNotified:   10,
		FallbackDelay: time.Hour,
	})

	svc := NewOrderService(m.orders, m.listings, m.notifier, dispatcher, 5, false)
	return svc, m
}

func activeListing(sellerID uuid.UUID) *models.Listing {
	return &models.Listing{
		ID:                uuid.New(),
		SellerID:          sellerID,
		FoodName:          "Овощное рагу",
		TotalQuantity:     10,
		RemainingQuantity: 10,
		DiscountedPrice:   100,
		PickupGeo:         geo.SomePoint(geo.Point{Lng: 77.5946, Lat: 12.9716}),
		Status:            models.ListingStatusActive,
		PickupTo:          time.Now().Add(2 * time.Hour),
	}
}

func TestOrderService_CreateOrderValidation(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	listing := activeListing(uuid.New())
	m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)

	// Нулевое количество.
	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		BuyerID:     uuid.New(),
		ListingID:   listing.ID,
		Quantity:    0,
		Fulfillment: models.FulfillmentSelfPickup,
	})
	assert.Error(t, err)

	// Неизвестный способ получения.
	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		BuyerID:     uuid.New(),
		ListingID:   listing.ID,
		Quantity:    1,
		Fulfillment: "teleport",
	})
	assert.Error(t, err)

	// Свой же товар.
	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		BuyerID:     listing.SellerID,
		ListingID:   listing.ID,
		Quantity:    1,
		Fulfillment: models.FulfillmentSelfPickup,
	})
	assert.Error(t, err)

	// Доставка без координат получателя.
	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		BuyerID:     uuid.New(),
		ListingID:   listing.ID,
		Quantity:    1,
		Fulfillment: models.FulfillmentVolunteerDelivery,
	})
	assert.Error(t, err)

	m.orders.AssertNotCalled(t, "CreateWithReservation")
}

func TestOrderService_CreateOrderSelfPickup(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	sellerID := uuid.New()
	buyerID := uuid.New()
	listing := activeListing(sellerID)

	m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
	m.orders.On("CreateWithReservation", ctx, mock.AnythingOfType("*models.Order")).Return(listing, nil)
	m.notifier.On("Notify", ctx, sellerID, models.NotificationOrderUpdate, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		BuyerID:     buyerID,
		ListingID:   listing.ID,
		Quantity:    3,
		Fulfillment: models.FulfillmentSelfPickup,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPlaced, order.Status)
	assert.Nil(t, order.PickupOtp, "самовывозу не нужен код продавца")
	assert.Len(t, order.HandoverOtp, 6)

	// Цена: 3 * 100 плюс 5% комиссии платформы.
	assert.InDelta(t, 300, order.ItemTotal, 1e-9)
	assert.InDelta(t, 15, order.PlatformFee, 1e-9)
	assert.InDelta(t, 315, order.Total, 1e-9)

	m.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestOrderService_CreateOrderVolunteerDelivery(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	sellerID := uuid.New()
	buyerID := uuid.New()
	listing := activeListing(sellerID)
	listing.IsFree = true

	m.listings.On("GetByID", ctx, listing.ID).Return(listing, nil)
	m.orders.On("CreateWithReservation", ctx, mock.AnythingOfType("*models.Order")).Return(listing, nil)
	m.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)
	m.finder.On("FindCandidates", mock.Anything).Return([]models.VolunteerCandidate{}, nil)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		BuyerID:     buyerID,
		ListingID:   listing.ID,
		Quantity:    2,
		Fulfillment: models.FulfillmentVolunteerDelivery,
		DropGeo:     &geo.Point{Lng: 77.6, Lat: 12.98},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusAwaitingVolunteer, order.Status)
	require.NotNil(t, order.PickupOtp)
	assert.Len(t, *order.PickupOtp, 6)
	assert.NotEqual(t, *order.PickupOtp, order.HandoverOtp)

	// Бесплатная еда не тарифицируется.
	assert.InDelta(t, 0, order.Total, 1e-9)

	// Диспетчеризация уходит в фон и ставит резервный таймер.
	assert.Eventually(t, func() bool {
		return svc.dispatcher.scheduler.Pending(order.ID)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOrderService_VerifyOtpAuthorization(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	order := &models.Order{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   models.OrderStatusPlaced,
	}
	m.orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.VerifyOtp(ctx, order.ID, uuid.New(), "123456")
	assert.Error(t, err)
	m.orders.AssertNotCalled(t, "ApplyOtpTransition")
}

func TestOrderService_VerifyOtpSuccess(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		BuyerID:     buyerID,
		SellerID:    sellerID,
		Fulfillment: models.FulfillmentSelfPickup,
		Status:      models.OrderStatusPlaced,
	}
	delivered := &models.Order{
		ID:       order.ID,
		BuyerID:  buyerID,
		SellerID: sellerID,
		Status:   models.OrderStatusDelivered,
	}

	m.orders.On("GetByID", ctx, order.ID).Return(order, nil)
	m.orders.On("ApplyOtpTransition", ctx, order.ID, "123456", 5).Return(delivered, nil)
	m.notifier.On("Notify", ctx, buyerID, models.NotificationOrderUpdate, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)

	got, err := svc.VerifyOtp(ctx, order.ID, sellerID, "123456")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)

	// Продавец предъявил код сам, уведомляется только покупатель.
	m.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestOrderService_VerifyOtpWrongCode(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	buyerID := uuid.New()
	order := &models.Order{
		ID:       uuid.New(),
		BuyerID:  buyerID,
		SellerID: uuid.New(),
		Status:   models.OrderStatusPlaced,
	}

	m.orders.On("GetByID", ctx, order.ID).Return(order, nil)
	m.orders.On("ApplyOtpTransition", ctx, order.ID, "000000", 5).Return(nil, repository.ErrInvalidOtp)

	_, err := svc.VerifyOtp(ctx, order.ID, buyerID, "000000")
	assert.ErrorIs(t, err, repository.ErrInvalidOtp)
	m.notifier.AssertNotCalled(t, "Notify")
}

func TestOrderService_CancelOrderRecipients(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	volunteerID := uuid.New()

	order := &models.Order{
		ID:          uuid.New(),
		BuyerID:     buyerID,
		SellerID:    sellerID,
		VolunteerID: &volunteerID,
		Status:      models.OrderStatusVolunteerAssigned,
	}
	cancelled := &models.Order{
		ID:          order.ID,
		BuyerID:     buyerID,
		SellerID:    sellerID,
		VolunteerID: &volunteerID,
		Status:      models.OrderStatusCancelled,
	}

	m.orders.On("GetByID", ctx, order.ID).Return(order, nil)
	m.orders.On("Cancel", ctx, order.ID, models.CancelledByBuyer, "передумал").Return(cancelled, nil)
	m.notifier.On("Notify", ctx, sellerID, models.NotificationOrderUpdate, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)
	m.notifier.On("Notify", ctx, volunteerID, models.NotificationOrderUpdate, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)

	_, err := svc.CancelOrder(ctx, CancelOrderInput{
		OrderID: order.ID,
		ActorID: buyerID,
		Role:    models.RoleBuyer,
		Reason:  "передумал",
	})
	require.NoError(t, err)

	// Инициатор отмены уведомление не получает.
	m.notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestOrderService_CancelOrderUnauthorized(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	order := &models.Order{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   models.OrderStatusPlaced,
	}
	m.orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.CancelOrder(ctx, CancelOrderInput{
		OrderID: order.ID,
		ActorID: uuid.New(),
		Role:    models.RoleBuyer,
	})
	assert.Error(t, err)
	m.orders.AssertNotCalled(t, "Cancel")
}

func TestOrderService_CancelOrderAsAdmin(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()

	order := &models.Order{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   models.OrderStatusPlaced,
	}
	cancelled := &models.Order{
		ID:       order.ID,
		BuyerID:  order.BuyerID,
		SellerID: order.SellerID,
		Status:   models.OrderStatusCancelled,
	}

	m.orders.On("GetByID", ctx, order.ID).Return(order, nil)
	m.orders.On("Cancel", ctx, order.ID, models.CancelledBySystem, mock.Anything).Return(cancelled, nil)
	m.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Notification{}, nil)

	_, err := svc.CancelOrder(ctx, CancelOrderInput{
		OrderID: order.ID,
		ActorID: uuid.New(),
		Role:    models.RoleAdmin,
	})
	require.NoError(t, err)
}

func TestOrderService_ListStatusFilter(t *testing.T) {
	svc, m := newTestOrderService(t)
	ctx := context.Background()
	buyerID := uuid.New()

	_, err := svc.ListByBuyer(ctx, buyerID, "bogus")
	assert.Error(t, err)

	m.orders.On("ListByBuyer", ctx, buyerID, models.OrderStatusPlaced).Return([]models.Order{}, nil)
	_, err = svc.ListByBuyer(ctx, buyerID, models.OrderStatusPlaced)
	assert.NoError(t, err)
}
