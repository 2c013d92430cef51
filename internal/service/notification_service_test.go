package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aahara/rescue-backend/internal/models"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	notification.ID = uuid.New()
	return args.Error(0)
}

func (m *mockNotificationRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset, unreadOnly)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	return m.Called(userID, event, data).Error(0)
}

func TestNotificationService_Notify(t *testing.T) {
	repo := new(mockNotificationRepo)
	broadcaster := new(mockBroadcaster)
	svc := NewNotificationService(repo, broadcaster)
	ctx := context.Background()

	userID := uuid.New()
	orderID := uuid.New()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)
	broadcaster.On("BroadcastToUser", userID, models.NotificationOrderUpdate, mock.Anything).Return(nil)

	n, err := svc.Notify(ctx, userID, models.NotificationOrderUpdate, "Статус заказа изменился",
		"Новый статус заказа: delivered", models.OrderUpdatePayload{OrderID: orderID, Status: models.OrderStatusDelivered})
	require.NoError(t, err)

	assert.Equal(t, userID, n.UserID)
	assert.False(t, n.IsRead)
	assert.Contains(t, string(n.Payload), orderID.String())
	broadcaster.AssertExpectations(t)
}

func TestNotificationService_NotifyBroadcastFailureIsSoft(t *testing.T) {
	repo := new(mockNotificationRepo)
	broadcaster := new(mockBroadcaster)
	svc := NewNotificationService(repo, broadcaster)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil)
	broadcaster.On("BroadcastToUser", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("клиент не подключён"))

	_, err := svc.Notify(ctx, uuid.New(), models.NotificationOrderUpdate, "t", "m", nil)
	assert.NoError(t, err, "сбой доставки не ломает бизнес-операцию")
}

func TestNotificationService_NotifyStorageFailure(t *testing.T) {
	repo := new(mockNotificationRepo)
	broadcaster := new(mockBroadcaster)
	svc := NewNotificationService(repo, broadcaster)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Notify(ctx, uuid.New(), models.NotificationOrderUpdate, "t", "m", nil)
	assert.Error(t, err)
	broadcaster.AssertNotCalled(t, "BroadcastToUser")
}

func TestNotificationService_ListClampsLimit(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("List", ctx, userID, 20, 0, false).Return([]models.Notification{}, nil)

	_, err := svc.ListNotifications(ctx, userID, 500, -1, false)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
