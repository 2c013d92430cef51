package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/geo"
	"github.com/aahara/rescue-backend/internal/models"
)

// VolunteerRepository описывает взаимодействие сервиса с профилями волонтёров.
type VolunteerRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.VolunteerProfile, error)
	UpdateAvailability(ctx context.Context, userID uuid.UUID, isAvailable *bool, maxConcurrent *int, location *geo.Point) (*models.VolunteerProfile, error)
}

// RescueRequestReader читает непогашенные приглашения волонтёра.
type RescueRequestReader interface {
	ListUnreadRescueRequests(ctx context.Context, volunteerID uuid.UUID) ([]models.Notification, error)
}

// VolunteerService содержит бизнес-логику профилей волонтёров.
type VolunteerService struct {
	profiles VolunteerRepository
	rescues  RescueRequestReader
}

// NewVolunteerService создаёт новый сервис волонтёров.
func NewVolunteerService(profiles VolunteerRepository, rescues RescueRequestReader) *VolunteerService {
	return &VolunteerService{profiles: profiles, rescues: rescues}
}

// GetProfile возвращает профиль волонтёра.
func (s *VolunteerService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.VolunteerProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// UpdateAvailability меняет доступность, лимит одновременных заказов и
// координаты волонтёра. Nil-поля оставляют текущее значение.
func (s *VolunteerService) UpdateAvailability(ctx context.Context, userID uuid.UUID, isAvailable *bool, maxConcurrent *int, location *geo.Point) (*models.VolunteerProfile, error) {
	return s.profiles.UpdateAvailability(ctx, userID, isAvailable, maxConcurrent, location)
}

// ListRescueRequests возвращает актуальные приглашения волонтёра на доставку.
// Приглашения, проигравшие гонку принятия, уже погашены и сюда не попадают.
func (s *VolunteerService) ListRescueRequests(ctx context.Context, volunteerID uuid.UUID) ([]models.Notification, error) {
	return s.rescues.ListUnreadRescueRequests(ctx, volunteerID)
}
