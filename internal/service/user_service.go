package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/models"
)

// UserRepository описывает взаимодействие сервиса с хранилищем пользователей.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListTrustHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.TrustHistoryEntry, error)
}

// UserService отдаёт публичные данные пользователей и историю доверительного
// рейтинга. Регистрация и аутентификация живут в отдельном сервисе
// идентификации, здесь их нет.
type UserService struct {
	repo UserRepository
}

// NewUserService создаёт новый сервис пользователей.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetUser возвращает пользователя по идентификатору.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListTrustHistory возвращает последние изменения доверительного рейтинга.
func (s *UserService) ListTrustHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.TrustHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListTrustHistory(ctx, userID, limit)
}
