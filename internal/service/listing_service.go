package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/geo"
	"github.com/aahara/rescue-backend/internal/goroutine"
	"github.com/aahara/rescue-backend/internal/logger"
	"github.com/aahara/rescue-backend/internal/models"
	"github.com/aahara/rescue-backend/internal/perishability"
)

// ListingRepository описывает взаимодействие сервиса с хранилищем объявлений.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Listing, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error)
	Cancel(ctx context.Context, id, sellerID uuid.UUID) (*models.Listing, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// ListingService содержит бизнес-логику объявлений: публикацию с проверкой
// безопасности еды, выдачу и фоновое протухание просроченных окон самовывоза.
type ListingService struct {
	repo ListingRepository
}

// NewListingService создаёт новый сервис объявлений.
func NewListingService(repo ListingRepository) *ListingService {
	return &ListingService{repo: repo}
}

// CreateListingInput описывает входные данные публикации объявления.
type CreateListingInput struct {
	SellerID        uuid.UUID
	FoodName        string
	FoodType        string
	Category        string
	QuantityText    string
	TotalQuantity   int
	Description     *string
	DiscountedPrice float64
	IsFree          bool
	PreparedAt      time.Time
	PickupFrom      time.Time
	PickupTo        time.Time
	PickupGeo       *geo.Point
	PickupAddress   *string
}

// CreateListing публикует объявление. Окно самовывоза проверяется против
// безопасного срока для типа еды; рассчитанный порог сохраняется вместе с
// объявлением.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	if in.FoodName == "" {
		return nil, fmt.Errorf("listing service: название еды не может быть пустым")
	}
	if in.TotalQuantity < 1 {
		return nil, fmt.Errorf("listing service: количество должно быть не меньше 1")
	}
	if !in.PickupFrom.Before(in.PickupTo) {
		return nil, fmt.Errorf("listing service: окно самовывоза задано некорректно")
	}
	if in.PickupTo.Before(time.Now()) {
		return nil, fmt.Errorf("listing service: окно самовывоза уже закончилось")
	}
	if !in.IsFree && in.DiscountedPrice <= 0 {
		return nil, fmt.Errorf("listing service: цена платного объявления должна быть положительной")
	}
	if in.PreparedAt.After(time.Now()) {
		return nil, fmt.Errorf("listing service: время приготовления не может быть в будущем")
	}

	threshold, err := perishability.ValidateWindow(in.FoodType, in.PreparedAt, in.PickupTo)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		SellerID:          in.SellerID,
		FoodName:          in.FoodName,
		FoodType:          in.FoodType,
		Category:          in.Category,
		QuantityText:      in.QuantityText,
		TotalQuantity:     in.TotalQuantity,
		RemainingQuantity: in.TotalQuantity,
		Description:       in.Description,
		DiscountedPrice:   in.DiscountedPrice,
		IsFree:            in.IsFree,
		PickupFrom:        in.PickupFrom,
		PickupTo:          in.PickupTo,
		PickupAddress:     in.PickupAddress,
		Status:            models.ListingStatusActive,
		SafetyThreshold:   &threshold,
	}

	if in.IsFree {
		listing.DiscountedPrice = 0
	}
	if in.PickupGeo != nil {
		listing.PickupGeo = geo.SomePoint(*in.PickupGeo)
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// GetListing возвращает объявление по идентификатору.
func (s *ListingService) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// ListListings возвращает объявления с фильтром по статусу.
func (s *ListingService) ListListings(ctx context.Context, status string, limit, offset int) ([]models.Listing, error) {
	if status != "" {
		if _, ok := models.ValidListingStatuses[status]; !ok {
			return nil, fmt.Errorf("listing service: некорректный статус объявления %q", status)
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, status, limit, offset)
}

// ListBySeller возвращает объявления продавца.
func (s *ListingService) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

// CancelListing снимает объявление продавца с публикации.
func (s *ListingService) CancelListing(ctx context.Context, id, sellerID uuid.UUID) (*models.Listing, error) {
	return s.repo.Cancel(ctx, id, sellerID)
}

// StartExpirySweeper запускает фоновый цикл, который переводит объявления с
// закончившимся окном самовывоза в expired. Останавливается по контексту.
func (s *ListingService) StartExpirySweeper(ctx context.Context, interval time.Duration) {
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				expired, err := s.repo.ExpireDue(ctx, now)
				if err != nil {
					logger.Log.Errorf("listing service: протухание объявлений: %v", err)
					continue
				}
				if expired > 0 {
					logger.Log.Infof("listing service: объявлений просрочено: %d", expired)
				}
			}
		}
	})
}
