package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/dto"
	"github.com/aahara/rescue-backend/internal/repository"
	"github.com/aahara/rescue-backend/internal/service"
	"github.com/aahara/rescue-backend/internal/validation"
)

// ListingHandler обслуживает маршруты объявлений о еде.
type ListingHandler struct {
	listings *service.ListingService
}

// NewListingHandler создаёт новый хэндлер.
func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// CreateListing обрабатывает POST /listings.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	if err := validation.ValidateLength("название еды", req.FoodName, validation.MinFoodNameLength, validation.MaxFoodNameLength); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateQuantity(req.TotalQuantity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidatePrice(req.DiscountedPrice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pickupGeo, err := req.PickupGeo.Point()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listings.CreateListing(c.Request.Context(), service.CreateListingInput{
		SellerID:        userID,
		FoodName:        req.FoodName,
		FoodType:        req.FoodType,
		Category:        req.Category,
		QuantityText:    req.QuantityText,
		TotalQuantity:   req.TotalQuantity,
		Description:     req.Description,
		DiscountedPrice: req.DiscountedPrice,
		IsFree:          req.IsFree,
		PreparedAt:      req.PreparedAt,
		PickupFrom:      req.PickupFrom,
		PickupTo:        req.PickupTo,
		PickupGeo:       pickupGeo,
		PickupAddress:   req.PickupAddress,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// ListListings обрабатывает GET /listings.
func (h *ListingHandler) ListListings(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	listings, err := h.listings.ListListings(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// GetListing обрабатывает GET /listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	listing, err := h.listings.GetListing(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "объявление не найдено"})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// ListMyListings обрабатывает GET /listings/my.
func (h *ListingHandler) ListMyListings(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	listings, err := h.listings.ListBySeller(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, listings)
}

// CancelListing обрабатывает POST /listings/:id/cancel.
func (h *ListingHandler) CancelListing(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный идентификатор объявления"})
		return
	}

	listing, err := h.listings.CancelListing(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "объявление не найдено или уже снято"})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, listing)
}
