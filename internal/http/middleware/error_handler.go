package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aahara/rescue-backend/internal/logger"
	"github.com/aahara/rescue-backend/internal/repository"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		switch {
		case errors.Is(err.Err, repository.ErrListingNotFound):
			statusCode, message = http.StatusNotFound, "объявление не найдено"
		case errors.Is(err.Err, repository.ErrOrderNotFound):
			statusCode, message = http.StatusNotFound, "заказ не найден"
		case errors.Is(err.Err, repository.ErrUserNotFound):
			statusCode, message = http.StatusNotFound, "пользователь не найден"
		case errors.Is(err.Err, repository.ErrProfileNotFound):
			statusCode, message = http.StatusNotFound, "профиль волонтёра не найден"
		case errors.Is(err.Err, repository.ErrNotificationNotFound):
			statusCode, message = http.StatusNotFound, "уведомление не найдено"
		case errors.Is(err.Err, repository.ErrInvalidState):
			statusCode, message = http.StatusConflict, "операция недопустима в текущем состоянии заказа"
		case errors.Is(err.Err, repository.ErrInsufficientQuantity):
			statusCode, message = http.StatusConflict, "недостаточно остатка по объявлению"
		case errors.Is(err.Err, repository.ErrCapacityExceeded):
			statusCode, message = http.StatusConflict, "лимит одновременных заказов волонтёра исчерпан"
		case errors.Is(err.Err, repository.ErrListingNotActive):
			statusCode, message = http.StatusConflict, "объявление не активно"
		case errors.Is(err.Err, repository.ErrListingExpired):
			statusCode, message = http.StatusConflict, "окно самовывоза объявления закончилось"
		case errors.Is(err.Err, repository.ErrInvalidOtp):
			statusCode, message = http.StatusBadRequest, "неверный код передачи"
		default:
			if errStr := err.Error(); errStr != "" && !containsInternalKeywords(errStr) {
				message = errStr
				if contains(errStr, "некорректн") || contains(errStr, "невалид") || contains(errStr, "не может") {
					statusCode = http.StatusBadRequest
				} else if contains(errStr, "нет прав") || contains(errStr, "не авторизован") {
					statusCode = http.StatusForbidden
				}
			}
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
