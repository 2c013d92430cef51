package validation

import (
	"fmt"
	"unicode/utf8"
)

// Константы валидации
const (
	MinFoodNameLength    = 2
	MaxFoodNameLength    = 200
	MaxDescriptionLength = 2000
	MaxAddressLength     = 500
	MaxReasonLength      = 500
	MaxQuantity          = 10000
	MaxPrice             = 1000000.0
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateQuantity проверяет количество единиц еды.
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("количество должно быть не меньше 1")
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("количество должно быть не больше %d", MaxQuantity)
	}
	return nil
}

// ValidatePrice проверяет цену.
func ValidatePrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("цена не может быть отрицательной")
	}
	if price > MaxPrice {
		return fmt.Errorf("цена должна быть не больше %.0f", MaxPrice)
	}
	return nil
}

// ValidateCoordinates проверяет географические координаты.
func ValidateCoordinates(lng, lat float64) error {
	if lng < -180 || lng > 180 {
		return fmt.Errorf("долгота должна быть в диапазоне [-180, 180]")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("широта должна быть в диапазоне [-90, 90]")
	}
	return nil
}
