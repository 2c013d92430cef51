// Package perishability воплощает правила безопасности скоропортящейся еды:
// для каждого типа еды задан максимальный безопасный срок с момента
// приготовления. Чистые функции без внешних зависимостей.
package perishability

import (
	"fmt"
	"time"
)

// Максимальный безопасный срок по типам еды, в часах.
var safeHoursByFoodType = map[string]int{
	"prepared_meal": 6,
	"fresh_produce": 48,
	"packaged_food": 720,
	"bakery_item":   24,
	"dairy_product": 48,
}

// defaultSafeHours применяется к неизвестным типам еды.
const defaultSafeHours = 4

// SafetyThreshold возвращает крайний безопасный срок для типа еды,
// приготовленной в момент preparedAt.
func SafetyThreshold(foodType string, preparedAt time.Time) time.Time {
	hours, ok := safeHoursByFoodType[foodType]
	if !ok {
		hours = defaultSafeHours
	}
	return preparedAt.Add(time.Duration(hours) * time.Hour)
}

// ValidateWindow проверяет, что окно самовывоза не выходит за безопасный
// срок. Возвращает рассчитанный порог и ошибку, если окно небезопасно.
func ValidateWindow(foodType string, preparedAt, pickupUntil time.Time) (time.Time, error) {
	threshold := SafetyThreshold(foodType, preparedAt)
	if pickupUntil.After(threshold) {
		return threshold, fmt.Errorf(
			"perishability: окно самовывоза превышает безопасный срок для %s (до %s)",
			foodType, threshold.Format(time.RFC3339),
		)
	}
	return threshold, nil
}
