package repository

import "errors"

// Ошибки уровня репозиториев. Precondition-ошибки возвращаются вызывающему
// как есть и означают, что транзакция откатилась без частичных изменений.
var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProfileNotFound      = errors.New("volunteer profile not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrListingNotActive     = errors.New("listing is not active")
	ErrListingExpired       = errors.New("listing has expired")
	ErrInsufficientQuantity = errors.New("insufficient remaining quantity")
	ErrInvalidState         = errors.New("invalid order state for this operation")
	ErrCapacityExceeded     = errors.New("volunteer is at concurrent order limit")
	ErrInvalidOtp           = errors.New("invalid handover code")
)
