package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Длина одноразового кода передачи.
const otpLength = 6

var otpMax = big.NewInt(1000000)

// GenerateOtp возвращает случайный шестизначный код передачи.
// Коды генерируются криптографическим источником: они единственная
// аутентификация физической передачи еды.
func GenerateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("otp: не удалось получить случайное число: %w", err)
	}
	return fmt.Sprintf("%0*d", otpLength, n.Int64()), nil
}
