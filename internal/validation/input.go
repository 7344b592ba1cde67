// Package validation содержит разбор и проверку входных данных запросов.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput возвращается для некорректных числовых значений в запросе.
var ErrInvalidInput = errors.New("invalid input")

// ParseRate разбирает оценку товара. Допускается любое целое число.
func ParseRate(s string) (int, error) {
	rate, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: rate must be an integer", ErrInvalidInput)
	}
	return rate, nil
}

// ParseCredit разбирает сумму кредита. Знак не проверяется: это правило сущности User.
func ParseCredit(s string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: please enter a valid number for the credit amount", ErrInvalidInput)
	}
	return amount, nil
}

// ParseID разбирает числовой идентификатор из пути запроса.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: identifier must be an integer", ErrInvalidInput)
	}
	return id, nil
}

// RequireFields проверяет, что обязательные поля запроса заполнены.
func RequireFields(fields map[string]string) error {
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
		}
	}
	return nil
}
