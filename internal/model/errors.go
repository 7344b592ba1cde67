// Package model содержит доменные сущности маркетплейса и правила, которые они охраняют.
package model

import "errors"

var (
	// ErrOutOfStock возвращается, если изменение остатка сделало бы его отрицательным.
	ErrOutOfStock = errors.New("commodity is not in stock")
	// ErrInvalidCreditRange возвращается при попытке пополнить кредит отрицательной суммой.
	ErrInvalidCreditRange = errors.New("credit value must be a positive float")
	// ErrInsufficientCredit возвращается, если сумма списания превышает кредит пользователя.
	ErrInsufficientCredit = errors.New("credit is insufficient")
	// ErrNotInBuyList возвращается при удалении товара, которого нет в списке покупок.
	ErrNotInBuyList = errors.New("commodity is not in the buy list")
	// ErrInvalidVote возвращается для голоса, отличного от like и dislike.
	ErrInvalidVote = errors.New("vote must be like or dislike")
	// ErrInvalidRecord возвращается, если сохранённая запись нарушает инварианты сущности.
	ErrInvalidRecord = errors.New("record violates entity invariants")
)
