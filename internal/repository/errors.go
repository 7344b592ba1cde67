// Package repository содержит хранилища сущностей маркетплейса: в памяти и в PostgreSQL.
package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound обобщает ошибки отсутствия сущности.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists обобщает ошибки повторного создания сущности.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrCommodityNotFound возвращается, если товар не найден.
	ErrCommodityNotFound = fmt.Errorf("commodity %w", ErrNotFound)
	// ErrCommentNotFound возвращается, если комментарий не найден.
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	// ErrProviderNotFound возвращается, если поставщик не найден.
	ErrProviderNotFound = fmt.Errorf("provider %w", ErrNotFound)

	// ErrUserExists возвращается при попытке создать пользователя с занятым именем.
	ErrUserExists = fmt.Errorf("user %w", ErrAlreadyExists)
)
