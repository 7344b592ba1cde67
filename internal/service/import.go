package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/baloot-market/internal/model"
	"github.com/mmeshcher/baloot-market/internal/repository"
)

// ImportStats содержит количество созданных при импорте сущностей.
type ImportStats struct {
	Users       int
	Providers   int
	Commodities int
	Comments    int
}

// Import загружает начальные данные. Сущности, которые уже есть в хранилище, пропускаются.
// Комментарии без идентификатора получают его из хранилища.
func (s *Service) Import(ctx context.Context, data *model.Dataset) (ImportStats, error) {
	var stats ImportStats
	if data == nil {
		return stats, nil
	}

	for _, p := range data.Providers {
		created, err := skipExisting(s.repo.CreateProvider(ctx, p))
		if err != nil {
			return stats, fmt.Errorf("import provider %s: %w", p.ID, err)
		}
		stats.Providers += created
	}

	for _, rec := range data.Users {
		u, err := model.RestoreUser(rec)
		if err != nil {
			return stats, fmt.Errorf("import user %s: %w", rec.Username, err)
		}
		created, err := skipExisting(s.repo.CreateUser(ctx, u))
		if err != nil {
			return stats, fmt.Errorf("import user %s: %w", rec.Username, err)
		}
		stats.Users += created
	}

	for _, rec := range data.Commodities {
		c, err := model.RestoreCommodity(rec)
		if err != nil {
			return stats, fmt.Errorf("import commodity %s: %w", rec.ID, err)
		}
		created, err := skipExisting(s.repo.CreateCommodity(ctx, c))
		if err != nil {
			return stats, fmt.Errorf("import commodity %s: %w", rec.ID, err)
		}
		stats.Commodities += created
	}

	for _, rec := range data.Comments {
		if rec.ID == 0 {
			id, err := s.repo.NextCommentID(ctx)
			if err != nil {
				return stats, fmt.Errorf("import comment: %w", err)
			}
			rec.ID = id
		}
		c, err := model.RestoreComment(rec)
		if err != nil {
			return stats, fmt.Errorf("import comment %d: %w", rec.ID, err)
		}
		created, err := skipExisting(s.repo.CreateComment(ctx, c))
		if err != nil {
			return stats, fmt.Errorf("import comment %d: %w", rec.ID, err)
		}
		stats.Comments += created
	}

	return stats, nil
}

// ImportFromSource загружает начальные данные из внешнего источника, если он настроен.
func (s *Service) ImportFromSource(ctx context.Context) (ImportStats, error) {
	if s.source == nil {
		return ImportStats{}, nil
	}

	data, err := s.source.Fetch(ctx)
	if err != nil {
		return ImportStats{}, fmt.Errorf("fetch data source: %w", err)
	}
	return s.Import(ctx, data)
}

func skipExisting(err error) (int, error) {
	if err == nil {
		return 1, nil
	}
	if errors.Is(err, repository.ErrAlreadyExists) {
		return 0, nil
	}
	return 0, err
}
