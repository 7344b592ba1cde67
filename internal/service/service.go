// Package service реализует сценарии маркетплейса поверх хранилища и доменных правил.
package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/mmeshcher/baloot-market/internal/catalog"
	"github.com/mmeshcher/baloot-market/internal/datasource"
	"github.com/mmeshcher/baloot-market/internal/fraud"
	"github.com/mmeshcher/baloot-market/internal/metrics"
	"github.com/mmeshcher/baloot-market/internal/model"
)

// ErrEmptyBuyList возвращается при оформлении пустого списка покупок.
var ErrEmptyBuyList = errors.New("buy list is empty")

// Repository описывает контракт доступа к данным, используемый сервисом.
// Методы Update* и Checkout выполняют fn под исключительной блокировкой
// и сохраняют изменения, только если fn не вернула ошибку.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, username string, fn func(*model.User) error) error

	CreateProvider(ctx context.Context, p model.Provider) error
	GetProvider(ctx context.Context, id string) (*model.Provider, error)
	ListProviders(ctx context.Context) ([]model.Provider, error)

	CreateCommodity(ctx context.Context, c *model.Commodity) error
	GetCommodity(ctx context.Context, id string) (*model.Commodity, error)
	ListCommodities(ctx context.Context) ([]*model.Commodity, error)
	UpdateCommodity(ctx context.Context, id string, fn func(*model.Commodity) error) error

	NextCommentID(ctx context.Context) (int64, error)
	CreateComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	ListCommentsByCommodity(ctx context.Context, commodityID string) ([]*model.Comment, error)
	UpdateComment(ctx context.Context, id int64, fn func(*model.Comment) error) error

	Checkout(ctx context.Context, username string, fn func(*model.User, map[string]*model.Commodity) error) error
}

// Service содержит бизнес-логику маркетплейса.
type Service struct {
	repo    Repository
	source  *datasource.Client
	metrics *metrics.Metrics

	// fraudMu сериализует доступ к истории заказов.
	fraudMu sync.Mutex
	engine  *fraud.Engine
}

// NewService создаёт сервис с указанным хранилищем, источником начальных данных и метриками.
// source и m могут быть nil.
func NewService(repo Repository, source *datasource.Client, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		source:  source,
		metrics: m,
		engine:  fraud.NewEngine(),
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// observe учитывает нарушение доменного правила в метриках и возвращает err без изменений.
func (s *Service) observe(err error) error {
	if err == nil {
		return nil
	}
	if kind := violationKind(err); kind != "" {
		s.metrics.RuleViolation(kind)
	}
	return err
}

func violationKind(err error) string {
	switch {
	case errors.Is(err, model.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, model.ErrInvalidCreditRange):
		return "invalid_credit_range"
	case errors.Is(err, model.ErrInsufficientCredit):
		return "insufficient_credit"
	case errors.Is(err, model.ErrNotInBuyList):
		return "not_in_buy_list"
	case errors.Is(err, model.ErrInvalidVote):
		return "invalid_vote"
	case errors.Is(err, ErrEmptyBuyList):
		return "empty_buy_list"
	default:
		return ""
	}
}

// ListCommodities возвращает весь каталог.
func (s *Service) ListCommodities(ctx context.Context) ([]*model.Commodity, error) {
	return s.repo.ListCommodities(ctx)
}

// GetCommodity возвращает товар по идентификатору.
func (s *Service) GetCommodity(ctx context.Context, id string) (*model.Commodity, error) {
	return s.repo.GetCommodity(ctx, id)
}

// RateCommodity сохраняет оценку пользователя для товара.
func (s *Service) RateCommodity(ctx context.Context, commodityID, username string, rate int) error {
	return s.repo.UpdateCommodity(ctx, commodityID, func(c *model.Commodity) error {
		c.AddRate(username, rate)
		return nil
	})
}

// Suggest возвращает товары, похожие на указанный.
func (s *Service) Suggest(ctx context.Context, commodityID string) ([]*model.Commodity, error) {
	item, err := s.repo.GetCommodity(ctx, commodityID)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.ListCommodities(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.Suggest(item, all), nil
}

// Search ищет товары по названию, категории или имени поставщика.
func (s *Service) Search(ctx context.Context, option catalog.SearchOption, value string) ([]*model.Commodity, error) {
	all, err := s.repo.ListCommodities(ctx)
	if err != nil {
		return nil, err
	}

	switch option {
	case catalog.SearchByName:
		return catalog.FilterByName(all, value), nil
	case catalog.SearchByCategory:
		return catalog.FilterByCategory(all, value), nil
	case catalog.SearchByProvider:
		providers, err := s.repo.ListProviders(ctx)
		if err != nil {
			return nil, err
		}
		needle := strings.ToLower(value)
		var ids []string
		for _, p := range providers {
			if strings.Contains(strings.ToLower(p.Name), needle) {
				ids = append(ids, p.ID)
			}
		}
		return catalog.FilterByProvider(all, ids...), nil
	default:
		return nil, catalog.ErrInvalidSearchOption
	}
}

// GetProvider возвращает поставщика по идентификатору.
func (s *Service) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	return s.repo.GetProvider(ctx, id)
}

// ProviderCommodities возвращает товары поставщика.
func (s *Service) ProviderCommodities(ctx context.Context, providerID string) ([]*model.Commodity, error) {
	if _, err := s.repo.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}

	all, err := s.repo.ListCommodities(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.FilterByProvider(all, providerID), nil
}

// AddComment создаёт комментарий пользователя к товару.
func (s *Service) AddComment(ctx context.Context, commodityID, username, text string) (*model.Comment, error) {
	u, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetCommodity(ctx, commodityID)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.NextCommentID(ctx)
	if err != nil {
		return nil, err
	}

	comment := model.NewComment(id, u.Email(), u.Username(), c.ID(), text)
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComments возвращает комментарии товара.
func (s *Service) GetComments(ctx context.Context, commodityID string) ([]*model.Comment, error) {
	if _, err := s.repo.GetCommodity(ctx, commodityID); err != nil {
		return nil, err
	}
	return s.repo.ListCommentsByCommodity(ctx, commodityID)
}

// VoteComment учитывает голос пользователя за комментарий.
func (s *Service) VoteComment(ctx context.Context, commentID int64, username string, vote model.Vote) error {
	return s.observe(s.repo.UpdateComment(ctx, commentID, func(c *model.Comment) error {
		return c.AddUserVote(username, vote)
	}))
}

// CreateUser регистрирует нового пользователя.
func (s *Service) CreateUser(ctx context.Context, attrs model.UserAttrs) error {
	return s.repo.CreateUser(ctx, model.NewUser(attrs))
}

// GetUser возвращает пользователя по имени.
func (s *Service) GetUser(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetUser(ctx, username)
}

// AddCredit пополняет кредит пользователя.
func (s *Service) AddCredit(ctx context.Context, username string, amount float64) error {
	return s.observe(s.repo.UpdateUser(ctx, username, func(u *model.User) error {
		return u.AddCredit(amount)
	}))
}

// WithdrawCredit списывает кредит пользователя.
func (s *Service) WithdrawCredit(ctx context.Context, username string, amount float64) error {
	return s.observe(s.repo.UpdateUser(ctx, username, func(u *model.User) error {
		return u.WithdrawCredit(amount)
	}))
}

// AddToBuyList добавляет товар в список покупок пользователя.
func (s *Service) AddToBuyList(ctx context.Context, username, commodityID string) error {
	c, err := s.repo.GetCommodity(ctx, commodityID)
	if err != nil {
		return err
	}

	return s.repo.UpdateUser(ctx, username, func(u *model.User) error {
		u.AddBuyItem(c)
		return nil
	})
}

// RemoveFromBuyList убирает одну единицу товара из списка покупок пользователя.
func (s *Service) RemoveFromBuyList(ctx context.Context, username, commodityID string) error {
	c, err := s.repo.GetCommodity(ctx, commodityID)
	if err != nil {
		return err
	}

	return s.observe(s.repo.UpdateUser(ctx, username, func(u *model.User) error {
		return u.RemoveItemFromBuyList(c)
	}))
}

// Purchase оформляет список покупок пользователя: списывает остатки и кредит,
// переносит товары в купленные и очищает список. Либо применяется всё, либо ничего.
// Возвращает сумму покупки.
func (s *Service) Purchase(ctx context.Context, username string) (float64, error) {
	var total float64

	err := s.repo.Checkout(ctx, username, func(u *model.User, items map[string]*model.Commodity) error {
		buyList := u.BuyList()
		if len(buyList) == 0 {
			return ErrEmptyBuyList
		}

		total = 0
		ids := slices.Sorted(maps.Keys(buyList))

		for _, id := range ids {
			qty := buyList[id]
			if err := items[id].UpdateInStock(-qty); err != nil {
				return fmt.Errorf("commodity %s: %w", id, err)
			}
			total += float64(items[id].Price() * qty)
		}

		if err := u.WithdrawCredit(total); err != nil {
			return err
		}

		for _, id := range ids {
			u.AddPurchasedItem(id, buyList[id])
		}
		u.ClearBuyList()
		return nil
	})
	if err != nil {
		return 0, s.observe(err)
	}
	return total, nil
}

// EvaluateOrder добавляет заказ в историю и возвращает превышение его количества
// над средним по прошлым заказам покупателя.
func (s *Service) EvaluateOrder(order fraud.Order) int {
	s.fraudMu.Lock()
	excess := s.engine.AddOrderAndGetFraudulentQuantity(order)
	s.fraudMu.Unlock()

	s.metrics.OrderEvaluated(excess)
	return excess
}

// CustomerAverageQuantity возвращает среднее количество в заказах покупателя.
func (s *Service) CustomerAverageQuantity(customer int) int {
	s.fraudMu.Lock()
	defer s.fraudMu.Unlock()

	return s.engine.AverageOrderQuantityByCustomer(customer)
}

// PriceQuantityPattern возвращает суммарное количество в заказах с указанной ценой.
func (s *Service) PriceQuantityPattern(price int) int {
	s.fraudMu.Lock()
	defer s.fraudMu.Unlock()

	return s.engine.QuantityPatternByPrice(price)
}

// OrderHistory возвращает копию истории заказов.
func (s *Service) OrderHistory() []fraud.Order {
	s.fraudMu.Lock()
	defer s.fraudMu.Unlock()

	return s.engine.History()
}
