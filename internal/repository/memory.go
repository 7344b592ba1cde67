package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/mmeshcher/baloot-market/internal/model"
)

// MemoryRepository хранит снимки сущностей в памяти процесса.
// Каждое чтение восстанавливает новую сущность, поэтому неудачное изменение не оставляет следов.
// Все операции выполняются под одной блокировкой.
type MemoryRepository struct {
	mu sync.Mutex

	users       map[string]model.UserRecord
	providers   map[string]model.Provider
	commodities map[string]model.CommodityRecord
	comments    map[int64]model.CommentRecord
	lastComment int64
}

// NewMemoryRepository создаёт пустое хранилище.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:       make(map[string]model.UserRecord),
		providers:   make(map[string]model.Provider),
		commodities: make(map[string]model.CommodityRecord),
		comments:    make(map[int64]model.CommentRecord),
	}
}

// Close ничего не освобождает и нужен для совместимости с PostgresRepository.
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateUser сохраняет нового пользователя.
func (r *MemoryRepository) CreateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Username()]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, u.Username())
	}
	r.users[u.Username()] = u.Record()
	return nil
}

// GetUser возвращает пользователя по имени.
func (r *MemoryRepository) GetUser(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadUser(username)
}

// UpdateUser применяет fn к пользователю и сохраняет результат, если fn не вернула ошибку.
func (r *MemoryRepository) UpdateUser(_ context.Context, username string, fn func(*model.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, err := r.loadUser(username)
	if err != nil {
		return err
	}
	if err := fn(u); err != nil {
		return err
	}
	r.users[username] = u.Record()
	return nil
}

func (r *MemoryRepository) loadUser(username string) (*model.User, error) {
	rec, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return model.RestoreUser(rec)
}

// CreateProvider сохраняет поставщика.
func (r *MemoryRepository) CreateProvider(_ context.Context, p model.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[p.ID]; ok {
		return fmt.Errorf("provider %s: %w", p.ID, ErrAlreadyExists)
	}
	r.providers[p.ID] = p
	return nil
}

// GetProvider возвращает поставщика по идентификатору.
func (r *MemoryRepository) GetProvider(_ context.Context, id string) (*model.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return &p, nil
}

// ListProviders возвращает всех поставщиков, упорядоченных по идентификатору.
func (r *MemoryRepository) ListProviders(_ context.Context) ([]model.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]model.Provider, 0, len(r.providers))
	for _, id := range slices.Sorted(maps.Keys(r.providers)) {
		res = append(res, r.providers[id])
	}
	return res, nil
}

// CreateCommodity сохраняет новый товар.
func (r *MemoryRepository) CreateCommodity(_ context.Context, c *model.Commodity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commodities[c.ID()]; ok {
		return fmt.Errorf("commodity %s: %w", c.ID(), ErrAlreadyExists)
	}
	r.commodities[c.ID()] = c.Record()
	return nil
}

// GetCommodity возвращает товар по идентификатору.
func (r *MemoryRepository) GetCommodity(_ context.Context, id string) (*model.Commodity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadCommodity(id)
}

// ListCommodities возвращает весь каталог, упорядоченный по идентификатору.
func (r *MemoryRepository) ListCommodities(_ context.Context) ([]*model.Commodity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]*model.Commodity, 0, len(r.commodities))
	for _, id := range slices.Sorted(maps.Keys(r.commodities)) {
		c, err := r.loadCommodity(id)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// UpdateCommodity применяет fn к товару и сохраняет результат, если fn не вернула ошибку.
func (r *MemoryRepository) UpdateCommodity(_ context.Context, id string, fn func(*model.Commodity) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.loadCommodity(id)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	r.commodities[id] = c.Record()
	return nil
}

func (r *MemoryRepository) loadCommodity(id string) (*model.Commodity, error) {
	rec, ok := r.commodities[id]
	if !ok {
		return nil, ErrCommodityNotFound
	}
	return model.RestoreCommodity(rec)
}

// NextCommentID выдаёт следующий идентификатор комментария.
func (r *MemoryRepository) NextCommentID(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastComment++
	return r.lastComment, nil
}

// CreateComment сохраняет комментарий.
func (r *MemoryRepository) CreateComment(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[c.ID()]; ok {
		return fmt.Errorf("comment %d: %w", c.ID(), ErrAlreadyExists)
	}
	r.comments[c.ID()] = c.Record()
	if c.ID() > r.lastComment {
		r.lastComment = c.ID()
	}
	return nil
}

// GetComment возвращает комментарий по идентификатору.
func (r *MemoryRepository) GetComment(_ context.Context, id int64) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadComment(id)
}

// ListCommentsByCommodity возвращает комментарии товара в порядке создания.
func (r *MemoryRepository) ListCommentsByCommodity(_ context.Context, commodityID string) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]*model.Comment, 0)
	for _, id := range slices.Sorted(maps.Keys(r.comments)) {
		if r.comments[id].CommodityID != commodityID {
			continue
		}
		c, err := r.loadComment(id)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// UpdateComment применяет fn к комментарию и сохраняет результат, если fn не вернула ошибку.
func (r *MemoryRepository) UpdateComment(_ context.Context, id int64, fn func(*model.Comment) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.loadComment(id)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	r.comments[id] = c.Record()
	return nil
}

func (r *MemoryRepository) loadComment(id int64) (*model.Comment, error) {
	rec, ok := r.comments[id]
	if !ok {
		return nil, ErrCommentNotFound
	}
	return model.RestoreComment(rec)
}

// Checkout загружает пользователя и все товары из его списка покупок, применяет fn
// и сохраняет все изменения разом. При ошибке fn хранилище не меняется.
func (r *MemoryRepository) Checkout(_ context.Context, username string, fn func(*model.User, map[string]*model.Commodity) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, err := r.loadUser(username)
	if err != nil {
		return err
	}

	items := make(map[string]*model.Commodity, len(u.BuyList()))
	for id := range u.BuyList() {
		c, err := r.loadCommodity(id)
		if err != nil {
			return fmt.Errorf("checkout %s: %w", id, err)
		}
		items[id] = c
	}

	if err := fn(u, items); err != nil {
		return err
	}

	r.users[username] = u.Record()
	for id, c := range items {
		r.commodities[id] = c.Record()
	}
	return nil
}
