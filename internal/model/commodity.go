package model

import "fmt"

// CommodityAttrs описывает неизменяемые атрибуты нового товара.
type CommodityAttrs struct {
	ID         string
	Name       string
	ProviderID string
	Categories []string
	Price      int
	InStock    int
	InitRate   float64
	Image      string
}

// Commodity представляет товар маркетплейса с остатком и пользовательскими оценками.
type Commodity struct {
	id         string
	name       string
	providerID string
	categories []string
	price      int
	inStock    int
	initRate   float64
	image      string
	userRate   map[string]int
}

// NewCommodity создаёт товар. Повторяющиеся категории схлопываются.
func NewCommodity(attrs CommodityAttrs) (*Commodity, error) {
	if attrs.InStock < 0 {
		return nil, fmt.Errorf("new commodity %s: %w", attrs.ID, ErrOutOfStock)
	}

	return &Commodity{
		id:         attrs.ID,
		name:       attrs.Name,
		providerID: attrs.ProviderID,
		categories: uniqueStrings(attrs.Categories),
		price:      attrs.Price,
		inStock:    attrs.InStock,
		initRate:   attrs.InitRate,
		image:      attrs.Image,
		userRate:   make(map[string]int),
	}, nil
}

// ID возвращает идентификатор товара.
func (c *Commodity) ID() string { return c.id }

// Name возвращает название товара.
func (c *Commodity) Name() string { return c.name }

// ProviderID возвращает идентификатор поставщика.
func (c *Commodity) ProviderID() string { return c.providerID }

// Price возвращает цену товара.
func (c *Commodity) Price() int { return c.price }

// InStock возвращает остаток на складе.
func (c *Commodity) InStock() int { return c.inStock }

// InitRate возвращает начальную оценку, с которой усредняются оценки пользователей.
func (c *Commodity) InitRate() float64 { return c.initRate }

// Image возвращает ссылку на изображение.
func (c *Commodity) Image() string { return c.image }


// Categories возвращает копию списка категорий.
func (c *Commodity) Categories() []string {
	return append([]string(nil), c.categories...)
}

// UserRates возвращает копию оценок пользователей.
func (c *Commodity) UserRates() map[string]int {
	return copyCounts(c.userRate)
}

// AddRate сохраняет оценку пользователя, перезаписывая предыдущую.
// Диапазон значения не проверяется.
func (c *Commodity) AddRate(username string, rate int) {
	c.userRate[username] = rate
}

// Rating возвращает среднее начальной оценки и всех пользовательских оценок.
// Начальная оценка всегда участвует как одно из значений.
func (c *Commodity) Rating() float64 {
	sum := c.initRate
	for _, r := range c.userRate {
		sum += float64(r)
	}
	return sum / float64(len(c.userRate)+1)
}

// UpdateInStock изменяет остаток на delta. Если остаток стал бы отрицательным,
// он не меняется и возвращается ErrOutOfStock.
func (c *Commodity) UpdateInStock(delta int) error {
	if c.inStock+delta < 0 {
		return ErrOutOfStock
	}
	c.inStock += delta
	return nil
}

// HasCategory сообщает, относится ли товар к категории.
func (c *Commodity) HasCategory(category string) bool {
	for _, cat := range c.categories {
		if cat == category {
			return true
		}
	}
	return false
}

// SharesCategory сообщает, есть ли у товаров общая категория.
func (c *Commodity) SharesCategory(other *Commodity) bool {
	for _, cat := range other.categories {
		if c.HasCategory(cat) {
			return true
		}
	}
	return false
}

// CommodityRecord содержит плоское представление товара для хранения и импорта.
type CommodityRecord struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	ProviderID string         `json:"providerId" yaml:"providerId"`
	Categories []string       `json:"categories" yaml:"categories"`
	Price      int            `json:"price" yaml:"price"`
	InStock    int            `json:"inStock" yaml:"inStock"`
	InitRate   float64        `json:"rating" yaml:"rating"`
	Image      string         `json:"image,omitempty" yaml:"image,omitempty"`
	UserRate   map[string]int `json:"userRate,omitempty" yaml:"userRate,omitempty"`
}

// Record возвращает снимок состояния товара.
func (c *Commodity) Record() CommodityRecord {
	return CommodityRecord{
		ID:         c.id,
		Name:       c.name,
		ProviderID: c.providerID,
		Categories: c.Categories(),
		Price:      c.price,
		InStock:    c.inStock,
		InitRate:   c.initRate,
		Image:      c.image,
		UserRate:   copyCounts(c.userRate),
	}
}

// RestoreCommodity восстанавливает товар из снимка.
func RestoreCommodity(rec CommodityRecord) (*Commodity, error) {
	c, err := NewCommodity(CommodityAttrs{
		ID:         rec.ID,
		Name:       rec.Name,
		ProviderID: rec.ProviderID,
		Categories: rec.Categories,
		Price:      rec.Price,
		InStock:    rec.InStock,
		InitRate:   rec.InitRate,
		Image:      rec.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("restore commodity %s: %w", rec.ID, ErrInvalidRecord)
	}
	for user, rate := range rec.UserRate {
		c.userRate[user] = rate
	}
	return c, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
