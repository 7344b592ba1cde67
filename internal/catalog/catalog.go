// Package catalog реализует подбор похожих товаров и поиск по каталогу.
package catalog

import (
	"errors"
	"strings"

	"github.com/mmeshcher/baloot-market/internal/model"
)

// ErrInvalidSearchOption возвращается для неизвестного критерия поиска.
var ErrInvalidSearchOption = errors.New("invalid search option")

// SearchOption задаёт критерий поиска товаров.
type SearchOption string

// Поддерживаемые критерии поиска.
const (
	SearchByName     SearchOption = "name"
	SearchByCategory SearchOption = "category"
	SearchByProvider SearchOption = "provider"
)

// ParseSearchOption проверяет критерий поиска.
func ParseSearchOption(s string) (SearchOption, error) {
	switch opt := SearchOption(s); opt {
	case SearchByName, SearchByCategory, SearchByProvider:
		return opt, nil
	default:
		return "", ErrInvalidSearchOption
	}
}

// Suggest возвращает товары каталога, у которых есть общая категория с item.
// Сам item и повторы по идентификатору в результат не попадают; порядок повторяет каталог.
func Suggest(item *model.Commodity, catalog []*model.Commodity) []*model.Commodity {
	seen := map[string]struct{}{item.ID(): {}}
	res := make([]*model.Commodity, 0)

	for _, c := range catalog {
		if _, ok := seen[c.ID()]; ok {
			continue
		}
		if !item.SharesCategory(c) {
			continue
		}
		seen[c.ID()] = struct{}{}
		res = append(res, c)
	}
	return res
}

// FilterByName возвращает товары, в названии которых встречается name (без учёта регистра).
func FilterByName(catalog []*model.Commodity, name string) []*model.Commodity {
	needle := strings.ToLower(name)
	return filter(catalog, func(c *model.Commodity) bool {
		return strings.Contains(strings.ToLower(c.Name()), needle)
	})
}

// FilterByCategory возвращает товары указанной категории.
func FilterByCategory(catalog []*model.Commodity, category string) []*model.Commodity {
	return filter(catalog, func(c *model.Commodity) bool {
		return c.HasCategory(category)
	})
}

// FilterByProvider возвращает товары перечисленных поставщиков.
func FilterByProvider(catalog []*model.Commodity, providerIDs ...string) []*model.Commodity {
	ids := make(map[string]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		ids[id] = struct{}{}
	}
	return filter(catalog, func(c *model.Commodity) bool {
		_, ok := ids[c.ProviderID()]
		return ok
	})
}

func filter(catalog []*model.Commodity, keep func(*model.Commodity) bool) []*model.Commodity {
	res := make([]*model.Commodity, 0)
	for _, c := range catalog {
		if keep(c) {
			res = append(res, c)
		}
	}
	return res
}
