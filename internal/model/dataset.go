package model

// Dataset содержит набор начальных данных маркетплейса для импорта.
type Dataset struct {
	Users       []UserRecord      `json:"users" yaml:"users"`
	Providers   []Provider        `json:"providers" yaml:"providers"`
	Commodities []CommodityRecord `json:"commodities" yaml:"commodities"`
	Comments    []CommentRecord   `json:"comments" yaml:"comments"`
}
