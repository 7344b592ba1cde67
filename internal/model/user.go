package model

import (
	"fmt"
	"math"
)

// UserAttrs описывает регистрационные данные пользователя.
type UserAttrs struct {
	Username  string
	Password  string
	Email     string
	BirthDate string
	Address   string
}

// User представляет покупателя маркетплейса с кредитом и списками покупок.
type User struct {
	username      string
	password      string
	email         string
	birthDate     string
	address       string
	credit        float64
	buyList       map[string]int
	purchasedList map[string]int
}

// NewUser создаёт пользователя с нулевым кредитом и пустыми списками.
func NewUser(attrs UserAttrs) *User {
	return &User{
		username:      attrs.Username,
		password:      attrs.Password,
		email:         attrs.Email,
		birthDate:     attrs.BirthDate,
		address:       attrs.Address,
		buyList:       make(map[string]int),
		purchasedList: make(map[string]int),
	}
}

// Username возвращает имя пользователя, оно же идентификатор.
func (u *User) Username() string { return u.username }

// Password возвращает пароль пользователя.
func (u *User) Password() string { return u.password }

// Email возвращает адрес электронной почты.
func (u *User) Email() string { return u.email }

// BirthDate возвращает дату рождения.
func (u *User) BirthDate() string { return u.birthDate }

// Address возвращает адрес доставки.
func (u *User) Address() string { return u.address }

// Credit возвращает текущий кредит.
func (u *User) Credit() float64 { return u.credit }

// BuyList возвращает копию списка покупок: идентификатор товара → количество.
func (u *User) BuyList() map[string]int {
	return copyCounts(u.buyList)
}

// PurchasedList возвращает копию списка купленных товаров.
func (u *User) PurchasedList() map[string]int {
	return copyCounts(u.purchasedList)
}

// AddCredit пополняет кредит. Отрицательная или нечисловая сумма отклоняется с ErrInvalidCreditRange.
func (u *User) AddCredit(amount float64) error {
	if !validAmount(amount) {
		return ErrInvalidCreditRange
	}
	u.credit += amount
	return nil
}

// WithdrawCredit списывает кредит. Списание всего баланса допустимо,
// нечисловая сумма отклоняется с ErrInvalidCreditRange.
func (u *User) WithdrawCredit(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidCreditRange
	}
	if amount > u.credit {
		return ErrInsufficientCredit
	}
	u.credit -= amount
	return nil
}

// validAmount сообщает, что сумма конечна и не отрицательна. NaN не проходит ни одно сравнение.
func validAmount(amount float64) bool {
	return amount >= 0 && !math.IsInf(amount, 0)
}

// AddBuyItem увеличивает количество товара в списке покупок на единицу.
func (u *User) AddBuyItem(c *Commodity) {
	u.buyList[c.ID()]++
}

// RemoveItemFromBuyList уменьшает количество товара на единицу и удаляет запись,
// когда количество доходит до нуля.
func (u *User) RemoveItemFromBuyList(c *Commodity) error {
	qty, ok := u.buyList[c.ID()]
	if !ok {
		return ErrNotInBuyList
	}
	if qty > 1 {
		u.buyList[c.ID()] = qty - 1
		return nil
	}
	delete(u.buyList, c.ID())
	return nil
}

// AddPurchasedItem добавляет количество к накопленным покупкам товара.
func (u *User) AddPurchasedItem(commodityID string, quantity int) {
	u.purchasedList[commodityID] += quantity
}

// ClearBuyList очищает список покупок после оформления заказа.
func (u *User) ClearBuyList() {
	u.buyList = make(map[string]int)
}

// UserRecord содержит плоское представление пользователя для хранения и импорта.
type UserRecord struct {
	Username      string         `json:"username" yaml:"username"`
	Password      string         `json:"password" yaml:"password"`
	Email         string         `json:"email" yaml:"email"`
	BirthDate     string         `json:"birthDate" yaml:"birthDate"`
	Address       string         `json:"address" yaml:"address"`
	Credit        float64        `json:"credit" yaml:"credit"`
	BuyList       map[string]int `json:"buyList,omitempty" yaml:"buyList,omitempty"`
	PurchasedList map[string]int `json:"purchasedList,omitempty" yaml:"purchasedList,omitempty"`
}

// Record возвращает снимок состояния пользователя.
func (u *User) Record() UserRecord {
	return UserRecord{
		Username:      u.username,
		Password:      u.password,
		Email:         u.email,
		BirthDate:     u.birthDate,
		Address:       u.address,
		Credit:        u.credit,
		BuyList:       copyCounts(u.buyList),
		PurchasedList: copyCounts(u.purchasedList),
	}
}

// RestoreUser восстанавливает пользователя из снимка, проверяя инварианты.
func RestoreUser(rec UserRecord) (*User, error) {
	if !validAmount(rec.Credit) {
		return nil, fmt.Errorf("restore user %s: credit must be a finite non-negative number: %w", rec.Username, ErrInvalidRecord)
	}

	u := NewUser(UserAttrs{
		Username:  rec.Username,
		Password:  rec.Password,
		Email:     rec.Email,
		BirthDate: rec.BirthDate,
		Address:   rec.Address,
	})
	u.credit = rec.Credit

	for id, qty := range rec.BuyList {
		if qty <= 0 {
			return nil, fmt.Errorf("restore user %s: buy list quantity for %s: %w", rec.Username, id, ErrInvalidRecord)
		}
		u.buyList[id] = qty
	}
	for id, qty := range rec.PurchasedList {
		if qty < 0 {
			return nil, fmt.Errorf("restore user %s: purchased quantity for %s: %w", rec.Username, id, ErrInvalidRecord)
		}
		u.purchasedList[id] = qty
	}

	return u, nil
}
