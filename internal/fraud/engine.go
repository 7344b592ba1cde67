// Package fraud ведёт историю заказов и выявляет аномальные количества в новых заказах.
package fraud

// Order описывает заказ покупателя. Заказы идентифицируются только по ID:
// два заказа с одинаковым ID считаются одним и тем же заказом.
type Order struct {
	ID       int `json:"id"`
	Customer int `json:"customer"`
	Price    int `json:"price"`
	Quantity int `json:"quantity"`
}

// Engine хранит историю заказов без повторов по ID.
// Engine не безопасен для конкурентного использования.
type Engine struct {
	history []Order
	known   map[int]struct{}
}

// NewEngine создаёт движок с пустой историей.
func NewEngine() *Engine {
	return &Engine{known: make(map[int]struct{})}
}

// Contains сообщает, есть ли в истории заказ с таким ID.
func (e *Engine) Contains(id int) bool {
	_, ok := e.known[id]
	return ok
}

// Len возвращает количество заказов в истории.
func (e *Engine) Len() int {
	return len(e.history)
}

// History возвращает копию истории в порядке добавления.
func (e *Engine) History() []Order {
	return append([]Order(nil), e.history...)
}

// AverageOrderQuantityByCustomer возвращает среднее количество товара в заказах покупателя,
// округлённое вниз. Без истории возвращается 0.
func (e *Engine) AverageOrderQuantityByCustomer(customer int) int {
	return e.averageExcluding(customer, nil)
}

// QuantityPatternByPrice возвращает суммарное количество товара в заказах с данной ценой.
func (e *Engine) QuantityPatternByPrice(price int) int {
	sum := 0
	for _, o := range e.history {
		if o.Price == price {
			sum += o.Quantity
		}
	}
	return sum
}

// CustomerFraudulentQuantity возвращает превышение количества в заказе над средним
// по предыдущим заказам покупателя. Запись истории с тем же ID в среднем не участвует.
func (e *Engine) CustomerFraudulentQuantity(order Order) int {
	avg := e.averageExcluding(order.Customer, &order.ID)
	if order.Quantity > avg {
		return order.Quantity - avg
	}
	return 0
}

// AddOrderAndGetFraudulentQuantity добавляет заказ в историю и возвращает превышение,
// посчитанное по истории до добавления. Повторная отправка известного заказа
// ничего не меняет и возвращает 0.
func (e *Engine) AddOrderAndGetFraudulentQuantity(order Order) int {
	if e.Contains(order.ID) {
		return 0
	}

	excess := e.CustomerFraudulentQuantity(order)
	e.history = append(e.history, order)
	e.known[order.ID] = struct{}{}
	return excess
}

func (e *Engine) averageExcluding(customer int, skipID *int) int {
	sum, count := 0, 0
	for _, o := range e.history {
		if o.Customer != customer {
			continue
		}
		if skipID != nil && o.ID == *skipID {
			continue
		}
		sum += o.Quantity
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / count
}
