package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func engineWith(orders ...Order) *Engine {
	e := NewEngine()
	for _, o := range orders {
		e.AddOrderAndGetFraudulentQuantity(o)
	}
	return e
}

func TestAverageOrderQuantityByCustomer(t *testing.T) {
	e := engineWith(
		Order{ID: 1, Customer: 1, Price: 100, Quantity: 5},
		Order{ID: 2, Customer: 1, Price: 150, Quantity: 8},
		Order{ID: 3, Customer: 2, Price: 15, Quantity: 1},
	)

	assert.Equal(t, 6, e.AverageOrderQuantityByCustomer(1))
	assert.Equal(t, 1, e.AverageOrderQuantityByCustomer(2))
	assert.Equal(t, 0, e.AverageOrderQuantityByCustomer(3))
}

func TestAverageOrderQuantityByCustomer_NoOrders(t *testing.T) {
	assert.Equal(t, 0, NewEngine().AverageOrderQuantityByCustomer(1))
}

func TestQuantityPatternByPrice(t *testing.T) {
	e := engineWith(
		Order{ID: 1, Customer: 1, Price: 100, Quantity: 5},
		Order{ID: 2, Customer: 1, Price: 100, Quantity: 8},
		Order{ID: 3, Customer: 1, Price: 200, Quantity: 11},
	)

	assert.Equal(t, 13, e.QuantityPatternByPrice(100))
	assert.Equal(t, 11, e.QuantityPatternByPrice(200))
	assert.Equal(t, 0, e.QuantityPatternByPrice(300))
}

func TestQuantityPatternByPrice_NoOrders(t *testing.T) {
	assert.Equal(t, 0, NewEngine().QuantityPatternByPrice(100))
}

func TestCustomerFraudulentQuantity(t *testing.T) {
	history := []Order{
		{ID: 1, Customer: 1, Price: 100, Quantity: 4},
		{ID: 2, Customer: 1, Price: 100, Quantity: 8},
	}

	tests := []struct {
		name  string
		order Order
		want  int
	}{
		{name: "below average", order: Order{ID: 3, Customer: 1, Quantity: 5}, want: 0},
		{name: "equal to average", order: Order{ID: 3, Customer: 1, Quantity: 6}, want: 0},
		{name: "above average", order: Order{ID: 3, Customer: 1, Quantity: 8}, want: 2},
		{name: "unknown customer", order: Order{ID: 3, Customer: 2, Quantity: 8}, want: 8},
		{name: "own entry is excluded", order: Order{ID: 2, Customer: 1, Quantity: 8}, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engineWith(history...)
			assert.Equal(t, tt.want, e.CustomerFraudulentQuantity(tt.order))
			assert.Equal(t, 2, e.Len())
		})
	}
}

func TestAddOrderAndGetFraudulentQuantity(t *testing.T) {
	e := NewEngine()

	assert.Equal(t, 8, e.AddOrderAndGetFraudulentQuantity(Order{ID: 1, Customer: 1, Price: 100, Quantity: 8}))
	assert.Equal(t, 1, e.Len())
}

func TestAddOrderAndGetFraudulentQuantity_ZeroQuantity(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, 0, e.AddOrderAndGetFraudulentQuantity(Order{ID: 1, Customer: 1, Price: 100, Quantity: 0}))
}

func TestAddOrderAndGetFraudulentQuantity_ExistingOrder(t *testing.T) {
	e := engineWith(Order{ID: 1, Customer: 1, Price: 100, Quantity: 8})

	// тот же ID с другими полями считается тем же заказом
	got := e.AddOrderAndGetFraudulentQuantity(Order{ID: 1, Customer: 1, Price: 50, Quantity: 100})

	assert.Equal(t, 0, got)
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, 8, e.History()[0].Quantity)
}

func TestAddOrderAndGetFraudulentQuantity_AverageBeforeInsert(t *testing.T) {
	e := engineWith(
		Order{ID: 1, Customer: 1, Quantity: 4},
		Order{ID: 2, Customer: 1, Quantity: 8},
	)

	assert.Equal(t, 2, e.AddOrderAndGetFraudulentQuantity(Order{ID: 3, Customer: 1, Quantity: 8}))
	assert.Equal(t, 6, e.AverageOrderQuantityByCustomer(1))
	assert.True(t, e.Contains(3))
}
