package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/baloot-market/internal/fraud"
	"github.com/mmeshcher/baloot-market/internal/validation"
)

type fraudResponse struct {
	FraudulentQuantity int `json:"fraudulentQuantity"`
}

// EvaluateOrder добавляет заказ в историю и возвращает превышение количества.
func (h *Handler) EvaluateOrder(w http.ResponseWriter, r *http.Request) {
	var order fraud.Order
	if !decodeJSON(r, &order) {
		badRequest(w)
		return
	}

	h.writeJSON(w, http.StatusOK, fraudResponse{FraudulentQuantity: h.service.EvaluateOrder(order)})
}

type averageResponse struct {
	Customer        int `json:"customer"`
	AverageQuantity int `json:"averageQuantity"`
}

// CustomerAverage возвращает среднее количество в заказах покупателя.
func (h *Handler) CustomerAverage(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "customer average error")
		return
	}

	customer := int(id)
	h.writeJSON(w, http.StatusOK, averageResponse{
		Customer:        customer,
		AverageQuantity: h.service.CustomerAverageQuantity(customer),
	})
}

type patternResponse struct {
	Price    int `json:"price"`
	Quantity int `json:"quantity"`
}

// PriceQuantity возвращает суммарное количество в заказах по цене.
func (h *Handler) PriceQuantity(w http.ResponseWriter, r *http.Request) {
	p, err := validation.ParseID(chi.URLParam(r, "price"))
	if err != nil {
		h.writeError(w, err, "price quantity error")
		return
	}

	price := int(p)
	h.writeJSON(w, http.StatusOK, patternResponse{
		Price:    price,
		Quantity: h.service.PriceQuantityPattern(price),
	})
}
