package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/baloot-market/internal/model"
	"github.com/mmeshcher/baloot-market/internal/validation"
)

type userResponse struct {
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	BirthDate     string         `json:"birthDate"`
	Address       string         `json:"address"`
	Credit        float64        `json:"credit"`
	BuyList       map[string]int `json:"buyList"`
	PurchasedList map[string]int `json:"purchasedList"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		Username:      u.Username(),
		Email:         u.Email(),
		BirthDate:     u.BirthDate(),
		Address:       u.Address(),
		Credit:        u.Credit(),
		BuyList:       u.BuyList(),
		PurchasedList: u.PurchasedList(),
	}
}

type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	BirthDate string `json:"birthDate"`
	Address   string `json:"address"`
}

// CreateUser регистрирует нового пользователя.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(r, &req) {
		badRequest(w)
		return
	}

	if err := validation.RequireFields(map[string]string{
		"username": req.Username,
		"password": req.Password,
		"email":    req.Email,
	}); err != nil {
		h.writeError(w, err, "create user error")
		return
	}

	err := h.service.CreateUser(r.Context(), model.UserAttrs{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		BirthDate: req.BirthDate,
		Address:   req.Address,
	})
	if err != nil {
		h.writeError(w, err, "create user error", zap.String("username", req.Username))
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// GetUser возвращает профиль пользователя без пароля.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	u, err := h.service.GetUser(r.Context(), username)
	if err != nil {
		h.writeError(w, err, "get user error", zap.String("username", username))
		return
	}
	h.writeJSON(w, http.StatusOK, newUserResponse(u))
}

type creditRequest struct {
	Credit string `json:"credit"`
}

// AddCredit пополняет кредит пользователя.
func (h *Handler) AddCredit(w http.ResponseWriter, r *http.Request) {
	h.changeCredit(w, r, h.service.AddCredit, "add credit error")
}

// WithdrawCredit списывает кредит пользователя.
func (h *Handler) WithdrawCredit(w http.ResponseWriter, r *http.Request) {
	h.changeCredit(w, r, h.service.WithdrawCredit, "withdraw credit error")
}

func (h *Handler) changeCredit(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, username string, amount float64) error,
	msg string,
) {
	username := chi.URLParam(r, "username")

	var req creditRequest
	if !decodeJSON(r, &req) {
		badRequest(w)
		return
	}

	amount, err := validation.ParseCredit(req.Credit)
	if err != nil {
		h.writeError(w, err, msg)
		return
	}

	if err := apply(r.Context(), username, amount); err != nil {
		h.writeError(w, err, msg, zap.String("username", username))
		return
	}
	w.WriteHeader(http.StatusOK)
}

type buyListRequest struct {
	ID string `json:"id"`
}

// AddToBuyList добавляет единицу товара в список покупок.
func (h *Handler) AddToBuyList(w http.ResponseWriter, r *http.Request) {
	h.changeBuyList(w, r, h.service.AddToBuyList, "add to buy list error")
}

// RemoveFromBuyList убирает единицу товара из списка покупок.
func (h *Handler) RemoveFromBuyList(w http.ResponseWriter, r *http.Request) {
	h.changeBuyList(w, r, h.service.RemoveFromBuyList, "remove from buy list error")
}

func (h *Handler) changeBuyList(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, username, commodityID string) error,
	msg string,
) {
	username := chi.URLParam(r, "username")

	var req buyListRequest
	if !decodeJSON(r, &req) {
		badRequest(w)
		return
	}

	if err := validation.RequireFields(map[string]string{"id": req.ID}); err != nil {
		h.writeError(w, err, msg)
		return
	}

	if err := apply(r.Context(), username, req.ID); err != nil {
		h.writeError(w, err, msg, zap.String("username", username), zap.String("commodity", req.ID))
		return
	}
	w.WriteHeader(http.StatusOK)
}

type purchaseResponse struct {
	Total float64 `json:"total"`
}

// Purchase оформляет список покупок пользователя.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	total, err := h.service.Purchase(r.Context(), username)
	if err != nil {
		h.writeError(w, err, "purchase error", zap.String("username", username))
		return
	}
	h.writeJSON(w, http.StatusOK, purchaseResponse{Total: total})
}
