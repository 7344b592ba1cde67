package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/baloot-market/internal/catalog"
	"github.com/mmeshcher/baloot-market/internal/model"
	"github.com/mmeshcher/baloot-market/internal/repository"
	"github.com/mmeshcher/baloot-market/internal/validation"
)

type commodityResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ProviderID string   `json:"providerId"`
	Price      int      `json:"price"`
	Categories []string `json:"categories"`
	Rating     float64  `json:"rating"`
	InStock    int      `json:"inStock"`
	Image      string   `json:"image,omitempty"`
}

func newCommodityResponse(c *model.Commodity) commodityResponse {
	return commodityResponse{
		ID:         c.ID(),
		Name:       c.Name(),
		ProviderID: c.ProviderID(),
		Price:      c.Price(),
		Categories: c.Categories(),
		Rating:     c.Rating(),
		InStock:    c.InStock(),
		Image:      c.Image(),
	}
}

func newCommodityList(items []*model.Commodity) []commodityResponse {
	resp := make([]commodityResponse, 0, len(items))
	for _, c := range items {
		resp = append(resp, newCommodityResponse(c))
	}
	return resp
}

type commentResponse struct {
	ID          int64  `json:"id"`
	UserEmail   string `json:"userEmail"`
	Username    string `json:"username"`
	CommodityID string `json:"commodityId"`
	Text        string `json:"text"`
	Date        string `json:"date"`
	Like        int    `json:"like"`
	Dislike     int    `json:"dislike"`
}

func newCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:          c.ID(),
		UserEmail:   c.UserEmail(),
		Username:    c.Username(),
		CommodityID: c.CommodityID(),
		Text:        c.Text(),
		Date:        c.FormattedDate(),
		Like:        c.Like(),
		Dislike:     c.Dislike(),
	}
}

// ListCommodities возвращает весь каталог.
func (h *Handler) ListCommodities(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCommodities(r.Context())
	if err != nil {
		h.writeError(w, err, "list commodities error")
		return
	}
	h.writeJSON(w, http.StatusOK, newCommodityList(items))
}

// GetCommodity возвращает товар по идентификатору.
func (h *Handler) GetCommodity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.service.GetCommodity(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get commodity error", zap.String("commodity", id))
		return
	}
	h.writeJSON(w, http.StatusOK, newCommodityResponse(c))
}

type rateRequest struct {
	Username string `json:"username"`
	Rate     string `json:"rate"`
}

// RateCommodity сохраняет оценку пользователя и возвращает обновлённый товар.
func (h *Handler) RateCommodity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req rateRequest
	if !decodeJSON(r, &req) {
		badRequest(w)
		return
	}

	if err := validation.RequireFields(map[string]string{"username": req.Username}); err != nil {
		h.writeError(w, err, "rate commodity error")
		return
	}

	rate, err := validation.ParseRate(req.Rate)
	if err != nil {
		h.writeError(w, err, "rate commodity error")
		return
	}

	if err := h.service.RateCommodity(r.Context(), id, req.Username, rate); err != nil {
		h.writeError(w, err, "rate commodity error", zap.String("commodity", id))
		return
	}

	c, err := h.service.GetCommodity(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get commodity error", zap.String("commodity", id))
		return
	}
	h.writeJSON(w, http.StatusOK, newCommodityResponse(c))
}

type searchRequest struct {
	SearchOption string `json:"searchOption"`
	SearchValue  string `json:"searchValue"`
}

// SearchCommodities ищет товары по названию, категории или поставщику.
func (h *Handler) SearchCommodities(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(r, &req) {
		badRequest(w)
		return
	}

	option, err := catalog.ParseSearchOption(req.SearchOption)
	if err != nil {
		h.writeError(w, err, "search commodities error")
		return
	}

	items, err := h.service.Search(r.Context(), option, req.SearchValue)
	if err != nil {
		h.writeError(w, err, "search commodities error", zap.String("option", req.SearchOption))
		return
	}
	h.writeJSON(w, http.StatusOK, newCommodityList(items))
}

// SuggestedCommodities возвращает товары с общими категориями.
func (h *Handler) SuggestedCommodities(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	items, err := h.service.Suggest(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "suggest commodities error", zap.String("commodity", id))
		return
	}
	h.writeJSON(w, http.StatusOK, newCommodityList(items))
}

// GetComments возвращает комментарии к товару.
func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	comments, err := h.service.GetComments(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get comments error", zap.String("commodity", id))
		return
	}

	resp := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, newCommentResponse(c))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type commentRequest struct {
	Username string `json:"username"`
	Comment  string `json:"comment"`
}

// AddComment добавляет комментарий пользователя к товару.
// Неизвестный автор считается ошибкой запроса (400), неизвестный товар отвечает 404.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req commentRequest
	if !decodeJSON(r, &req) {
		badRequest(w)
		return
	}

	if err := validation.RequireFields(map[string]string{"username": req.Username, "comment": req.Comment}); err != nil {
		h.writeError(w, err, "add comment error")
		return
	}

	c, err := h.service.AddComment(r.Context(), id, req.Username, req.Comment)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeError(w, err, "add comment error", zap.String("commodity", id))
		return
	}
	h.writeJSON(w, http.StatusCreated, newCommentResponse(c))
}

type voteRequest struct {
	Username string `json:"username"`
}

// VoteComment регистрирует голос like или dislike за комментарий.
func (h *Handler) VoteComment(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "vote comment error")
		return
	}
	vote := model.Vote(chi.URLParam(r, "vote"))

	var req voteRequest
	if !decodeJSON(r, &req) {
		badRequest(w)
		return
	}

	if err := validation.RequireFields(map[string]string{"username": req.Username}); err != nil {
		h.writeError(w, err, "vote comment error")
		return
	}

	if err := h.service.VoteComment(r.Context(), id, req.Username, vote); err != nil {
		h.writeError(w, err, "vote comment error", zap.Int64("comment", id))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetProvider возвращает поставщика.
func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.GetProvider(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get provider error", zap.String("provider", id))
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// ProviderCommodities возвращает товары поставщика.
func (h *Handler) ProviderCommodities(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	items, err := h.service.ProviderCommodities(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "provider commodities error", zap.String("provider", id))
		return
	}
	h.writeJSON(w, http.StatusOK, newCommodityList(items))
}
