// Package handler содержит HTTP-обработчики API маркетплейса.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/baloot-market/internal/catalog"
	"github.com/mmeshcher/baloot-market/internal/fraud"
	"github.com/mmeshcher/baloot-market/internal/metrics"
	"github.com/mmeshcher/baloot-market/internal/model"
	"github.com/mmeshcher/baloot-market/internal/repository"
	"github.com/mmeshcher/baloot-market/internal/service"
	"github.com/mmeshcher/baloot-market/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ListCommodities(ctx context.Context) ([]*model.Commodity, error)
	GetCommodity(ctx context.Context, id string) (*model.Commodity, error)
	RateCommodity(ctx context.Context, commodityID, username string, rate int) error
	Suggest(ctx context.Context, commodityID string) ([]*model.Commodity, error)
	Search(ctx context.Context, option catalog.SearchOption, value string) ([]*model.Commodity, error)

	GetProvider(ctx context.Context, id string) (*model.Provider, error)
	ProviderCommodities(ctx context.Context, providerID string) ([]*model.Commodity, error)

	AddComment(ctx context.Context, commodityID, username, text string) (*model.Comment, error)
	GetComments(ctx context.Context, commodityID string) ([]*model.Comment, error)
	VoteComment(ctx context.Context, commentID int64, username string, vote model.Vote) error

	CreateUser(ctx context.Context, attrs model.UserAttrs) error
	GetUser(ctx context.Context, username string) (*model.User, error)
	AddCredit(ctx context.Context, username string, amount float64) error
	WithdrawCredit(ctx context.Context, username string, amount float64) error
	AddToBuyList(ctx context.Context, username, commodityID string) error
	RemoveFromBuyList(ctx context.Context, username, commodityID string) error
	Purchase(ctx context.Context, username string) (float64, error)

	EvaluateOrder(order fraud.Order) int
	CustomerAverageQuantity(customer int) int
	PriceQuantityPattern(price int) int
}

// Handler реализует HTTP-обработчики API маркетплейса.
type Handler struct {
	service Service
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		metrics: m,
	}
}

// statusFor сопоставляет ошибку бизнес-логики с HTTP-статусом.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, validation.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidSearchOption),
		errors.Is(err, service.ErrEmptyBuyList),
		errors.Is(err, model.ErrOutOfStock),
		errors.Is(err, model.ErrInvalidCreditRange),
		errors.Is(err, model.ErrInsufficientCredit),
		errors.Is(err, model.ErrNotInBuyList),
		errors.Is(err, model.ErrInvalidVote):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, dst any) bool {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst) == nil
}

func badRequest(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
}
