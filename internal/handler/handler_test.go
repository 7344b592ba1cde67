package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/baloot-market/internal/catalog"
	"github.com/mmeshcher/baloot-market/internal/fraud"
	"github.com/mmeshcher/baloot-market/internal/metrics"
	"github.com/mmeshcher/baloot-market/internal/model"
	"github.com/mmeshcher/baloot-market/internal/repository"
	"github.com/mmeshcher/baloot-market/internal/service"
	"github.com/mmeshcher/baloot-market/internal/validation"
)

type stubService struct {
	commodity   *model.Commodity
	commodities []*model.Commodity
	comment     *model.Comment
	user        *model.User
	provider    *model.Provider
	total       float64
	excess      int

	err error

	gotUsername string
	gotRate     int
	gotAmount   float64
	gotVote     model.Vote
	gotOption   catalog.SearchOption
	gotOrder    fraud.Order
}

func (s *stubService) ListCommodities(ctx context.Context) ([]*model.Commodity, error) {
	return s.commodities, s.err
}

func (s *stubService) GetCommodity(ctx context.Context, id string) (*model.Commodity, error) {
	return s.commodity, s.err
}

func (s *stubService) RateCommodity(ctx context.Context, commodityID, username string, rate int) error {
	s.gotUsername, s.gotRate = username, rate
	return s.err
}

func (s *stubService) Suggest(ctx context.Context, commodityID string) ([]*model.Commodity, error) {
	return s.commodities, s.err
}

func (s *stubService) Search(ctx context.Context, option catalog.SearchOption, value string) ([]*model.Commodity, error) {
	s.gotOption = option
	return s.commodities, s.err
}

func (s *stubService) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	return s.provider, s.err
}

func (s *stubService) ProviderCommodities(ctx context.Context, providerID string) ([]*model.Commodity, error) {
	return s.commodities, s.err
}

func (s *stubService) AddComment(ctx context.Context, commodityID, username, text string) (*model.Comment, error) {
	return s.comment, s.err
}

func (s *stubService) GetComments(ctx context.Context, commodityID string) ([]*model.Comment, error) {
	if s.comment == nil {
		return nil, s.err
	}
	return []*model.Comment{s.comment}, s.err
}

func (s *stubService) VoteComment(ctx context.Context, commentID int64, username string, vote model.Vote) error {
	s.gotUsername, s.gotVote = username, vote
	return s.err
}

func (s *stubService) CreateUser(ctx context.Context, attrs model.UserAttrs) error {
	s.gotUsername = attrs.Username
	return s.err
}

func (s *stubService) GetUser(ctx context.Context, username string) (*model.User, error) {
	return s.user, s.err
}

func (s *stubService) AddCredit(ctx context.Context, username string, amount float64) error {
	s.gotUsername, s.gotAmount = username, amount
	return s.err
}

func (s *stubService) WithdrawCredit(ctx context.Context, username string, amount float64) error {
	s.gotUsername, s.gotAmount = username, amount
	return s.err
}

func (s *stubService) AddToBuyList(ctx context.Context, username, commodityID string) error {
	s.gotUsername = username
	return s.err
}

func (s *stubService) RemoveFromBuyList(ctx context.Context, username, commodityID string) error {
	s.gotUsername = username
	return s.err
}

func (s *stubService) Purchase(ctx context.Context, username string) (float64, error) {
	return s.total, s.err
}

func (s *stubService) EvaluateOrder(order fraud.Order) int {
	s.gotOrder = order
	return s.excess
}

func (s *stubService) CustomerAverageQuantity(customer int) int {
	return customer * 2
}

func (s *stubService) PriceQuantityPattern(price int) int {
	return price + 1
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger, metrics.New())
}

func serve(t *testing.T, h *Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec
}

func testCommodity(t *testing.T) *model.Commodity {
	t.Helper()

	c, err := model.NewCommodity(model.CommodityAttrs{
		ID:         "1",
		Name:       "Headphone",
		ProviderID: "p1",
		Categories: []string{"Technology"},
		Price:      20,
		InStock:    3,
		InitRate:   4,
	})
	require.NoError(t, err)
	return c
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: repository.ErrUserNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("wrapped: %w", repository.ErrCommodityNotFound), want: http.StatusNotFound},
		{err: repository.ErrUserExists, want: http.StatusConflict},
		{err: validation.ErrInvalidInput, want: http.StatusBadRequest},
		{err: catalog.ErrInvalidSearchOption, want: http.StatusBadRequest},
		{err: service.ErrEmptyBuyList, want: http.StatusBadRequest},
		{err: model.ErrOutOfStock, want: http.StatusBadRequest},
		{err: model.ErrInvalidCreditRange, want: http.StatusBadRequest},
		{err: model.ErrInsufficientCredit, want: http.StatusBadRequest},
		{err: model.ErrNotInBuyList, want: http.StatusBadRequest},
		{err: model.ErrInvalidVote, want: http.StatusBadRequest},
		{err: errors.New("db is down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestGetCommodity(t *testing.T) {
	h := newTestHandler(t, &stubService{commodity: testCommodity(t)})

	rec := serve(t, h, http.MethodGet, "/api/commodities/1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp commodityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Headphone", resp.Name)
	assert.Equal(t, 4.0, resp.Rating)
	assert.Equal(t, 3, resp.InStock)
}

func TestGetCommodity_NotFound(t *testing.T) {
	h := newTestHandler(t, &stubService{err: repository.ErrCommodityNotFound})

	rec := serve(t, h, http.MethodGet, "/api/commodities/404", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateCommodity(t *testing.T) {
	tests := []struct {
		name     string
		body     rateRequest
		err      error
		wantCode int
	}{
		{name: "ok", body: rateRequest{Username: "alice", Rate: "7"}, wantCode: http.StatusOK},
		{name: "not a number", body: rateRequest{Username: "alice", Rate: "seven"}, wantCode: http.StatusBadRequest},
		{name: "missing username", body: rateRequest{Rate: "7"}, wantCode: http.StatusBadRequest},
		{name: "unknown user", body: rateRequest{Username: "ghost", Rate: "7"}, err: repository.ErrUserNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{commodity: testCommodity(t), err: tt.err}
			h := newTestHandler(t, svc)

			rec := serve(t, h, http.MethodPost, "/api/commodities/1/rate", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, 7, svc.gotRate)
				assert.Equal(t, "alice", svc.gotUsername)
			}
		})
	}
}

func TestRateCommodity_MalformedJSON(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/commodities/1/rate", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchCommodities(t *testing.T) {
	svc := &stubService{commodities: []*model.Commodity{testCommodity(t)}}
	h := newTestHandler(t, svc)

	rec := serve(t, h, http.MethodPost, "/api/commodities/search", searchRequest{SearchOption: "category", SearchValue: "Technology"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.SearchByCategory, svc.gotOption)

	var resp []commodityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestSearchCommodities_InvalidOption(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := serve(t, h, http.MethodPost, "/api/commodities/search", searchRequest{SearchOption: "color", SearchValue: "red"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggested_EmptyListIsArray(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := serve(t, h, http.MethodGet, "/api/commodities/1/suggested", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAddComment(t *testing.T) {
	comment := model.NewComment(1, "alice@example.com", "alice", "1", "nice")
	h := newTestHandler(t, &stubService{comment: comment})

	rec := serve(t, h, http.MethodPost, "/api/commodities/1/comment", commentRequest{Username: "alice", Comment: "nice"})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp commentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, comment.FormattedDate(), resp.Date)
}

func TestAddComment_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		err      error
		wantCode int
	}{
		{name: "unknown author", body: commentRequest{Username: "ghost", Comment: "hi"}, err: repository.ErrUserNotFound, wantCode: http.StatusBadRequest},
		{name: "unknown commodity", body: commentRequest{Username: "alice", Comment: "hi"}, err: repository.ErrCommodityNotFound, wantCode: http.StatusNotFound},
		{name: "text field is not read", body: map[string]string{"username": "alice", "text": "hi"}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tt.err})

			rec := serve(t, h, http.MethodPost, "/api/commodities/1/comment", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestVoteComment(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		err      error
		wantCode int
		wantVote model.Vote
	}{
		{name: "like", target: "/api/comment/1/like", wantCode: http.StatusOK, wantVote: model.VoteLike},
		{name: "dislike", target: "/api/comment/1/dislike", wantCode: http.StatusOK, wantVote: model.VoteDislike},
		{name: "bad id", target: "/api/comment/x/like", wantCode: http.StatusBadRequest},
		{name: "unknown kind", target: "/api/comment/1/meh", err: model.ErrInvalidVote, wantCode: http.StatusBadRequest},
		{name: "missing comment", target: "/api/comment/9/like", err: repository.ErrCommentNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: tt.err}
			h := newTestHandler(t, svc)

			rec := serve(t, h, http.MethodPost, tt.target, voteRequest{Username: "bob"})

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantVote != "" {
				assert.Equal(t, tt.wantVote, svc.gotVote)
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name     string
		body     createUserRequest
		err      error
		wantCode int
	}{
		{name: "created", body: createUserRequest{Username: "alice", Password: "secret", Email: "a@example.com"}, wantCode: http.StatusCreated},
		{name: "missing email", body: createUserRequest{Username: "alice", Password: "secret"}, wantCode: http.StatusBadRequest},
		{name: "duplicate", body: createUserRequest{Username: "alice", Password: "secret", Email: "a@example.com"}, err: repository.ErrUserExists, wantCode: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tt.err})

			rec := serve(t, h, http.MethodPost, "/api/users", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestGetUser_HidesPassword(t *testing.T) {
	u := model.NewUser(model.UserAttrs{Username: "alice", Password: "secret", Email: "a@example.com"})
	h := newTestHandler(t, &stubService{user: u})

	rec := serve(t, h, http.MethodGet, "/api/users/alice", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestCredit(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		credit     string
		err        error
		wantCode   int
		wantAmount float64
	}{
		{name: "add", target: "/api/users/alice/credit", credit: "12.5", wantCode: http.StatusOK, wantAmount: 12.5},
		{name: "add negative", target: "/api/users/alice/credit", credit: "-1", err: model.ErrInvalidCreditRange, wantCode: http.StatusBadRequest},
		{name: "add not a number", target: "/api/users/alice/credit", credit: "lots", wantCode: http.StatusBadRequest},
		{name: "withdraw", target: "/api/users/alice/withdraw", credit: "3", wantCode: http.StatusOK, wantAmount: 3},
		{name: "withdraw too much", target: "/api/users/alice/withdraw", credit: "300", err: model.ErrInsufficientCredit, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: tt.err}
			h := newTestHandler(t, svc)

			rec := serve(t, h, http.MethodPost, tt.target, creditRequest{Credit: tt.credit})

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "alice", svc.gotUsername)
				assert.Equal(t, tt.wantAmount, svc.gotAmount)
			}
		})
	}
}

func TestBuyList(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     buyListRequest
		err      error
		wantCode int
	}{
		{name: "add", target: "/api/users/alice/buy-list/add", body: buyListRequest{ID: "1"}, wantCode: http.StatusOK},
		{name: "add missing id", target: "/api/users/alice/buy-list/add", wantCode: http.StatusBadRequest},
		{name: "add out of stock", target: "/api/users/alice/buy-list/add", body: buyListRequest{ID: "1"}, err: model.ErrOutOfStock, wantCode: http.StatusBadRequest},
		{name: "remove absent", target: "/api/users/alice/buy-list/remove", body: buyListRequest{ID: "1"}, err: model.ErrNotInBuyList, wantCode: http.StatusBadRequest},
		{name: "internal", target: "/api/users/alice/buy-list/remove", body: buyListRequest{ID: "1"}, err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tt.err})

			rec := serve(t, h, http.MethodPost, tt.target, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestPurchase(t *testing.T) {
	h := newTestHandler(t, &stubService{total: 70})

	rec := serve(t, h, http.MethodPost, "/api/users/alice/buy-list/purchase", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":70}`, rec.Body.String())
}

func TestPurchase_EmptyBuyList(t *testing.T) {
	h := newTestHandler(t, &stubService{err: service.ErrEmptyBuyList})

	rec := serve(t, h, http.MethodPost, "/api/users/alice/buy-list/purchase", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviders(t *testing.T) {
	svc := &stubService{
		provider:    &model.Provider{ID: "p1", Name: "Golrang"},
		commodities: []*model.Commodity{testCommodity(t)},
	}
	h := newTestHandler(t, svc)

	rec := serve(t, h, http.MethodGet, "/api/providers/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Golrang"`)

	rec = serve(t, h, http.MethodGet, "/api/providers/p1/commodities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"1"`)
}

func TestFraud(t *testing.T) {
	svc := &stubService{excess: 5}
	h := newTestHandler(t, svc)

	rec := serve(t, h, http.MethodPost, "/api/fraud/orders", fraud.Order{ID: 1, Customer: 7, Price: 10, Quantity: 9})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"fraudulentQuantity":5}`, rec.Body.String())
	assert.Equal(t, fraud.Order{ID: 1, Customer: 7, Price: 10, Quantity: 9}, svc.gotOrder)

	rec = serve(t, h, http.MethodGet, "/api/fraud/customers/7/average", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"customer":7,"averageQuantity":14}`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/api/fraud/prices/10/quantity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"price":10,"quantity":11}`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/api/fraud/prices/ten/quantity", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := serve(t, h, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h, http.MethodDelete, "/api/commodities/1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestHandler(t, &stubService{commodity: testCommodity(t)})

	serve(t, h, http.MethodGet, "/api/commodities/1", nil)
	rec := serve(t, h, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `baloot_http_requests_total{code="200",method="GET",route="/api/commodities/{id}"} 1`)
}
