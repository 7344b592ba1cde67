// Package datasource предоставляет клиент внешнего источника начальных данных маркетплейса.
package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/baloot-market/internal/model"
)

// commentDateLayout задаёт формат даты комментариев во внешнем источнике.
const commentDateLayout = "2006-01-02"

// Client инкапсулирует HTTP-взаимодействие с источником данных.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент для обращения к источнику данных по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type commentPayload struct {
	UserEmail   string      `json:"userEmail"`
	CommodityID json.Number `json:"commodityId"`
	Text        string      `json:"text"`
	Date        string      `json:"date"`
}

// Fetch загружает пользователей, поставщиков, товары и комментарии параллельно.
func (c *Client) Fetch(ctx context.Context) (*model.Dataset, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("data source client not configured")
	}

	var (
		data     model.Dataset
		comments []commentPayload
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(ctx, "/api/users", &data.Users) })
	g.Go(func() error { return c.get(ctx, "/api/providers", &data.Providers) })
	g.Go(func() error { return c.get(ctx, "/api/commodities", &data.Commodities) })
	g.Go(func() error { return c.get(ctx, "/api/comments", &comments) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	emails := make(map[string]string, len(data.Users))
	for _, u := range data.Users {
		emails[u.Email] = u.Username
	}

	for _, p := range comments {
		rec := model.CommentRecord{
			UserEmail:   p.UserEmail,
			Username:    emails[p.UserEmail],
			CommodityID: p.CommodityID.String(),
			Text:        p.Text,
		}
		if p.Date != "" {
			date, err := time.Parse(commentDateLayout, p.Date)
			if err != nil {
				return nil, fmt.Errorf("parse comment date %q: %w", p.Date, err)
			}
			rec.Date = date
		}
		data.Comments = append(data.Comments, rec)
	}

	return &data, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status: %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
