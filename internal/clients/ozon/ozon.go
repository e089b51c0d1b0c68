package ozon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api-seller.ozon.ru"

	productInfoPath = "/v3/product/info/list"
	defaultTimeout  = 30 * time.Second
	defaultCurrency = "RUB"
)

var (
	ErrNotConfigured = errors.New("ozon is not configured")
	ErrNoOfferID     = errors.New("offer id not found in url")
	// ErrUpstream — Ozon недоступен или ответил не 200
	ErrUpstream = errors.New("ozon upstream error")
)

var (
	productURLRe = regexp.MustCompile(`/product/[^/]*?(\d+)(?:[/?]|$)`)
	trailingIDRe = regexp.MustCompile(`(\d+)(?:[/?]|$)`)
)

// Product — краткая информация о товаре продавца
type Product struct {
	ProductID int64               `json:"product_id"`
	OfferID   string              `json:"offer_id"`
	Name      string              `json:"name"`
	Price     decimal.NullDecimal `json:"price"`
	Currency  string              `json:"currency"`
}

type productInfoRequest struct {
	OfferID   []string `json:"offer_id"`
	ProductID []int64  `json:"product_id"`
	SKU       []int64  `json:"sku"`
}

type productInfoResponse struct {
	Code    json.RawMessage `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Items   []struct {
		ID           int64               `json:"id"`
		OfferID      string              `json:"offer_id"`
		Name         string              `json:"name"`
		Price        decimal.NullDecimal `json:"price"`
		CurrencyCode string              `json:"currency_code"`
	} `json:"items"`
}

// BusinessError — ответ Ozon с ненулевым code
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("ozon business error %s: %s", e.Code, e.Message)
}

type Client struct {
	http *resty.Client
}

func New(baseURL, clientID, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetHeader("Client-Id", clientID).
		SetHeader("Api-Key", apiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{http: client}
}

// ExtractOfferID достаёт артикул из ссылки на товар.
func ExtractOfferID(url string) (string, bool) {
	if url == "" {
		return "", false
	}

	m := productURLRe.FindStringSubmatch(url)
	if m == nil {
		m = trailingIDRe.FindStringSubmatch(url)
	}
	if m == nil {
		return "", false
	}

	id := strings.TrimSpace(m[1])

	return id, id != ""
}

// ProductByOfferID возвращает товар по артикулу или nil, если его нет.
func (c *Client) ProductByOfferID(ctx context.Context, offerID string) (*Product, error) {
	const op = "clients.ozon.ProductByOfferID"

	var result productInfoResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(productInfoRequest{
			OfferID:   []string{offerID},
			ProductID: []int64{},
			SKU:       []int64{},
		}).
		SetResult(&result).
		Post(productInfoPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: http %d: %s", op, ErrUpstream, resp.StatusCode(), resp.String())
	}

	if code := businessCode(result.Code); code != "" {
		return nil, fmt.Errorf("%s: %w", op, &BusinessError{Code: code, Message: result.Message})
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	item := result.Items[0]

	currency := item.CurrencyCode
	if currency == "" {
		currency = defaultCurrency
	}

	return &Product{
		ProductID: item.ID,
		OfferID:   item.OfferID,
		Name:      item.Name,
		Price:     item.Price,
		Currency:  currency,
	}, nil
}

// PriceByURL находит товар по ссылке; nil без ошибки, если артикул не найден.
func (c *Client) PriceByURL(ctx context.Context, url string) (*Product, error) {
	offerID, ok := ExtractOfferID(url)
	if !ok {
		return nil, nil
	}

	return c.ProductByOfferID(ctx, offerID)
}

// businessCode возвращает code ответа, если он отличен от 0.
func businessCode(raw json.RawMessage) string {
	code := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if code == "" || code == "0" || code == "null" {
		return ""
	}

	return code
}
