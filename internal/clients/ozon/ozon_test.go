package ozon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coffee_configurator/internal/clients/ozon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOfferID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{name: "product slug", url: "https://www.ozon.ru/product/kofemashina-cm-100-123456789/", want: "123456789", wantOK: true},
		{name: "product with query", url: "https://www.ozon.ru/product/123456?sh=abc", want: "123456", wantOK: true},
		{name: "trailing digits", url: "https://example.com/items/987", want: "987", wantOK: true},
		{name: "no digits", url: "https://example.com/items/abc", wantOK: false},
		{name: "empty", url: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ozon.ExtractOfferID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_ProductByOfferID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/product/info/list", r.URL.Path)
		assert.Equal(t, "client", r.Header.Get("Client-Id"))
		assert.Equal(t, "key", r.Header.Get("Api-Key"))

		var body map[string][]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")

		switch body["offer_id"][0] {
		case "123":
			_, _ = w.Write([]byte(`{"items":[{"id":42,"offer_id":"123","name":"CM-100","price":"119990.0000","currency_code":""}]}`))
		case "404":
			_, _ = w.Write([]byte(`{"items":[]}`))
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`boom`))
		default:
			_, _ = w.Write([]byte(`{"code":7,"message":"invalid offer"}`))
		}
	}))
	defer srv.Close()

	client := ozon.New(srv.URL, "client", "key")
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		p, err := client.ProductByOfferID(ctx, "123")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, int64(42), p.ProductID)
		assert.Equal(t, "RUB", p.Currency)
		require.True(t, p.Price.Valid)
		assert.Equal(t, "119990", p.Price.Decimal.String())
	})

	t.Run("not found", func(t *testing.T) {
		p, err := client.ProductByOfferID(ctx, "404")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("http error", func(t *testing.T) {
		_, err := client.ProductByOfferID(ctx, "500")
		require.Error(t, err)
		assert.ErrorIs(t, err, ozon.ErrUpstream)
	})

	t.Run("unreachable", func(t *testing.T) {
		down := httptest.NewServer(http.NotFoundHandler())
		down.Close()

		_, err := ozon.New(down.URL, "client", "key").ProductByOfferID(ctx, "123")
		require.Error(t, err)
		assert.ErrorIs(t, err, ozon.ErrUpstream)
	})

	t.Run("business error", func(t *testing.T) {
		_, err := client.ProductByOfferID(ctx, "1")
		var be *ozon.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "7", be.Code)
	})

	t.Run("price by url without offer id", func(t *testing.T) {
		p, err := client.PriceByURL(ctx, "https://ozon.ru/product/no-id/")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("price by url", func(t *testing.T) {
		p, err := client.PriceByURL(ctx, "https://ozon.ru/product/cm-123/")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "123", p.OfferID)
	})
}
