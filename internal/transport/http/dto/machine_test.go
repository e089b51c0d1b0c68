package dto

import (
	"encoding/json"
	"testing"

	"coffee_configurator/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineResponse_PriceIsNumber(t *testing.T) {
	tests := []struct {
		name  string
		price decimal.NullDecimal
		want  interface{}
	}{
		{
			name:  "valid price",
			price: decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
			want:  12.5,
		},
		{
			name:  "no price",
			price: decimal.NullDecimal{},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewMachineResponse(&models.CoffeeMachine{ID: 1, Name: "Classic", Price: tt.price})

			data, err := json.Marshal(resp)
			require.NoError(t, err)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &body))

			assert.Equal(t, tt.want, body["price"])
		})
	}
}

func TestOzonPriceResponse_PriceIsNumber(t *testing.T) {
	data, err := json.Marshal(OzonPriceResponse{
		ID:       3,
		OfferID:  "SKU-1",
		Price:    decimal.NewNullDecimal(decimal.RequireFromString("99990")),
		Currency: "RUB",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":3,"offer_id":"SKU-1","price":99990,"currency":"RUB"}`, string(data))
}
