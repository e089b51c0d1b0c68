package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadRequest_Normalize(t *testing.T) {
	req := LeadRequest{
		Name:     "  Ivan ",
		Phone:    " +7 900 ",
		Telegram: " @ivan\t",
		Email:    "   ",
	}

	req.Normalize()

	assert.Equal(t, "Ivan", req.Name)
	assert.Equal(t, "+7 900", req.Phone)
	assert.Equal(t, "@ivan", req.Telegram)
	assert.Empty(t, req.Email)
}
