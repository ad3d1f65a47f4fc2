package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type withdrawBody struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Reference string          `json:"reference" binding:"max=8"`
}

func TestSetupValidator_DecimalAndJSONNames(t *testing.T) {
	SetupValidator()

	err := binding.Validator.ValidateStruct(&withdrawBody{
		Amount:    decimal.RequireFromString("-1"),
		Reference: "much-too-long",
	})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 2)
	fields := map[string]string{}
	for _, d := range details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Must be greater than 0", fields["amount"])
	assert.Equal(t, "Must be at most 8 characters", fields["reference"])

	assert.NoError(t, binding.Validator.ValidateStruct(&withdrawBody{
		Amount:    decimal.RequireFromString("12.50"),
		Reference: "payout",
	}))
}

func TestValidationDetails_NotValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
}
