package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type paymentRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Discount decimal.Decimal `json:"discount" validate:"gte=0"`
	Method   string          `json:"payment_method" validate:"required,oneof=cash check"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Lines    []line          `json:"items" validate:"dive"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	configure(v)
	return v
}

func TestDecimalTags(t *testing.T) {
	v := newValidator()

	ok := paymentRequest{Amount: decimal.RequireFromString("0.01"), Method: "cash"}
	assert.NoError(t, v.Struct(ok))

	zero := paymentRequest{Amount: decimal.Zero, Method: "cash"}
	errs := FieldErrors(v.Struct(zero))
	require.Contains(t, errs, "amount")

	negative := paymentRequest{Amount: decimal.NewFromInt(5), Discount: decimal.NewFromInt(-1), Method: "cash"}
	errs = FieldErrors(v.Struct(negative))
	assert.Equal(t, "must be greater than or equal to 0", errs["discount"])
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	v := newValidator()

	req := paymentRequest{
		Amount: decimal.NewFromInt(1),
		Method: "barter",
		Email:  "not-an-email",
		Lines:  []line{{Quantity: 1}, {Quantity: 0}},
	}
	errs := FieldErrors(v.Struct(req))

	assert.Equal(t, map[string]string{
		"payment_method":    "must be one of: cash check",
		"email":             "must be a valid email address",
		"items[1].quantity": "must be greater than 0",
	}, errs)
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
	assert.Nil(t, FieldErrors(nil))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
