package payment

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lyceum/core"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{amount: "0", want: 0},
		{amount: "25", want: 2500},
		{amount: "49.99", want: 4999},
		{amount: "12.345", want: 1235},
		{amount: "0.004", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestNewMonthlyFeeIntent_Validate(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		amount  string
		wantErr string
	}{
		{amount: "-1", wantErr: "amount must be greater than 0"},
		{amount: "0", wantErr: "amount must be greater than 0"},
		{amount: "0.004", wantErr: "amount must be at least 0.01"},
		{amount: "0.005"},
		{amount: "49.99"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			ni := NewMonthlyFeeIntent{Amount: decimal.RequireFromString(tt.amount), CourseID: "c1", UserID: "u1"}
			err := ni.Validate(validate)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, []core.FieldError{{Field: "amount", Error: tt.wantErr}}, verr.Fields)
			}
		})
	}
}
