package validation

import (
	"errors"
	"testing"

	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title   string               `json:"title" validate:"notblank"`
	Type    models.PaymentType   `json:"payment_type" validate:"payment_type"`
	Method  models.PaymentMethod `json:"payment_method" validate:"payment_method"`
	Status  models.JobStatus     `json:"status" validate:"job_status"`
	Amount  float64              `json:"amount" validate:"gte=0"`
	Ignored string               `json:"-"`
}

func TestStructAcceptsValidInput(t *testing.T) {
	err := Struct(sample{
		Title:  "Paint fence",
		Type:   models.PaymentDaily,
		Method: models.PaymentGCash,
		Status: models.JobClosed,
		Amount: 0,
	})
	assert.NoError(t, err)
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(sample{
		Title:  "   ",
		Type:   "Yearly",
		Method: "Card",
		Status: models.JobInProgress,
		Amount: -1,
	})
	require.Error(t, err)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindValidation, appErr.Kind)

	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"title":          "notblank",
		"payment_type":   "payment_type",
		"payment_method": "payment_method",
		"status":         "job_status",
		"amount":         "gte",
	}, details)
}
