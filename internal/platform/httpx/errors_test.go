package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltara-ev/voltara/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get quotation: %w", shared.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("active quotation exists: %w", shared.ErrConflict), http.StatusConflict},
		{fmt.Errorf("send: %w", shared.ErrInvalidState), http.StatusUnprocessableEntity},
		{fmt.Errorf("accept: %w", shared.ErrExpired), http.StatusUnprocessableEntity},
		{fmt.Errorf("quantity: %w", shared.ErrValidation), http.StatusBadRequest},
		{shared.Internal("insert", fmt.Errorf("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, "err=%v", tc.err)
	}
}

func TestRespondErrorInsufficientInventoryCarriesQuantities(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("create line: %w", &shared.InsufficientInventoryError{
		VariantID: uuid.New(),
		ColorID:   uuid.New(),
		Available: 10,
		Pending:   8,
		Requested: 3,
	}))

	require.Equal(t, http.StatusConflict, rec.Code)
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, float64(10), problem.Meta["available"])
	assert.Equal(t, float64(8), problem.Meta["pending"])
	assert.Equal(t, float64(3), problem.Meta["requested"])
}
