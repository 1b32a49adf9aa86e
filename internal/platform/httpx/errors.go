package httpx

import (
	"errors"
	"net/http"

	"github.com/voltara-ev/voltara/internal/shared"
)

// RespondError maps domain error kinds to HTTP responses. Status selection is
// driven by errors.Is against the typed kinds, never by message matching.
func RespondError(w http.ResponseWriter, err error) {
	var inventory *shared.InsufficientInventoryError
	switch {
	case errors.As(err, &inventory):
		JSON(w, http.StatusConflict, ProblemDetail{
			Title:  "Insufficient Inventory",
			Status: http.StatusConflict,
			Detail: inventory.Error(),
			Meta: map[string]any{
				"available": inventory.Available,
				"pending":   inventory.Pending,
				"requested": inventory.Requested,
			},
		})
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusUnprocessableEntity, "Invalid State", err.Error())
	case errors.Is(err, shared.ErrExpired):
		Problem(w, http.StatusUnprocessableEntity, "Expired", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
